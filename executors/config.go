package executors

import (
	"fmt"
	"strconv"
	"time"
)

// stringOption reads an optional string config value.
func stringOption(config map[string]any, key, fallback string) string {
	v, ok := config[key]
	if !ok {
		return fallback
	}
	s, ok := v.(string)
	if !ok {
		return fallback
	}
	return s
}

// requireString reads a mandatory string config value.
func requireString(config map[string]any, key string) (string, error) {
	v, ok := config[key]
	if !ok {
		return "", fmt.Errorf("missing required config %q", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("config %q must be a non-empty string", key)
	}
	return s, nil
}

// durationOption reads a duration given either as a Go duration string
// ("500ms", "2s") or as a number of seconds.
func durationOption(config map[string]any, key string, fallback time.Duration) (time.Duration, error) {
	v, ok := config[key]
	if !ok {
		return fallback, nil
	}
	switch t := v.(type) {
	case string:
		if d, err := time.ParseDuration(t); err == nil {
			return d, nil
		}
		if secs, err := strconv.ParseFloat(t, 64); err == nil {
			return time.Duration(secs * float64(time.Second)), nil
		}
		return 0, fmt.Errorf("config %q: cannot parse duration %q", key, t)
	case float64:
		return time.Duration(t * float64(time.Second)), nil
	case int:
		return time.Duration(t) * time.Second, nil
	default:
		return 0, fmt.Errorf("config %q: unsupported duration type %T", key, v)
	}
}
