package engine

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// TemplateResolver renders {dotted.path[0].segments} placeholders inside a
// node's configuration tree before dispatch. The variable scope is input1,
// input2, ... (the selected upstream inputs in order), initial_input, and
// context. A placeholder whose path cannot be resolved is left verbatim in
// the output string; resolution never fails a run.
type TemplateResolver struct {
	logger *zap.Logger
}

// NewTemplateResolver creates a template resolver. A nil logger falls back
// to a no-op logger.
func NewTemplateResolver(logger *zap.Logger) *TemplateResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateResolver{
		logger: logger.With(zap.String("component", "template_resolver")),
	}
}

// placeholderRe matches a {path} token: identifier segments separated by
// dots, each optionally followed by [n] index suffixes.
var placeholderRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*(?:\[[0-9]+\])*(?:\.[A-Za-z_][A-Za-z0-9_]*(?:\[[0-9]+\])*)*)\}`)

// Render returns a copy of config with every string leaf rendered against
// the given inputs, initial input, and context. Non-string leaves without
// placeholders pass through unchanged. The original config is not mutated.
func (r *TemplateResolver) Render(config map[string]any, inputs []NodeInput, initialInput any, runContext map[string]any) map[string]any {
	if config == nil {
		return nil
	}
	scope := buildTemplateScope(inputs, initialInput, runContext)
	rendered := make(map[string]any, len(config))
	for k, v := range config {
		rendered[k] = r.renderValue(v, scope)
	}
	return rendered
}

// RenderString renders placeholders in a single string against the same
// scope Render uses. Executors use it for config fields they assemble late.
func (r *TemplateResolver) RenderString(s string, inputs []NodeInput, initialInput any, runContext map[string]any) string {
	return r.renderString(s, buildTemplateScope(inputs, initialInput, runContext))
}

func buildTemplateScope(inputs []NodeInput, initialInput any, runContext map[string]any) map[string]any {
	scope := make(map[string]any, len(inputs)+2)
	for i, in := range inputs {
		scope[fmt.Sprintf("input%d", i+1)] = in.Value
	}
	scope["initial_input"] = initialInput
	if runContext == nil {
		runContext = map[string]any{}
	}
	scope["context"] = runContext
	return scope
}

func (r *TemplateResolver) renderValue(v any, scope map[string]any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = r.renderValue(item, scope)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = r.renderValue(item, scope)
		}
		return out
	case string:
		return r.renderString(val, scope)
	default:
		return v
	}
}

func (r *TemplateResolver) renderString(s string, scope map[string]any) string {
	if !strings.Contains(s, "{") {
		return s
	}
	return placeholderRe.ReplaceAllStringFunc(s, func(match string) string {
		path := match[1 : len(match)-1]
		value, ok := resolvePath(scope, path)
		if !ok {
			// Unresolved placeholders stay verbatim.
			return match
		}
		return stringify(value)
	})
}

// resolvePath walks dotted segments and [n] index suffixes through nested
// maps and lists. Any missing key, wrong-typed container, or out-of-range
// index resolves to nothing.
func resolvePath(scope map[string]any, path string) (any, bool) {
	var current any = scope
	for _, segment := range strings.Split(path, ".") {
		key, indexes, ok := splitIndexes(segment)
		if !ok {
			return nil, false
		}
		if key != "" {
			m, ok := current.(map[string]any)
			if !ok {
				return nil, false
			}
			current, ok = m[key]
			if !ok {
				return nil, false
			}
		}
		for _, idx := range indexes {
			list, ok := current.([]any)
			if !ok || idx < 0 || idx >= len(list) {
				return nil, false
			}
			current = list[idx]
		}
	}
	return current, true
}

// splitIndexes splits a path segment like "items[0][1]" into its key and
// integer indexes.
func splitIndexes(segment string) (key string, indexes []int, ok bool) {
	open := strings.IndexByte(segment, '[')
	if open < 0 {
		return segment, nil, true
	}
	key = segment[:open]
	rest := segment[open:]
	for len(rest) > 0 {
		if rest[0] != '[' {
			return "", nil, false
		}
		close := strings.IndexByte(rest, ']')
		if close < 0 {
			return "", nil, false
		}
		idx, err := strconv.Atoi(rest[1:close])
		if err != nil {
			return "", nil, false
		}
		indexes = append(indexes, idx)
		rest = rest[close+1:]
	}
	return key, indexes, true
}

// stringify converts a resolved value for interpolation into a string
// context: maps and lists are JSON-encoded, scalars use their natural string
// form.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case map[string]any, []any:
		encoded, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(encoded)
	default:
		return fmt.Sprintf("%v", val)
	}
}
