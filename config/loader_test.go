package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 1000, cfg.Engine.QueueCapacity)
	assert.Equal(t, "memory", cfg.Engine.ConfirmResolver)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Telemetry.Enabled)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  http_port: 9000
engine:
  queue_capacity: 64
  confirm_resolver: redis
  confirm_timeout: 30s
redis:
  addr: redis:6379
database:
  driver: postgres
  dsn: host=db user=cf dbname=cf
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.HTTPPort)
	assert.Equal(t, 64, cfg.Engine.QueueCapacity)
	assert.Equal(t, "redis", cfg.Engine.ConfirmResolver)
	assert.Equal(t, 30*time.Second, cfg.Engine.ConfirmTimeout)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	// untouched sections keep defaults
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath("/nonexistent/config.yaml").Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  http_port: 9000\n"), 0o600))

	t.Setenv("CANVASFLOW_SERVER_HTTP_PORT", "7777")
	t.Setenv("CANVASFLOW_ENGINE_CONFIRM_TIMEOUT", "45s")
	t.Setenv("CANVASFLOW_LOG_OUTPUT_PATHS", "stdout, /var/log/canvasflow.log")
	t.Setenv("CANVASFLOW_TELEMETRY_ENABLED", "true")

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Server.HTTPPort)
	assert.Equal(t, 45*time.Second, cfg.Engine.ConfirmTimeout)
	assert.Equal(t, []string{"stdout", "/var/log/canvasflow.log"}, cfg.Log.OutputPaths)
	assert.True(t, cfg.Telemetry.Enabled)
}

func TestLoad_CustomEnvPrefix(t *testing.T) {
	t.Setenv("CF_SERVER_HTTP_PORT", "6060")

	cfg, err := NewLoader().WithEnvPrefix("CF").Load()
	require.NoError(t, err)
	assert.Equal(t, 6060, cfg.Server.HTTPPort)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{"CANVASFLOW_SERVER_HTTP_PORT": "99999"}},
		{"bad driver", map[string]string{"CANVASFLOW_DATABASE_DRIVER": "oracle"}},
		{"bad resolver", map[string]string{"CANVASFLOW_ENGINE_CONFIRM_RESOLVER": "carrier-pigeon"}},
		{"bad log level", map[string]string{"CANVASFLOW_LOG_LEVEL": "loud"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := NewLoader().Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_RedisResolverRequiresAddr(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "engine:\n  confirm_resolver: redis\nredis:\n  addr: \"\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := NewLoader().WithConfigPath(path).Load()
	assert.Error(t, err)
}

func TestLoad_CustomValidator(t *testing.T) {
	_, err := NewLoader().WithValidator(func(c *Config) error {
		return assert.AnError
	}).Load()
	assert.Error(t, err)
}
