package config

import (
	"time"

	"github.com/canvasflow/canvasflow/engine"
)

// DefaultConfig returns the configuration used when no file or environment
// overrides are present.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    0, // streaming responses must not be cut off
			ShutdownTimeout: 15 * time.Second,
			RateLimitRPS:    100,
			RateLimitBurst:  200,
			MetricsPort:     9091,
		},
		Engine: EngineConfig{
			QueueCapacity:   engine.DefaultQueueCapacity,
			ConfirmTimeout:  0,
			ConfirmResolver: "memory",
			ExecutorRPS:     0,
			ExecutorBurst:   1,
		},
		Database: DatabaseConfig{
			Driver:          "sqlite",
			DSN:             "canvasflow.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 10 * time.Minute,
		},
		Redis: RedisConfig{
			Addr:         "localhost:6379",
			DB:           0,
			PoolSize:     10,
			MinIdleConns: 2,
		},
		Log: LogConfig{
			Level:            "info",
			Format:           "json",
			OutputPaths:      []string{"stdout"},
			EnableCaller:     true,
			EnableStacktrace: false,
		},
		Telemetry: TelemetryConfig{
			Enabled:      false,
			OTLPEndpoint: "localhost:4317",
			ServiceName:  "canvasflow",
			SampleRate:   1.0,
		},
	}
}
