package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/canvasflow/canvasflow/api/handlers"
	"github.com/canvasflow/canvasflow/config"
	"github.com/canvasflow/canvasflow/confirm"
	"github.com/canvasflow/canvasflow/engine"
	"github.com/canvasflow/canvasflow/executors"
	"github.com/canvasflow/canvasflow/internal/metrics"
	"github.com/canvasflow/canvasflow/internal/server"
	"github.com/canvasflow/canvasflow/internal/telemetry"
	"github.com/canvasflow/canvasflow/store"
)

// Server owns every collaborator of a running CanvasFlow instance.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	store     *store.Store
	runner    *engine.StreamingRunner
	resolver  confirm.Resolver
	collector *metrics.Collector
	providers *telemetry.Providers

	httpManager    *server.Manager
	metricsManager *server.Manager
	redisClient    *redis.Client

	rateLimiterCancel context.CancelFunc
}

// NewServer wires store, resolver, executors, engine and handlers from the
// loaded config.
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	s := &Server{cfg: cfg, logger: logger}

	providers, err := telemetry.Init(cfg.Telemetry, Version, logger)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}
	s.providers = providers

	s.collector = metrics.NewCollector("canvasflow", prometheus.DefaultRegisterer, logger)

	st, err := store.Open(store.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	s.store = st

	resolver, err := s.buildResolver()
	if err != nil {
		return nil, err
	}
	s.resolver = resolver

	registry := engine.NewRegistry(logger)
	executors.RegisterBuiltins(registry, executors.Deps{
		DB:         st.DB(),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	})
	s.wrapSideEffectExecutors(registry)

	scheduler := engine.NewScheduler(registry, logger, engine.WithMetrics(s.collector))

	gateOpts := []engine.ConfirmGateOption{engine.WithConfirmMetrics(s.collector)}
	if cfg.Engine.ConfirmTimeout > 0 {
		gateOpts = append(gateOpts, engine.WithConfirmTimeout(cfg.Engine.ConfirmTimeout))
	}
	gate := engine.NewConfirmGate(resolver, logger, gateOpts...)

	s.runner = engine.NewStreamingRunner(scheduler, logger,
		engine.WithQueueCapacity(cfg.Engine.QueueCapacity),
		engine.WithConfirmGate(gate),
		engine.WithStreamMetrics(s.collector),
		engine.WithRunRecorder(st),
	)

	return s, nil
}

func (s *Server) buildResolver() (confirm.Resolver, error) {
	switch s.cfg.Engine.ConfirmResolver {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:         s.cfg.Redis.Addr,
			Password:     s.cfg.Redis.Password,
			DB:           s.cfg.Redis.DB,
			PoolSize:     s.cfg.Redis.PoolSize,
			MinIdleConns: s.cfg.Redis.MinIdleConns,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis %s: %w", s.cfg.Redis.Addr, err)
		}
		s.redisClient = client
		s.logger.Info("using redis confirm resolver", zap.String("addr", s.cfg.Redis.Addr))
		return confirm.NewRedisResolver(client, s.logger), nil
	default:
		s.logger.Info("using in-memory confirm resolver")
		return confirm.NewMemoryResolver(s.logger), nil
	}
}

// wrapSideEffectExecutors applies the configured rate limit to executors
// whose node types perform side effects.
func (s *Server) wrapSideEffectExecutors(registry *engine.Registry) {
	rps := s.cfg.Engine.ExecutorRPS
	if rps <= 0 {
		return
	}
	burst := s.cfg.Engine.ExecutorBurst
	if burst <= 0 {
		burst = 1
	}
	for _, nodeType := range registry.Types() {
		if !engine.IsSideEffectType(nodeType) {
			continue
		}
		if ex, ok := registry.Get(nodeType); ok {
			registry.Register(nodeType, engine.NewRateLimitedExecutor(ex, rps, burst))
		}
	}
	s.logger.Info("side-effect executors rate limited",
		zap.Float64("rps", rps),
		zap.Int("burst", burst),
	)
}

func (s *Server) routes() http.Handler {
	wh := handlers.NewWorkflowHandler(s.store, s.runner, s.logger)
	ch := handlers.NewConfirmHandler(s.resolver, s.logger)
	hh := handlers.NewHealthHandler(nil, s.logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", hh.HandleHealth)
	mux.HandleFunc("GET /ready", hh.HandleReady)
	mux.HandleFunc("GET /version", hh.HandleVersion(Version))

	mux.HandleFunc("POST /api/v1/workflows", wh.HandleCreate)
	mux.HandleFunc("GET /api/v1/workflows", wh.HandleList)
	mux.HandleFunc("GET /api/v1/workflows/{id}", wh.HandleGet)
	mux.HandleFunc("DELETE /api/v1/workflows/{id}", wh.HandleDelete)
	mux.HandleFunc("GET /api/v1/workflows/{id}/runs", wh.HandleListRuns)
	mux.HandleFunc("POST /api/v1/runs", wh.HandleRun)
	mux.HandleFunc("GET /api/v1/runs/{id}", wh.HandleGetRun)
	mux.HandleFunc("POST /api/v1/confirmations", ch.HandleResolve)

	rateLimiterCtx, cancel := context.WithCancel(context.Background())
	s.rateLimiterCancel = cancel

	return Chain(mux,
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		OTelTracing(),
		MetricsMiddleware(s.collector),
		CORS(s.cfg.Server.CORSOrigins),
		RateLimiter(rateLimiterCtx, s.cfg.Server.RateLimitRPS, s.cfg.Server.RateLimitBurst, s.logger),
	)
}

// Run starts the HTTP and metrics servers and blocks until a shutdown
// signal or a server failure.
func (s *Server) Run() error {
	s.httpManager = server.NewManager(s.routes(), server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     120 * time.Second,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}, s.logger)
	if err := s.httpManager.Start(); err != nil {
		return err
	}
	s.logger.Info("HTTP server started", zap.Int("port", s.cfg.Server.HTTPPort))

	if s.cfg.Server.MetricsPort > 0 {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		s.metricsManager = server.NewManager(metricsMux, server.Config{
			Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
			ReadTimeout:     s.cfg.Server.ReadTimeout,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
		}, s.logger)
		if err := s.metricsManager.Start(); err != nil {
			return err
		}
		s.logger.Info("metrics server started", zap.Int("port", s.cfg.Server.MetricsPort))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-s.httpManager.Errors():
		s.logger.Error("HTTP server failed", zap.Error(err))
	}

	return s.shutdown()
}

func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.httpManager.Shutdown(ctx) })
	if s.metricsManager != nil {
		g.Go(func() error { return s.metricsManager.Shutdown(ctx) })
	}
	err := g.Wait()

	if s.redisClient != nil {
		if cerr := s.redisClient.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if cerr := s.store.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if cerr := s.providers.Shutdown(context.Background()); cerr != nil && err == nil {
		err = cerr
	}

	s.logger.Info("server stopped")
	return err
}
