package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sifan077/shorty/config"
	appmodel "github.com/sifan077/shorty/internal/app/model"
	apprepository "github.com/sifan077/shorty/internal/app/repository"
	appserver "github.com/sifan077/shorty/internal/app/server"
	appservice "github.com/sifan077/shorty/internal/app/service"
	"github.com/sifan077/shorty/internal/http/middleware"
	"github.com/sifan077/shorty/internal/infra/logger"
	infraNATS "github.com/sifan077/shorty/internal/infra/nats"
	infraPostgres "github.com/sifan077/shorty/internal/infra/postgres"
	infraPrometheus "github.com/sifan077/shorty/internal/infra/prometheus"
	infraRedis "github.com/sifan077/shorty/internal/infra/redis"
	"go.uber.org/zap"
)

const (
	seedTimeout            = 30 * time.Second
	bootstrapRetryInterval = 2 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		// The logger is not configured yet.
		logger.L().Fatal("Failed to load config", zap.Error(err))
	}

	log := logger.MustInit(logger.Config{
		Development: cfg.App.IsDevelopment(),
		Level:       cfg.App.LogLevel,
		File:        cfg.App.LogFile,
	})
	defer func() { _ = logger.Sync() }()

	log.Info("Configuration loaded successfully",
		zap.String("env", cfg.App.Env),
		zap.String("addr", cfg.Server.Addr),
		zap.String("base_url", cfg.Server.BaseURL),
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.Int("postgres_port", cfg.Postgres.Port),
		zap.String("postgres_db", cfg.Postgres.Database),
		zap.Bool("redis_enabled", cfg.Redis.Enabled),
		zap.Bool("nats_enabled", cfg.NATS.Enabled),
		zap.Bool("prometheus_enabled", cfg.Prometheus.Enabled),
	)

	pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to configure Postgres pool", zap.Error(err))
	}
	defer pool.Close()

	store := apprepository.NewMappingRepository(pool)

	gormDB, err := infraPostgres.NewGorm(cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to open GORM connection", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatal("Failed to access underlying SQL DB", zap.Error(err))
	}
	defer sqlDB.Close()
	visits := apprepository.NewVisitRepository(gormDB)

	mappings := store
	var limiter middleware.RateLimitStore
	if cfg.Redis.Enabled {
		redisClient, err := infraRedis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		log.Info("Connected to Redis successfully")

		mappings = apprepository.NewCachedMappingRepository(store, redisClient, cfg.Redis.CacheTTL, log)
		limiter = redisClient
	}

	registry := infraPrometheus.NewRegistry()
	metrics := infraPrometheus.NewMetrics(registry)
	if cfg.Prometheus.Enabled {
		promServer := infraPrometheus.NewServer(cfg.Prometheus, registry)
		go func() {
			log.Info("Starting Prometheus metrics server", zap.Int("port", cfg.Prometheus.Port))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	}

	var codeOpts []appservice.CodeGeneratorOption
	if cfg.Shorten.BloomCapacity > 0 {
		codeOpts = append(codeOpts, appservice.WithBloomFilter(cfg.Shorten.BloomCapacity, cfg.Shorten.BloomFPRate))
	}
	codes := appservice.NewCodeGenerator(cfg.Shorten.CodeBytes, codeOpts...)

	// Schema work runs in the background so /health answers while Postgres
	// is still unreachable; /ready stays 503 until the store responds.
	steps := []infraPostgres.Step{
		{Name: "ensure urls table", Run: store.EnsureSchema},
		{Name: "migrate url_visits", Run: func(ctx context.Context) error {
			return infraPostgres.AutoMigrate(ctx, gormDB, &appmodel.VisitEvent{})
		}},
	}
	if cfg.Shorten.BloomCapacity > 0 && cfg.Shorten.BloomSeed {
		steps = append(steps, infraPostgres.Step{Name: "seed short code filter", Run: func(ctx context.Context) error {
			seedCtx, cancel := context.WithTimeout(ctx, seedTimeout)
			defer cancel()
			n, err := codes.Seed(seedCtx, store)
			if err != nil {
				return err
			}
			log.Info("Seeded short code filter", zap.Int("codes", n))
			return nil
		}})
	}
	go func() {
		if err := infraPostgres.Bootstrap(ctx, log, bootstrapRetryInterval, steps...); err != nil {
			log.Warn("Database bootstrap abandoned", zap.Error(err))
		}
	}()

	var events appservice.VisitPublisher
	var consumer *appservice.VisitConsumer
	if cfg.NATS.Enabled {
		natsConn, js, err := infraNATS.Connect(cfg.NATS, log)
		if err != nil {
			log.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer natsConn.Drain()
		log.Info("Connected to NATS successfully")

		consumer = appservice.NewVisitConsumer(js, log, visits)
		if err := consumer.Start(ctx); err != nil {
			log.Fatal("Failed to start visit consumer", zap.Error(err))
		}
		events = appservice.NewNATSVisitPublisher(js)
	}

	shortener := appservice.NewShortener(appservice.ShortenerDeps{
		Logger:      log,
		Mappings:    mappings,
		Visits:      visits,
		Codes:       codes,
		Events:      events,
		Metrics:     metrics,
		MaxAttempts: cfg.Shorten.MaxAttempts,
	})

	server, err := appserver.New(appserver.Dependencies{
		Logger:    log,
		Server:    cfg.Server,
		RateLimit: cfg.RateLimit,
		Mappings:  mappings,
		Shortener: shortener,
		Metrics:   metrics,
		Limiter:   limiter,
	})
	if err != nil {
		log.Fatal("Failed to build HTTP server", zap.Error(err))
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server running", zap.String("addr", cfg.Server.Addr))
		serveErr <- server.Listen(cfg.Server.Addr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			log.Error("Fiber server exited", zap.Error(err))
		}
	case <-ctx.Done():
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("Graceful shutdown failed", zap.Error(err))
		}
	}

	if consumer != nil {
		stop()
		<-consumer.Done()
	}
}
