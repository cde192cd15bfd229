// Package main is the entry point of the mentorship engine API server.
//
// It wires the storage backend (PostgreSQL or in-memory), the optional Redis
// profile cache, the in-process event bus, the application services and the
// REST API, then serves until SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mentorship-hub/mentorship-engine/config"
	"github.com/mentorship-hub/mentorship-engine/internal/application/command"
	"github.com/mentorship-hub/mentorship-engine/internal/application/identity"
	"github.com/mentorship-hub/mentorship-engine/internal/application/query"
	"github.com/mentorship-hub/mentorship-engine/internal/domain/mentorship"
	"github.com/mentorship-hub/mentorship-engine/internal/domain/shared"
	"github.com/mentorship-hub/mentorship-engine/internal/infrastructure/messaging"
	"github.com/mentorship-hub/mentorship-engine/internal/infrastructure/persistence/memory"
	"github.com/mentorship-hub/mentorship-engine/internal/infrastructure/persistence/postgres"
	"github.com/mentorship-hub/mentorship-engine/internal/infrastructure/persistence/redis"
	apihttp "github.com/mentorship-hub/mentorship-engine/internal/interface/http"
	"github.com/mentorship-hub/mentorship-engine/internal/interface/http/health"
	"github.com/mentorship-hub/mentorship-engine/pkg/circuitbreaker"
	"github.com/mentorship-hub/mentorship-engine/pkg/logger"
	"github.com/mentorship-hub/mentorship-engine/pkg/retry"
	"github.com/mentorship-hub/mentorship-engine/pkg/timeutil"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		Console:   cfg.Observability.LogFormat == "console",
		AddCaller: cfg.IsDevelopment(),
		Service:   cfg.App.Name,
	})
	log.Info("starting",
		logger.String("version", cfg.App.Version),
		logger.String("env", string(cfg.App.Environment)),
		logger.String("storage", cfg.Storage.Driver),
	)

	checks := health.NewComposite(cfg.App.Version, 2*time.Second)

	// ─────────────────────────────────────────────────────────────────────────
	// Storage
	// ─────────────────────────────────────────────────────────────────────────

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()
	if pg, ok := store.(*postgres.Store); ok {
		defer func() {
			st := pg.Stats()
			log.Info("database pool at shutdown",
				logger.Int("total", int(st.TotalConns)),
				logger.Int("acquired", int(st.AcquiredConns)),
				logger.Int("max", int(st.MaxConns)),
			)
		}()
	}
	checks.AddCheck("store", health.PingCheck(store))

	if cfg.Redis.Enabled {
		cache, err := redis.NewCache(ctx, redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			KeyPrefix:    cfg.Redis.KeyPrefix,
			ProfileTTL:   cfg.Redis.ProfileTTL,
		})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer func() { _ = cache.Close() }()

		breaker := redis.NewCacheBreaker(log,
			circuitbreaker.WithFailureThreshold(cfg.Redis.BreakerThreshold),
			circuitbreaker.WithTimeout(cfg.Redis.BreakerCooldown),
		)
		store = redis.WithProfileCache(store, cache, breaker, log)
		checks.AddCheck("cache", health.PingCheck(cache))
		log.Info("profile cache enabled", logger.Duration("ttl", cfg.Redis.ProfileTTL))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Events
	// ─────────────────────────────────────────────────────────────────────────

	bus := messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{
		AsyncMode:      cfg.Events.Async,
		WorkerPoolSize: cfg.Events.Workers,
		Logger:         log,
	})
	defer func() {
		if err := bus.Close(); err != nil && !errors.Is(err, messaging.ErrEventBusClosed) {
			log.Warn("event bus close failed", logger.Err(err))
		}
		m := bus.Metrics()
		log.Info("event bus drained",
			logger.Int64("published", m.TotalPublished),
			logger.Int64("handler_failures", m.HandlerFailures),
		)
	}()
	if err := messaging.NewAuditLogger(log).Register(bus); err != nil {
		return fmt.Errorf("register audit logger: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Application
	// ─────────────────────────────────────────────────────────────────────────

	clock := timeutil.RealClock{}
	opts := command.Options{
		Publisher: bus,
		Retrier:   retry.StorageRetrier(shared.IsRetryable, cfg.Storage.RetryBackoff),
		Clock:     clock,
		Logger:    log,
	}
	sessionQueries := query.NewSessionQueries(store, clock, cfg.Matching.NewRequestWindow)

	server := apihttp.NewServer(apihttp.Config{
		Host:               cfg.HTTP.Host,
		Port:               cfg.HTTP.Port,
		ReadTimeout:        cfg.HTTP.ReadTimeout,
		WriteTimeout:       cfg.HTTP.WriteTimeout,
		IdleTimeout:        cfg.HTTP.IdleTimeout,
		RequestTimeout:     cfg.HTTP.RequestTimeout,
		MaxBodyBytes:       cfg.HTTP.MaxBodyBytes,
		EnableCORS:         cfg.HTTP.EnableCORS,
		AllowedOrigins:     cfg.HTTP.AllowedOrigins,
		RateLimitPerMinute: cfg.HTTP.RateLimitPerMinute,
		Version:            cfg.App.Version,
	}, apihttp.Dependencies{
		Profiles:       command.NewProfileService(store, opts),
		Pairings:       command.NewPairingRegistry(store, opts),
		Sessions:       command.NewSessionLifecycle(store, opts),
		ProfileQueries: query.NewProfileQueries(store.Profiles()),
		Ranking:        query.NewRankMentorsHandler(store.Profiles(), cfg.Matching.DefaultLimit),
		PairingQueries: query.NewPairingQueries(store.Pairings()),
		SessionQueries: sessionQueries,
		Dashboard:      query.NewDashboardHandler(store, sessionQueries),
		Resolver:       identity.NewResolver(store.Profiles()),
		Health:         checks,
		Logger:         log,
	})

	// ─────────────────────────────────────────────────────────────────────────
	// Serve
	// ─────────────────────────────────────────────────────────────────────────

	errCh := server.StartAsync()

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			return err
		}
		return nil
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("stopped")
	return nil
}

// openStore connects the configured backend and applies migrations.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (mentorship.Store, error) {
	if cfg.Storage.Driver == config.DriverMemory {
		log.Warn("using in-memory storage; data is lost on restart")
		return memory.NewStore(), nil
	}

	pgCfg := postgres.DefaultConfig()
	pgCfg.URL = cfg.Database.URL
	pgCfg.MaxConns = int32(cfg.Database.MaxConns)
	pgCfg.MinConns = int32(cfg.Database.MinConns)
	pgCfg.MaxConnLifetime = cfg.Database.MaxConnLifetime
	pgCfg.MaxConnIdleTime = cfg.Database.MaxConnIdleTime
	pgCfg.OperationTimeout = cfg.Database.OperationTimeout

	conn, err := postgres.NewConnection(ctx, pgCfg)
	if err != nil {
		return nil, err
	}

	if cfg.Database.AutoMigrate {
		if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
			conn.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return postgres.NewStore(conn), nil
}
