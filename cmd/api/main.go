package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carmarket_backend/internal/demandgaps"
	"carmarket_backend/internal/email"
	"carmarket_backend/internal/enquiries"
	"carmarket_backend/internal/events"
	"carmarket_backend/internal/fitscore"
	apphttp "carmarket_backend/internal/http"
	"carmarket_backend/internal/http/router"
	"carmarket_backend/internal/marketsignals"
	"carmarket_backend/internal/marketsignals/signals"
	"carmarket_backend/internal/notification"
	"carmarket_backend/internal/scheduler"
	"carmarket_backend/migrations"
	"carmarket_backend/platform/cache"
	"carmarket_backend/platform/config"
	"carmarket_backend/platform/db"
	"carmarket_backend/platform/logger"
	"carmarket_backend/platform/metrics"
	"carmarket_backend/platform/phone"
	"carmarket_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if cfg.RunMigrations {
		if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
			return db.RunMigrations(ctx, pool, migrations.FS, log)
		}); err != nil {
			log.Error("failed to run database migrations", "error", err)
			panic("failed to run database migrations: " + err.Error())
		}
		log.Info("database migrations complete")
	}

	profileCache, err := cache.NewRedis(ctx, cfg, "carmarket")
	if err != nil {
		// Fit scores are served straight from Postgres without the cache.
		log.Warn("profile cache unavailable, continuing without it", "error", err)
		profileCache = cache.Noop{}
	}

	rules, err := signals.LoadRules(cfg.GetMarketSignalRulesFile())
	if err != nil {
		log.Error("failed to load market signal rules", "error", err)
		panic("failed to load market signal rules: " + err.Error())
	}

	m := metrics.New()
	eventBus := events.NewInMemoryBus(log)
	val := validator.New()
	phones := phone.NewNormalizer(cfg.GetPhoneDefaultRegion())

	taskClient, closeTaskClient := initTaskClient(cfg, log)
	if closeTaskClient != nil {
		defer closeTaskClient()
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Notification module subscribes to domain events and serves the dealer stream
	notificationModule := notification.New(email.NewSender(cfg), log)
	notificationModule.RegisterHandlers(eventBus)

	enquiriesModule := enquiries.NewModule(pool, eventBus, val, log, m)
	if taskClient != nil {
		enquiriesModule.Service().SetTaskEnqueuer(taskClient)
	}

	fitScoreModule := fitscore.NewModule(pool, profileCache, cfg.GetProfileCacheTTL(), val, log, m)
	marketSignalsModule := marketsignals.NewModule(pool, rules, cfg.GetMarketSignalTTL(), eventBus, val, log, m)
	demandGapsModule := demandgaps.NewModule(pool, phones, eventBus, val, log, m)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:  cfg,
		Logger:  log,
		Health:  pool,
		Metrics: m,
		Modules: []apphttp.Module{
			enquiriesModule,
			fitScoreModule,
			marketSignalsModule,
			demandGapsModule,
			notificationModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
		close(srvErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}

	// Let in-flight event handlers finish their emails and stream pushes.
	eventBus.Wait()
	if closer, ok := profileCache.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	log.Info("server stopped")
}

func initTaskClient(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; async lead enrichment disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize task client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
