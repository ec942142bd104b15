package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carmarket_backend/internal/email"
	"carmarket_backend/internal/enquiries"
	"carmarket_backend/internal/events"
	"carmarket_backend/internal/marketsignals"
	"carmarket_backend/internal/marketsignals/signals"
	"carmarket_backend/internal/notification"
	"carmarket_backend/internal/scheduler"
	"carmarket_backend/platform/config"
	"carmarket_backend/platform/db"
	"carmarket_backend/platform/logger"
	"carmarket_backend/platform/metrics"
	"carmarket_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	rules, err := signals.LoadRules(cfg.GetMarketSignalRulesFile())
	if err != nil {
		log.Error("failed to load market signal rules", "error", err)
		panic("failed to load market signal rules: " + err.Error())
	}

	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	notificationModule := notification.New(email.NewSender(cfg), log)
	notificationModule.RegisterHandlers(eventBus)

	// Worker-side scoring wiring (no HTTP handlers required).
	val := validator.New()
	m := metrics.New()
	enquiriesModule := enquiries.NewModule(pool, eventBus, val, log, m)
	marketSignalsModule := marketsignals.NewModule(pool, rules, cfg.GetMarketSignalTTL(), eventBus, val, log, m)

	periodic, err := scheduler.NewPeriodic(cfg, cfg, log)
	if err != nil {
		log.Error("failed to initialize periodic scheduler", "error", err)
		panic("failed to initialize periodic scheduler: " + err.Error())
	}
	go periodic.Run(ctx)

	retention := scheduler.NewSignalRetention(marketSignalsModule.Service(), log, cfg.GetMarketSignalCleanupInterval())
	go retention.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, enquiriesModule.Service(), marketSignalsModule.Service(), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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
