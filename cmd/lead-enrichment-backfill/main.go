package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carmarket_backend/internal/enquiries"
	"carmarket_backend/platform/config"
	"carmarket_backend/platform/db"
	"carmarket_backend/platform/logger"
	"carmarket_backend/platform/validator"
)

func main() {
	batchSize := flag.Int("batch", 50, "enquiries fetched per page")
	delay := flag.Duration("delay", 300*time.Millisecond, "pause between scoring runs")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting lead enrichment backfill", "batch", *batchSize, "delay", *delay)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	// No bus: backfilled enrichments do not notify dealers.
	enquiriesModule := enquiries.NewModule(pool, nil, validator.New(), log, nil)

	stats, err := enquiriesModule.Service().Backfill(ctx, *batchSize, *delay)
	if err != nil {
		log.Error("lead enrichment backfill stopped", "processed", stats.Processed, "updated", stats.Succeeded, "error", err)
		os.Exit(1)
	}

	log.Info("lead enrichment backfill completed", "processed", stats.Processed, "updated", stats.Succeeded)
}
