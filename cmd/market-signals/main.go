// Command market-signals prints the active market signals as a table,
// optionally running a detection pass first.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"carmarket_backend/internal/marketsignals"
	"carmarket_backend/internal/marketsignals/signals"
	"carmarket_backend/platform/config"
	"carmarket_backend/platform/db"
	"carmarket_backend/platform/logger"
	"carmarket_backend/platform/validator"

	"github.com/jedib0t/go-pretty/v6/table"
)

func main() {
	signalType := flag.String("type", "", "only show one signal type (trending_brand, hot_location, inventory_gap)")
	limit := flag.Int("limit", 50, "maximum rows to print")
	detect := flag.Bool("detect", false, "run a detection pass before listing")
	flag.Parse()

	if *signalType != "" && !signals.Type(*signalType).Valid() {
		fmt.Fprintf(os.Stderr, "unknown signal type %q\n", *signalType)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	log := logger.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	rules, err := signals.LoadRules(cfg.GetMarketSignalRulesFile())
	if err != nil {
		log.Error("failed to load market signal rules", "error", err)
		os.Exit(1)
	}

	svc := marketsignals.NewModule(pool, rules, cfg.GetMarketSignalTTL(), nil, validator.New(), log, nil).Service()

	if *detect {
		resp, err := svc.Detect(ctx)
		if err != nil {
			log.Error("market signal detection failed", "error", err)
			os.Exit(1)
		}
		fmt.Printf("run %s detected %d signals\n", resp.RunID, resp.SignalsDetected)
	}

	items, err := svc.ListActive(ctx, signals.Type(*signalType), *limit)
	if err != nil {
		log.Error("failed to list market signals", "error", err)
		os.Exit(1)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Type", "Entity", "Current", "Previous", "Change %", "Confidence", "Priority", "Detected At", "Expires At"})
	for _, s := range items {
		previous := fmt.Sprint(s.PreviousValue)
		if s.PreviousEstimated {
			previous += "*"
		}
		t.AppendRow(table.Row{
			s.Type, s.EntityName, s.MetricValue, previous,
			fmt.Sprintf("%.1f", s.ChangePercentage), s.ConfidenceScore, s.Priority,
			s.DetectedAt.Format("2006-01-02 15:04"), s.ExpiresAt.Format("2006-01-02 15:04"),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "", "", "Total", len(items)})
	t.Render()
}
