// Package service runs the Market Signal Detector and serves active signals.
package service

import (
	"context"
	"time"

	"carmarket_backend/internal/events"
	"carmarket_backend/internal/marketsignals/repository"
	"carmarket_backend/internal/marketsignals/signals"
	"carmarket_backend/internal/marketsignals/transport"
	"carmarket_backend/platform/logger"
	"carmarket_backend/platform/metrics"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	defaultListLimit = 100
	// RetentionGrace is how long expired rows are kept before the sweep deletes them.
	RetentionGrace = 30 * 24 * time.Hour
)

// Service provides the Market Signal Detector.
type Service struct {
	repo    repository.Repository
	rules   signals.Rules
	ttl     time.Duration
	bus     events.Bus
	log     *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// New creates a new market signals service. bus and m may be nil.
func New(repo repository.Repository, rules signals.Rules, ttl time.Duration, bus events.Bus, log *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{repo: repo, rules: rules, ttl: ttl, bus: bus, log: log, metrics: m, now: time.Now}
}

// Detect aggregates the current window, persists every qualifying signal in
// one write, and reports the counts per category.
func (s *Service) Detect(ctx context.Context) (resp transport.DetectResponse, err error) {
	started := time.Now()
	runID := uuid.New()
	defer func() {
		s.metrics.Observe(metrics.OperationDetectSignals, started, err)
		s.log.WithContext(ctx).ScoringRun(metrics.OperationDetectSignals, time.Since(started), err,
			"run_id", runID, "signals_detected", resp.SignalsDetected)
	}()

	now := s.now().UTC()
	w := repository.NewWindow(now, s.rules.Window)

	var in signals.Input
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		in.Brands, err = s.repo.CountInteractions(gctx, repository.KeyBrand, s.rules.EventNames, w)
		return err
	})
	g.Go(func() error {
		var err error
		in.Cities, err = s.repo.CountInteractions(gctx, repository.KeyCity, s.rules.EventNames, w)
		return err
	})
	g.Go(func() error {
		var err error
		in.Unmet, err = s.repo.CountUnmetByBrand(gctx, w)
		return err
	})
	if err := g.Wait(); err != nil {
		return transport.DetectResponse{}, err
	}

	result := signals.Detect(in, s.rules)
	all := result.All()
	if err := s.repo.InsertRun(ctx, runID, now, now.Add(s.ttl), all); err != nil {
		return transport.DetectResponse{}, err
	}

	s.metrics.SignalsDetected(string(signals.TypeTrendingBrand), len(result.TrendingBrands))
	s.metrics.SignalsDetected(string(signals.TypeHotLocation), len(result.HotLocations))
	s.metrics.SignalsDetected(string(signals.TypeInventoryGap), len(result.InventoryGaps))

	if s.bus != nil {
		s.bus.Publish(ctx, events.MarketSignalsDetected{
			BaseEvent:      events.NewBaseEvent(),
			RunID:          runID,
			TrendingBrands: len(result.TrendingBrands),
			HotLocations:   len(result.HotLocations),
			InventoryGaps:  len(result.InventoryGaps),
		})
	}

	return transport.DetectResponse{
		Success:         true,
		RunID:           runID.String(),
		SignalsDetected: len(all),
		TrendingBrands:  len(result.TrendingBrands),
		HotLocations:    len(result.HotLocations),
		InventoryGaps:   len(result.InventoryGaps),
	}, nil
}

// ListActive returns signals that have not expired, newest run first.
func (s *Service) ListActive(ctx context.Context, signalType signals.Type, limit int) ([]repository.StoredSignal, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.repo.ListActive(ctx, s.now().UTC(), repository.ListFilter{Type: signalType, Limit: limit})
}

// PurgeExpired deletes rows that expired more than RetentionGrace ago.
func (s *Service) PurgeExpired(ctx context.Context) (deleted int64, err error) {
	started := time.Now()
	defer func() {
		s.metrics.Observe(metrics.OperationSignalCleanup, started, err)
		s.log.WithContext(ctx).ScoringRun(metrics.OperationSignalCleanup, time.Since(started), err, "deleted", deleted)
	}()
	return s.repo.DeleteExpired(ctx, s.now().UTC().Add(-RetentionGrace))
}
