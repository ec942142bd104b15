// Package service scores enquiries and persists the resulting lead enrichment.
package service

import (
	"context"
	"fmt"
	"time"

	"carmarket_backend/internal/enquiries/repository"
	"carmarket_backend/internal/enquiries/scoring"
	"carmarket_backend/internal/enquiries/transport"
	"carmarket_backend/internal/events"
	"carmarket_backend/platform/apperr"
	"carmarket_backend/platform/logger"
	"carmarket_backend/platform/metrics"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// TaskEnqueuer defers a scoring run to the background worker.
type TaskEnqueuer interface {
	EnqueueLeadEnrichment(ctx context.Context, enquiryID uuid.UUID) error
}

// Service provides the Lead Scorer.
type Service struct {
	repo     repository.Repository
	bus      events.Bus
	log      *logger.Logger
	metrics  *metrics.Metrics
	enqueuer TaskEnqueuer
}

// New creates a new enquiries service. bus, m and enqueuer may be nil.
func New(repo repository.Repository, bus events.Bus, log *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{repo: repo, bus: bus, log: log, metrics: m}
}

// SetTaskEnqueuer enables asynchronous enrichment.
func (s *Service) SetTaskEnqueuer(e TaskEnqueuer) {
	s.enqueuer = e
}

// Enrich scores one enquiry and upserts the result.
func (s *Service) Enrich(ctx context.Context, enquiryID uuid.UUID) (resp transport.EnrichLeadResponse, err error) {
	started := time.Now()
	defer func() {
		s.metrics.Observe(metrics.OperationEnrichLead, started, err)
		s.log.WithContext(ctx).ScoringRun(metrics.OperationEnrichLead, time.Since(started), err,
			"enquiry_id", enquiryID, "ai_score", resp.Summary.AIScore, "intent_level", resp.Summary.IntentLevel)
	}()

	enquiry, err := s.repo.GetEnquiry(ctx, enquiryID)
	if err != nil {
		return transport.EnrichLeadResponse{}, err
	}
	if !enquiry.Type.Known() {
		s.log.WithContext(ctx).Warn("unknown enquiry type, using fallback weight",
			"enquiry_id", enquiryID, "enquiry_type", string(enquiry.Type))
	}

	in := scoring.Input{Enquiry: enquiry}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		evs, err := s.repo.ListRecentEvents(gctx, enquiry.UserID, scoring.EventLimit)
		in.Events = evs
		return err
	})
	g.Go(func() error {
		stages, err := s.repo.ListRecentFunnelStages(gctx, enquiry.UserID, scoring.FunnelLimit)
		in.Funnel = stages
		return err
	})
	if err := g.Wait(); err != nil {
		return transport.EnrichLeadResponse{}, err
	}

	enrichment := scoring.Compute(in)

	result, err := s.repo.UpsertEnrichment(ctx, enrichment)
	if err != nil {
		return transport.EnrichLeadResponse{}, err
	}

	resp = transport.EnrichLeadResponse{Success: true}
	if result.Applied {
		resp.Enrichment = transport.Enrichment{Enrichment: enrichment, Version: result.Version}
	} else {
		stored, err := s.repo.GetEnrichment(ctx, enquiryID)
		if err != nil {
			return transport.EnrichLeadResponse{}, fmt.Errorf("load newer enrichment: %w", err)
		}
		resp.Enrichment = transport.Enrichment{Enrichment: stored.Enrichment, Version: stored.Version}
		resp.Superseded = true
	}
	resp.Summary = transport.NewSummary(resp.Enrichment.Enrichment)

	if s.bus != nil {
		s.bus.Publish(ctx, events.LeadEnriched{
			BaseEvent:   events.NewBaseEvent(),
			EnquiryID:   enquiryID,
			DealerID:    enquiry.DealerID,
			AIScore:     resp.Summary.AIScore,
			IntentLevel: string(resp.Summary.IntentLevel),
			Version:     resp.Enrichment.Version,
			Superseded:  resp.Superseded,
		})
	}

	return resp, nil
}

// GetEnrichment returns the stored enrichment for an enquiry.
func (s *Service) GetEnrichment(ctx context.Context, enquiryID uuid.UUID) (transport.Enrichment, error) {
	stored, err := s.repo.GetEnrichment(ctx, enquiryID)
	if err != nil {
		return transport.Enrichment{}, err
	}
	return transport.Enrichment{Enrichment: stored.Enrichment, Version: stored.Version}, nil
}

// EnqueueEnrich schedules an asynchronous scoring run after checking the
// enquiry exists.
func (s *Service) EnqueueEnrich(ctx context.Context, enquiryID uuid.UUID) error {
	if s.enqueuer == nil {
		return apperr.Unavailable("background scoring is not configured")
	}
	if _, err := s.repo.GetEnquiry(ctx, enquiryID); err != nil {
		return err
	}
	if err := s.enqueuer.EnqueueLeadEnrichment(ctx, enquiryID); err != nil {
		return apperr.Upstream("enqueue lead enrichment", err)
	}
	return nil
}

// BackfillStats summarizes a backfill pass.
type BackfillStats struct {
	Processed int
	Succeeded int
}

// Backfill scores every stale enquiry, batchSize at a time. Failures are
// logged and skipped; pause runs between enquiries.
func (s *Service) Backfill(ctx context.Context, batchSize int, pause time.Duration) (BackfillStats, error) {
	var stats BackfillStats
	cursor := repository.Epoch

	for {
		refs, err := s.repo.ListStale(ctx, cursor, batchSize)
		if err != nil {
			return stats, err
		}
		if len(refs) == 0 {
			return stats, nil
		}

		for _, ref := range refs {
			cursor = repository.BackfillCursor{CreatedAt: ref.CreatedAt, ID: ref.ID}
			stats.Processed++

			if _, err := s.Enrich(ctx, ref.ID); err != nil {
				s.log.Error("failed to backfill lead enrichment", "enquiryId", ref.ID, "error", err)
			} else {
				stats.Succeeded++
			}

			if pause > 0 {
				select {
				case <-ctx.Done():
					return stats, ctx.Err()
				case <-time.After(pause):
				}
			}
		}
	}
}
