// Package service dispatches dealer notifications for new demand gaps.
package service

import (
	"context"
	"time"

	"carmarket_backend/internal/demandgaps/priority"
	"carmarket_backend/internal/demandgaps/repository"
	"carmarket_backend/internal/demandgaps/transport"
	"carmarket_backend/internal/events"
	"carmarket_backend/platform/logger"
	"carmarket_backend/platform/metrics"
	"carmarket_backend/platform/phone"
	"carmarket_backend/platform/sanitize"
)

// Service provides the Notification Dispatcher.
type Service struct {
	repo    repository.Repository
	phones  *phone.Normalizer
	bus     events.Bus
	log     *logger.Logger
	metrics *metrics.Metrics
}

// New creates a new demand gap service. bus and m may be nil.
func New(repo repository.Repository, phones *phone.Normalizer, bus events.Bus, log *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{repo: repo, phones: phones, bus: bus, log: log, metrics: m}
}

// Notify scores the gap, ranks every active dealer, and stores the priority
// together with one notification per dealer.
func (s *Service) Notify(ctx context.Context, rec transport.Record) (resp transport.NotifyResponse, err error) {
	started := time.Now()
	defer func() {
		s.metrics.Observe(metrics.OperationNotifyDealers, started, err)
		s.log.WithContext(ctx).ScoringRun(metrics.OperationNotifyDealers, time.Since(started), err,
			"demand_gap_id", rec.ID, "priority_score", resp.PriorityScore, "dealers_notified", resp.DealersNotified)
	}()

	note := sanitize.Text(rec.Note)
	gap := rec.ToGap(note)
	score := priority.Score(gap)

	dealers, err := s.repo.ListActiveDealers(ctx)
	if err != nil {
		return transport.NotifyResponse{}, err
	}
	matches := priority.Rank(gap, dealers)

	contactPhone, _ := s.phones.E164(rec.ContactPhone)
	notifications := make([]repository.Notification, 0, len(matches))
	for _, m := range matches {
		metadata := map[string]any{
			"match_score":    m.Score,
			"match_reasons":  m.Reasons,
			"priority_score": score,
			"city":           gap.City,
			"budget_max":     gap.BudgetMax,
			"urgency":        gap.Urgency,
		}
		if contactPhone != "" {
			metadata["contact_phone"] = contactPhone
		}
		if note != "" {
			metadata["note"] = note
		}
		notifications = append(notifications, repository.Notification{DealerID: m.Dealer.ID, Metadata: metadata})
	}

	if err := s.repo.Dispatch(ctx, gap.ID, score, notifications); err != nil {
		return transport.NotifyResponse{}, err
	}
	s.metrics.DealersNotified(len(matches))

	if s.bus != nil && len(matches) > 0 {
		notified := make([]events.NotifiedDealer, 0, len(matches))
		for _, m := range matches {
			notified = append(notified, events.NotifiedDealer{
				DealerID:     m.Dealer.ID,
				BusinessName: m.Dealer.BusinessName,
				Email:        m.Dealer.Email,
				MatchScore:   m.Score,
				MatchReasons: m.Reasons,
			})
		}
		s.bus.Publish(ctx, events.DemandGapDealersNotified{
			BaseEvent:     events.NewBaseEvent(),
			DemandGapID:   gap.ID,
			PriorityScore: score,
			City:          gap.City,
			BudgetMax:     gap.BudgetMax,
			Urgency:       gap.Urgency,
			Dealers:       notified,
		})
	}

	return transport.NotifyResponse{Success: true, PriorityScore: score, DealersNotified: len(matches)}, nil
}
