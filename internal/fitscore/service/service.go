// Package service scores candidate listings against a buyer profile.
package service

import (
	"context"
	"time"

	"carmarket_backend/internal/fitscore/repository"
	"carmarket_backend/internal/fitscore/scoring"
	"carmarket_backend/internal/fitscore/transport"
	"carmarket_backend/platform/logger"
	"carmarket_backend/platform/metrics"

	"github.com/google/uuid"
)

// Service provides the Fit Scorer. It has no persistence side effects.
type Service struct {
	profiles repository.ProfileReader
	log      *logger.Logger
	metrics  *metrics.Metrics
}

// New creates a new fit score service.
func New(profiles repository.ProfileReader, log *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{profiles: profiles, log: log, metrics: m}
}

// Score computes a fit score for every listing. A user without a stored
// profile is scored with a zero profile.
func (s *Service) Score(ctx context.Context, userID uuid.UUID, listings []transport.Listing, userLoc *scoring.Location, withBreakdown bool) (resp transport.FitScoreResponse, err error) {
	started := time.Now()
	defer func() {
		s.metrics.Observe(metrics.OperationFitScore, started, err)
		s.log.WithContext(ctx).ScoringRun(metrics.OperationFitScore, time.Since(started), err,
			"user_id", userID, "listings", len(listings))
	}()

	resp = transport.FitScoreResponse{Scores: make(map[string]int, len(listings))}
	if len(listings) == 0 {
		return resp, nil
	}

	profile, _, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return transport.FitScoreResponse{}, err
	}

	if withBreakdown {
		resp.Breakdown = make(map[string]scoring.Breakdown, len(listings))
	}
	for _, l := range listings {
		b := scoring.Score(profile, l.ToScoring(), userLoc)
		resp.Scores[l.ID] = b.Total()
		if withBreakdown {
			resp.Breakdown[l.ID] = b
		}
	}
	return resp, nil
}
