package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"carmarket_backend/internal/fitscore/scoring"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProfileReader loads buyer preference profiles.
type ProfileReader interface {
	// GetProfile returns the stored profile, or a zero profile and false
	// when the user has none yet.
	GetProfile(ctx context.Context, userID uuid.UUID) (scoring.Profile, bool, error)
}

// Repo implements ProfileReader with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new fit score repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ ProfileReader = (*Repo)(nil)

// GetProfile reads user_profiles for userID.
func (r *Repo) GetProfile(ctx context.Context, userID uuid.UUID) (scoring.Profile, bool, error) {
	query := `
		SELECT COALESCE(budget_min, 0)::float8, COALESCE(budget_max, 0)::float8, brand_affinity, body_type_affinity,
			price_sensitivity, COALESCE(finance_interest, 0), COALESCE(intent_score, 0)
		FROM user_profiles
		WHERE user_id = $1`

	var p scoring.Profile
	var brands, bodies []byte

	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&p.BudgetMin, &p.BudgetMax, &brands, &bodies,
		&p.PriceSensitivity, &p.FinanceInterest, &p.IntentScore,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return scoring.Profile{}, false, nil
	}
	if err != nil {
		return scoring.Profile{}, false, fmt.Errorf("get user profile: %w", err)
	}

	if p.BrandAffinity, err = decodeAffinity(brands); err != nil {
		return scoring.Profile{}, false, fmt.Errorf("decode brand affinity: %w", err)
	}
	if p.BodyTypeAffinity, err = decodeAffinity(bodies); err != nil {
		return scoring.Profile{}, false, fmt.Errorf("decode body type affinity: %w", err)
	}
	return p, true, nil
}

func decodeAffinity(raw []byte) (map[string]float64, error) {
	out := map[string]float64{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
