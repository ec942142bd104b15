package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"carmarket_backend/internal/demandgaps/priority"
	"carmarket_backend/platform/apperr"
	"carmarket_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NotificationTypeDemandGap tags rows written for a new demand gap.
const NotificationTypeDemandGap = "demand_gap_match"

const demandGapNotFoundMessage = "demand gap not found"

// Notification is one dealer notification row.
type Notification struct {
	DealerID uuid.UUID
	Metadata map[string]any
}

// Repository is the demand gap store.
type Repository interface {
	ListActiveDealers(ctx context.Context) ([]priority.Dealer, error)
	// Dispatch stores the priority and every notification atomically.
	Dispatch(ctx context.Context, gapID uuid.UUID, priorityScore int, notifications []Notification) error
}

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new demand gap repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

// ListActiveDealers returns profiles holding the dealer role that have an
// active dealer profile.
func (r *Repo) ListActiveDealers(ctx context.Context) ([]priority.Dealer, error) {
	query := `
		SELECT p.id, dp.business_name, COALESCE(dp.city, ''), COALESCE(p.email, '')
		FROM profiles p
		JOIN user_roles ur ON ur.user_id = p.id AND ur.role = 'dealer'
		JOIN dealer_profiles dp ON dp.user_id = p.id
		WHERE dp.is_active
		ORDER BY p.id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list dealers: %w", err)
	}

	dealers, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (priority.Dealer, error) {
		var d priority.Dealer
		err := row.Scan(&d.ID, &d.BusinessName, &d.City, &d.Email)
		return d, err
	})
	if err != nil {
		return nil, fmt.Errorf("list dealers: %w", err)
	}
	return dealers, nil
}

func (r *Repo) Dispatch(ctx context.Context, gapID uuid.UUID, priorityScore int, notifications []Notification) error {
	return db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		batch.Queue(`UPDATE demand_gaps SET priority_score = $2 WHERE id = $1`, gapID, priorityScore)
		for _, n := range notifications {
			metadata, err := json.Marshal(n.Metadata)
			if err != nil {
				return fmt.Errorf("encode notification metadata: %w", err)
			}
			batch.Queue(`
				INSERT INTO demand_gap_notifications (id, demand_gap_id, dealer_id, notification_type, metadata, created_at)
				VALUES ($1, $2, $3, $4, $5, now())`,
				uuid.New(), gapID, n.DealerID, NotificationTypeDemandGap, metadata)
		}

		results := tx.SendBatch(ctx, batch)
		tag, err := results.Exec()
		if err != nil {
			_ = results.Close()
			return fmt.Errorf("update demand gap priority: %w", err)
		}
		if tag.RowsAffected() == 0 {
			_ = results.Close()
			return apperr.NotFound(demandGapNotFoundMessage).WithOp("update demand gap priority")
		}
		for range notifications {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return fmt.Errorf("insert demand gap notification: %w", err)
			}
		}
		if err := results.Close(); err != nil {
			return fmt.Errorf("dispatch demand gap: %w", err)
		}
		return nil
	})
}
