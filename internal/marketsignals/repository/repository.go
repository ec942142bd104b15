package repository

import (
	"context"
	"fmt"
	"time"

	"carmarket_backend/internal/marketsignals/signals"
	"carmarket_backend/platform/apperr"
	"carmarket_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Window bounds one detector run: counts in [PreviousFrom, CurrentFrom) are
// the preceding period and [CurrentFrom, Until) the current one.
type Window struct {
	PreviousFrom time.Time
	CurrentFrom  time.Time
	Until        time.Time
}

// NewWindow returns the current window of length d ending at now and the
// equally long window before it.
func NewWindow(now time.Time, d time.Duration) Window {
	now = now.UTC()
	return Window{PreviousFrom: now.Add(-2 * d), CurrentFrom: now.Add(-d), Until: now}
}

// StoredSignal is a persisted market signal row.
type StoredSignal struct {
	ID    uuid.UUID `json:"id"`
	RunID uuid.UUID `json:"run_id"`
	signals.Signal
	DetectedAt time.Time `json:"detected_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// ListFilter narrows ListActive.
type ListFilter struct {
	Type  signals.Type
	Limit int
}

// Repository is the market signal store.
type Repository interface {
	// CountInteractions groups interaction events by the metadata key
	// ("brand" or "city").
	CountInteractions(ctx context.Context, key string, eventNames []string, w Window) ([]signals.RawCount, error)
	CountUnmetByBrand(ctx context.Context, w Window) ([]signals.RawCount, error)
	// InsertRun writes every signal of one run or none of them.
	InsertRun(ctx context.Context, runID uuid.UUID, detectedAt, expiresAt time.Time, sigs []signals.Signal) error
	ListActive(ctx context.Context, now time.Time, f ListFilter) ([]StoredSignal, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new market signals repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

// Metadata keys the detector groups by.
const (
	KeyBrand = "brand"
	KeyCity  = "city"
)

const (
	countInteractionsQuery = `
	SELECT metadata->>$1 AS name,
		count(*) FILTER (WHERE created_at >= $3) AS current,
		count(*) FILTER (WHERE created_at < $3) AS previous
	FROM user_events
	WHERE event_name = ANY($4)
	  AND created_at >= $2 AND created_at < $5
	  AND COALESCE(metadata->>$1, '') <> ''
	GROUP BY 1`

	countUnmetByBrandQuery = `
	SELECT requested_brand,
		count(*) FILTER (WHERE created_at >= $2) AS current,
		count(*) FILTER (WHERE created_at < $2) AS previous
	FROM unmet_expectations
	WHERE created_at >= $1 AND created_at < $3
	  AND COALESCE(requested_brand, '') <> ''
	GROUP BY 1`

	// listActiveQuery only returns rows that have not reached expires_at.
	listActiveQuery = `
	SELECT id, run_id, signal_type, entity_type, entity_name, metric_value, previous_value,
		previous_estimated, change_percentage, confidence_score, priority, detected_at, expires_at
	FROM market_signals
	WHERE expires_at > $1
	  AND ($2 = '' OR signal_type = $2)
	ORDER BY detected_at DESC, signal_type ASC, metric_value DESC
	LIMIT $3`

	// deleteExpiredQuery removes rows that expired before the cutoff.
	deleteExpiredQuery = `
	DELETE FROM market_signals
	WHERE expires_at < $1`
)

func (r *Repo) CountInteractions(ctx context.Context, key string, eventNames []string, w Window) ([]signals.RawCount, error) {
	if key != KeyBrand && key != KeyCity {
		return nil, fmt.Errorf("count interactions: unsupported key %q", key)
	}

	rows, err := r.pool.Query(ctx, countInteractionsQuery, key, w.PreviousFrom, w.CurrentFrom, eventNames, w.Until)
	if err != nil {
		return nil, fmt.Errorf("count %s interactions: %w", key, err)
	}
	return collectCounts(rows, "count "+key+" interactions")
}

func (r *Repo) CountUnmetByBrand(ctx context.Context, w Window) ([]signals.RawCount, error) {
	rows, err := r.pool.Query(ctx, countUnmetByBrandQuery, w.PreviousFrom, w.CurrentFrom, w.Until)
	if err != nil {
		return nil, fmt.Errorf("count unmet expectations: %w", err)
	}
	return collectCounts(rows, "count unmet expectations")
}

func collectCounts(rows pgx.Rows, op string) ([]signals.RawCount, error) {
	counts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (signals.RawCount, error) {
		var c signals.RawCount
		err := row.Scan(&c.Name, &c.Current, &c.Previous)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return counts, nil
}

func (r *Repo) InsertRun(ctx context.Context, runID uuid.UUID, detectedAt, expiresAt time.Time, sigs []signals.Signal) error {
	if len(sigs) == 0 {
		return nil
	}

	columns := []string{
		"id", "run_id", "signal_type", "entity_type", "entity_name", "metric_value", "previous_value",
		"previous_estimated", "change_percentage", "confidence_score", "priority", "detected_at", "expires_at",
	}

	return db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		n, err := tx.CopyFrom(ctx, pgx.Identifier{"market_signals"}, columns,
			pgx.CopyFromSlice(len(sigs), func(i int) ([]any, error) {
				s := sigs[i]
				return []any{
					uuid.New(), runID, string(s.Type), s.EntityType, s.EntityName, s.MetricValue, s.PreviousValue,
					s.PreviousEstimated, s.ChangePercentage, s.ConfidenceScore, s.Priority, detectedAt, expiresAt,
				}, nil
			}))
		if err != nil {
			return fmt.Errorf("insert market signals: %w", err)
		}
		if int(n) != len(sigs) {
			return apperr.Internal(fmt.Sprintf("wrote %d of %d market signal rows", n, len(sigs))).WithOp("insert market signals")
		}
		return nil
	})
}

func (r *Repo) ListActive(ctx context.Context, now time.Time, f ListFilter) ([]StoredSignal, error) {
	rows, err := r.pool.Query(ctx, listActiveQuery, now, string(f.Type), f.Limit)
	if err != nil {
		return nil, fmt.Errorf("list market signals: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (StoredSignal, error) {
		var s StoredSignal
		var typ string
		err := row.Scan(&s.ID, &s.RunID, &typ, &s.EntityType, &s.EntityName, &s.MetricValue, &s.PreviousValue,
			&s.PreviousEstimated, &s.ChangePercentage, &s.ConfidenceScore, &s.Priority, &s.DetectedAt, &s.ExpiresAt)
		s.Type = signals.Type(typ)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("list market signals: %w", err)
	}
	return out, nil
}

func (r *Repo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, deleteExpiredQuery, before)
	if err != nil {
		return 0, fmt.Errorf("delete expired market signals: %w", err)
	}
	return tag.RowsAffected(), nil
}
