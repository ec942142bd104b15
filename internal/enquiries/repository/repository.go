package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"carmarket_backend/internal/enquiries/scoring"
	"carmarket_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	enquiryNotFoundMessage    = "enquiry not found"
	enrichmentNotFoundMessage = "lead enrichment not found"
)

// upsertEnrichmentQuery writes a LeadEnrichment unless the stored row was
// computed from newer inputs. Every applied write bumps version.
const upsertEnrichmentQuery = `
	INSERT INTO lead_enrichments (
		enquiry_id, ai_score, intent_level, buying_timeline, engagement_score, conversion_probability,
		avg_view_duration_seconds, optimal_contact_time, behavioral_signals, risk_factors, recommended_actions,
		inputs_watermark, version, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 1, now(), now())
	ON CONFLICT (enquiry_id) DO UPDATE SET
		ai_score = EXCLUDED.ai_score,
		intent_level = EXCLUDED.intent_level,
		buying_timeline = EXCLUDED.buying_timeline,
		engagement_score = EXCLUDED.engagement_score,
		conversion_probability = EXCLUDED.conversion_probability,
		avg_view_duration_seconds = EXCLUDED.avg_view_duration_seconds,
		optimal_contact_time = EXCLUDED.optimal_contact_time,
		behavioral_signals = EXCLUDED.behavioral_signals,
		risk_factors = EXCLUDED.risk_factors,
		recommended_actions = EXCLUDED.recommended_actions,
		inputs_watermark = EXCLUDED.inputs_watermark,
		version = lead_enrichments.version + 1,
		updated_at = now()
	WHERE lead_enrichments.inputs_watermark <= EXCLUDED.inputs_watermark
	RETURNING version`

// listStaleQuery pages through enquiries with no enrichment, or whose buyer
// has events or funnel stages newer than the stored watermark.
const listStaleQuery = `
	SELECT e.id, e.created_at
	FROM enquiries e
	LEFT JOIN lead_enrichments le ON le.enquiry_id = e.id
	WHERE (e.created_at > $1 OR (e.created_at = $1 AND e.id > $2))
	  AND (
		le.enquiry_id IS NULL
		OR EXISTS (
			SELECT 1 FROM user_events ue
			WHERE ue.user_id = e.user_id AND ue.created_at > le.inputs_watermark
		)
		OR EXISTS (
			SELECT 1 FROM funnel_stages fs
			WHERE fs.user_id = e.user_id AND fs.entered_at > le.inputs_watermark
		)
	  )
	ORDER BY e.created_at ASC, e.id ASC
	LIMIT $3`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new enquiries repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetEnquiry retrieves an enquiry by its ID.
func (r *Repo) GetEnquiry(ctx context.Context, id uuid.UUID) (scoring.Enquiry, error) {
	query := `
		SELECT id, user_id, dealer_id, car_listing_id, enquiry_type, COALESCE(source, ''), status,
			COALESCE(user_agent, ''), created_at
		FROM enquiries
		WHERE id = $1`

	var e scoring.Enquiry
	var enquiryType, status string

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.UserID, &e.DealerID, &e.CarListingID, &enquiryType, &e.Source, &status,
		&e.UserAgent, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return scoring.Enquiry{}, apperr.NotFound(enquiryNotFoundMessage).WithOp("get enquiry")
		}
		return scoring.Enquiry{}, fmt.Errorf("get enquiry: %w", err)
	}

	e.Type = scoring.EnquiryType(enquiryType)
	e.Status = scoring.EnquiryStatus(status)
	return e, nil
}

// ListRecentEvents returns the newest events for a user, newest first.
func (r *Repo) ListRecentEvents(ctx context.Context, userID uuid.UUID, limit int) ([]scoring.UserEvent, error) {
	query := `
		SELECT event_name, car_id, metadata, created_at
		FROM user_events
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list user events: %w", err)
	}
	defer rows.Close()

	events := make([]scoring.UserEvent, 0, limit)
	for rows.Next() {
		var ev scoring.UserEvent
		var metadata []byte
		if err := rows.Scan(&ev.Name, &ev.CarID, &metadata, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user event: %w", err)
		}
		if len(metadata) > 0 {
			// Malformed metadata only loses the optional user-agent fallback.
			_ = json.Unmarshal(metadata, &ev.Metadata)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list user events: %w", err)
	}
	return events, nil
}

// ListRecentFunnelStages returns the newest funnel stages for a user.
func (r *Repo) ListRecentFunnelStages(ctx context.Context, userID uuid.UUID, limit int) ([]scoring.FunnelStage, error) {
	query := `
		SELECT stage, entered_at, duration_seconds
		FROM funnel_stages
		WHERE user_id = $1
		ORDER BY entered_at DESC, id DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list funnel stages: %w", err)
	}
	defer rows.Close()

	stages, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (scoring.FunnelStage, error) {
		var s scoring.FunnelStage
		err := row.Scan(&s.Stage, &s.EnteredAt, &s.DurationSeconds)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("list funnel stages: %w", err)
	}
	return stages, nil
}

// GetEnrichment retrieves the stored enrichment for an enquiry.
func (r *Repo) GetEnrichment(ctx context.Context, enquiryID uuid.UUID) (StoredEnrichment, error) {
	query := `
		SELECT enquiry_id, ai_score, intent_level, buying_timeline, engagement_score, conversion_probability,
			avg_view_duration_seconds, optimal_contact_time, behavioral_signals, risk_factors, recommended_actions,
			inputs_watermark, version, created_at, updated_at
		FROM lead_enrichments
		WHERE enquiry_id = $1`

	var s StoredEnrichment
	var intent, timeline, contact string
	var signals, risks, actions []byte

	err := r.pool.QueryRow(ctx, query, enquiryID).Scan(
		&s.EnquiryID, &s.AIScore, &intent, &timeline, &s.EngagementScore, &s.ConversionProbability,
		&s.AvgViewDurationSeconds, &contact, &signals, &risks, &actions,
		&s.InputsWatermark, &s.Version, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StoredEnrichment{}, apperr.NotFound(enrichmentNotFoundMessage).WithOp("get lead enrichment")
		}
		return StoredEnrichment{}, fmt.Errorf("get lead enrichment: %w", err)
	}

	s.IntentLevel = scoring.IntentLevel(intent)
	s.BuyingTimeline = scoring.BuyingTimeline(timeline)
	s.OptimalContactTime = scoring.ContactWindow(contact)
	if err := decodeJSONColumns(signals, &s.BehavioralSignals, risks, &s.RiskFactors, actions, &s.RecommendedActions); err != nil {
		return StoredEnrichment{}, fmt.Errorf("decode lead enrichment: %w", err)
	}
	return s, nil
}

// UpsertEnrichment writes e unless the stored row was computed from newer
// inputs. Every applied write bumps version.
func (r *Repo) UpsertEnrichment(ctx context.Context, e scoring.Enrichment) (UpsertResult, error) {
	signals, err := json.Marshal(e.BehavioralSignals)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("encode behavioral signals: %w", err)
	}
	risks, err := json.Marshal(e.RiskFactors)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("encode risk factors: %w", err)
	}
	actions, err := json.Marshal(e.RecommendedActions)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("encode recommended actions: %w", err)
	}

	var version int
	err = r.pool.QueryRow(ctx, upsertEnrichmentQuery,
		e.EnquiryID, e.AIScore, string(e.IntentLevel), string(e.BuyingTimeline), e.EngagementScore, e.ConversionProbability,
		e.AvgViewDurationSeconds, string(e.OptimalContactTime), signals, risks, actions,
		e.InputsWatermark,
	).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return UpsertResult{Applied: false}, nil
	}
	if err != nil {
		return UpsertResult{}, fmt.Errorf("upsert lead enrichment: %w", err)
	}
	return UpsertResult{Version: version, Applied: true}, nil
}

// ListStale pages through enquiries that need (re)scoring.
func (r *Repo) ListStale(ctx context.Context, after BackfillCursor, limit int) ([]EnquiryRef, error) {
	rows, err := r.pool.Query(ctx, listStaleQuery, after.CreatedAt, after.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("list stale enquiries: %w", err)
	}
	defer rows.Close()

	refs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (EnquiryRef, error) {
		var ref EnquiryRef
		err := row.Scan(&ref.ID, &ref.CreatedAt)
		return ref, err
	})
	if err != nil {
		return nil, fmt.Errorf("list stale enquiries: %w", err)
	}
	return refs, nil
}

func decodeJSONColumns(pairs ...any) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		raw, _ := pairs[i].([]byte)
		if len(raw) == 0 {
			continue
		}
		if err := json.Unmarshal(raw, pairs[i+1]); err != nil {
			return err
		}
	}
	return nil
}

// Epoch is the zero cursor for ListStale.
var Epoch = BackfillCursor{CreatedAt: time.Unix(0, 0).UTC()}
