package repository

import (
	"context"
	"time"

	"carmarket_backend/internal/enquiries/scoring"

	"github.com/google/uuid"
)

// StoredEnrichment is a persisted LeadEnrichment row.
type StoredEnrichment struct {
	scoring.Enrichment
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpsertResult reports how an upsert was resolved.
type UpsertResult struct {
	Version int
	// Applied is false when a stored row computed from newer inputs already exists.
	Applied bool
}

// BackfillCursor is a keyset position over enquiries ordered by (created_at, id).
type BackfillCursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// EnquiryRef identifies an enquiry needing enrichment.
type EnquiryRef struct {
	ID        uuid.UUID
	CreatedAt time.Time
}

// EnquiryReader loads scoring inputs.
type EnquiryReader interface {
	GetEnquiry(ctx context.Context, id uuid.UUID) (scoring.Enquiry, error)
	ListRecentEvents(ctx context.Context, userID uuid.UUID, limit int) ([]scoring.UserEvent, error)
	ListRecentFunnelStages(ctx context.Context, userID uuid.UUID, limit int) ([]scoring.FunnelStage, error)
}

// EnrichmentStore reads and writes LeadEnrichment rows.
type EnrichmentStore interface {
	GetEnrichment(ctx context.Context, enquiryID uuid.UUID) (StoredEnrichment, error)
	UpsertEnrichment(ctx context.Context, e scoring.Enrichment) (UpsertResult, error)
	// ListStale returns enquiries with no enrichment or whose buyer has
	// events or funnel stages newer than the stored watermark.
	ListStale(ctx context.Context, after BackfillCursor, limit int) ([]EnquiryRef, error)
}

// Repository combines all enquiry repository operations.
type Repository interface {
	EnquiryReader
	EnrichmentStore
}
