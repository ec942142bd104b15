package transport

import (
	"carmarket_backend/internal/enquiries/scoring"
)

// EnrichLeadRequest is the body of POST /enquiries/enrich.
type EnrichLeadRequest struct {
	EnquiryID string `json:"enquiry_id" validate:"required,uuid"`
}

// Enrichment is a LeadEnrichment with its stored version.
type Enrichment struct {
	scoring.Enrichment
	Version int `json:"version"`
}

// EnrichmentSummary highlights the fields dashboards show first.
type EnrichmentSummary struct {
	AIScore               int                    `json:"ai_score"`
	IntentLevel           scoring.IntentLevel    `json:"intent_level"`
	BuyingTimeline        scoring.BuyingTimeline `json:"buying_timeline"`
	ConversionProbability float64                `json:"conversion_probability"`
}

// EnrichLeadResponse is returned by a scoring run.
type EnrichLeadResponse struct {
	Success    bool              `json:"success"`
	Enrichment Enrichment        `json:"enrichment"`
	Summary    EnrichmentSummary `json:"summary"`
	// Superseded is true when a newer stored result was returned instead.
	Superseded bool `json:"superseded,omitempty"`
}

// EnqueueResponse is returned when scoring is deferred to the worker.
type EnqueueResponse struct {
	Queued    bool   `json:"queued"`
	EnquiryID string `json:"enquiry_id"`
}

// NewSummary builds the summary block for e.
func NewSummary(e scoring.Enrichment) EnrichmentSummary {
	return EnrichmentSummary{
		AIScore:               e.AIScore,
		IntentLevel:           e.IntentLevel,
		BuyingTimeline:        e.BuyingTimeline,
		ConversionProbability: e.ConversionProbability,
	}
}
