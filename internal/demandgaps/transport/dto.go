package transport

import (
	"carmarket_backend/internal/demandgaps/priority"

	"github.com/google/uuid"
)

// Record is the demand_gaps row as delivered by the database webhook.
type Record struct {
	ID             string   `json:"id" validate:"required,uuid"`
	UserID         *string  `json:"user_id" validate:"omitempty,uuid"`
	City           string   `json:"city" validate:"max=120"`
	BudgetMin      float64  `json:"budget_min" validate:"gte=0"`
	BudgetMax      float64  `json:"budget_max" validate:"gte=0"`
	Urgency        string   `json:"urgency" validate:"omitempty,urgency"`
	MustHaves      []string `json:"must_haves" validate:"max=50"`
	PreferredBrand string   `json:"preferred_brand"`
	PreferredModel string   `json:"preferred_model"`
	BodyType       string   `json:"body_type"`
	FuelType       string   `json:"fuel_type"`
	Transmission   string   `json:"transmission"`
	Note           string   `json:"note" validate:"max=4000"`
	ContactPhone   string   `json:"contact_phone"`
}

// NotifyRequest is the webhook body.
type NotifyRequest struct {
	Record *Record `json:"record"`
}

// NotifyResponse summarizes one dispatch.
type NotifyResponse struct {
	Success         bool `json:"success"`
	PriorityScore   int  `json:"priority_score"`
	DealersNotified int  `json:"dealers_notified"`
}

// ToGap converts a validated record. note must already be sanitized.
func (r Record) ToGap(note string) priority.Gap {
	g := priority.Gap{
		ID:             uuid.MustParse(r.ID),
		City:           r.City,
		BudgetMin:      r.BudgetMin,
		BudgetMax:      r.BudgetMax,
		Urgency:        r.Urgency,
		MustHaves:      r.MustHaves,
		PreferredBrand: r.PreferredBrand,
		PreferredModel: r.PreferredModel,
		BodyType:       r.BodyType,
		FuelType:       r.FuelType,
		Transmission:   r.Transmission,
		Note:           note,
	}
	if r.UserID != nil && *r.UserID != "" {
		id := uuid.MustParse(*r.UserID)
		g.UserID = &id
	}
	return g
}
