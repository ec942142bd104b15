// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"carmarket_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// Event names.
const (
	NameLeadEnriched             = "enquiries.lead.enriched"
	NameMarketSignalsDetected    = "marketsignals.run.completed"
	NameDemandGapDealersNotified = "demandgaps.dealers.notified"
)

// =============================================================================
// Enquiry Domain Events
// =============================================================================

// LeadEnriched is published after a LeadEnrichment row was written.
type LeadEnriched struct {
	BaseEvent
	EnquiryID   uuid.UUID  `json:"enquiryId"`
	DealerID    *uuid.UUID `json:"dealerId,omitempty"`
	AIScore     int        `json:"aiScore"`
	IntentLevel string     `json:"intentLevel"`
	Version     int        `json:"version"`
	Superseded  bool       `json:"superseded"`
}

func (e LeadEnriched) EventName() string { return NameLeadEnriched }

// =============================================================================
// Market Signal Domain Events
// =============================================================================

// MarketSignalsDetected is published after a detector run finished.
type MarketSignalsDetected struct {
	BaseEvent
	RunID          uuid.UUID `json:"runId"`
	TrendingBrands int       `json:"trendingBrands"`
	HotLocations   int       `json:"hotLocations"`
	InventoryGaps  int       `json:"inventoryGaps"`
}

func (e MarketSignalsDetected) EventName() string { return NameMarketSignalsDetected }

// Total returns the number of signals the run persisted.
func (e MarketSignalsDetected) Total() int {
	return e.TrendingBrands + e.HotLocations + e.InventoryGaps
}

// =============================================================================
// Demand Gap Domain Events
// =============================================================================

// NotifiedDealer identifies one dealer that received a demand-gap notification.
type NotifiedDealer struct {
	DealerID     uuid.UUID `json:"dealerId"`
	BusinessName string    `json:"businessName"`
	Email        string    `json:"email,omitempty"`
	MatchScore   int       `json:"matchScore"`
	MatchReasons []string  `json:"matchReasons"`
}

// DemandGapDealersNotified is published after notification rows were committed.
type DemandGapDealersNotified struct {
	BaseEvent
	DemandGapID   uuid.UUID        `json:"demandGapId"`
	PriorityScore int              `json:"priorityScore"`
	City          string           `json:"city,omitempty"`
	BudgetMax     float64          `json:"budgetMax,omitempty"`
	Urgency       string           `json:"urgency,omitempty"`
	Dealers       []NotifiedDealer `json:"dealers"`
}

func (e DemandGapDealersNotified) EventName() string { return NameDemandGapDealersNotified }
