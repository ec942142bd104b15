package transport

import "carmarket_backend/internal/marketsignals/repository"

// DetectResponse is returned by a detector run.
type DetectResponse struct {
	Success         bool   `json:"success"`
	RunID           string `json:"run_id,omitempty"`
	SignalsDetected int    `json:"signals_detected"`
	TrendingBrands  int    `json:"trending_brands"`
	HotLocations    int    `json:"hot_locations"`
	InventoryGaps   int    `json:"inventory_gaps"`
}

// ListRequest is the query of GET /market-signals.
type ListRequest struct {
	Type  string `form:"type" validate:"omitempty,oneof=trending_brand hot_location inventory_gap"`
	Limit int    `form:"limit" validate:"omitempty,min=1,max=500"`
}

// ListResponse wraps the active signals.
type ListResponse struct {
	Items []repository.StoredSignal `json:"items"`
}
