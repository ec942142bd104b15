package transport

import "carmarket_backend/internal/fitscore/scoring"

// MaxListings bounds one scoring request.
const MaxListings = 200

// Listing is a candidate car as sent by the client.
type Listing struct {
	ID               string   `json:"id" validate:"required"`
	Brand            string   `json:"brand"`
	Model            string   `json:"model"`
	BodyType         string   `json:"body_type"`
	Price            float64  `json:"price" validate:"gte=0"`
	OriginalPrice    float64  `json:"original_price" validate:"gte=0"`
	KmDriven         *int     `json:"km_driven" validate:"omitempty,gte=0"`
	Owners           *int     `json:"owners" validate:"omitempty,gte=0"`
	WarrantyCategory string   `json:"warranty_category"`
	City             string   `json:"city"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	EMIEstimate      *float64 `json:"emi_estimate"`
}

// ToScoring converts the wire listing to the scoring model.
func (l Listing) ToScoring() scoring.Listing {
	return scoring.Listing{
		ID:               l.ID,
		Brand:            l.Brand,
		BodyType:         l.BodyType,
		Price:            l.Price,
		OriginalPrice:    l.OriginalPrice,
		MileageKm:        l.KmDriven,
		Owners:           l.Owners,
		WarrantyCategory: l.WarrantyCategory,
		Location:         scoring.Location{City: l.City, Latitude: l.Latitude, Longitude: l.Longitude},
		EMIEstimate:      l.EMIEstimate,
	}
}

// FitScoreRequest is the body of POST /fitscore.
type FitScoreRequest struct {
	UserID       string            `json:"userId" validate:"required,uuid"`
	CarListings  []Listing         `json:"carListings" validate:"max=200,dive"`
	UserLocation *scoring.Location `json:"userLocation"`
}

// FitScoreResponse maps listing id to its 0-100 fit score.
type FitScoreResponse struct {
	Scores    map[string]int               `json:"scores"`
	Breakdown map[string]scoring.Breakdown `json:"breakdown,omitempty"`
}
