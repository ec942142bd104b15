// Package scoring computes per-listing fit scores for a buyer profile.
package scoring

import (
	"math"

	"carmarket_backend/platform/textnorm"
)

// Component ceilings. They sum to 100.
const (
	MaxIntentBoost    = 12
	MaxBudgetFit      = 18
	MaxBrandAffinity  = 12
	MaxBodyTypeMatch  = 10
	MaxPriceDrop      = 10
	MaxDistanceFactor = 6
	MaxQualitySignals = 16
	MaxFinanceMatch   = 16

	neutralBudgetFit         = 9
	brandDiscoveryFloor      = 3
	flatDistanceBonus        = 3
	defaultPriceSensitivity  = 0.5
	fallbackHalfWidthPercent = 0.10
)

var warrantyCategories = map[string]struct{}{
	"certified": {},
	"warranty":  {},
	"assured":   {},
}

// Profile is the buyer preference aggregate.
type Profile struct {
	BudgetMin        float64            `json:"budget_min"`
	BudgetMax        float64            `json:"budget_max"`
	BrandAffinity    map[string]float64 `json:"brand_affinity"`
	BodyTypeAffinity map[string]float64 `json:"body_type_affinity"`
	PriceSensitivity *float64           `json:"price_sensitivity,omitempty"`
	FinanceInterest  float64            `json:"finance_interest"`
	IntentScore      float64            `json:"intent_score"`
}

// Location is where the buyer or the car is.
type Location struct {
	City      string   `json:"city,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Present reports whether the location carries any usable data.
func (l *Location) Present() bool {
	if l == nil {
		return false
	}
	return textnorm.Key(l.City) != "" || (l.Latitude != nil && l.Longitude != nil)
}

// Listing is one candidate car.
type Listing struct {
	ID               string
	Brand            string
	BodyType         string
	Price            float64
	OriginalPrice    float64
	MileageKm        *int
	Owners           *int
	WarrantyCategory string
	Location         Location
	EMIEstimate      *float64
}

// Breakdown holds each component's contribution.
type Breakdown struct {
	IntentBoost             float64 `json:"intent_boost"`
	BudgetFit               float64 `json:"budget_fit"`
	BrandAffinity           float64 `json:"brand_affinity"`
	BodyTypeMatch           float64 `json:"body_type_match"`
	PriceDropAttractiveness float64 `json:"price_drop_attractiveness"`
	DistanceFactor          float64 `json:"distance_factor"`
	QualitySignals          float64 `json:"quality_signals"`
	FinanceMatch            float64 `json:"finance_match"`
}

// Total sums, rounds and clamps the components to [0,100].
func (b Breakdown) Total() int {
	sum := b.IntentBoost + b.BudgetFit + b.BrandAffinity + b.BodyTypeMatch +
		b.PriceDropAttractiveness + b.DistanceFactor + b.QualitySignals + b.FinanceMatch
	return int(math.Max(0, math.Min(100, math.Round(sum))))
}

// Score computes the fit of car for profile p. userLoc may be nil.
func Score(p Profile, car Listing, userLoc *Location) Breakdown {
	return Breakdown{
		IntentBoost:             IntentBoost(p.IntentScore),
		BudgetFit:               BudgetFit(p.BudgetMin, p.BudgetMax, car.Price),
		BrandAffinity:           BrandAffinity(p.BrandAffinity, car.Brand),
		BodyTypeMatch:           BodyTypeMatch(p.BodyTypeAffinity, car.BodyType),
		PriceDropAttractiveness: PriceDrop(car.OriginalPrice, car.Price, p.PriceSensitivity),
		DistanceFactor:          DistanceFactor(userLoc, &car.Location),
		QualitySignals:          QualitySignals(car),
		FinanceMatch:            FinanceMatch(p.FinanceInterest, car.EMIEstimate != nil && *car.EMIEstimate > 0),
	}
}

// IntentBoost tiers the profile intent score.
func IntentBoost(intent float64) float64 {
	switch {
	case intent >= 80:
		return 12
	case intent >= 60:
		return 9
	case intent >= 40:
		return 6
	case intent >= 20:
		return 3
	default:
		return 0
	}
}

// BudgetFit falls off linearly from the band midpoint and reaches zero at
// twice the half-width. Without a budget it is neutral.
func BudgetFit(budgetMin, budgetMax, price float64) float64 {
	if budgetMax <= 0 {
		return neutralBudgetFit
	}
	if budgetMin < 0 || budgetMin > budgetMax {
		budgetMin = 0
	}
	mid := (budgetMin + budgetMax) / 2
	half := (budgetMax - budgetMin) / 2
	if half <= 0 {
		half = mid * fallbackHalfWidthPercent
	}
	if half <= 0 {
		return neutralBudgetFit
	}
	return MaxBudgetFit * math.Max(0, 1-math.Abs(price-mid)/(2*half))
}

// BrandAffinity scales the stored affinity with a floor for discovery.
func BrandAffinity(affinity map[string]float64, brand string) float64 {
	a := lookupAffinity(affinity, brand)
	return math.Max(brandDiscoveryFloor, MaxBrandAffinity*unit(a))
}

// BodyTypeMatch scales the stored body-type affinity.
func BodyTypeMatch(affinity map[string]float64, bodyType string) float64 {
	return MaxBodyTypeMatch * unit(lookupAffinity(affinity, bodyType))
}

// PriceDrop rewards discounts, weighted by how price sensitive the buyer is.
// A 20% discount earns full points for a fully sensitive buyer.
func PriceDrop(original, price float64, sensitivity *float64) float64 {
	if original <= 0 || price <= 0 || original <= price {
		return 0
	}
	s := defaultPriceSensitivity
	if sensitivity != nil {
		s = unit(*sensitivity)
	}
	discountPct := (original - price) / original * 100
	return math.Min(MaxPriceDrop, discountPct/20*MaxPriceDrop*s)
}

// DistanceFactor is a flat bonus when both sides have location data.
// No distance decay is applied.
func DistanceFactor(user, car *Location) float64 {
	if user.Present() && car.Present() {
		return flatDistanceBonus
	}
	return 0
}

// QualitySignals scores mileage, ownership and warranty, capped at 16.
func QualitySignals(car Listing) float64 {
	var q float64
	if car.MileageKm != nil {
		switch km := *car.MileageKm; {
		case km < 30000:
			q += 6
		case km < 60000:
			q += 3
		}
	}
	if car.Owners != nil {
		switch *car.Owners {
		case 1:
			q += 5
		case 2:
			q += 2
		}
	}
	if _, ok := warrantyCategories[textnorm.Key(car.WarrantyCategory)]; ok {
		q += 5
	}
	return math.Min(MaxQualitySignals, q)
}

// FinanceMatch tiers finance interest, higher when an EMI estimate is shown.
func FinanceMatch(interest float64, hasEMI bool) float64 {
	tier := func(withEMI, without float64) float64 {
		if hasEMI {
			return withEMI
		}
		return without
	}
	switch {
	case interest >= 0.7:
		return tier(16, 10)
	case interest >= 0.4:
		return tier(10, 6)
	case interest > 0:
		return tier(4, 2)
	default:
		return 0
	}
}

func lookupAffinity(affinity map[string]float64, name string) float64 {
	key := textnorm.Key(name)
	if key == "" || len(affinity) == 0 {
		return 0
	}
	if v, ok := affinity[key]; ok {
		return v
	}
	for k, v := range affinity {
		if textnorm.Key(k) == key {
			return v
		}
	}
	return 0
}

func unit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
