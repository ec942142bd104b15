// Package priority scores demand gaps and ranks the dealers to notify.
package priority

import (
	"sort"
	"strings"

	"carmarket_backend/platform/textnorm"

	"github.com/google/uuid"
)

const (
	basePriority = 50

	dealerBaseScore = 10
	sameCityBonus   = 50

	ReasonAllDealers = "All dealers"
	ReasonSameCity   = "Same city"
)

// Gap is a buyer's unmet requirement as submitted.
type Gap struct {
	ID             uuid.UUID
	UserID         *uuid.UUID
	City           string
	BudgetMin      float64
	BudgetMax      float64
	Urgency        string
	MustHaves      []string
	PreferredBrand string
	PreferredModel string
	BodyType       string
	FuelType       string
	Transmission   string
	// Note must already be sanitized.
	Note string
}

// Score returns the demand gap priority in [0,100].
func Score(g Gap) int {
	score := basePriority

	switch strings.ToLower(strings.TrimSpace(g.Urgency)) {
	case "hot":
		score += 30
	case "warm":
		score += 15
	}

	switch {
	case g.BudgetMax > 1_000_000:
		score += 25
	case g.BudgetMax > 500_000:
		score += 15
	case g.BudgetMax > 300_000:
		score += 10
	}

	if g.UserID != nil {
		score += 10
	}

	return max(0, min(100, score+Specificity(g)))
}

// Specificity rewards detailed requests.
func Specificity(g Gap) int {
	mustHaves := 0
	for _, m := range g.MustHaves {
		if strings.TrimSpace(m) != "" {
			mustHaves++
		}
	}
	bonus := min(10, mustHaves*2)

	for _, field := range []string{g.BodyType, g.FuelType, g.Transmission} {
		if strings.TrimSpace(field) != "" {
			bonus += 2
		}
	}
	if strings.TrimSpace(g.PreferredBrand) != "" {
		bonus += 5
	}
	if strings.TrimSpace(g.PreferredModel) != "" {
		bonus += 5
	}
	if len([]rune(g.Note)) > 20 {
		bonus += 5
	}
	return bonus
}

// Dealer is an active dealer eligible for notifications.
type Dealer struct {
	ID           uuid.UUID
	BusinessName string
	City         string
	Email        string
}

// Match is a dealer with its ranking.
type Match struct {
	Dealer  Dealer
	Score   int
	Reasons []string
}

// Rank scores every dealer and sorts by score descending then dealer id.
// Every dealer is kept: the ranking orders the broadcast, it does not filter it.
func Rank(g Gap, dealers []Dealer) []Match {
	matches := make([]Match, 0, len(dealers))
	for _, d := range dealers {
		m := Match{Dealer: d, Score: dealerBaseScore, Reasons: []string{ReasonAllDealers}}
		if textnorm.Equal(d.City, g.City) {
			m.Score += sameCityBonus
			m.Reasons = append(m.Reasons, ReasonSameCity)
		}
		matches = append(matches, m)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Dealer.ID.String() < matches[j].Dealer.ID.String()
	})
	return matches
}
