// Package signals turns windowed interaction counts into market signals.
package signals

import (
	"math"
	"sort"

	"carmarket_backend/platform/textnorm"
)

// Type is the kind of trend a signal reports.
type Type string

const (
	TypeTrendingBrand Type = "trending_brand"
	TypeHotLocation   Type = "hot_location"
	TypeInventoryGap  Type = "inventory_gap"
)

// Valid reports whether t is a known signal type.
func (t Type) Valid() bool {
	switch t {
	case TypeTrendingBrand, TypeHotLocation, TypeInventoryGap:
		return true
	}
	return false
}

const (
	entityBrand = "brand"
	entityCity  = "city"

	priorityHigh   = "high"
	priorityMedium = "medium"

	brandEstimateFactor    = 0.7
	locationEstimateFactor = 0.8
	gapEstimateFactor      = 0.7
)

// RawCount is one grouped row as stored: the raw name and its counts in the
// current and preceding windows.
type RawCount struct {
	Name     string
	Current  int
	Previous int
}

// Input carries the grouped counts for one detector run.
type Input struct {
	Brands []RawCount
	Cities []RawCount
	Unmet  []RawCount
}

// Signal is one detected trend.
type Signal struct {
	Type              Type    `json:"signal_type"`
	EntityType        string  `json:"entity_type"`
	EntityName        string  `json:"entity_name"`
	MetricValue       int     `json:"metric_value"`
	PreviousValue     int     `json:"previous_value"`
	PreviousEstimated bool    `json:"previous_estimated"`
	ChangePercentage  float64 `json:"change_percentage"`
	ConfidenceScore   int     `json:"confidence_score"`
	Priority          string  `json:"priority"`
}

// Result groups the signals of one run by type.
type Result struct {
	TrendingBrands []Signal
	HotLocations   []Signal
	InventoryGaps  []Signal
}

// All returns every signal in the order they are persisted.
func (r Result) All() []Signal {
	out := make([]Signal, 0, len(r.TrendingBrands)+len(r.HotLocations)+len(r.InventoryGaps))
	out = append(out, r.TrendingBrands...)
	out = append(out, r.HotLocations...)
	return append(out, r.InventoryGaps...)
}

// Detect applies rules to in. It is pure.
func Detect(in Input, rules Rules) Result {
	var res Result

	for _, c := range topN(merge(in.Brands), rules.TopN, func(c count) bool { return c.current > rules.BrandMin }) {
		prev, estimated := previous(c, brandEstimateFactor)
		res.TrendingBrands = append(res.TrendingBrands, Signal{
			Type:              TypeTrendingBrand,
			EntityType:        entityBrand,
			EntityName:        c.display,
			MetricValue:       c.current,
			PreviousValue:     prev,
			PreviousEstimated: estimated,
			ChangePercentage:  changePercentage(c.current, prev),
			ConfidenceScore:   min(95, 60+c.current),
			Priority:          priority(c.current > 25),
		})
	}

	for _, c := range topN(merge(in.Cities), rules.TopN, func(c count) bool { return c.current > rules.LocationMin }) {
		prev, estimated := previous(c, locationEstimateFactor)
		res.HotLocations = append(res.HotLocations, Signal{
			Type:              TypeHotLocation,
			EntityType:        entityCity,
			EntityName:        c.display,
			MetricValue:       c.current,
			PreviousValue:     prev,
			PreviousEstimated: estimated,
			ChangePercentage:  changePercentage(c.current, prev),
			ConfidenceScore:   min(90, 55+c.current),
			Priority:          priority(c.current > 30),
		})
	}

	for _, c := range topN(merge(in.Unmet), rules.TopN, func(c count) bool { return c.current >= rules.GapMin }) {
		prev, estimated := previous(c, gapEstimateFactor)
		res.InventoryGaps = append(res.InventoryGaps, Signal{
			Type:              TypeInventoryGap,
			EntityType:        entityBrand,
			EntityName:        c.display,
			MetricValue:       c.current,
			PreviousValue:     prev,
			PreviousEstimated: estimated,
			ChangePercentage:  changePercentage(c.current, prev),
			ConfidenceScore:   75,
			Priority:          priority(c.current >= 5),
		})
	}

	return res
}

type count struct {
	key      string
	display  string
	current  int
	previous int
}

// merge folds rows whose names differ only in case or spacing.
func merge(rows []RawCount) []count {
	byKey := make(map[string]*count, len(rows))
	order := make([]string, 0, len(rows))
	for _, r := range rows {
		key := textnorm.Key(r.Name)
		if key == "" {
			continue
		}
		c, ok := byKey[key]
		if !ok {
			c = &count{key: key, display: textnorm.Display(r.Name)}
			byKey[key] = c
			order = append(order, key)
		}
		c.current += r.Current
		c.previous += r.Previous
	}

	out := make([]count, 0, len(order))
	for _, k := range order {
		out = append(out, *byKey[k])
	}
	return out
}

// topN keeps the qualifying counts, highest first with ties broken by key.
func topN(counts []count, n int, qualifies func(count) bool) []count {
	kept := counts[:0]
	for _, c := range counts {
		if qualifies(c) {
			kept = append(kept, c)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].current != kept[j].current {
			return kept[i].current > kept[j].current
		}
		return kept[i].key < kept[j].key
	})
	if len(kept) > n {
		kept = kept[:n]
	}
	return kept
}

// previous returns the measured previous-window count when there is one,
// otherwise floor(current * factor) flagged as estimated.
func previous(c count, factor float64) (int, bool) {
	if c.previous > 0 {
		return c.previous, false
	}
	return int(math.Floor(float64(c.current) * factor)), true
}

func changePercentage(current, previous int) float64 {
	if previous == 0 {
		return 100
	}
	pct := float64(current-previous) / float64(previous) * 100
	return math.Round(pct*10) / 10
}

func priority(high bool) string {
	if high {
		return priorityHigh
	}
	return priorityMedium
}
