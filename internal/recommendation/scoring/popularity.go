package scoring

import (
	"math"
	"time"

	"github.com/tair/cosmetics-recommender/internal/recommendation/domain"
)

const (
	inStockPopularity     = 30.0
	outOfStockPopularity  = -20.0
	affordabilityCeiling  = 50.0
	minAffordablePrice    = 0.01
	categoryPopularityPer = 5.0
	recencyCeiling        = 10.0
)

// timestampLayouts are tried in order; the first that parses wins.
var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999999Z",
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp returns s as Unix seconds, or 0 when s is empty or matches
// none of the accepted layouts. Values carry no zone and are read as UTC.
func ParseTimestamp(s string) float64 {
	if s == "" {
		return 0
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return float64(t.Unix()) + float64(t.Nanosecond())/float64(time.Second)
		}
	}
	return 0
}

// Aggregates are the per-candidate-set values popularity depends on.
type Aggregates struct {
	CategoryCounts map[string]int
	Newest         float64
	Oldest         float64
}

// ComputeAggregates makes a single pass over products. Only timestamps that
// parse take part in Newest and Oldest.
func ComputeAggregates(products []domain.Product) Aggregates {
	agg := Aggregates{
		CategoryCounts: make(map[string]int),
		Newest:         0,
		Oldest:         math.Inf(1),
	}
	for _, p := range products {
		if p.Category != "" {
			agg.CategoryCounts[p.Category]++
		}
		ts := ParseTimestamp(p.CreatedAt)
		if ts == 0 {
			continue
		}
		agg.Newest = math.Max(agg.Newest, ts)
		agg.Oldest = math.Min(agg.Oldest, ts)
	}
	return agg
}

// affordability is strictly decreasing in price and bounded by (0, 50].
func affordability(price float64) float64 {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0
	}
	return affordabilityCeiling / (1 + math.Max(price, minAffordablePrice))
}

// PopularityScore rates p against the aggregates of its candidate set.
func PopularityScore(p domain.Product, agg Aggregates) float64 {
	score := outOfStockPopularity
	if p.InStock() {
		score = inStockPopularity
	}

	score += affordability(p.Price)

	if p.Category != "" {
		score += categoryPopularityPer * float64(agg.CategoryCounts[p.Category])
	}

	if ts := ParseTimestamp(p.CreatedAt); ts != 0 && agg.Newest > agg.Oldest {
		score += recencyCeiling * (ts - agg.Oldest) / (agg.Newest - agg.Oldest)
	}
	return score
}
