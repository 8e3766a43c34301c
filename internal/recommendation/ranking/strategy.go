// Package ranking orders a candidate set with one of the scoring strategies.
package ranking

import (
	"sort"
	"strings"

	"github.com/tair/cosmetics-recommender/internal/recommendation/domain"
	"github.com/tair/cosmetics-recommender/internal/recommendation/scoring"
)

// Strategy names a ranking mode. Unknown names parse to StrategyHybrid.
type Strategy string

const (
	StrategyContent    Strategy = "content"
	StrategyPopularity Strategy = "popularity"
	StrategyHybrid     Strategy = "hybrid"
)

const (
	DefaultContentWeight    = 0.7
	DefaultPopularityWeight = 0.3
)

// ParseStrategy is case-insensitive and falls back to hybrid.
func ParseStrategy(s string) Strategy {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyContent:
		return StrategyContent
	case StrategyPopularity:
		return StrategyPopularity
	default:
		return StrategyHybrid
	}
}

// Weights blend content and popularity scores in hybrid ranking.
type Weights struct {
	Content    float64 `koanf:"content_weight" validate:"gte=0"`
	Popularity float64 `koanf:"popularity_weight" validate:"gte=0"`
}

// normalized scales the weights to sum to one. Both zero means defaults.
func (w Weights) normalized() (content, popularity float64) {
	total := w.Content + w.Popularity
	if w.Content < 0 || w.Popularity < 0 || total <= 0 {
		return DefaultContentWeight, DefaultPopularityWeight
	}
	return w.Content / total, w.Popularity / total
}

// Ranker is stateless apart from its weights and safe for concurrent use.
type Ranker struct {
	weights Weights
}

// NewRanker returns a ranker that blends hybrid scores with weights.
// Invalid or all-zero weights fall back to 0.7 content and 0.3 popularity.
func NewRanker(weights Weights) *Ranker {
	return &Ranker{weights: weights}
}

// Rank scores every product and returns them sorted by score, highest first.
// Ties keep their input order.
func (r *Ranker) Rank(strategy Strategy, products []domain.Product, profile domain.SkinProfile) []domain.ScoredProduct {
	scored := make([]domain.ScoredProduct, 0, len(products))
	if len(products) == 0 {
		return scored
	}

	var agg scoring.Aggregates
	if strategy != StrategyContent {
		agg = scoring.ComputeAggregates(products)
	}
	cw, pw := r.weights.normalized()

	for _, p := range products {
		var score float64
		switch strategy {
		case StrategyContent:
			score = scoring.ContentScore(p, profile)
		case StrategyPopularity:
			score = scoring.PopularityScore(p, agg)
		default:
			score = cw*scoring.ContentScore(p, profile) + pw*scoring.PopularityScore(p, agg)
		}
		scored = append(scored, domain.ScoredProduct{Product: p, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}
