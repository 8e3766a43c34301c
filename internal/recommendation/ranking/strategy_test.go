package ranking

import (
	"sort"
	"testing"

	"github.com/tair/cosmetics-recommender/internal/recommendation/domain"
	"github.com/tair/cosmetics-recommender/internal/recommendation/scoring"
)

func sampleProducts() []domain.Product {
	return []domain.Product{
		{ID: 1, Name: "Rich Cream", Description: "nourishing moisturizing cream", Price: 35, Stock: 4, Category: "cream", CreatedAt: "2024-01-01"},
		{ID: 2, Name: "Clear Gel", Description: "salicylic acne gel", Price: 12, Stock: 0, Category: "gel", CreatedAt: "2024-02-01"},
		{ID: 3, Name: "Daily Serum", Description: "hydrating serum", Price: 22, Stock: 9, Category: "serum", CreatedAt: "2024-03-01T10:00:00Z"},
		{ID: 4, Name: "Budget Toner", Price: 5, Stock: 2, Category: "serum"},
		{ID: 5, Name: "Night Oil", Description: "retinol night oil", Price: 60, Stock: 1, CreatedAt: "not a date"},
	}
}

var sampleProfile = domain.SkinProfile{
	SkinType:    "dry",
	Concerns:    []string{"aging", "dryness"},
	BudgetRange: &domain.BudgetRange{
		Min: func() *float64 { v := 10.0; return &v }(),
		Max: func() *float64 { v := 40.0; return &v }(),
	},
}

func TestParseStrategy(t *testing.T) {
	t.Parallel()

	tests := map[string]Strategy{
		"content":     StrategyContent,
		"CONTENT":     StrategyContent,
		" Popularity": StrategyPopularity,
		"hybrid":      StrategyHybrid,
		"":            StrategyHybrid,
		"random":      StrategyHybrid,
	}
	for in, want := range tests {
		if got := ParseStrategy(in); got != want {
			t.Errorf("ParseStrategy(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRankIsSortedPermutation(t *testing.T) {
	t.Parallel()

	ranker := NewRanker(Weights{Content: DefaultContentWeight, Popularity: DefaultPopularityWeight})
	products := sampleProducts()

	for _, strategy := range []Strategy{StrategyContent, StrategyPopularity, StrategyHybrid} {
		t.Run(string(strategy), func(t *testing.T) {
			ranked := ranker.Rank(strategy, products, sampleProfile)
			if len(ranked) != len(products) {
				t.Fatalf("len = %d, want %d", len(ranked), len(products))
			}
			if !sort.SliceIsSorted(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score }) {
				t.Errorf("not sorted descending: %+v", ranked)
			}
			seen := make(map[int64]bool)
			for _, sp := range ranked {
				seen[sp.Product.ID] = true
			}
			for _, p := range products {
				if !seen[p.ID] {
					t.Errorf("product %d dropped", p.ID)
				}
			}
		})
	}
}

func TestHybridWithoutPopularityEqualsContent(t *testing.T) {
	t.Parallel()

	hybrid := NewRanker(Weights{Content: 0.4, Popularity: 0})
	products := sampleProducts()

	got := hybrid.Rank(StrategyHybrid, products, sampleProfile)
	for _, sp := range got {
		if want := scoring.ContentScore(sp.Product, sampleProfile); sp.Score != want {
			t.Errorf("product %d: hybrid = %v, content = %v", sp.Product.ID, sp.Score, want)
		}
	}
}

func TestHybridWeightsAreNormalized(t *testing.T) {
	t.Parallel()

	products := sampleProducts()
	a := NewRanker(Weights{Content: 0.7, Popularity: 0.3}).Rank(StrategyHybrid, products, sampleProfile)
	b := NewRanker(Weights{Content: 7, Popularity: 3}).Rank(StrategyHybrid, products, sampleProfile)
	zero := NewRanker(Weights{}).Rank(StrategyHybrid, products, sampleProfile)

	for i := range a {
		if a[i].Product.ID != b[i].Product.ID || a[i].Product.ID != zero[i].Product.ID {
			t.Fatalf("position %d differs: %d / %d / %d", i, a[i].Product.ID, b[i].Product.ID, zero[i].Product.ID)
		}
		if diff := a[i].Score - b[i].Score; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("position %d: %v vs %v", i, a[i].Score, b[i].Score)
		}
	}
}

func TestNewRankerRejectsNegativeWeights(t *testing.T) {
	t.Parallel()

	products := sampleProducts()
	want := NewRanker(Weights{}).Rank(StrategyHybrid, products, sampleProfile)
	got := NewRanker(Weights{Content: -1, Popularity: 2}).Rank(StrategyHybrid, products, sampleProfile)

	for i := range want {
		if diff := want[i].Score - got[i].Score; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("position %d: %v, want default-weight score %v", i, got[i].Score, want[i].Score)
		}
	}
}

func TestRankEmpty(t *testing.T) {
	t.Parallel()

	ranker := NewRanker(Weights{})
	for _, strategy := range []Strategy{StrategyContent, StrategyPopularity, StrategyHybrid} {
		got := ranker.Rank(strategy, nil, domain.SkinProfile{})
		if got == nil || len(got) != 0 {
			t.Errorf("%s: Rank(nil) = %#v, want empty slice", strategy, got)
		}
	}
}

func TestRankIsStable(t *testing.T) {
	t.Parallel()

	products := []domain.Product{
		{ID: 10, Price: 5, Stock: 1},
		{ID: 11, Price: 5, Stock: 1},
		{ID: 12, Price: 5, Stock: 1},
	}
	ranked := NewRanker(Weights{}).Rank(StrategyContent, products, domain.SkinProfile{})
	for i, sp := range ranked {
		if sp.Product.ID != products[i].ID {
			t.Errorf("position %d = %d, want %d", i, sp.Product.ID, products[i].ID)
		}
	}
}
