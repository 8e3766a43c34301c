package scoring

import (
	"math"
	"reflect"
	"testing"

	"github.com/tair/cosmetics-recommender/internal/recommendation/domain"
)

func ptr[T any](v T) *T { return &v }

func TestContentScoreScenarios(t *testing.T) {
	t.Parallel()

	profile := domain.SkinProfile{
		SkinType:    "dry",
		BudgetRange: &domain.BudgetRange{Min: ptr(10.0), Max: ptr(30.0)},
	}

	tests := []struct {
		name        string
		category    string
		description string
		stock       int
		want        float64
	}{
		// base 50 + budget 20 + stock 5 + skin 15 + second keyword 5
		{"uncategorized in stock", "", "hydrating serum for dry skin", 5, 95},
		{"uncategorized out of stock", "", "hydrating serum for dry skin", 0, 40},
		// a category with no stated preference adds 10
		{"categorized in stock", "serum", "hydrating serum for dry skin", 5, 105},
		{"categorized out of stock", "serum", "hydrating serum for dry skin", 0, 50},
		{"single keyword", "serum", "serum for dry skin", 5, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := domain.Product{Price: 20, Stock: tt.stock, Category: tt.category, Description: tt.description}
			if got := ContentScore(p, profile); got != tt.want {
				t.Errorf("ContentScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContentScoreRules(t *testing.T) {
	t.Parallel()

	base := domain.Product{Name: "Plain", Price: 20, Stock: 1}

	tests := []struct {
		name    string
		product domain.Product
		profile domain.SkinProfile
		want    float64
	}{
		{"no preferences", base, domain.SkinProfile{}, 55},
		{"above budget", base, domain.SkinProfile{BudgetRange: &domain.BudgetRange{Max: ptr(10.0)}}, 25},
		{"below budget", base, domain.SkinProfile{BudgetRange: &domain.BudgetRange{Min: ptr(50.0)}}, 60},
		{"open budget", base, domain.SkinProfile{BudgetRange: &domain.BudgetRange{}}, 75},
		{
			"preferred category",
			domain.Product{Price: 20, Stock: 1, Category: "toner"},
			domain.SkinProfile{PreferredCategories: []string{"serum", "toner"}},
			80,
		},
		{
			"category not preferred",
			domain.Product{Price: 20, Stock: 1, Category: "mask"},
			domain.SkinProfile{PreferredCategories: []string{"serum"}},
			55,
		},
		{
			"skin keywords ignored without description",
			domain.Product{Name: "hydrating dry cream", Price: 20, Stock: 1},
			domain.SkinProfile{SkinType: "dry"},
			55,
		},
		{
			"concerns accumulate",
			domain.Product{Price: 20, Stock: 1, Description: "salicylic acne gel with retinol"},
			domain.SkinProfile{Concerns: []string{"acne", "aging", "unknown"}},
			55 + 13 + 10,
		},
		{
			"concern keys are case-insensitive",
			domain.Product{Price: 20, Stock: 1, Description: "brightening vitamin c drops"},
			domain.SkinProfile{Concerns: []string{"DARKSPOTS"}},
			68,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContentScore(tt.product, tt.profile); got != tt.want {
				t.Errorf("ContentScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContentScoreNeverNegative(t *testing.T) {
	t.Parallel()

	p := domain.Product{Price: 500, Stock: 0, Category: "mask"}
	profile := domain.SkinProfile{
		PreferredCategories: []string{"serum"},
		BudgetRange:         &domain.BudgetRange{Max: ptr(10.0)},
	}
	// 50 - 30 - 50 would be -30
	if got := ContentScore(p, profile); got != 0 {
		t.Errorf("ContentScore() = %v, want 0", got)
	}
}

func TestContentScoreIsIdempotent(t *testing.T) {
	t.Parallel()

	p := domain.Product{Name: "Calm", Description: "gentle soothing gel", Price: 12, Stock: 3, Category: "gel"}
	profile := domain.SkinProfile{SkinType: "sensitive", Concerns: []string{"sensitivity"}}
	first := ContentScore(p, profile)
	for i := 0; i < 5; i++ {
		if got := ContentScore(p, profile); got != first {
			t.Fatalf("run %d: ContentScore() = %v, want %v", i, got, first)
		}
	}
}

func TestReasons(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		product domain.Product
		profile domain.SkinProfile
		want    []string
	}{
		{
			"full order",
			domain.Product{Category: "serum", Price: 20, Stock: 2, Description: "hydrating acne serum"},
			domain.SkinProfile{
				SkinType:            "dry",
				Concerns:            []string{"acne", "dryness", "aging"},
				PreferredCategories: []string{"serum"},
				BudgetRange:         &domain.BudgetRange{Min: ptr(10.0), Max: ptr(30.0)},
			},
			[]string{
				"Matches your preferred category: serum",
				"Within your budget ($10.00 - $30.00)",
				"Suitable for dry skin",
				"Addresses your concerns: acne, dryness",
				"Currently in stock",
			},
		},
		{
			"out of stock is last",
			domain.Product{Price: 40, Stock: 0},
			domain.SkinProfile{BudgetRange: &domain.BudgetRange{Max: ptr(30.0)}},
			[]string{"Above your budget range", "Note: Currently out of stock"},
		},
		{
			"below budget",
			domain.Product{Price: 2, Stock: 1},
			domain.SkinProfile{BudgetRange: &domain.BudgetRange{Min: ptr(5.0)}},
			[]string{"Below your budget range", "Currently in stock"},
		},
		{
			"open upper bound",
			domain.Product{Price: 8, Stock: 1},
			domain.SkinProfile{BudgetRange: &domain.BudgetRange{Min: ptr(5.0)}},
			[]string{"Within your budget ($5.00 and up)", "Currently in stock"},
		},
		{
			"open lower bound",
			domain.Product{Price: 8, Stock: 1},
			domain.SkinProfile{BudgetRange: &domain.BudgetRange{Max: ptr(9.5)}},
			[]string{"Within your budget (up to $9.50)", "Currently in stock"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Reasons(tt.product, tt.profile); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Reasons() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want float64
	}{
		{"2024-01-02T03:04:05.5Z", 1704164645.5},
		{"2024-01-02T03:04:05Z", 1704164645},
		{"2024-01-02 03:04:05", 1704164645},
		{"2024-01-02", 1704153600},
		{"", 0},
		{"yesterday", 0},
		{"02/01/2024", 0},
	}
	for _, tt := range tests {
		if got := ParseTimestamp(tt.in); got != tt.want {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestComputeAggregates(t *testing.T) {
	t.Parallel()

	agg := ComputeAggregates([]domain.Product{
		{Category: "serum", CreatedAt: "2024-01-01"},
		{Category: "serum", CreatedAt: "garbage"},
		{Category: "toner", CreatedAt: "2024-01-03"},
		{},
	})
	if agg.CategoryCounts["serum"] != 2 || agg.CategoryCounts["toner"] != 1 {
		t.Errorf("category counts = %v", agg.CategoryCounts)
	}
	if _, ok := agg.CategoryCounts[""]; ok {
		t.Error("empty category should not be counted")
	}
	if agg.Oldest != ParseTimestamp("2024-01-01") || agg.Newest != ParseTimestamp("2024-01-03") {
		t.Errorf("range = [%v, %v]", agg.Oldest, agg.Newest)
	}

	empty := ComputeAggregates(nil)
	if !math.IsInf(empty.Oldest, 1) || empty.Newest != 0 {
		t.Errorf("empty aggregates = %+v", empty)
	}
}

func TestPopularityScore(t *testing.T) {
	t.Parallel()

	products := []domain.Product{
		{ID: 1, Price: 9, Stock: 1, Category: "serum", CreatedAt: "2024-01-01"},
		{ID: 2, Price: 9, Stock: 0, Category: "serum", CreatedAt: "2024-01-11"},
		{ID: 3, Price: math.NaN(), Stock: 1},
	}
	agg := ComputeAggregates(products)

	tests := []struct {
		name string
		p    domain.Product
		want float64
	}{
		// 30 + 50/10 + 5*2 + 0 recency
		{"oldest in stock", products[0], 45},
		// -20 + 5 + 10 + full recency
		{"newest out of stock", products[1], 5},
		{"non-finite price", products[2], 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PopularityScore(tt.p, agg); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("PopularityScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPopularityDecreasesWithPrice(t *testing.T) {
	t.Parallel()

	agg := ComputeAggregates(nil)
	prev := math.Inf(1)
	for _, price := range []float64{-5, 0, 0.01, 1, 9.99, 50, 1000} {
		got := PopularityScore(domain.Product{Price: price, Stock: 1}, agg)
		if got > prev {
			t.Fatalf("score rose at price %v: %v > %v", price, got, prev)
		}
		prev = got
	}
}

func TestNegativeStockScoresAsOutOfStock(t *testing.T) {
	t.Parallel()

	profile := domain.SkinProfile{SkinType: "dry"}
	empty := domain.Product{ID: 1, Price: 10, Stock: 0, CreatedAt: "2024-01-01"}
	negative := domain.Product{ID: 2, Price: 10, Stock: -3, CreatedAt: "2024-01-01"}
	agg := ComputeAggregates([]domain.Product{empty, negative})

	if a, b := ContentScore(empty, profile), ContentScore(negative, profile); a != b {
		t.Errorf("ContentScore() = %v for stock 0, %v for stock -3", a, b)
	}
	if a, b := PopularityScore(empty, agg), PopularityScore(negative, agg); a != b {
		t.Errorf("PopularityScore() = %v for stock 0, %v for stock -3", a, b)
	}
	reasons := Reasons(negative, profile)
	if last := reasons[len(reasons)-1]; last != "Note: Currently out of stock" {
		t.Errorf("last reason = %q", last)
	}
}

func TestVocabularyLookupIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	for _, key := range []string{"darkSpots", "darkspots", "DARKSPOTS"} {
		if _, ok := Vocabulary.Concerns.Lookup(key); !ok {
			t.Errorf("Lookup(%q) missed", key)
		}
	}
	if _, ok := Vocabulary.SkinTypes.Lookup("Oily"); !ok {
		t.Error("skin type lookup missed Oily")
	}
}
