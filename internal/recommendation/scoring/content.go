package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/tair/cosmetics-recommender/internal/recommendation/domain"
)

const (
	contentBase        = 50.0
	budgetWithinBonus  = 20.0
	budgetAbovePenalty = 30.0
	budgetBelowBonus   = 5.0
	categoryMatchBonus = 25.0
	categoryAnyBonus   = 10.0
	outOfStockPenalty  = 50.0
	inStockBonus       = 5.0
	skinTypeMatchBonus = 15.0
	skinTypeExtraBonus = 5.0
	concernMatchBonus  = 10.0
	concernExtraBonus  = 3.0
)

type budgetPosition int

const (
	budgetWithin budgetPosition = iota
	budgetBelow
	budgetAbove
)

// bounds expands an optional budget into concrete limits.
func bounds(b *domain.BudgetRange) (lo, hi float64) {
	lo, hi = 0, math.Inf(1)
	if b.Min != nil {
		lo = *b.Min
	}
	if b.Max != nil {
		hi = *b.Max
	}
	return lo, hi
}

func positionInBudget(price float64, b *domain.BudgetRange) budgetPosition {
	lo, hi := bounds(b)
	switch {
	case price > hi:
		return budgetAbove
	case price < lo:
		return budgetBelow
	default:
		return budgetWithin
	}
}

func searchText(p domain.Product) string {
	return strings.ToLower(p.Name + " " + p.Description)
}

func skinTypeMatches(p domain.Product, profile domain.SkinProfile) int {
	if p.Description == "" || profile.SkinType == "" {
		return 0
	}
	keywords, ok := Vocabulary.SkinTypes.Lookup(profile.SkinType)
	if !ok {
		return 0
	}
	return countKeywords(searchText(p), keywords)
}

// concernMatches returns the per-concern keyword counts in profile order.
func concernMatches(p domain.Product, profile domain.SkinProfile) []int {
	counts := make([]int, len(profile.Concerns))
	if p.Description == "" {
		return counts
	}
	text := searchText(p)
	for i, concern := range profile.Concerns {
		if keywords, ok := Vocabulary.Concerns.Lookup(concern); ok {
			counts[i] = countKeywords(text, keywords)
		}
	}
	return counts
}

func preferred(category string, categories []string) bool {
	for _, c := range categories {
		if c == category {
			return true
		}
	}
	return false
}

// ContentScore rates how well p fits profile. The result is never negative.
func ContentScore(p domain.Product, profile domain.SkinProfile) float64 {
	score := contentBase

	if profile.BudgetRange != nil {
		switch positionInBudget(p.Price, profile.BudgetRange) {
		case budgetWithin:
			score += budgetWithinBonus
		case budgetAbove:
			score -= budgetAbovePenalty
		case budgetBelow:
			score += budgetBelowBonus
		}
	}

	if p.Category != "" {
		if len(profile.PreferredCategories) > 0 {
			if preferred(p.Category, profile.PreferredCategories) {
				score += categoryMatchBonus
			}
		} else {
			score += categoryAnyBonus
		}
	}

	if p.InStock() {
		score += inStockBonus
	} else {
		score -= outOfStockPenalty
	}

	if n := skinTypeMatches(p, profile); n > 0 {
		score += skinTypeMatchBonus
		if n > 1 {
			score += skinTypeExtraBonus
		}
	}

	for _, n := range concernMatches(p, profile) {
		if n > 0 {
			score += concernMatchBonus
			if n > 1 {
				score += concernExtraBonus
			}
		}
	}

	return math.Max(0, score)
}

// Reasons explains a recommendation. Order is fixed: category, budget, skin
// type, concerns, stock. Exactly one stock reason is always emitted last.
func Reasons(p domain.Product, profile domain.SkinProfile) []string {
	var reasons []string

	if p.Category != "" && preferred(p.Category, profile.PreferredCategories) {
		reasons = append(reasons, "Matches your preferred category: "+p.Category)
	}

	if profile.BudgetRange != nil {
		switch positionInBudget(p.Price, profile.BudgetRange) {
		case budgetWithin:
			reasons = append(reasons, withinBudgetReason(profile.BudgetRange))
		case budgetBelow:
			reasons = append(reasons, "Below your budget range")
		case budgetAbove:
			reasons = append(reasons, "Above your budget range")
		}
	}

	if skinTypeMatches(p, profile) > 0 {
		reasons = append(reasons, fmt.Sprintf("Suitable for %s skin", profile.SkinType))
	}

	var matched []string
	for i, n := range concernMatches(p, profile) {
		if n > 0 {
			matched = append(matched, profile.Concerns[i])
		}
	}
	if len(matched) > 0 {
		reasons = append(reasons, "Addresses your concerns: "+strings.Join(matched, ", "))
	}

	if p.InStock() {
		reasons = append(reasons, "Currently in stock")
	} else {
		reasons = append(reasons, "Note: Currently out of stock")
	}
	return reasons
}

func withinBudgetReason(b *domain.BudgetRange) string {
	switch {
	case b.Min != nil && b.Max != nil:
		return fmt.Sprintf("Within your budget ($%.2f - $%.2f)", *b.Min, *b.Max)
	case b.Max != nil:
		return fmt.Sprintf("Within your budget (up to $%.2f)", *b.Max)
	case b.Min != nil:
		return fmt.Sprintf("Within your budget ($%.2f and up)", *b.Min)
	default:
		return "Within your budget"
	}
}
