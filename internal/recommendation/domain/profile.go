package domain

import (
	"fmt"
	"strings"
)

// SkinTypes accepted on a profile.
var SkinTypes = []string{"dry", "oily", "combination", "sensitive", "normal"}

// BudgetRange bounds price on either side; a nil side is unbounded.
type BudgetRange struct {
	Min *float64 `json:"min,omitempty" validate:"omitempty,gte=0"`
	Max *float64 `json:"max,omitempty" validate:"omitempty,gte=0"`
}

// Contains reports whether price lies inside the range, bounds inclusive.
func (b BudgetRange) Contains(price float64) bool {
	if b.Min != nil && price < *b.Min {
		return false
	}
	if b.Max != nil && price > *b.Max {
		return false
	}
	return true
}

// SkinProfile describes one shopper for the duration of one request.
type SkinProfile struct {
	SkinType            string       `json:"skinType,omitempty" validate:"omitempty,oneof=dry oily combination sensitive normal"`
	Concerns            []string     `json:"concerns,omitempty"`
	PreferredCategories []string     `json:"preferredCategories,omitempty"`
	BudgetRange         *BudgetRange `json:"budgetRange,omitempty"`
	ExcludeProducts     []int64      `json:"excludeProducts,omitempty"`
}

// Summary renders the profile as one line for the LLM prompt.
func (p SkinProfile) Summary() string {
	var parts []string
	if p.SkinType != "" {
		parts = append(parts, "Skin type: "+p.SkinType)
	}
	if len(p.Concerns) > 0 {
		parts = append(parts, "Concerns: "+strings.Join(p.Concerns, ", "))
	}
	if p.BudgetRange != nil {
		min, max := "0.00", "no limit"
		if p.BudgetRange.Min != nil {
			min = fmt.Sprintf("%.2f", *p.BudgetRange.Min)
		}
		if p.BudgetRange.Max != nil {
			max = fmt.Sprintf("$%.2f", *p.BudgetRange.Max)
		}
		parts = append(parts, fmt.Sprintf("Budget: $%s - %s", min, max))
	}
	if len(parts) == 0 {
		return "No specific preferences"
	}
	return strings.Join(parts, "; ")
}

// Excludes reports whether id was explicitly excluded.
func (p SkinProfile) Excludes(id int64) bool {
	for _, ex := range p.ExcludeProducts {
		if ex == id {
			return true
		}
	}
	return false
}
