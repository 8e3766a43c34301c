// Package scoring holds the pure scoring functions used by every ranking
// strategy. Nothing here performs I/O or returns errors.
package scoring

import "strings"

// VocabularyVersion identifies the keyword tables below. Bump it whenever a
// table changes so cached scores and stored reasons can be told apart.
const VocabularyVersion = "2024.1"

// Keywords maps a lower-cased vocabulary key to the substrings that count as
// a match for it.
type Keywords map[string][]string

// Lookup resolves key case-insensitively.
func (k Keywords) Lookup(key string) ([]string, bool) {
	words, ok := k[strings.ToLower(key)]
	return words, ok
}

// VocabularyTable groups the skin-type and concern keyword tables.
type VocabularyTable struct {
	SkinTypes Keywords
	Concerns  Keywords
}

// Vocabulary is shared by the scorer and the reason generator.
var Vocabulary = VocabularyTable{
	SkinTypes: Keywords{
		"dry":         {"dry", "hydrating", "moisturizing", "nourishing", "moisture"},
		"oily":        {"oil-free", "matte", "non-comedogenic", "lightweight", "sebum", "oil control"},
		"combination": {"balance", "combination", "normal", "balanced"},
		"sensitive":   {"sensitive", "gentle", "hypoallergenic", "fragrance-free", "calming", "soothing"},
		"normal":      {"normal", "suitable for all", "universal"},
	},
	Concerns: Keywords{
		"acne":        {"acne", "pimple", "blemish", "breakout", "salicylic", "anti-acne", "clearing"},
		"aging":       {"anti-aging", "wrinkle", "fine line", "collagen", "retinol", "anti-wrinkle", "aging"},
		"darkspots":   {"dark spot", "hyperpigmentation", "brightening", "vitamin c", "lightening", "pigment"},
		"dryness":     {"dry", "hydration", "moisture", "dehydration", "hydrating"},
		"oiliness":    {"oil", "sebum", "pore", "matte", "oil control", "oily"},
		"sensitivity": {"sensitive", "calming", "soothing", "irritation", "gentle"},
	},
}

// countKeywords returns how many distinct keywords occur in text. text must
// already be lower-cased.
func countKeywords(text string, keywords []string) int {
	if text == "" {
		return 0
	}
	n := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			n++
		}
	}
	return n
}
