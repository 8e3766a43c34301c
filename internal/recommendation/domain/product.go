package domain

import "strings"

// Product is the catalog row as the recommendation core sees it. Timestamps
// stay strings; scoring parses them itself and treats garbage as absent.
type Product struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Brand        string  `json:"brand,omitempty"`
	Description  string  `json:"description,omitempty"`
	Price        float64 `json:"price"`
	Stock        int     `json:"stock"`
	Category     string  `json:"category,omitempty"`
	Rank         *int    `json:"rank,omitempty"`
	Ingredients  string  `json:"ingredients,omitempty"`
	Combination  *bool   `json:"combination,omitempty"`
	Dry          *bool   `json:"dry,omitempty"`
	Normal       *bool   `json:"normal,omitempty"`
	Oily         *bool   `json:"oily,omitempty"`
	Sensitive    *bool   `json:"sensitive,omitempty"`
	MainImageURL string  `json:"mainImageUrl,omitempty"`
	CreatedAt    string  `json:"createdAt,omitempty"`
	UpdatedAt    string  `json:"updatedAt,omitempty"`
}

// InStock reports whether at least one unit is available.
func (p Product) InStock() bool {
	return p.Stock > 0
}

// SuitsSkinType reports whether the product's flag for skinType is set.
// Unknown skin types and absent flags never match.
func (p Product) SuitsSkinType(skinType string) bool {
	var flag *bool
	switch strings.ToLower(skinType) {
	case "combination":
		flag = p.Combination
	case "dry":
		flag = p.Dry
	case "normal":
		flag = p.Normal
	case "oily":
		flag = p.Oily
	case "sensitive":
		flag = p.Sensitive
	}
	return flag != nil && *flag
}

// ListParams narrows a product store listing. Zero values mean "any".
type ListParams struct {
	Category string
	Query    string
	Limit    int
	Offset   int
}
