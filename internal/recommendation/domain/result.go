package domain

import "strconv"

// ScoredProduct pairs a product with the score one ranking pass gave it.
type ScoredProduct struct {
	Product Product
	Score   float64
}

// Result is the recommendation payload. Every product has a reasons entry.
type Result struct {
	Products []Product           `json:"products"`
	Count    int                 `json:"count"`
	Reasons  map[string][]string `json:"reasons"`

	// Path records which branch produced the result. It is not serialized.
	Path Path `json:"-"`
}

// EmptyResult is the normal outcome when no candidate survives filtering.
func EmptyResult() *Result {
	return &Result{Products: []Product{}, Count: 0, Reasons: map[string][]string{}, Path: PathEmpty}
}

// ReasonKey renders a product id the way the reasons map is keyed.
func ReasonKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Path labels which branch produced a result.
type Path string

const (
	PathLLM       Path = "llm"
	PathAlgorithm Path = "algorithm"
	PathEmpty     Path = "empty"
)
