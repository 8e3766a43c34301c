package query

import (
	"context"
	"fmt"

	"github.com/tair/cosmetics-recommender/internal/recommendation/domain"
)

// MinConflictProducts is the smallest combination worth checking.
const MinConflictProducts = 2

type CheckIngredientsQuery struct {
	Products []domain.IngredientProduct
}

// CheckIngredientsHandler asks the model whether products conflict.
type CheckIngredientsHandler struct {
	analyzer domain.IngredientAnalyzer
}

// NewCheckIngredientsHandler wires the handler. analyzer may be nil.
func NewCheckIngredientsHandler(analyzer domain.IngredientAnalyzer) *CheckIngredientsHandler {
	return &CheckIngredientsHandler{analyzer: analyzer}
}

// Handle rejects short lists before touching the model. There is no
// algorithmic fallback, so a missing or declining model is an error.
func (h *CheckIngredientsHandler) Handle(ctx context.Context, q CheckIngredientsQuery) (*domain.ConflictReport, error) {
	if len(q.Products) < MinConflictProducts {
		return nil, fmt.Errorf("%w: Please provide at least %d products to analyze", domain.ErrInvalidRequest, MinConflictProducts)
	}
	if h.analyzer == nil {
		return nil, domain.ErrLLMUnavailable
	}

	report, err := h.analyzer.AnalyzeIngredients(ctx, q.Products)
	if err != nil {
		return nil, fmt.Errorf("ingredient analysis failed: %w", err)
	}
	if report.Alternatives == nil {
		report.Alternatives = []string{}
	}
	return report, nil
}
