package query

import (
	"context"
	"strconv"

	"github.com/tair/cosmetics-recommender/internal/payment/domain"
)

// GetTransactionQuery takes the path id verbatim.
type GetTransactionQuery struct {
	ID string
}

// GetTransactionHandler handles get transaction query
type GetTransactionHandler struct {
	repo domain.TransactionRepository
}

// NewGetTransactionHandler creates a new get transaction handler
func NewGetTransactionHandler(repo domain.TransactionRepository) *GetTransactionHandler {
	return &GetTransactionHandler{repo: repo}
}

// Handle returns ErrTransactionNotFound for ids that are not numeric as well as for missing rows.
func (h *GetTransactionHandler) Handle(ctx context.Context, q GetTransactionQuery) (*domain.Transaction, error) {
	id, err := strconv.ParseUint(q.ID, 10, 31)
	if err != nil {
		return nil, domain.ErrTransactionNotFound
	}
	return h.repo.FindByID(ctx, uint(id))
}
