package query

import (
	"context"

	"github.com/tair/cosmetics-recommender/internal/payment/domain"
)

type ListAccountsQuery struct{}

type ListAccountsHandler struct {
	repo domain.AccountRepository
}

func NewListAccountsHandler(repo domain.AccountRepository) *ListAccountsHandler {
	return &ListAccountsHandler{repo: repo}
}

func (h *ListAccountsHandler) Handle(ctx context.Context, _ ListAccountsQuery) ([]domain.Account, error) {
	return h.repo.List(ctx)
}
