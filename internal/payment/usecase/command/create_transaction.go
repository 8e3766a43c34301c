package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tair/cosmetics-recommender/internal/payment/domain"
)

// CreateTransactionCommand carries the raw request values; ids arrive as strings.
type CreateTransactionCommand struct {
	FromAccountID string
	ToAccountID   string
	Amount        *float64
}

// CreateTransactionHandler handles transaction creation command
type CreateTransactionHandler struct {
	transactions domain.TransactionRepository
	accounts     domain.AccountRepository
}

// NewCreateTransactionHandler creates a new create transaction handler
func NewCreateTransactionHandler(transactions domain.TransactionRepository, accounts domain.AccountRepository) *CreateTransactionHandler {
	return &CreateTransactionHandler{transactions: transactions, accounts: accounts}
}

// Handle validates the request, checks both accounts exist and records the transfer.
func (h *CreateTransactionHandler) Handle(ctx context.Context, cmd CreateTransactionCommand) (*domain.Transaction, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}

	fromID, err := parseAccountID("fromAccountId", cmd.FromAccountID)
	if err != nil {
		return nil, err
	}
	toID, err := parseAccountID("toAccountId", cmd.ToAccountID)
	if err != nil {
		return nil, err
	}

	if err := h.requireAccount(ctx, "Source", fromID); err != nil {
		return nil, err
	}
	if err := h.requireAccount(ctx, "Destination", toID); err != nil {
		return nil, err
	}

	tx := &domain.Transaction{
		FromAccountID: fromID,
		ToAccountID:   toID,
		Amount:        *cmd.Amount,
	}
	if err := h.transactions.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return tx, nil
}

func (h *CreateTransactionHandler) requireAccount(ctx context.Context, side string, id uint) error {
	_, err := h.accounts.FindByID(ctx, id)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return &domain.AccountMissingError{Side: side, ID: id}
	}
	return err
}

func validate(cmd CreateTransactionCommand) error {
	switch {
	case strings.TrimSpace(cmd.FromAccountID) == "":
		return invalid("fromAccountId is required")
	case strings.TrimSpace(cmd.ToAccountID) == "":
		return invalid("toAccountId is required")
	case cmd.FromAccountID == cmd.ToAccountID:
		return invalid("fromAccountId and toAccountId must be different")
	case cmd.Amount == nil || *cmd.Amount <= 0:
		return invalid("amount must be greater than 0")
	}
	return nil
}

func parseAccountID(field, raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 31)
	if err != nil {
		return 0, invalid(field + " must be a numeric identifier")
	}
	return uint(id), nil
}

// ValidationError carries a client-facing message for a rejected request.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return domain.ErrInvalidTransaction
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}
