package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrAccountNotFound     = errors.New("account not found")
	ErrInvalidTransaction  = errors.New("invalid transaction")
)

// Account is a balance holder that transactions refer to.
type Account struct {
	ID      uint    `json:"id" gorm:"primaryKey"`
	Balance float64 `json:"balance" gorm:"type:numeric(12,2);not null;default:0"`
}

// TableName specifies the table name
func (Account) TableName() string {
	return "Account"
}

// Transaction records a transfer between two accounts. Balances are not moved.
type Transaction struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	FromAccountID uint      `json:"fromAccountId" gorm:"column:from_account_id;not null"`
	ToAccountID   uint      `json:"toAccountId" gorm:"column:to_account_id;not null"`
	Amount        float64   `json:"amount" gorm:"type:numeric(12,2);not null"`
	CreatedAt     time.Time `json:"createdAt" gorm:"column:created_at"`
}

// TableName specifies the table name
func (Transaction) TableName() string {
	return "Transaction"
}

// AccountMissingError names which side of a transfer could not be found.
type AccountMissingError struct {
	Side string
	ID   uint
}

func (e *AccountMissingError) Error() string {
	return fmt.Sprintf("%s account not found", e.Side)
}

func (e *AccountMissingError) Unwrap() error {
	return ErrAccountNotFound
}

// TransactionRepository defines the contract for transaction data access
type TransactionRepository interface {
	Create(ctx context.Context, tx *Transaction) error
	FindByID(ctx context.Context, id uint) (*Transaction, error)
}

// AccountRepository defines the contract for account data access
type AccountRepository interface {
	FindByID(ctx context.Context, id uint) (*Account, error)
	List(ctx context.Context) ([]Account, error)
}
