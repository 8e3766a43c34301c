package payment

import (
	"gorm.io/gorm"

	"github.com/tair/cosmetics-recommender/internal/payment/domain"
	"github.com/tair/cosmetics-recommender/internal/payment/repository"
)

// ProvideTransactionRepository provides the GORM transaction repository
func ProvideTransactionRepository(db *gorm.DB) domain.TransactionRepository {
	return repository.NewGormTransactionRepository(db)
}

// ProvideAccountRepository provides the GORM account repository
func ProvideAccountRepository(db *gorm.DB) domain.AccountRepository {
	return repository.NewGormAccountRepository(db)
}
