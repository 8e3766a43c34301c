package product

import (
	"gorm.io/gorm"

	"github.com/tair/cosmetics-recommender/internal/product/domain"
	"github.com/tair/cosmetics-recommender/internal/product/repository"
)

// ProvideProductRepository provides the traced GORM repository
func ProvideProductRepository(db *gorm.DB) domain.ProductRepository {
	return repository.NewTracingProductRepository(repository.NewGormProductRepository(db))
}
