package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tair/cosmetics-recommender/internal/product/domain"
)

// skinTypeColumns are the boolean suitability flags, in the order stats report them.
var skinTypeColumns = []string{"combination", "dry", "normal", "oily", "sensitive"}

type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Product{})
}

func (r *GormProductRepository) Create(ctx context.Context, product *domain.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *GormProductRepository) FindByID(ctx context.Context, id uint) (*domain.Product, error) {
	var product domain.Product
	err := r.db.WithContext(ctx).First(&product, id).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &product, nil
}

func (r *GormProductRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Product, int64, error) {
	scoped := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&domain.Product{})
		if filter.Query != "" {
			q = q.Where("name ILIKE ?", "%"+filter.Query+"%")
		}
		if filter.Category != "" {
			q = q.Where("category = ?", filter.Category)
		}
		return q
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	products := make([]domain.Product, 0)
	err := scoped().
		Order("created_at DESC").
		Order("id DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *GormProductRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) (*domain.Product, error) {
	if len(fields) == 0 {
		return nil, domain.ErrNoFieldsToUpdate
	}
	result := r.db.WithContext(ctx).Model(&domain.Product{ID: id}).Updates(fields)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrProductNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *GormProductRepository) UpdateStock(ctx context.Context, id uint, stock int) (*domain.Product, error) {
	return r.Update(ctx, id, map[string]interface{}{"stock": stock})
}

func (r *GormProductRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&domain.Product{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *GormProductRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Product{}).Count(&count).Error
	return count, err
}

type statsRow struct {
	Total        int64
	InStock      int64
	OutOfStock   int64
	AveragePrice float64
	Categories   int64
	Combination  int64
	Dry          int64
	Normal       int64
	Oily         int64
	Sensitive    int64
}

// Stats aggregates the whole catalog in a single statement.
func (r *GormProductRepository) Stats(ctx context.Context) (*domain.Stats, error) {
	selects := "COUNT(*) AS total, " +
		"COUNT(*) FILTER (WHERE stock > 0) AS in_stock, " +
		"COUNT(*) FILTER (WHERE stock <= 0) AS out_of_stock, " +
		"COALESCE(AVG(price), 0) AS average_price, " +
		"COUNT(DISTINCT NULLIF(category, '')) AS categories"
	for _, col := range skinTypeColumns {
		selects += fmt.Sprintf(", COUNT(*) FILTER (WHERE %s IS TRUE) AS %s", col, col)
	}

	var row statsRow
	if err := r.db.WithContext(ctx).Model(&domain.Product{}).Select(selects).Scan(&row).Error; err != nil {
		return nil, err
	}

	return &domain.Stats{
		TotalProducts:   row.Total,
		InStock:         row.InStock,
		OutOfStock:      row.OutOfStock,
		AveragePrice:    row.AveragePrice,
		TotalCategories: row.Categories,
		SkinTypeSuitable: map[string]int64{
			"combination": row.Combination,
			"dry":         row.Dry,
			"normal":      row.Normal,
			"oily":        row.Oily,
			"sensitive":   row.Sensitive,
		},
	}, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrProductNotFound
	}
	return err
}
