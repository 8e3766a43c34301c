package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrInvalidProduct   = errors.New("invalid product")
	ErrNoFieldsToUpdate = errors.New("no fields to update")
)

// Product is one row of the cosmetics catalog.
type Product struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"not null"`
	Brand        string    `json:"brand,omitempty"`
	Description  string    `json:"description,omitempty"`
	Price        float64   `json:"price" gorm:"not null;default:0"`
	Stock        int       `json:"stock" gorm:"not null;default:0"`
	Category     string    `json:"category,omitempty" gorm:"index"`
	Rank         *int      `json:"rank,omitempty"`
	Ingredients  string    `json:"ingredients,omitempty"`
	Combination  *bool     `json:"combination,omitempty"`
	Dry          *bool     `json:"dry,omitempty"`
	Normal       *bool     `json:"normal,omitempty"`
	Oily         *bool     `json:"oily,omitempty"`
	Sensitive    *bool     `json:"sensitive,omitempty"`
	MainImageURL string    `json:"mainImageUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName specifies the table name
func (Product) TableName() string {
	return "product"
}

// IsAvailable checks if product is in stock
func (p *Product) IsAvailable() bool {
	return p.Stock > 0
}

// Validate checks the invariants every stored row must hold.
func (p *Product) Validate() error {
	switch {
	case p.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	case p.Price < 0:
		return fmt.Errorf("%w: price cannot be negative", ErrInvalidProduct)
	case p.Stock < 0:
		return fmt.Errorf("%w: stock cannot be negative", ErrInvalidProduct)
	}
	return nil
}

// ListFilter narrows a catalog listing. Query matches names case-insensitively.
type ListFilter struct {
	Query    string
	Category string
	Limit    int
	Offset   int
}

// Stats summarises the catalog.
type Stats struct {
	TotalProducts    int64            `json:"totalProducts"`
	InStock          int64            `json:"inStock"`
	OutOfStock       int64            `json:"outOfStock"`
	AveragePrice     float64          `json:"averagePrice"`
	TotalCategories  int64            `json:"totalCategories"`
	SkinTypeSuitable map[string]int64 `json:"skinTypeSuitable"`
}

// ProductRepository defines the contract for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *Product) error
	FindByID(ctx context.Context, id uint) (*Product, error)
	List(ctx context.Context, filter ListFilter) ([]Product, int64, error)
	// Update applies only the given columns and returns the fresh row.
	Update(ctx context.Context, id uint, fields map[string]interface{}) (*Product, error)
	UpdateStock(ctx context.Context, id uint, stock int) (*Product, error)
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (*Stats, error)
}
