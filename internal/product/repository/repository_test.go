package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tair/cosmetics-recommender/internal/product/domain"
)

var productColumns = []string{
	"id", "name", "brand", "description", "price", "stock", "category", "rank",
	"ingredients", "combination", "dry", "normal", "oily", "sensitive",
	"main_image_url", "created_at", "updated_at",
}

func newMockRepo(t *testing.T) (*GormProductRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
	})
	if err != nil {
		t.Fatalf("failed to open gorm: %v", err)
	}
	return NewGormProductRepository(db), mock
}

func TestFindByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(productColumns).
		AddRow(7, "Hydra Serum", "Acme", "hydrating serum", 20.5, 3, "serum", nil,
			"water, glycerin", nil, true, nil, false, nil, "", now, now)
	mock.ExpectQuery(`SELECT \* FROM "product" WHERE "product"."id" = \$1`).WillReturnRows(rows)

	product, err := repo.FindByID(context.Background(), 7)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if product.Name != "Hydra Serum" || product.Price != 20.5 {
		t.Errorf("product = %+v", product)
	}
	if product.Dry == nil || !*product.Dry {
		t.Error("dry flag not scanned")
	}
	if product.Sensitive != nil {
		t.Error("NULL sensitive flag should stay nil")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestFindByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`SELECT \* FROM "product"`).WillReturnRows(sqlmock.NewRows(productColumns))

	_, err := repo.FindByID(context.Background(), 99)
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("FindByID() error = %v, want ErrProductNotFound", err)
	}
}

func TestListAppliesFiltersAndOrdering(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "product" WHERE name ILIKE \$1 AND category = \$2`).
		WithArgs("%serum%", "serum").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`SELECT \* FROM "product" WHERE name ILIKE \$1 AND category = \$2 ORDER BY created_at DESC,id DESC LIMIT \$3 OFFSET \$4`).
		WithArgs("%serum%", "serum", 10, 5).
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow(2, "B serum", "", "", 10, 1, "serum", nil, "", nil, nil, nil, nil, nil, "", now, now).
			AddRow(1, "A serum", "", "", 12, 0, "serum", nil, "", nil, nil, nil, nil, nil, "", now, now))

	products, total, err := repo.List(context.Background(), domain.ListFilter{
		Query: "serum", Category: "serum", Limit: 10, Offset: 5,
	})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 2 || len(products) != 2 {
		t.Fatalf("total = %d, len = %d", total, len(products))
	}
	if products[0].ID != 2 {
		t.Errorf("first id = %d, want 2", products[0].ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpdateStockMissingRow(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(`UPDATE "product" SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.UpdateStock(context.Background(), 5, 10)
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("UpdateStock() error = %v, want ErrProductNotFound", err)
	}
}

func TestUpdateWithoutFields(t *testing.T) {
	repo, _ := newMockRepo(t)

	_, err := repo.Update(context.Background(), 5, nil)
	if !errors.Is(err, domain.ErrNoFieldsToUpdate) {
		t.Fatalf("Update() error = %v, want ErrNoFieldsToUpdate", err)
	}
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{name: "deleted", affected: 1},
		{name: "missing", affected: 0, wantErr: domain.ErrProductNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectExec(`DELETE FROM "product" WHERE "product"."id" = \$1`).
				WithArgs(3).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			err := repo.Delete(context.Background(), 3)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Delete() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestStats(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) AS total`).
		WillReturnRows(sqlmock.NewRows([]string{
			"total", "in_stock", "out_of_stock", "average_price", "categories",
			"combination", "dry", "normal", "oily", "sensitive",
		}).AddRow(10, 7, 3, 24.5, 4, 1, 2, 3, 4, 5))

	stats, err := repo.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalProducts != 10 || stats.InStock != 7 || stats.OutOfStock != 3 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.AveragePrice != 24.5 || stats.TotalCategories != 4 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.SkinTypeSuitable["sensitive"] != 5 || stats.SkinTypeSuitable["dry"] != 2 {
		t.Errorf("skin types = %v", stats.SkinTypeSuitable)
	}
}
