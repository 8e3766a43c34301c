package repository

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/cosmetics-recommender/internal/product/domain"
)

var tracer = otel.Tracer("product-repository")

// TracingProductRepository wraps a repository with one span per call
type TracingProductRepository struct {
	next domain.ProductRepository
}

// NewTracingProductRepository creates a new repository with tracing
func NewTracingProductRepository(next domain.ProductRepository) *TracingProductRepository {
	return &TracingProductRepository{next: next}
}

func (r *TracingProductRepository) Create(ctx context.Context, product *domain.Product) error {
	ctx, span := tracer.Start(ctx, "repository.Create",
		trace.WithAttributes(
			attribute.String("product.name", product.Name),
			attribute.String("product.category", product.Category),
			attribute.Float64("product.price", product.Price),
			attribute.Int("product.stock", product.Stock),
		),
	)
	defer span.End()

	if err := r.next.Create(ctx, product); err != nil {
		addDBErrorToSpan(span, err)
		return err
	}

	span.SetAttributes(attribute.Int("product.id", int(product.ID)))
	return nil
}

func (r *TracingProductRepository) FindByID(ctx context.Context, id uint) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "repository.FindByID",
		trace.WithAttributes(attribute.Int("product.id", int(id))),
	)
	defer span.End()

	product, err := r.next.FindByID(ctx, id)
	if err != nil {
		addDBErrorToSpan(span, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("product.name", product.Name),
		attribute.Bool("product.available", product.IsAvailable()),
	)
	return product, nil
}

func (r *TracingProductRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Product, int64, error) {
	ctx, span := tracer.Start(ctx, "repository.List",
		trace.WithAttributes(
			attribute.String("query.q", filter.Query),
			attribute.String("query.category", filter.Category),
			attribute.Int("query.limit", filter.Limit),
			attribute.Int("query.offset", filter.Offset),
		),
	)
	defer span.End()

	products, total, err := r.next.List(ctx, filter)
	if err != nil {
		addDBErrorToSpan(span, err)
		return nil, 0, err
	}

	span.SetAttributes(
		attribute.Int("result.count", len(products)),
		attribute.Int64("result.total", total),
	)
	return products, total, nil
}

func (r *TracingProductRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) (*domain.Product, error) {
	columns := make([]string, 0, len(fields))
	for col := range fields {
		columns = append(columns, col)
	}
	ctx, span := tracer.Start(ctx, "repository.Update",
		trace.WithAttributes(
			attribute.Int("product.id", int(id)),
			attribute.StringSlice("update.columns", columns),
		),
	)
	defer span.End()

	product, err := r.next.Update(ctx, id, fields)
	if err != nil {
		addDBErrorToSpan(span, err)
		return nil, err
	}
	return product, nil
}

func (r *TracingProductRepository) UpdateStock(ctx context.Context, id uint, stock int) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "repository.UpdateStock",
		trace.WithAttributes(
			attribute.Int("product.id", int(id)),
			attribute.Int("stock.new_value", stock),
		),
	)
	defer span.End()

	product, err := r.next.UpdateStock(ctx, id, stock)
	if err != nil {
		addDBErrorToSpan(span, err)
		return nil, err
	}
	return product, nil
}

func (r *TracingProductRepository) Delete(ctx context.Context, id uint) error {
	ctx, span := tracer.Start(ctx, "repository.Delete",
		trace.WithAttributes(attribute.Int("product.id", int(id))),
	)
	defer span.End()

	if err := r.next.Delete(ctx, id); err != nil {
		addDBErrorToSpan(span, err)
		return err
	}
	return nil
}

func (r *TracingProductRepository) Count(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "repository.Count")
	defer span.End()

	count, err := r.next.Count(ctx)
	if err != nil {
		addDBErrorToSpan(span, err)
		return 0, err
	}

	span.SetAttributes(attribute.Int64("result.count", count))
	return count, nil
}

func (r *TracingProductRepository) Stats(ctx context.Context) (*domain.Stats, error) {
	ctx, span := tracer.Start(ctx, "repository.Stats")
	defer span.End()

	stats, err := r.next.Stats(ctx)
	if err != nil {
		addDBErrorToSpan(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int64("result.total", stats.TotalProducts))
	return stats, nil
}

// addDBErrorToSpan marks the span failed, except for plain misses.
func addDBErrorToSpan(span trace.Span, err error) {
	if errors.Is(err, domain.ErrProductNotFound) {
		span.SetAttributes(attribute.Bool("result.found", false))
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "database error: "+err.Error())
}
