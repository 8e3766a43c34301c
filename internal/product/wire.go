//go:build wireinject
// +build wireinject

package product

import (
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/tair/cosmetics-recommender/internal/product/delivery/http"
	"github.com/tair/cosmetics-recommender/internal/product/usecase/command"
	"github.com/tair/cosmetics-recommender/internal/product/usecase/query"
	"github.com/tair/cosmetics-recommender/pkg/auth"
)

var RepositorySet = wire.NewSet(
	ProvideProductRepository,
)

var CommandHandlerSet = wire.NewSet(
	command.NewCreateProductHandler,
	command.NewUpdateProductHandler,
	command.NewDeleteProductHandler,
	command.NewUpdateStockHandler,
)

var QueryHandlerSet = wire.NewSet(
	query.NewGetProductHandler,
	query.NewListProductsHandler,
	query.NewGetStatsHandler,
)

var AllHandlersSet = wire.NewSet(
	RepositorySet,
	CommandHandlerSet,
	QueryHandlerSet,
	http.NewMetrics,
)

// InitializeHTTPHandler initializes the product HTTP handler with all dependencies
func InitializeHTTPHandler(
	db *gorm.DB,
	publisher command.EventPublisher,
	signer *auth.Signer,
	reg prometheus.Registerer,
) (*http.ProductHandler, error) {
	wire.Build(
		AllHandlersSet,
		http.NewProductHandlerWithDI,
	)
	return nil, nil
}
