//go:build wireinject
// +build wireinject

package payment

import (
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/tair/cosmetics-recommender/internal/payment/delivery/http"
	"github.com/tair/cosmetics-recommender/internal/payment/usecase/command"
	"github.com/tair/cosmetics-recommender/internal/payment/usecase/query"
)

var RepositorySet = wire.NewSet(
	ProvideTransactionRepository,
	ProvideAccountRepository,
)

var CommandHandlerSet = wire.NewSet(
	command.NewCreateTransactionHandler,
)

var QueryHandlerSet = wire.NewSet(
	query.NewGetTransactionHandler,
	query.NewListAccountsHandler,
)

var AllHandlersSet = wire.NewSet(
	RepositorySet,
	CommandHandlerSet,
	QueryHandlerSet,
	http.NewMetrics,
)

// InitializeHTTPHandler initializes the payment HTTP handler with all dependencies
func InitializeHTTPHandler(db *gorm.DB, reg prometheus.Registerer) (*http.PaymentHandler, error) {
	wire.Build(
		AllHandlersSet,
		http.NewPaymentHandler,
	)
	return nil, nil
}
