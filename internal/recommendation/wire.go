//go:build wireinject
// +build wireinject

package recommendation

import (
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tair/cosmetics-recommender/internal/recommendation/client"
	"github.com/tair/cosmetics-recommender/internal/recommendation/delivery/http"
	"github.com/tair/cosmetics-recommender/internal/recommendation/domain"
	"github.com/tair/cosmetics-recommender/internal/recommendation/usecase/query"
	"github.com/tair/cosmetics-recommender/pkg/config"
)

var LLMSet = wire.NewSet(
	wire.Bind(new(domain.ProductSelector), new(*client.GeminiClient)),
	wire.Bind(new(domain.FaceAnalyzer), new(*client.GeminiClient)),
	wire.Bind(new(domain.IngredientAnalyzer), new(*client.GeminiClient)),
	wire.Bind(new(domain.LLMHealthChecker), new(*client.GeminiClient)),
)

var QueryHandlerSet = wire.NewSet(
	ProvideRanker,
	ProvideOptions,
	query.NewGetRecommendationsHandler,
	query.NewAnalyzeFaceHandler,
	query.NewCheckIngredientsHandler,
)

var AllHandlersSet = wire.NewSet(
	LLMSet,
	QueryHandlerSet,
	ProvideServiceInfo,
	http.NewMetrics,
)

// InitializeHTTPHandler initializes the recommendation HTTP handler with all dependencies
func InitializeHTTPHandler(
	cfg *config.Config,
	store domain.ProductStore,
	pinger http.StorePinger,
	gemini *client.GeminiClient,
	images domain.ImageLoader,
	reg prometheus.Registerer,
) (*http.RecommendationHandler, error) {
	wire.Build(
		AllHandlersSet,
		http.NewRecommendationHandler,
	)
	return nil, nil
}
