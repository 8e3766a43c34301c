package recommendation

import (
	"github.com/tair/cosmetics-recommender/internal/recommendation/client"
	"github.com/tair/cosmetics-recommender/internal/recommendation/delivery/http"
	"github.com/tair/cosmetics-recommender/internal/recommendation/ranking"
	"github.com/tair/cosmetics-recommender/internal/recommendation/usecase/query"
	"github.com/tair/cosmetics-recommender/pkg/config"
)

// ProvideRanker builds the ranker from the configured hybrid weights.
func ProvideRanker(cfg *config.Config) *ranking.Ranker {
	return ranking.NewRanker(ranking.Weights{
		Content:    cfg.Recommend.ContentWeight,
		Popularity: cfg.Recommend.PopularityWeight,
	})
}

// ProvideOptions maps the recommend and llm sections onto orchestrator options.
func ProvideOptions(cfg *config.Config) query.Options {
	return query.Options{
		DefaultLimit:       cfg.Recommend.DefaultLimit,
		MaxLimit:           cfg.Recommend.MaxLimit,
		MaxLLMSelections:   cfg.LLM.MaxSelections,
		CategoryFetchLimit: cfg.Recommend.CategoryFetchLimit,
		BackupFetchLimit:   cfg.Recommend.BackupFetchLimit,
		FullFetchLimit:     cfg.Recommend.FullFetchLimit,
	}
}

func ProvideServiceInfo(cfg *config.Config) http.ServiceInfo {
	return http.ServiceInfo{Name: cfg.Service.Name, Version: cfg.Service.Version}
}

// ProvideGeminiConfig copies the llm section into the client config.
func ProvideGeminiConfig(cfg *config.Config) client.GeminiConfig {
	return client.GeminiConfig{
		APIKey:            cfg.LLM.APIKey,
		Model:             cfg.LLM.Model,
		BaseURL:           cfg.LLM.BaseURL,
		Timeout:           cfg.LLM.Timeout,
		RequestsPerSecond: cfg.LLM.RequestsPerSecond,
		Burst:             cfg.LLM.Burst,
	}
}
