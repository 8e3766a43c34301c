package query

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/tair/cosmetics-recommender/internal/recommendation/domain"
	"github.com/tair/cosmetics-recommender/internal/recommendation/ranking"
	"github.com/tair/cosmetics-recommender/pkg/logger"
)

const defaultSkinType = "normal"

// AnalyzeFaceQuery carries the photo plus whatever the user told us.
type AnalyzeFaceQuery struct {
	ImageRef    string
	SkinType    string
	Concerns    []string
	BudgetRange *domain.BudgetRange
	Limit       int
}

// FaceAnalysisResult combines the inferred profile with recommendations for it.
type FaceAnalysisResult struct {
	SkinType         string         `json:"skinType"`
	DetectedConcerns []string       `json:"detectedConcerns"`
	AnalysisResult   string         `json:"analysisResult"`
	Recommendations  *domain.Result `json:"recommendations"`
}

// AnalyzeFaceHandler infers a skin profile from a photo and recommends for it.
type AnalyzeFaceHandler struct {
	images          domain.ImageLoader
	analyzer        domain.FaceAnalyzer
	recommendations *GetRecommendationsHandler
}

// NewAnalyzeFaceHandler wires the handler. analyzer may be nil; the image is
// only fetched when the analyzer is available.
func NewAnalyzeFaceHandler(images domain.ImageLoader, analyzer domain.FaceAnalyzer, recommendations *GetRecommendationsHandler) *AnalyzeFaceHandler {
	return &AnalyzeFaceHandler{images: images, analyzer: analyzer, recommendations: recommendations}
}

// Handle never fails because the model is missing; it falls back to the
// skin type the user supplied.
func (h *AnalyzeFaceHandler) Handle(ctx context.Context, q AnalyzeFaceQuery) (*FaceAnalysisResult, error) {
	if strings.TrimSpace(q.ImageRef) == "" {
		return nil, fmt.Errorf("%w: imageUrl is required", domain.ErrInvalidRequest)
	}

	analysis, err := h.analyze(ctx, q)
	if err != nil {
		return nil, err
	}

	recs, err := h.recommendations.Handle(ctx, GetRecommendationsQuery{
		Profile: domain.SkinProfile{
			SkinType:    analysis.SkinType,
			Concerns:    analysis.Concerns,
			BudgetRange: q.BudgetRange,
		},
		Limit:    q.Limit,
		Strategy: string(ranking.StrategyHybrid),
	})
	if err != nil {
		return nil, err
	}

	return &FaceAnalysisResult{
		SkinType:         analysis.SkinType,
		DetectedConcerns: analysis.Concerns,
		AnalysisResult:   analysis.Analysis,
		Recommendations:  recs,
	}, nil
}

func (h *AnalyzeFaceHandler) analyze(ctx context.Context, q AnalyzeFaceQuery) (*domain.FaceAnalysis, error) {
	fallback := fallbackAnalysis(q.SkinType, q.Concerns)
	if h.analyzer == nil || !h.analyzer.Available() {
		return fallback, nil
	}

	image, mimeType, err := h.images.Load(ctx, q.ImageRef)
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return nil, err
	case err != nil:
		logger.Warn(ctx).Err(err).Msg("Could not load image, using provided profile")
		return fallback, nil
	}

	analysis, err := h.analyzer.AnalyzeImage(ctx, image, mimeType)
	if err != nil {
		logger.Warn(ctx).Err(err).Msg("Facial analysis failed, using provided profile")
		return fallback, nil
	}

	analysis.SkinType = strings.ToLower(strings.TrimSpace(analysis.SkinType))
	if !slices.Contains(domain.SkinTypes, analysis.SkinType) {
		analysis.SkinType = fallback.SkinType
	}
	if analysis.Concerns == nil {
		analysis.Concerns = []string{}
	}
	return analysis, nil
}

func fallbackAnalysis(skinType string, concerns []string) *domain.FaceAnalysis {
	if skinType == "" {
		skinType = defaultSkinType
	}
	if concerns == nil {
		concerns = []string{}
	}
	return &domain.FaceAnalysis{
		SkinType: skinType,
		Concerns: concerns,
		Analysis: "AI analysis not available. Using provided skin type: " + skinType,
	}
}
