package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/cosmetics-recommender/internal/recommendation/domain"
	"github.com/tair/cosmetics-recommender/internal/recommendation/ranking"
	"github.com/tair/cosmetics-recommender/internal/recommendation/scoring"
	"github.com/tair/cosmetics-recommender/pkg/logger"
)

var tracer = otel.Tracer("recommendation-usecase")

const (
	DefaultLimit        = 10
	MaxLimit            = 50
	DefaultLLMSelection = 5

	// DefaultLLMReason is used when the model selected a product without
	// explaining it.
	DefaultLLMReason = "Selected as a good match for your profile"

	notSpecified = "Not specified"
)

// Options tunes candidate fetching and limits.
type Options struct {
	DefaultLimit       int
	MaxLimit           int
	MaxLLMSelections   int
	CategoryFetchLimit int
	BackupFetchLimit   int
	FullFetchLimit     int
}

// DefaultOptions mirrors the values the service ships with.
func DefaultOptions() Options {
	return Options{
		DefaultLimit:       DefaultLimit,
		MaxLimit:           MaxLimit,
		MaxLLMSelections:   DefaultLLMSelection,
		CategoryFetchLimit: 50,
		BackupFetchLimit:   100,
		FullFetchLimit:     200,
	}
}

// GetRecommendationsQuery asks for up to Limit products for Profile.
type GetRecommendationsQuery struct {
	Profile  domain.SkinProfile
	Limit    int
	Strategy string
}

// GetRecommendationsHandler runs one recommendation request end to end. It
// keeps no state between calls.
type GetRecommendationsHandler struct {
	store    domain.ProductStore
	selector domain.ProductSelector
	ranker   *ranking.Ranker
	opts     Options
}

// NewGetRecommendationsHandler wires the orchestrator. selector may be nil,
// in which case every request takes the algorithmic path.
func NewGetRecommendationsHandler(store domain.ProductStore, selector domain.ProductSelector, ranker *ranking.Ranker, opts Options) *GetRecommendationsHandler {
	return &GetRecommendationsHandler{
		store:    store,
		selector: selector,
		ranker:   ranker,
		opts:     opts,
	}
}

// Handle fetches, filters and ranks candidates. Collaborator failures degrade
// to fewer candidates or to the algorithmic path; only an invalid query is
// returned as an error.
func (h *GetRecommendationsHandler) Handle(ctx context.Context, q GetRecommendationsQuery) (*domain.Result, error) {
	if q.Limit == 0 {
		q.Limit = h.opts.DefaultLimit
	}
	if q.Limit < 1 || q.Limit > h.opts.MaxLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", domain.ErrInvalidRequest, h.opts.MaxLimit)
	}
	strategy := ranking.ParseStrategy(q.Strategy)
	profile := q.Profile

	ctx, span := tracer.Start(ctx, "GetRecommendations",
		trace.WithAttributes(
			attribute.String("profile.skin_type", profile.SkinType),
			attribute.StringSlice("profile.concerns", profile.Concerns),
			attribute.StringSlice("profile.categories", profile.PreferredCategories),
			attribute.Int("request.limit", q.Limit),
			attribute.String("request.strategy", string(strategy)),
		),
	)
	defer span.End()

	candidates := h.fetchCandidates(ctx, profile.PreferredCategories)
	span.SetAttributes(attribute.Int("candidates.fetched", len(candidates)))

	candidates = filter(candidates, func(p domain.Product) bool { return !profile.Excludes(p.ID) })
	if len(candidates) == 0 {
		return finish(span, domain.EmptyResult()), nil
	}

	if profile.SkinType != "" {
		skinType := strings.ToLower(profile.SkinType)
		candidates = filter(candidates, func(p domain.Product) bool { return p.SuitsSkinType(skinType) })
		if len(candidates) == 0 {
			return finish(span, domain.EmptyResult()), nil
		}
	}

	if profile.BudgetRange != nil {
		budget := *profile.BudgetRange
		candidates = filter(candidates, func(p domain.Product) bool { return budget.Contains(p.Price) })
		if len(candidates) == 0 {
			return finish(span, domain.EmptyResult()), nil
		}
	}
	span.SetAttributes(attribute.Int("candidates.filtered", len(candidates)))

	if result, ok := h.selectWithLLM(ctx, candidates, profile, q.Limit); ok {
		return finish(span, result), nil
	}
	return finish(span, h.rank(candidates, profile, strategy, q.Limit)), nil
}

func finish(span trace.Span, result *domain.Result) *domain.Result {
	span.SetAttributes(
		attribute.String("result.path", string(result.Path)),
		attribute.Int("result.count", result.Count),
	)
	return result
}

// fetchCandidates never fails: a store error only shrinks the candidate set.
func (h *GetRecommendationsHandler) fetchCandidates(ctx context.Context, categories []string) []domain.Product {
	seen := make(map[int64]struct{})
	var candidates []domain.Product
	add := func(products []domain.Product) {
		for _, p := range products {
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
			candidates = append(candidates, p)
		}
	}

	for _, category := range categories {
		products, err := h.store.List(ctx, domain.ListParams{Category: category, Limit: h.opts.CategoryFetchLimit})
		if err != nil {
			logger.Warn(ctx).Err(err).Str("category", category).Msg("Category fetch failed, skipping")
			continue
		}
		add(products)
	}

	if len(candidates) > 0 {
		products, err := h.store.List(ctx, domain.ListParams{Limit: h.opts.BackupFetchLimit})
		if err != nil {
			logger.Warn(ctx).Err(err).Msg("Backup fetch failed, keeping category results")
			return candidates
		}
		add(products)
		return candidates
	}

	products, err := h.store.List(ctx, domain.ListParams{Limit: h.opts.FullFetchLimit})
	if err != nil {
		logger.Error(ctx).Err(err).Msg("Product fetch failed, no candidates")
		return nil
	}
	add(products)
	return candidates
}

func filter(products []domain.Product, keep func(domain.Product) bool) []domain.Product {
	out := products[:0:0]
	for _, p := range products {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// selectWithLLM reports false whenever the caller must fall back to ranking.
func (h *GetRecommendationsHandler) selectWithLLM(ctx context.Context, candidates []domain.Product, profile domain.SkinProfile, limit int) (*domain.Result, bool) {
	if h.selector == nil || !h.selector.Available() {
		return nil, false
	}

	maxSelections := min(limit, h.opts.MaxLLMSelections)
	view := make([]domain.ProductCandidate, 0, len(candidates))
	for _, p := range candidates {
		ingredients := strings.TrimSpace(p.Ingredients)
		if ingredients == "" {
			ingredients = notSpecified
		}
		view = append(view, domain.ProductCandidate{ID: p.ID, Name: p.Name, Ingredients: ingredients})
	}

	selection, err := h.selector.SelectTopProducts(ctx, view, profile.Summary(), maxSelections)
	if err != nil {
		if errors.Is(err, domain.ErrLLMDeclined) {
			logger.Info(ctx).Err(err).Msg("LLM declined, falling back to ranking")
		} else {
			logger.Warn(ctx).Err(err).Msg("LLM selection failed, falling back to ranking")
		}
		return nil, false
	}
	if selection == nil || len(selection.ProductIDs) == 0 {
		return nil, false
	}

	chosen := make(map[int64]struct{}, len(selection.ProductIDs))
	for _, id := range selection.ProductIDs {
		chosen[id] = struct{}{}
	}

	result := &domain.Result{Products: []domain.Product{}, Reasons: map[string][]string{}, Path: domain.PathLLM}
	for _, p := range candidates {
		if len(result.Products) == maxSelections {
			break
		}
		if _, ok := chosen[p.ID]; !ok {
			continue
		}
		reason := strings.TrimSpace(selection.Reasons[p.ID])
		if reason == "" {
			reason = DefaultLLMReason
		}
		result.Products = append(result.Products, p)
		result.Reasons[domain.ReasonKey(p.ID)] = []string{reason}
	}

	if len(result.Products) == 0 {
		logger.Info(ctx).Int("selected", len(selection.ProductIDs)).Msg("LLM selected no known products, falling back to ranking")
		return nil, false
	}
	result.Count = len(result.Products)
	return result, true
}

func (h *GetRecommendationsHandler) rank(candidates []domain.Product, profile domain.SkinProfile, strategy ranking.Strategy, limit int) *domain.Result {
	ranked := h.ranker.Rank(strategy, candidates, profile)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	result := &domain.Result{
		Products: make([]domain.Product, 0, len(ranked)),
		Reasons:  make(map[string][]string, len(ranked)),
		Path:     domain.PathAlgorithm,
	}
	for _, sp := range ranked {
		result.Products = append(result.Products, sp.Product)
		result.Reasons[domain.ReasonKey(sp.Product.ID)] = scoring.Reasons(sp.Product, profile)
	}
	result.Count = len(result.Products)
	return result
}
