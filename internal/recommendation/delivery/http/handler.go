package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tair/cosmetics-recommender/internal/recommendation/domain"
	"github.com/tair/cosmetics-recommender/internal/recommendation/usecase/query"
	"github.com/tair/cosmetics-recommender/pkg/logger"
	"github.com/tair/cosmetics-recommender/pkg/middleware"
	"github.com/tair/cosmetics-recommender/pkg/validation"
)

// Metrics holds the recommendation service collectors.
type Metrics struct {
	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	requestSummary *prometheus.SummaryVec
	pathCounter    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recommendation_service_requests_total",
				Help: "Total number of requests to recommendation service",
			},
			[]string{"method", "endpoint", "status"},
		),
		requestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recommendation_service_request_duration_seconds",
				Help:    "Duration of recommendation service requests in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method", "endpoint"},
		),
		requestSummary: prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Name: "recommendation_service_request_duration_summary",
				Help: "Summary of request durations with percentiles (client-side quantiles)",
				Objectives: map[float64]float64{
					0.5:  0.05,
					0.9:  0.01,
					0.95: 0.01,
					0.99: 0.001,
				},
				MaxAge: 10 * time.Minute,
			},
			[]string{"method", "endpoint"},
		),
		pathCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recommendation_path_total",
				Help: "Recommendation results by the path that produced them (llm, algorithm, empty)",
			},
			[]string{"path"},
		),
	}

	reg.MustRegister(m.requestCounter, m.requestLatency, m.requestSummary, m.pathCounter)
	return m
}

// ServiceInfo is reported by the banner and health endpoints.
type ServiceInfo struct {
	Name    string
	Version string
}

// StorePinger is satisfied by the product store client.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// RecommendationHandler serves the recommendation, facial analysis and
// ingredient conflict endpoints.
type RecommendationHandler struct {
	recommendations *query.GetRecommendationsHandler
	faceAnalysis    *query.AnalyzeFaceHandler
	ingredients     *query.CheckIngredientsHandler

	store   StorePinger
	llm     domain.LLMHealthChecker
	info    ServiceInfo
	metrics *Metrics
}

// NewRecommendationHandler creates a new recommendation handler.
// This is used by Wire for automatic dependency injection
func NewRecommendationHandler(
	recommendations *query.GetRecommendationsHandler,
	faceAnalysis *query.AnalyzeFaceHandler,
	ingredients *query.CheckIngredientsHandler,
	store StorePinger,
	llm domain.LLMHealthChecker,
	info ServiceInfo,
	metrics *Metrics,
) *RecommendationHandler {
	return &RecommendationHandler{
		recommendations: recommendations,
		faceAnalysis:    faceAnalysis,
		ingredients:     ingredients,
		store:           store,
		llm:             llm,
		info:            info,
		metrics:         metrics,
	}
}

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// metricsMiddleware wraps handlers with Prometheus metrics
func (h *RecommendationHandler) metricsMiddleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rec := middleware.NewStatusRecorder(w)
		next.ServeHTTP(rec, r)

		duration := time.Since(start).Seconds()
		h.metrics.requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rec.Status())).Inc()
		h.metrics.requestLatency.WithLabelValues(r.Method, endpoint).Observe(duration)
		h.metrics.requestSummary.WithLabelValues(r.Method, endpoint).Observe(duration)
	}
}

func (h *RecommendationHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/", h.Root).Methods(http.MethodGet)
	router.HandleFunc("/api/health", h.Health).Methods(http.MethodGet)
	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	router.HandleFunc("/api/recommendations", h.metricsMiddleware("/api/recommendations", h.GetRecommendations)).Methods(http.MethodPost)
	router.HandleFunc("/api/recommendations/quick", h.metricsMiddleware("/api/recommendations/quick", h.QuickRecommendations)).Methods(http.MethodGet)
	router.HandleFunc("/api/facial-analysis", h.metricsMiddleware("/api/facial-analysis", h.AnalyzeFace)).Methods(http.MethodPost)
	router.HandleFunc("/api/ingredient-conflict", h.metricsMiddleware("/api/ingredient-conflict", h.CheckIngredients)).Methods(http.MethodPost)
}

type recommendationRequest struct {
	SkinProfile domain.SkinProfile `json:"skinProfile"`
	Limit       *int               `json:"limit" validate:"omitempty,min=1,max=50"`
	Strategy    string             `json:"strategy"`
}

type facialAnalysisRequest struct {
	ImageURL         string              `json:"imageUrl" validate:"required"`
	SkinType         string              `json:"skinType" validate:"omitempty,oneof=dry oily combination sensitive normal"`
	DetectedConcerns []string            `json:"detectedConcerns"`
	BudgetRange      *domain.BudgetRange `json:"budgetRange"`
	Limit            *int                `json:"limit" validate:"omitempty,min=1,max=50"`
}

type ingredientConflictRequest struct {
	Products []domain.IngredientProduct `json:"products"`
}

// GetRecommendations handles POST /api/recommendations
func (h *RecommendationHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	var req recommendationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.SkinProfile.SkinType = normalizeSkinType(req.SkinProfile.SkinType)
	if !validate(w, &req) {
		return
	}

	result, err := h.recommendations.Handle(r.Context(), query.GetRecommendationsQuery{
		Profile:  req.SkinProfile,
		Limit:    intOrZero(req.Limit),
		Strategy: req.Strategy,
	})
	if err != nil {
		h.respondDomainError(r.Context(), w, err, "Failed to generate recommendations")
		return
	}

	h.metrics.pathCounter.WithLabelValues(string(result.Path)).Inc()
	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    result,
	})
}

// QuickRecommendations handles GET /api/recommendations/quick
func (h *RecommendationHandler) QuickRecommendations(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	var limit int
	if raw := params.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > query.MaxLimit {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 50")
			return
		}
		limit = n
	}

	profile := domain.SkinProfile{SkinType: normalizeSkinType(params.Get("skinType"))}
	if category := strings.TrimSpace(params.Get("category")); category != "" {
		profile.PreferredCategories = []string{category}
	}

	result, err := h.recommendations.Handle(r.Context(), query.GetRecommendationsQuery{
		Profile:  profile,
		Limit:    limit,
		Strategy: params.Get("strategy"),
	})
	if err != nil {
		h.respondDomainError(r.Context(), w, err, "Failed to generate recommendations")
		return
	}

	h.metrics.pathCounter.WithLabelValues(string(result.Path)).Inc()
	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    result,
	})
}

// AnalyzeFace handles POST /api/facial-analysis
func (h *RecommendationHandler) AnalyzeFace(w http.ResponseWriter, r *http.Request) {
	var req facialAnalysisRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.SkinType = normalizeSkinType(req.SkinType)
	if !validate(w, &req) {
		return
	}

	result, err := h.faceAnalysis.Handle(r.Context(), query.AnalyzeFaceQuery{
		ImageRef:    req.ImageURL,
		SkinType:    req.SkinType,
		Concerns:    req.DetectedConcerns,
		BudgetRange: req.BudgetRange,
		Limit:       intOrZero(req.Limit),
	})
	if err != nil {
		h.respondDomainError(r.Context(), w, err, "Failed to analyze facial image")
		return
	}

	h.metrics.pathCounter.WithLabelValues(string(result.Recommendations.Path)).Inc()
	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    result,
	})
}

// CheckIngredients handles POST /api/ingredient-conflict
func (h *RecommendationHandler) CheckIngredients(w http.ResponseWriter, r *http.Request) {
	var req ingredientConflictRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	report, err := h.ingredients.Handle(r.Context(), query.CheckIngredientsQuery{Products: req.Products})
	if err != nil {
		h.respondDomainError(r.Context(), w, err, "Failed to analyze ingredient conflicts")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    report,
	})
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	OK                    bool             `json:"ok"`
	Service               string           `json:"service"`
	Version               string           `json:"version"`
	ProductStoreConnected bool             `json:"productStoreConnected"`
	LLMClient             domain.LLMHealth `json:"llmClient"`
}

// Health handles GET /api/health. A product store outage is reported, not
// turned into a failing status, because recommendations degrade without it.
func (h *RecommendationHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	connected := false
	if h.store != nil {
		if err := h.store.Ping(ctx); err != nil {
			logger.Warn(r.Context()).Err(err).Msg("Product store health check failed")
		} else {
			connected = true
		}
	}

	llm := domain.LLMHealth{Reason: "LLM client not configured"}
	if h.llm != nil {
		llm = h.llm.Health(ctx)
	}

	respondJSON(w, http.StatusOK, HealthResponse{
		OK:                    true,
		Service:               h.info.Name,
		Version:               h.info.Version,
		ProductStoreConnected: connected,
		LLMClient:             llm,
	})
}

// Root handles GET /
func (h *RecommendationHandler) Root(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": h.info.Name,
		"version": h.info.Version,
		"status":  "running",
		"endpoints": map[string]string{
			"health":                "/api/health",
			"recommendations":       "/api/recommendations (POST)",
			"quick_recommendations": "/api/recommendations/quick (GET)",
			"facial_analysis":       "/api/facial-analysis (POST)",
			"ingredient_conflict":   "/api/ingredient-conflict (POST)",
		},
	})
}

func (h *RecommendationHandler) respondDomainError(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		respondError(w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), domain.ErrInvalidRequest.Error()+": "))
	case errors.Is(err, domain.ErrLLMUnavailable):
		logger.Warn(ctx).Err(err).Msg(msg)
		respondError(w, http.StatusServiceUnavailable, "LLM service is not available")
	case errors.Is(err, domain.ErrLLMDeclined):
		logger.Warn(ctx).Err(err).Msg(msg)
		respondError(w, http.StatusServiceUnavailable, "LLM analysis failed. The AI service returned no results")
	default:
		logger.Error(ctx).Err(err).Msg(msg)
		respondError(w, http.StatusInternalServerError, msg)
	}
}

func normalizeSkinType(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func validate(w http.ResponseWriter, dst interface{}) bool {
	if err := validation.ValidateStruct(dst); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, Response{
		Success: false,
		Error:   message,
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to encode response")
	}
}
