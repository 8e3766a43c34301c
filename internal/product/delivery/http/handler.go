package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tair/cosmetics-recommender/internal/product/domain"
	"github.com/tair/cosmetics-recommender/internal/product/usecase/command"
	"github.com/tair/cosmetics-recommender/internal/product/usecase/query"
	"github.com/tair/cosmetics-recommender/pkg/auth"
	"github.com/tair/cosmetics-recommender/pkg/logger"
	"github.com/tair/cosmetics-recommender/pkg/middleware"
	"github.com/tair/cosmetics-recommender/pkg/validation"
)

// Metrics holds the product service collectors.
type Metrics struct {
	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	requestSummary *prometheus.SummaryVec
	totalProducts  prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "product_service_requests_total",
				Help: "Total number of requests to product service",
			},
			[]string{"method", "endpoint", "status"},
		),
		requestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "product_service_request_duration_seconds",
				Help:    "Duration of product service requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		// client-side quantiles: p50, p90, p95, p99
		requestSummary: prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Name: "product_service_request_duration_summary",
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
		totalProducts: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "product_service_total_products",
				Help: "Total number of products in the catalog",
			},
		),
	}

	reg.MustRegister(m.requestCounter, m.requestLatency, m.requestSummary, m.totalProducts)
	return m
}

// ProductHandler handles HTTP requests for products using CQRS pattern
type ProductHandler struct {
	createHandler      *command.CreateProductHandler
	updateHandler      *command.UpdateProductHandler
	deleteHandler      *command.DeleteProductHandler
	updateStockHandler *command.UpdateStockHandler

	getProductHandler *query.GetProductHandler
	listHandler       *query.ListProductsHandler
	statsHandler      *query.GetStatsHandler

	repo    domain.ProductRepository
	signer  *auth.Signer
	metrics *Metrics
}

// NewProductHandler wires every command and query on one repository.
func NewProductHandler(repo domain.ProductRepository, publisher command.EventPublisher, signer *auth.Signer, metrics *Metrics) *ProductHandler {
	return NewProductHandlerWithDI(
		command.NewCreateProductHandler(repo, publisher),
		command.NewUpdateProductHandler(repo, publisher),
		command.NewDeleteProductHandler(repo, publisher),
		command.NewUpdateStockHandler(repo, publisher),
		query.NewGetProductHandler(repo),
		query.NewListProductsHandler(repo),
		query.NewGetStatsHandler(repo),
		repo,
		signer,
		metrics,
	)
}

// NewProductHandlerWithDI creates a new product handler using dependency injection
// This is used by Wire for automatic dependency injection
func NewProductHandlerWithDI(
	createHandler *command.CreateProductHandler,
	updateHandler *command.UpdateProductHandler,
	deleteHandler *command.DeleteProductHandler,
	updateStockHandler *command.UpdateStockHandler,
	getProductHandler *query.GetProductHandler,
	listHandler *query.ListProductsHandler,
	statsHandler *query.GetStatsHandler,
	repo domain.ProductRepository,
	signer *auth.Signer,
	metrics *Metrics,
) *ProductHandler {
	return &ProductHandler{
		createHandler:      createHandler,
		updateHandler:      updateHandler,
		deleteHandler:      deleteHandler,
		updateStockHandler: updateStockHandler,
		getProductHandler:  getProductHandler,
		listHandler:        listHandler,
		statsHandler:       statsHandler,
		repo:               repo,
		signer:             signer,
		metrics:            metrics,
	}
}

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// metricsMiddleware wraps handlers with Prometheus metrics
func (h *ProductHandler) metricsMiddleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
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

func (h *ProductHandler) RegisterRoutes(router *mux.Router) {
	admin := AdminMiddleware(h.signer)

	router.HandleFunc("/api/products", h.metricsMiddleware("/api/products", h.ListProducts)).Methods(http.MethodGet)
	router.HandleFunc("/api/products/stats", h.metricsMiddleware("/api/products/stats", h.GetStats)).Methods(http.MethodGet)
	router.HandleFunc("/api/products/{id}", h.metricsMiddleware("/api/products/{id}", h.GetProduct)).Methods(http.MethodGet)

	router.HandleFunc("/api/products", h.metricsMiddleware("/api/products", admin(h.CreateProduct))).Methods(http.MethodPost)
	router.HandleFunc("/api/products/{id}", h.metricsMiddleware("/api/products/{id}", admin(h.UpdateProduct))).Methods(http.MethodPut)
	router.HandleFunc("/api/products/{id}", h.metricsMiddleware("/api/products/{id}", admin(h.DeleteProduct))).Methods(http.MethodDelete)
	router.HandleFunc("/api/products/{id}/stock", h.metricsMiddleware("/api/products/{id}/stock", admin(h.UpdateStock))).Methods(http.MethodPatch)
}

type productRequest struct {
	Name         string  `json:"name" validate:"required"`
	Brand        string  `json:"brand"`
	Description  string  `json:"description"`
	Price        float64 `json:"price" validate:"gte=0"`
	Stock        int     `json:"stock" validate:"gte=0"`
	Category     string  `json:"category"`
	Rank         *int    `json:"rank"`
	Ingredients  string  `json:"ingredients"`
	Combination  *bool   `json:"combination"`
	Dry          *bool   `json:"dry"`
	Normal       *bool   `json:"normal"`
	Oily         *bool   `json:"oily"`
	Sensitive    *bool   `json:"sensitive"`
	MainImageURL string  `json:"mainImageUrl"`
}

type productPatchRequest struct {
	Name         *string  `json:"name"`
	Brand        *string  `json:"brand"`
	Description  *string  `json:"description"`
	Price        *float64 `json:"price" validate:"omitempty,gte=0"`
	Stock        *int     `json:"stock" validate:"omitempty,gte=0"`
	Category     *string  `json:"category"`
	Rank         *int     `json:"rank"`
	Ingredients  *string  `json:"ingredients"`
	Combination  *bool    `json:"combination"`
	Dry          *bool    `json:"dry"`
	Normal       *bool    `json:"normal"`
	Oily         *bool    `json:"oily"`
	Sensitive    *bool    `json:"sensitive"`
	MainImageURL *string  `json:"mainImageUrl"`
}

type stockRequest struct {
	Stock *int `json:"stock" validate:"required,gte=0"`
}

// CreateProduct handles POST /api/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	product, err := h.createHandler.Handle(r.Context(), command.CreateProductCommand{
		Name:         req.Name,
		Brand:        req.Brand,
		Description:  req.Description,
		Price:        req.Price,
		Stock:        req.Stock,
		Category:     req.Category,
		Rank:         req.Rank,
		Ingredients:  req.Ingredients,
		Combination:  req.Combination,
		Dry:          req.Dry,
		Normal:       req.Normal,
		Oily:         req.Oily,
		Sensitive:    req.Sensitive,
		MainImageURL: req.MainImageURL,
	})
	if err != nil {
		h.respondDomainError(r.Context(), w, err, "Failed to create product")
		return
	}

	h.updateProductsMetric(r.Context())

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Product created successfully",
		Data:    product,
	})
}

// ListProducts handles GET /api/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	limit, _ := strconv.Atoi(params.Get("limit"))
	offset, _ := strconv.Atoi(params.Get("offset"))

	result, err := h.listHandler.Handle(r.Context(), query.ListProductsQuery{
		Query:    params.Get("q"),
		Category: params.Get("category"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to list products")
		respondError(w, http.StatusInternalServerError, "Failed to list products")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    result,
	})
}

// GetProduct handles GET /api/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	product, err := h.getProductHandler.Handle(r.Context(), query.GetProductQuery{ID: id})
	if err != nil {
		h.respondDomainError(r.Context(), w, err, "Failed to get product")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    product,
	})
}

// UpdateProduct handles PUT /api/products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	var req productPatchRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	product, err := h.updateHandler.Handle(r.Context(), command.UpdateProductCommand{
		ID:           id,
		Name:         req.Name,
		Brand:        req.Brand,
		Description:  req.Description,
		Price:        req.Price,
		Stock:        req.Stock,
		Category:     req.Category,
		Rank:         req.Rank,
		Ingredients:  req.Ingredients,
		Combination:  req.Combination,
		Dry:          req.Dry,
		Normal:       req.Normal,
		Oily:         req.Oily,
		Sensitive:    req.Sensitive,
		MainImageURL: req.MainImageURL,
	})
	if err != nil {
		h.respondDomainError(r.Context(), w, err, "Failed to update product")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Product updated successfully",
		Data:    product,
	})
}

// DeleteProduct handles DELETE /api/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	if err := h.deleteHandler.Handle(r.Context(), command.DeleteProductCommand{ID: id}); err != nil {
		h.respondDomainError(r.Context(), w, err, "Failed to delete product")
		return
	}

	h.updateProductsMetric(r.Context())

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Product deleted successfully",
	})
}

// UpdateStock handles PATCH /api/products/{id}/stock
func (h *ProductHandler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	var req stockRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	product, err := h.updateStockHandler.Handle(r.Context(), command.UpdateStockCommand{
		ProductID: id,
		Stock:     *req.Stock,
	})
	if err != nil {
		h.respondDomainError(r.Context(), w, err, "Failed to update stock")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Stock updated successfully",
		Data:    product,
	})
}

// GetStats handles GET /api/products/stats
func (h *ProductHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsHandler.Handle(r.Context(), query.GetStatsQuery{})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to get stats")
		respondError(w, http.StatusInternalServerError, "Failed to get statistics")
		return
	}

	h.metrics.totalProducts.Set(float64(stats.TotalProducts))

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    stats,
	})
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

func (h *ProductHandler) RegisterHealthCheck(router *mux.Router, db Pinger) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			logger.Warn(r.Context()).Err(err).Msg("Database health check failed")
			respondError(w, http.StatusServiceUnavailable, "Database unavailable")
			return
		}

		respondJSON(w, http.StatusOK, Response{
			Success: true,
			Message: "Product service is healthy",
		})
	}).Methods(http.MethodGet)
}

// RefreshProductsMetric sets the catalog gauge from the database.
func (h *ProductHandler) RefreshProductsMetric(ctx context.Context) {
	h.updateProductsMetric(ctx)
}

func (h *ProductHandler) updateProductsMetric(ctx context.Context) {
	count, err := h.repo.Count(ctx)
	if err != nil {
		logger.Warn(ctx).Err(err).Msg("Failed to refresh product count")
		return
	}
	h.metrics.totalProducts.Set(float64(count))
}

func (h *ProductHandler) respondDomainError(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, domain.ErrNoFieldsToUpdate):
		respondError(w, http.StatusBadRequest, "No fields to update")
	case errors.Is(err, domain.ErrInvalidProduct):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error(ctx).Err(err).Msg(msg)
		respondError(w, http.StatusInternalServerError, msg)
	}
}

func productID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil || id == 0 {
		respondError(w, http.StatusBadRequest, "Invalid product ID")
		return 0, false
	}
	return uint(id), true
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := validation.ValidateStruct(dst); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to encode response")
	}
}
