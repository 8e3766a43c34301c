package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tair/cosmetics-recommender/internal/payment/domain"
	"github.com/tair/cosmetics-recommender/internal/payment/usecase/command"
	"github.com/tair/cosmetics-recommender/internal/payment/usecase/query"
	"github.com/tair/cosmetics-recommender/pkg/logger"
	"github.com/tair/cosmetics-recommender/pkg/middleware"
)

// Metrics holds the payment service collectors.
type Metrics struct {
	requestCounter      *prometheus.CounterVec
	requestLatency      *prometheus.HistogramVec
	transactionsCreated prometheus.Counter
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_service_requests_total",
				Help: "Total number of requests to payment service",
			},
			[]string{"method", "endpoint", "status"},
		),
		requestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "payment_service_request_duration_seconds",
				Help:    "Duration of payment service requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		transactionsCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "payment_service_transactions_created_total",
				Help: "Total number of transactions recorded",
			},
		),
	}

	reg.MustRegister(m.requestCounter, m.requestLatency, m.transactionsCreated)
	return m
}

// PaymentHandler handles HTTP requests for transactions and accounts
type PaymentHandler struct {
	createHandler       *command.CreateTransactionHandler
	getHandler          *query.GetTransactionHandler
	listAccountsHandler *query.ListAccountsHandler
	metrics             *Metrics
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(
	createHandler *command.CreateTransactionHandler,
	getHandler *query.GetTransactionHandler,
	listAccountsHandler *query.ListAccountsHandler,
	metrics *Metrics,
) *PaymentHandler {
	return &PaymentHandler{
		createHandler:       createHandler,
		getHandler:          getHandler,
		listAccountsHandler: listAccountsHandler,
		metrics:             metrics,
	}
}

// Response is the envelope for writes and errors. Reads return the bare DTO.
type Response struct {
	Success     bool            `json:"success"`
	Message     string          `json:"message,omitempty"`
	Transaction *TransactionDTO `json:"transaction,omitempty"`
}

// TransactionDTO renders identifiers as strings.
type TransactionDTO struct {
	ID            string    `json:"id"`
	FromAccountID string    `json:"fromAccountId"`
	ToAccountID   string    `json:"toAccountId"`
	Amount        float64   `json:"amount"`
	CreatedAt     time.Time `json:"createdAt"`
}

type AccountDTO struct {
	ID      string  `json:"id"`
	Balance float64 `json:"balance"`
}

func toTransactionDTO(tx *domain.Transaction) *TransactionDTO {
	return &TransactionDTO{
		ID:            formatID(tx.ID),
		FromAccountID: formatID(tx.FromAccountID),
		ToAccountID:   formatID(tx.ToAccountID),
		Amount:        tx.Amount,
		CreatedAt:     tx.CreatedAt,
	}
}

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

type createTransactionRequest struct {
	FromAccountID string   `json:"fromAccountId"`
	ToAccountID   string   `json:"toAccountId"`
	Amount        *float64 `json:"amount"`
}

func (h *PaymentHandler) metricsMiddleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rec := middleware.NewStatusRecorder(w)
		next.ServeHTTP(rec, r)

		h.metrics.requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rec.Status())).Inc()
		h.metrics.requestLatency.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

func (h *PaymentHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/payment/transaction", h.metricsMiddleware("/api/payment/transaction", h.CreateTransaction)).Methods(http.MethodPost)
	router.HandleFunc("/api/payment/transaction/{id}", h.metricsMiddleware("/api/payment/transaction/{id}", h.GetTransaction)).Methods(http.MethodGet)
	router.HandleFunc("/api/payment/accounts", h.metricsMiddleware("/api/payment/accounts", h.ListAccounts)).Methods(http.MethodGet)
}

// CreateTransaction handles POST /api/payment/transaction
func (h *PaymentHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req *createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req == nil {
		respondError(w, http.StatusBadRequest, "Request body is required")
		return
	}

	tx, err := h.createHandler.Handle(r.Context(), command.CreateTransactionCommand{
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Amount:        req.Amount,
	})
	if err != nil {
		var validationErr *command.ValidationError
		switch {
		case errors.As(err, &validationErr):
			respondError(w, http.StatusBadRequest, validationErr.Message)
		case errors.Is(err, domain.ErrAccountNotFound):
			respondError(w, http.StatusNotFound, err.Error())
		default:
			logger.Error(r.Context()).Err(err).Msg("Failed to create transaction")
			respondError(w, http.StatusInternalServerError, "Failed to create transaction")
		}
		return
	}

	h.metrics.transactionsCreated.Inc()
	logger.Info(r.Context()).
		Uint("transaction_id", tx.ID).
		Uint("from_account_id", tx.FromAccountID).
		Uint("to_account_id", tx.ToAccountID).
		Float64("amount", tx.Amount).
		Msg("Transaction created")

	dto := toTransactionDTO(tx)
	w.Header().Set("Location", "/api/payment/transaction/"+dto.ID)
	respondJSON(w, http.StatusCreated, Response{
		Success:     true,
		Message:     "Transaction created",
		Transaction: dto,
	})
}

// GetTransaction handles GET /api/payment/transaction/{id}
func (h *PaymentHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.getHandler.Handle(r.Context(), query.GetTransactionQuery{ID: mux.Vars(r)["id"]})
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			respondError(w, http.StatusNotFound, "Transaction not found")
			return
		}
		logger.Error(r.Context()).Err(err).Msg("Failed to get transaction")
		respondError(w, http.StatusInternalServerError, "Failed to get transaction")
		return
	}

	respondJSON(w, http.StatusOK, toTransactionDTO(tx))
}

// ListAccounts handles GET /api/payment/accounts
func (h *PaymentHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.listAccountsHandler.Handle(r.Context(), query.ListAccountsQuery{})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to list accounts")
		respondError(w, http.StatusInternalServerError, "Failed to list accounts")
		return
	}

	out := make([]AccountDTO, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, AccountDTO{ID: formatID(a.ID), Balance: a.Balance})
	}
	respondJSON(w, http.StatusOK, out)
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

func (h *PaymentHandler) RegisterHealthCheck(router *mux.Router, db Pinger) {
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
			Message: "Payment service is healthy",
		})
	}).Methods(http.MethodGet)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, Response{
		Success: false,
		Message: message,
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
