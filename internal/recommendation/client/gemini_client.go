package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/tair/cosmetics-recommender/internal/recommendation/domain"
	"github.com/tair/cosmetics-recommender/pkg/logger"
)

const (
	breakerName = "gemini"

	maxIngredientChars = 300
	moreIngredients    = " ... (more ingredients)"
)

// GeminiConfig configures the REST client. An empty APIKey leaves the client
// permanently unavailable.
type GeminiConfig struct {
	APIKey            string
	Model             string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// GeminiClient talks to the generateContent endpoint. Calls are paced by a
// token bucket and guarded by a circuit breaker that only counts transport
// failures, 5xx and 429 replies; a rejected request or a model that answers
// badly is not an outage.
type GeminiClient struct {
	cfg          GeminiConfig
	httpClient   *http.Client
	limiter      *rate.Limiter
	breaker      *gobreaker.CircuitBreaker[string]
	circuitState *prometheus.GaugeVec
}

// NewGeminiClient builds the client. reg may be nil to skip metrics.
func NewGeminiClient(cfg GeminiConfig, reg prometheus.Registerer) *GeminiClient {
	return NewGeminiClientWithHTTP(cfg, &http.Client{
		Timeout:   cfg.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}, reg)
}

func NewGeminiClientWithHTTP(cfg GeminiConfig, httpClient *http.Client, reg prometheus.Registerer) *GeminiClient {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	c := &GeminiClient{
		cfg:        cfg,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		circuitState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "recommendation_llm_circuit_state",
			Help: "LLM circuit breaker state (0=closed, 1=half-open, 2=open)",
		}, []string{"name"}),
	}
	if reg != nil {
		reg.MustRegister(c.circuitState)
	}
	c.circuitState.WithLabelValues(breakerName).Set(0)

	c.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, domain.ErrLLMDeclined) || isClientError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("LLM circuit breaker state changed")
			c.circuitState.WithLabelValues(name).Set(stateValue(to))
		},
	})
	return c
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Available reports whether a key is configured and the circuit is not open.
func (c *GeminiClient) Available() bool {
	return c.cfg.APIKey != "" && c.breaker.State() != gobreaker.StateOpen
}

// Health describes the client without calling the model.
func (c *GeminiClient) Health(_ context.Context) domain.LLMHealth {
	h := domain.LLMHealth{
		Available:   c.Available(),
		Initialized: c.cfg.APIKey != "",
		Model:       c.cfg.Model,
		Circuit:     c.breaker.State().String(),
	}
	switch {
	case !h.Initialized:
		h.Reason = "API key not configured"
	case !h.Available:
		h.Reason = "circuit breaker open"
	}
	return h
}

// wire types for generateContent

type generateRequest struct {
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
}

// generate returns the model's text. Errors wrap ErrLLMUnavailable or
// ErrLLMDeclined.
func (c *GeminiClient) generate(ctx context.Context, req generateRequest) (string, error) {
	if c.cfg.APIKey == "" {
		return "", fmt.Errorf("%w: API key not configured", domain.ErrLLMUnavailable)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrLLMUnavailable, err)
	}

	text, err := c.breaker.Execute(func() (string, error) {
		return c.call(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %v", domain.ErrLLMUnavailable, err)
	}
	return text, err
}

func (c *GeminiClient) call(ctx context.Context, req generateRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", domain.ErrLLMUnavailable, err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.cfg.BaseURL, c.cfg.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrLLMUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrLLMUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &statusError{code: resp.StatusCode, body: string(bytes.TrimSpace(snippet))}
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: decode envelope: %v", domain.ErrLLMUnavailable, err)
	}
	if len(decoded.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates", domain.ErrLLMDeclined)
	}

	var sb strings.Builder
	for _, p := range decoded.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("%w: empty response (finish reason %s)", domain.ErrLLMDeclined, decoded.Candidates[0].FinishReason)
	}
	return text, nil
}

// statusError is a non-200 reply from the model endpoint.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%v: status %d: %s", domain.ErrLLMUnavailable, e.code, e.body)
}

func (e *statusError) Unwrap() error {
	return domain.ErrLLMUnavailable
}

// isClientError reports a 4xx reply other than 429. Those reject one request
// and say nothing about the endpoint's health.
func isClientError(err error) bool {
	var se *statusError
	if !errors.As(err, &se) {
		return false
	}
	return se.code >= 400 && se.code < 500 && se.code != http.StatusTooManyRequests
}

// decodeStrict unmarshals the model's text into out or declines.
func decodeStrict(text string, out interface{}) error {
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("%w: response is not the expected JSON: %v", domain.ErrLLMDeclined, err)
	}
	return nil
}

const selectionPrompt = `You are a skincare ingredient expert. Select the best products based on ingredient effectiveness for the user's skin concerns. Up to %d products; fewer or none if not suitable.

User Profile:
%s

Products:
%s

Rules:
- Evaluate INGREDIENTS only.
- Pick products that match user concerns (acne, wrinkles, spots, sensitivity, dryness, oiliness).
- Prefer proven actives (e.g., niacinamide, salicylic acid, retinol, HA, peptides, ceramides, vitamin C).
- Avoid products that don't support the user's needs.
- If no good matches, return empty list.

Output ONLY valid JSON:
{"selectedProductIds":[...],"reasons":{"id":"1-2 sentence ingredient justification"}}

CRITICAL: Return ONLY the JSON object, no markdown, no code blocks, no other text.`

type selectionPayload struct {
	SelectedProductIDs *[]int64          `json:"selectedProductIds"`
	Reasons            map[string]string `json:"reasons"`
}

// SelectTopProducts asks the model to pick up to maxProducts candidates.
func (c *GeminiClient) SelectTopProducts(ctx context.Context, candidates []domain.ProductCandidate, profileSummary string, maxProducts int) (*domain.Selection, error) {
	if len(candidates) == 0 || maxProducts <= 0 {
		return &domain.Selection{ProductIDs: []int64{}, Reasons: map[int64]string{}}, nil
	}

	entries := make([]string, 0, len(candidates))
	for _, cand := range candidates {
		entries = append(entries, fmt.Sprintf("Product ID: %d\nName: %s\nIngredients: %s", cand.ID, cand.Name, cand.Ingredients))
	}
	prompt := fmt.Sprintf(selectionPrompt, maxProducts, profileSummary, strings.Join(entries, "\n\n"))

	text, err := c.generate(ctx, generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:      0.3,
			MaxOutputTokens:  8000,
			ResponseMimeType: "application/json",
		},
	})
	if err != nil {
		return nil, err
	}

	var payload selectionPayload
	if err := decodeStrict(text, &payload); err != nil {
		return nil, err
	}
	if payload.SelectedProductIDs == nil {
		return nil, fmt.Errorf("%w: selectedProductIds missing", domain.ErrLLMDeclined)
	}

	ids := *payload.SelectedProductIDs
	if len(ids) > maxProducts {
		ids = ids[:maxProducts]
	}
	reasons := make(map[int64]string, len(payload.Reasons))
	for key, reason := range payload.Reasons {
		id, err := strconv.ParseInt(strings.TrimSpace(key), 10, 64)
		if err != nil {
			continue
		}
		reasons[id] = reason
	}
	return &domain.Selection{ProductIDs: ids, Reasons: reasons}, nil
}

const faceAnalysisPrompt = `Analyze this facial image and provide a detailed skin analysis.

Please identify:
1. Skin type: Choose ONE from: "oily", "dry", "combination", "sensitive", or "normal"
2. Visible skin concerns: List all detected concerns (e.g., "acne", "wrinkles", "dark spots", "sensitivity", "dryness", "oiliness", "redness", "texture issues")
3. Overall skin condition: Provide a detailed analysis paragraph explaining the skin condition and observations

CRITICAL: You MUST respond with ONLY valid JSON. Do NOT include markdown code blocks, backticks, or any other text. The exact required format is:

{
  "skinType": "normal",
  "concerns": ["dark spots", "wrinkles"],
  "analysis": "Your detailed analysis text here describing the skin condition, texture, tone, and any visible issues."
}

Field Requirements:
- "skinType" (string): Must be exactly one of: "oily", "dry", "combination", "sensitive", "normal"
- "concerns" (array of strings): List of detected concerns, can be empty array [] if none detected
- "analysis" (string): Detailed text analysis of the skin condition (minimum 50 words)

Return ONLY the JSON object, nothing else.`

type facePayload struct {
	SkinType *string  `json:"skinType"`
	Concerns []string `json:"concerns"`
	Analysis string   `json:"analysis"`
}

// AnalyzeImage sends the photo inline and decodes the model's skin reading.
func (c *GeminiClient) AnalyzeImage(ctx context.Context, image []byte, mimeType string) (*domain.FaceAnalysis, error) {
	text, err := c.generate(ctx, generateRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{InlineData: &inlineData{MimeType: supportedMIME(mimeType), Data: base64.StdEncoding.EncodeToString(image)}},
				{Text: faceAnalysisPrompt},
			},
		}},
		GenerationConfig: generationConfig{
			Temperature:      0.3,
			MaxOutputTokens:  2000,
			ResponseMimeType: "application/json",
		},
	})
	if err != nil {
		return nil, err
	}

	var payload facePayload
	if err := decodeStrict(text, &payload); err != nil {
		return nil, err
	}
	if payload.SkinType == nil || strings.TrimSpace(*payload.SkinType) == "" {
		return nil, fmt.Errorf("%w: skinType missing", domain.ErrLLMDeclined)
	}
	if payload.Concerns == nil {
		payload.Concerns = []string{}
	}
	return &domain.FaceAnalysis{
		SkinType: *payload.SkinType,
		Concerns: payload.Concerns,
		Analysis: payload.Analysis,
	}, nil
}

const ingredientSystemPrompt = "You are a cosmetic dermatology expert. Analyze ingredient safety and compatibility. You must always return valid JSON. Never return empty responses."

const ingredientPrompt = `Analyze potential ingredient conflicts or safety concerns between these cosmetic products. You must respond with valid JSON in this exact format:

{
  "conflictDetected": true or false,
  "conflictDetails": "Brief explanation of any conflicts found (max 50 words)",
  "safetyWarning": "Safety warning if needed, or null",
  "alternatives": ["suggestion 1", "suggestion 2"] or []
}

Products to analyze:
%s

Instructions:
- Analyze each product's ingredients
- Check for known conflicts, incompatibilities, or safety concerns
- Return valid JSON only (no markdown, no code blocks)
- If no conflicts found, set conflictDetected to false but still provide analysis
- Always provide a response, even if brief`

type conflictPayload struct {
	ConflictDetected *bool    `json:"conflictDetected"`
	ConflictDetails  string   `json:"conflictDetails"`
	SafetyWarning    *string  `json:"safetyWarning"`
	Alternatives     []string `json:"alternatives"`
}

// AnalyzeIngredients asks whether the products are safe to combine.
func (c *GeminiClient) AnalyzeIngredients(ctx context.Context, products []domain.IngredientProduct) (*domain.ConflictReport, error) {
	lines := make([]string, 0, len(products))
	for i, p := range products {
		name := p.Name
		if name == "" {
			name = "Unknown"
		}
		lines = append(lines, fmt.Sprintf("%d. %s: %s", i+1, name, truncateIngredients(p.Ingredients)))
	}

	text, err := c.generate(ctx, generateRequest{
		SystemInstruction: &content{Parts: []part{{Text: ingredientSystemPrompt}}},
		Contents:          []content{{Role: "user", Parts: []part{{Text: fmt.Sprintf(ingredientPrompt, strings.Join(lines, "\n"))}}}},
		GenerationConfig: generationConfig{
			Temperature:      0.1,
			MaxOutputTokens:  2000,
			ResponseMimeType: "application/json",
		},
	})
	if err != nil {
		return nil, err
	}

	var payload conflictPayload
	if err := decodeStrict(text, &payload); err != nil {
		return nil, err
	}
	if payload.ConflictDetected == nil {
		return nil, fmt.Errorf("%w: conflictDetected missing", domain.ErrLLMDeclined)
	}
	if payload.Alternatives == nil {
		payload.Alternatives = []string{}
	}
	return &domain.ConflictReport{
		ConflictDetected: *payload.ConflictDetected,
		ConflictDetails:  payload.ConflictDetails,
		SafetyWarning:    payload.SafetyWarning,
		Alternatives:     payload.Alternatives,
	}, nil
}

// truncateIngredients keeps prompts bounded. Long lists are cut at the last
// comma in the final fifth of the window when there is one.
func truncateIngredients(ingredients string) string {
	ingredients = strings.TrimSpace(ingredients)
	if ingredients == "" || ingredients == "Not specified" {
		return "Not specified"
	}
	runes := []rune(ingredients)
	if len(runes) <= maxIngredientChars {
		return ingredients
	}
	truncated := string(runes[:maxIngredientChars])
	if i := strings.LastIndex(truncated, ","); i >= 0 && len([]rune(truncated[:i])) > maxIngredientChars*4/5 {
		truncated = truncated[:i]
	}
	return truncated + moreIngredients
}
