package domain

import "context"

// ProductStore reads the catalog.
type ProductStore interface {
	List(ctx context.Context, params ListParams) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
}

// ProductCandidate is the reduced view of a product handed to the LLM.
type ProductCandidate struct {
	ID          int64
	Name        string
	Ingredients string
}

// Selection is what the LLM picked, keyed by product id.
type Selection struct {
	ProductIDs []int64
	Reasons    map[int64]string
}

// ProductSelector picks up to max products from candidates.
type ProductSelector interface {
	Available() bool
	SelectTopProducts(ctx context.Context, candidates []ProductCandidate, profileSummary string, max int) (*Selection, error)
}

// FaceAnalysis is the model's reading of a face photo.
type FaceAnalysis struct {
	SkinType string   `json:"skinType"`
	Concerns []string `json:"concerns"`
	Analysis string   `json:"analysis"`
}

// FaceAnalyzer infers a skin profile from an image. Callers check Available
// before loading the image.
type FaceAnalyzer interface {
	Available() bool
	AnalyzeImage(ctx context.Context, image []byte, mimeType string) (*FaceAnalysis, error)
}

// IngredientProduct is one entry of an ingredient conflict check.
type IngredientProduct struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Ingredients string `json:"ingredients"`
}

// ConflictReport is the model's verdict on a product combination.
type ConflictReport struct {
	ConflictDetected bool     `json:"conflictDetected"`
	ConflictDetails  string   `json:"conflictDetails"`
	SafetyWarning    *string  `json:"safetyWarning"`
	Alternatives     []string `json:"alternatives"`
}

// IngredientAnalyzer checks products for ingredient conflicts.
type IngredientAnalyzer interface {
	AnalyzeIngredients(ctx context.Context, products []IngredientProduct) (*ConflictReport, error)
}

// LLMHealth describes the LLM client without calling the model.
type LLMHealth struct {
	Available   bool   `json:"available"`
	Reason      string `json:"reason,omitempty"`
	Initialized bool   `json:"initialized"`
	Model       string `json:"model"`
	Circuit     string `json:"circuit"`
}

type LLMHealthChecker interface {
	Health(ctx context.Context) LLMHealth
}

// ImageLoader resolves an image reference (data URI, URL or bare base64)
// into raw bytes and a MIME type.
type ImageLoader interface {
	Load(ctx context.Context, ref string) ([]byte, string, error)
}
