package domain

import "errors"

// ErrLLMUnavailable covers a missing key, an open circuit, transport failures
// and responses that are not the expected JSON. ErrLLMDeclined means the model
// answered but chose nothing usable.
var (
	ErrStoreUnavailable = errors.New("product store unavailable")
	ErrProductNotFound  = errors.New("product not found")
	ErrLLMUnavailable   = errors.New("llm unavailable")
	ErrLLMDeclined      = errors.New("llm declined")
	ErrInvalidRequest   = errors.New("invalid request")
)
