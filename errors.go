package rctx

import "errors"

var (
	// ErrNoUnits is returned when a document yields no retrieval units.
	ErrNoUnits = errors.New("rctx: no extractable content in document")

	// ErrEmbeddingFailed is returned when embedding generation fails for
	// every unit of a document.
	ErrEmbeddingFailed = errors.New("rctx: embedding generation failed")

	// ErrLLMRequestFailed is returned when the extraction completion fails.
	ErrLLMRequestFailed = errors.New("rctx: LLM request failed")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("rctx: invalid configuration")
)
