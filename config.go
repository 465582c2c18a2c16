package rctx

import (
	"time"

	"github.com/medevidence/rctx/figures"
	"github.com/medevidence/rctx/layout"
	"github.com/medevidence/rctx/rob"
)

// Config holds all configuration for the extraction engine.
type Config struct {
	// LLM providers. Chat answers the extraction prompt; Embedding
	// vectorizes units and probe queries.
	Chat      LLMConfig `json:"chat" yaml:"chat"`
	Embedding LLMConfig `json:"embedding" yaml:"embedding"`

	// Temperature for the extraction completion. Zero keeps repeated
	// runs over the same manuscript comparable.
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// MaxTokens caps the extraction completion length.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// TopK is the per-probe retrieval depth.
	TopK int `json:"top_k" yaml:"top_k"`

	// Chunking
	ChunkSize    int `json:"chunk_size" yaml:"chunk_size"`
	ChunkOverlap int `json:"chunk_overlap" yaml:"chunk_overlap"`

	// Layout analysis
	UseLayout     bool          `json:"use_layout" yaml:"use_layout"`
	LayoutURL     string        `json:"layout_url" yaml:"layout_url"`
	LayoutTimeout time.Duration `json:"layout_timeout" yaml:"layout_timeout"`

	// Figure image extraction (layout mode only)
	ExtractFigures bool           `json:"extract_figures" yaml:"extract_figures"`
	Figures        figures.Config `json:"figures" yaml:"figures"`

	// RoB enables risk-of-bias assessment when set.
	RoB *rob.ClientConfig `json:"rob,omitempty" yaml:"rob,omitempty"`
}

// LLMConfig configures a single LLM provider endpoint.
type LLMConfig struct {
	Provider string `json:"provider" yaml:"provider"` // ollama, openai, gemini, custom
	Model    string `json:"model" yaml:"model"`
	BaseURL  string `json:"base_url" yaml:"base_url"`
	APIKey   string `json:"api_key" yaml:"api_key"`
}

// DefaultConfig returns a Config with the extraction defaults: layout
// analysis on localhost, deterministic completions, and OpenAI providers
// (API key supplied via configuration or environment).
func DefaultConfig() Config {
	return Config{
		Chat: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o",
		},
		Embedding: LLMConfig{
			Provider: "openai",
			Model:    "text-embedding-3-small",
		},
		Temperature:    0,
		MaxTokens:      8192,
		TopK:           8,
		ChunkSize:      2000,
		ChunkOverlap:   400,
		UseLayout:      true,
		LayoutURL:      layout.DefaultBaseURL,
		LayoutTimeout:  layout.DefaultTimeout,
		ExtractFigures: true,
		Figures:        figures.DefaultConfig(),
	}
}
