package llm

import "context"

// geminiProvider reaches Gemini through Google's OpenAI-compatibility
// endpoint, which mounts chat/completions and embeddings directly under
// the base URL (no /v1 prefix). gemini-embedding-001 works for the
// retrieval index; any gemini-2.x chat model handles extraction, and the
// flash models accept figure images.
type geminiProvider struct {
	base compatClient
}

// NewGemini creates a provider for Google Gemini.
func NewGemini(cfg Config) Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	}
	return &geminiProvider{base: newCompatClientPrefix(cfg, "")}
}

func (p *geminiProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	return p.base.chat(ctx, req)
}

func (p *geminiProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return p.base.embed(ctx, texts)
}

func (p *geminiProvider) ChatWithImages(ctx context.Context, req VisionChatRequest) (*ChatResponse, error) {
	return p.base.chatWithImages(ctx, req)
}
