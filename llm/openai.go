package llm

import "context"

// openAIProvider talks to the OpenAI API. The same provider type serves
// both roles in an extractor: chat (gpt-4o and friends, vision included)
// and embeddings. text-embedding-3-small at 1536 dimensions is the
// default embedding model; -3-large trades cost for recall.
type openAIProvider struct {
	base compatClient
}

// NewOpenAI creates a provider for OpenAI.
func NewOpenAI(cfg Config) Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	return &openAIProvider{base: newCompatClient(cfg)}
}

func (p *openAIProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	return p.base.chat(ctx, req)
}

func (p *openAIProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return p.base.embed(ctx, texts)
}

func (p *openAIProvider) ChatWithImages(ctx context.Context, req VisionChatRequest) (*ChatResponse, error) {
	return p.base.chatWithImages(ctx, req)
}
