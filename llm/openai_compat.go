package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// compatClient speaks the OpenAI wire format. All HTTP-backed providers
// embed it; only the base URL and path prefix vary between them.
type compatClient struct {
	cfg        Config
	client     *http.Client
	pathPrefix string // defaults to "/v1"
}

func newCompatClient(cfg Config) compatClient {
	return newCompatClientPrefix(cfg, "/v1")
}

func newCompatClientPrefix(cfg Config, prefix string) compatClient {
	// Generous per-request timeout: local Ollama may load a model on the
	// first call, and vision requests carry base64 figure images.
	return compatClient{
		cfg:        cfg,
		pathPrefix: prefix,
		client:     &http.Client{Timeout: 120 * time.Second},
	}
}

// NewOpenAICompat creates a provider for any OpenAI-compatible endpoint.
// The base URL comes from the config unchanged; no default is applied.
func NewOpenAICompat(cfg Config) Provider {
	return &openAICompatProvider{base: newCompatClient(cfg)}
}

type openAICompatProvider struct {
	base compatClient
}

func (p *openAICompatProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	return p.base.chat(ctx, req)
}

func (p *openAICompatProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return p.base.embed(ctx, texts)
}

func (p *openAICompatProvider) ChatWithImages(ctx context.Context, req VisionChatRequest) (*ChatResponse, error) {
	return p.base.chatWithImages(ctx, req)
}

// --- wire types ---

type completionPayload struct {
	Model          string          `json:"model"`
	Messages       json.RawMessage `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *formatSpec     `json:"response_format,omitempty"`
}

type formatSpec struct {
	Type string `json:"type"`
}

type completionReply struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Model string `json:"model"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type embeddingPayload struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingReply struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

func (c *compatClient) chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	payload, err := c.buildPayload(req.Model, req.Messages, req.Temperature, req.MaxTokens)
	if err != nil {
		return nil, err
	}
	if req.ResponseFormat == "json_object" {
		payload.ResponseFormat = &formatSpec{Type: "json_object"}
	}
	return c.complete(ctx, payload)
}

// chatWithImages sends a completion whose message content is a part list
// (text plus image_url entries). The wire shape is the same endpoint; only
// the message encoding differs.
func (c *compatClient) chatWithImages(ctx context.Context, req VisionChatRequest) (*ChatResponse, error) {
	payload, err := c.buildPayload(req.Model, req.Messages, req.Temperature, req.MaxTokens)
	if err != nil {
		return nil, err
	}
	return c.complete(ctx, payload)
}

// buildPayload marshals messages of either shape and fills the model from
// the client config when the request leaves it empty.
func (c *compatClient) buildPayload(model string, messages any, temperature float64, maxTokens int) (completionPayload, error) {
	msgs, err := json.Marshal(messages)
	if err != nil {
		return completionPayload{}, err
	}
	if model == "" {
		model = c.cfg.Model
	}
	return completionPayload{
		Model:       model,
		Messages:    msgs,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}, nil
}

func (c *compatClient) complete(ctx context.Context, payload completionPayload) (*ChatResponse, error) {
	respBody, err := c.post(ctx, c.pathPrefix+"/chat/completions", payload)
	if err != nil {
		return nil, err
	}

	var reply completionReply
	if err := json.Unmarshal(respBody, &reply); err != nil {
		return nil, fmt.Errorf("decoding chat response: %w", err)
	}
	if len(reply.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	return &ChatResponse{
		Content:          reply.Choices[0].Message.Content,
		Model:            reply.Model,
		FinishReason:     reply.Choices[0].FinishReason,
		PromptTokens:     reply.Usage.PromptTokens,
		CompletionTokens: reply.Usage.CompletionTokens,
		TotalTokens:      reply.Usage.TotalTokens,
	}, nil
}

func (c *compatClient) embed(ctx context.Context, texts []string) ([][]float32, error) {
	respBody, err := c.post(ctx, c.pathPrefix+"/embeddings", embeddingPayload{
		Model: c.cfg.Model,
		Input: texts,
	})
	if err != nil {
		return nil, err
	}

	var reply embeddingReply
	if err := json.Unmarshal(respBody, &reply); err != nil {
		return nil, fmt.Errorf("decoding embedding response: %w", err)
	}

	// The API may return data out of order; place each vector by index.
	embeddings := make([][]float32, len(texts))
	for _, d := range reply.Data {
		if d.Index < len(embeddings) {
			embeddings[d.Index] = d.Embedding
		}
	}
	return embeddings, nil
}

const (
	maxRetries        = 6
	baseRetryDelay    = 2 * time.Second
	minRateLimitDelay = 5 * time.Second
)

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// post sends a JSON body and retries transient failures with exponential
// backoff. Rate-limit responses wait longer and honor Retry-After.
func (c *compatClient) post(ctx context.Context, path string, body any) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	url := c.cfg.BaseURL + path

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := baseRetryDelay * time.Duration(1<<(attempt-1))
			slog.Warn("llm: retrying request",
				"url", url, "attempt", attempt, "delay", delay, "error", lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.cfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("request to %s failed: %w", url, err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("reading response body: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusOK {
			return respBody, nil
		}
		lastErr = fmt.Errorf("LLM API error %d: %s", resp.StatusCode, string(respBody))
		if !retryableStatus(resp.StatusCode) {
			return nil, lastErr
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			delay := minRateLimitDelay * time.Duration(1<<attempt)
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if seconds, err := strconv.Atoi(ra); err == nil && seconds > 0 {
					if headerDelay := time.Duration(seconds) * time.Second; headerDelay > delay {
						delay = headerDelay
					}
				}
			}
			slog.Warn("llm: rate limited, waiting before retry",
				"url", url, "attempt", attempt+1, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
