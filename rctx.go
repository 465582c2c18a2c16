// Package rctx extracts structured systematic-review data from randomized
// controlled trial publications. A manuscript is parsed into section-aware
// units (layout analysis with a page-text fallback), embedded into an
// ephemeral per-document vector index, probed with a fixed query set, and
// the retrieved evidence is handed to an LLM that fills the extraction
// schema. Figure images ride along as multimodal input when the chat
// provider supports vision.
package rctx

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/medevidence/rctx/docproc"
	"github.com/medevidence/rctx/figures"
	"github.com/medevidence/rctx/index"
	"github.com/medevidence/rctx/llm"
	"github.com/medevidence/rctx/paper"
	"github.com/medevidence/rctx/retrieval"
	"github.com/medevidence/rctx/rob"
	"github.com/medevidence/rctx/schema"
)

// Extractor runs RCT data extraction over PDF manuscripts.
type Extractor struct {
	cfg       Config
	chat      llm.Provider
	embed     llm.Provider
	processor *docproc.Processor
	assessor  rob.Assessor
	open      docproc.OpenRenderer
	logger    *slog.Logger
	schemaStr string
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) { e.logger = logger }
}

// WithAssessor injects a risk-of-bias assessor, overriding the one built
// from Config.RoB.
func WithAssessor(a rob.Assessor) Option {
	return func(e *Extractor) { e.assessor = a }
}

// WithRenderer overrides how PDFs are opened for figure rasterization.
// Pass nil to disable figure images entirely.
func WithRenderer(open docproc.OpenRenderer) Option {
	return func(e *Extractor) { e.open = open }
}

// New creates an Extractor. Zero-value config fields fall back to
// DefaultConfig values.
func New(cfg Config, opts ...Option) (*Extractor, error) {
	applyDefaults(&cfg)

	e := &Extractor{
		cfg:       cfg,
		open:      figures.Open,
		logger:    slog.Default(),
		schemaStr: schema.Render(),
	}
	for _, opt := range opts {
		opt(e)
	}

	var err error
	if e.chat, err = llm.NewProvider(llm.Config(cfg.Chat)); err != nil {
		return nil, fmt.Errorf("%w: chat: %v", ErrInvalidConfig, err)
	}
	if e.embed, err = llm.NewProvider(llm.Config(cfg.Embedding)); err != nil {
		return nil, fmt.Errorf("%w: embedding: %v", ErrInvalidConfig, err)
	}

	if e.assessor == nil && cfg.RoB != nil {
		assessor, err := rob.NewClient(*cfg.RoB, e.logger)
		if err != nil {
			return nil, fmt.Errorf("%w: rob: %v", ErrInvalidConfig, err)
		}
		e.assessor = assessor
	}

	e.processor = docproc.New(docproc.Config{
		ChunkSize:      cfg.ChunkSize,
		ChunkOverlap:   cfg.ChunkOverlap,
		UseLayout:      cfg.UseLayout,
		LayoutURL:      cfg.LayoutURL,
		LayoutWait:     cfg.LayoutTimeout,
		ExtractFigures: cfg.ExtractFigures,
		FigureConfig:   cfg.Figures,
	}, e.open, e.logger)

	return e, nil
}

func applyDefaults(cfg *Config) {
	def := DefaultConfig()
	if cfg.TopK == 0 {
		cfg.TopK = def.TopK
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.ChunkOverlap == 0 {
		cfg.ChunkOverlap = def.ChunkOverlap
	}
	if cfg.LayoutURL == "" {
		cfg.LayoutURL = def.LayoutURL
	}
	if cfg.LayoutTimeout == 0 {
		cfg.LayoutTimeout = def.LayoutTimeout
	}
	cfg.Figures = cfg.Figures.WithDefaults()
	if cfg.Chat.Provider == "" {
		cfg.Chat.Provider = def.Chat.Provider
	}
	if cfg.Chat.Model == "" {
		cfg.Chat.Model = def.Chat.Model
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = def.Embedding.Provider
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = def.Embedding.Model
	}
}

// Extract runs the full pipeline on one manuscript and returns the
// populated extraction result. The per-document index is released before
// returning regardless of outcome.
func (e *Extractor) Extract(ctx context.Context, path string) (Result, error) {
	filename := filepath.Base(path)
	e.logger.Info("starting extraction", "file", filename)

	units, pp, err := e.processor.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoUnits, err)
	}

	ix, err := index.Build(ctx, units, e.embed, e.logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	defer ix.Close()

	probes := retrieval.GenericProbes()
	if pp != nil {
		probes = retrieval.LayoutProbes()
	}
	evidence, err := retrieval.Gather(ctx, ix, probes, e.cfg.TopK, e.logger)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(userPromptTemplate,
		paperTitle(pp), assembleContext(evidence, pp != nil), e.schemaStr)

	response, err := e.complete(ctx, prompt, pp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLLMRequestFailed, err)
	}

	result, ok := parseModelJSON(response)
	if !ok {
		e.logger.Error("model response was not valid JSON", "file", filename)
	}

	mode := ModeFallback
	if pp != nil {
		mode = ModeLayout
	}
	result.addRunMetadata(filename, e.cfg.Chat.Model, mode)
	if pp != nil {
		result.addLayoutProvenance(pp)
	}

	e.logger.Info("extraction complete", "file", filename, "mode", mode)
	return result, nil
}

// Assess runs risk-of-bias assessment on the manuscript. It fails when no
// assessor is configured.
func (e *Extractor) Assess(ctx context.Context, path string) (*rob.Assessment, error) {
	if e.assessor == nil {
		return nil, fmt.Errorf("%w: risk of bias assessor not configured", ErrInvalidConfig)
	}
	return e.assessor.Assess(ctx, path)
}

// HasAssessor reports whether risk-of-bias assessment is available.
func (e *Extractor) HasAssessor() bool {
	return e.assessor != nil
}

// complete sends the extraction request, attaching figure images ahead of
// the prompt when the parse produced any and the chat provider can see
// them. Image captions ride along as text so each image is attributable.
func (e *Extractor) complete(ctx context.Context, prompt string, pp *paper.Paper) (string, error) {
	var figs []paper.Figure
	if pp != nil {
		figs = pp.FiguresWithImages()
	}

	vision, ok := e.chat.(llm.VisionProvider)
	if len(figs) > 0 && ok {
		e.logger.Info("including figure images in prompt", "count", len(figs))

		content := make([]llm.ContentPart, 0, 2*len(figs)+1)
		for _, fig := range figs {
			content = append(content, llm.ContentPart{
				Type: "image_url",
				ImageURL: &llm.ImageURL{
					URL: "data:image/png;base64," + fig.Image,
				},
			})
			label := fig.Label
			if label == "" {
				label = "Figure"
			}
			content = append(content, llm.ContentPart{
				Type: "text",
				Text: fmt.Sprintf("[%s: %s]", label, fig.Caption),
			})
		}
		content = append(content, llm.ContentPart{Type: "text", Text: prompt})

		resp, err := vision.ChatWithImages(ctx, llm.VisionChatRequest{
			Model: e.cfg.Chat.Model,
			Messages: []llm.VisionMessage{
				{Role: "system", Content: []llm.ContentPart{{Type: "text", Text: systemPrompt}}},
				{Role: "user", Content: content},
			},
			Temperature: e.cfg.Temperature,
			MaxTokens:   e.cfg.MaxTokens,
		})
		if err != nil {
			return "", err
		}
		return resp.Content, nil
	}

	resp, err := e.chat.Chat(ctx, llm.ChatRequest{
		Model: e.cfg.Chat.Model,
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: e.cfg.Temperature,
		MaxTokens:   e.cfg.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// paperTitle returns the parsed title or the placeholder that tells the
// model to find it in the manuscript text.
func paperTitle(pp *paper.Paper) string {
	if pp != nil && pp.Title != "" {
		return pp.Title
	}
	return "Not available - extract from manuscript"
}

// assembleContext joins evidence units into the prompt context block. In
// layout mode each unit is prefixed with its section title so the model
// can weigh where the evidence came from.
func assembleContext(units []paper.Unit, layoutMode bool) string {
	parts := make([]string, len(units))
	for i, u := range units {
		if layoutMode {
			title := u.Meta.SectionTitle
			if title == "" {
				title = "Unknown"
			}
			parts[i] = fmt.Sprintf("[Section: %s]\n%s", title, u.Text)
		} else {
			parts[i] = u.Text
		}
	}
	return strings.Join(parts, "\n\n---\n\n")
}
