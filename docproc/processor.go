// Package docproc turns a PDF on disk into retrieval units. The primary
// path runs layout analysis for section-aware units; when the layout
// server is unreachable or fails on a document, it degrades to page-level
// text extraction.
package docproc

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/medevidence/rctx/figures"
	"github.com/medevidence/rctx/layout"
	"github.com/medevidence/rctx/paper"
)

// Config controls document processing.
type Config struct {
	ChunkSize    int           `json:"chunk_size" yaml:"chunk_size"`
	ChunkOverlap int           `json:"chunk_overlap" yaml:"chunk_overlap"`
	UseLayout    bool          `json:"use_layout" yaml:"use_layout"`
	LayoutURL    string        `json:"layout_url" yaml:"layout_url"`
	LayoutWait   time.Duration `json:"layout_wait" yaml:"layout_wait"`

	// ExtractFigures enables rasterizing figure regions when the layout
	// path yields figure coordinates.
	ExtractFigures bool           `json:"extract_figures" yaml:"extract_figures"`
	FigureConfig   figures.Config `json:"figure_config" yaml:"figure_config"`
}

// DefaultConfig returns the processing defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize:      2000,
		ChunkOverlap:   400,
		UseLayout:      true,
		LayoutURL:      layout.DefaultBaseURL,
		LayoutWait:     layout.DefaultTimeout,
		ExtractFigures: true,
		FigureConfig:   figures.DefaultConfig(),
	}
}

// OpenRenderer opens a page rasterizer for a PDF. Swappable so tests can
// stub rendering and so builds without a rasterization backend can set it
// to nil, which silently disables figure images.
type OpenRenderer func(path string) (figures.Renderer, error)

// Processor loads PDFs into retrieval units.
type Processor struct {
	cfg      Config
	client   *layout.Client
	parser   *layout.Parser
	splitter *Splitter
	open     OpenRenderer
	logger   *slog.Logger
}

// New returns a processor. openRenderer may be nil to disable figure
// image extraction; pass figures.Open to use the built-in backend.
func New(cfg Config, openRenderer OpenRenderer, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	// Zero fields default individually; explicit settings survive.
	def := DefaultConfig()
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.ChunkOverlap == 0 {
		cfg.ChunkOverlap = def.ChunkOverlap
	}
	if cfg.LayoutURL == "" {
		cfg.LayoutURL = def.LayoutURL
	}
	if cfg.LayoutWait == 0 {
		cfg.LayoutWait = def.LayoutWait
	}
	cfg.FigureConfig = cfg.FigureConfig.WithDefaults()
	p := &Processor{
		cfg:      cfg,
		splitter: NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
		open:     openRenderer,
		logger:   logger,
	}
	if cfg.UseLayout {
		p.client = layout.NewClient(cfg.LayoutURL, cfg.LayoutWait, logger)
		p.parser = layout.NewParser(logger)
	}
	return p
}

// Load processes the PDF at path into retrieval units. In layout mode the
// returned paper carries the full parsed structure; in fallback mode the
// paper is nil and units are page texts. Long units are split with
// overlap either way.
func (p *Processor) Load(ctx context.Context, path string) ([]paper.Unit, *paper.Paper, error) {
	if p.client != nil {
		units, pp, err := p.loadLayout(ctx, path)
		if err == nil {
			return units, pp, nil
		}
		if errors.Is(err, layout.ErrUnavailable) {
			p.logger.Warn("layout server unavailable, using page fallback",
				"file", filepath.Base(path))
		} else {
			p.logger.Warn("layout processing failed, using page fallback",
				"file", filepath.Base(path), "error", err)
		}
	}

	units, err := pageUnits(path)
	if err != nil {
		return nil, nil, err
	}
	p.logger.Info("loaded PDF pages", "file", filepath.Base(path), "pages", len(units))
	return p.splitter.SplitUnits(units), nil, nil
}

func (p *Processor) loadLayout(ctx context.Context, path string) ([]paper.Unit, *paper.Paper, error) {
	tei, err := p.client.ProcessFulltext(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	pp, err := p.parser.Parse(tei, filepath.Base(path))
	if err != nil {
		return nil, nil, err
	}

	if p.cfg.ExtractFigures && p.open != nil && len(pp.Figures) > 0 {
		renderer, err := p.open(path)
		if err != nil {
			p.logger.Warn("opening PDF for figure rendering", "error", err)
		} else {
			enriched := figures.Extract(renderer, *pp, p.cfg.FigureConfig, p.logger)
			renderer.Close()
			pp = &enriched
		}
	}

	units := p.splitter.SplitUnits(pp.Units())
	p.logger.Info("layout parsing complete",
		"file", filepath.Base(path),
		"sections", len(pp.Sections),
		"units", len(units))
	return units, pp, nil
}
