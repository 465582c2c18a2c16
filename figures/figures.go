// Package figures crops figure images out of PDF pages using the
// coordinates reported by layout analysis. Bitmap figures carry exact
// graphic coordinates and are cropped directly; vector figures only carry
// the caption's location, so the crop region is grown from the caption
// anchor to cover the drawing that typically sits above it.
package figures

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"log/slog"
	"strings"

	"github.com/medevidence/rctx/paper"
)

// Renderer rasterizes PDF pages. Pages are 0-indexed. A nil Renderer
// passed to Extract turns figure image extraction into a no-op, which is
// how the feature degrades when no rasterization backend is built in.
type Renderer interface {
	NumPages() int
	// PageSize returns the page's media box in points.
	PageSize(page int) (width, height float64, err error)
	// RenderPage rasterizes the whole page at the given DPI.
	RenderPage(page int, dpi float64) (image.Image, error)
	Close() error
}

// Config holds the crop geometry knobs. The caption-expansion values are
// tuned for single-column and two-column clinical journals.
type Config struct {
	// Zoom scales rendering resolution; 2.0 renders at 144 DPI.
	Zoom float64 `json:"zoom" yaml:"zoom"`
	// MinSize discards crop regions narrower or shorter than this many
	// points, which are caption fragments rather than figures.
	MinSize float64 `json:"min_size" yaml:"min_size"`

	// Caption-anchor expansion, all in points.
	Margin       float64 `json:"margin" yaml:"margin"`
	ExpandAbove  float64 `json:"expand_above" yaml:"expand_above"`
	LeftPad      float64 `json:"left_pad" yaml:"left_pad"`
	RightPad     float64 `json:"right_pad" yaml:"right_pad"`
	BelowCaption float64 `json:"below_caption" yaml:"below_caption"`
	TopFloor     float64 `json:"top_floor" yaml:"top_floor"`
	// FlowExpandAbove replaces ExpandAbove for flow/CONSORT diagrams,
	// which also get the full page width.
	FlowExpandAbove float64 `json:"flow_expand_above" yaml:"flow_expand_above"`
}

// DefaultConfig returns the extraction defaults.
func DefaultConfig() Config {
	return Config{
		Zoom:            2.0,
		MinSize:         10,
		Margin:          20,
		ExpandAbove:     400,
		LeftPad:         50,
		RightPad:        200,
		BelowCaption:    10,
		TopFloor:        50,
		FlowExpandAbove: 500,
	}
}

// WithDefaults returns a copy of the config with zero fields replaced by
// the defaults, so a partially specified config keeps its explicit
// values.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.Zoom == 0 {
		c.Zoom = def.Zoom
	}
	if c.MinSize == 0 {
		c.MinSize = def.MinSize
	}
	if c.Margin == 0 {
		c.Margin = def.Margin
	}
	if c.ExpandAbove == 0 {
		c.ExpandAbove = def.ExpandAbove
	}
	if c.LeftPad == 0 {
		c.LeftPad = def.LeftPad
	}
	if c.RightPad == 0 {
		c.RightPad = def.RightPad
	}
	if c.BelowCaption == 0 {
		c.BelowCaption = def.BelowCaption
	}
	if c.TopFloor == 0 {
		c.TopFloor = def.TopFloor
	}
	if c.FlowExpandAbove == 0 {
		c.FlowExpandAbove = def.FlowExpandAbove
	}
	return c
}

// Extract renders and crops every figure in the paper that has
// coordinates and returns a copy of the paper whose figures carry base64
// PNG data. The input paper is not modified. Failures are per-figure: one
// bad region never aborts the rest. The renderer is not closed by Extract.
func Extract(r Renderer, pp paper.Paper, cfg Config, logger *slog.Logger) paper.Paper {
	if r == nil || len(pp.Figures) == 0 {
		return pp
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Zoom <= 0 {
		cfg = DefaultConfig()
	}

	figs := make([]paper.Figure, len(pp.Figures))
	copy(figs, pp.Figures)
	pp.Figures = figs

	// Pages rendered once and reused across figures on the same page.
	rendered := map[int]image.Image{}
	extracted := 0

	for i := range pp.Figures {
		fig := &pp.Figures[i]
		if fig.Coords == nil {
			continue
		}
		page := fig.Coords.Page - 1 // layout coordinates are 1-indexed
		if page < 0 || page >= r.NumPages() {
			continue
		}

		pageW, pageH, err := r.PageSize(page)
		if err != nil {
			logger.Warn("reading page size", "page", page+1, "error", err)
			continue
		}

		region, ok := CropRegion(fig, pageW, pageH, cfg)
		if !ok {
			logger.Debug("skipping figure, degenerate crop region", "label", fig.Label)
			continue
		}

		img := rendered[page]
		if img == nil {
			img, err = r.RenderPage(page, 72*cfg.Zoom)
			if err != nil {
				logger.Warn("rendering page", "page", page+1, "error", err)
				continue
			}
			rendered[page] = img
		}

		data, err := cropPNG(img, region, cfg.Zoom)
		if err != nil {
			logger.Warn("cropping figure", "label", fig.Label, "error", err)
			continue
		}

		fig.Image = base64.StdEncoding.EncodeToString(data)
		fig.ImageFormat = "png"
		cr := region
		fig.CropRegion = &cr
		extracted++
	}

	logger.Info("figure images extracted",
		"extracted", extracted, "figures", len(pp.Figures))
	return pp
}

// CropRegion resolves a figure's crop rectangle in page points: direct
// coordinates for bitmap figures, caption-anchored expansion for vector
// ones, clamped to the page. The second return is false when the region
// is too small to be a figure.
func CropRegion(fig *paper.Figure, pageW, pageH float64, cfg Config) (paper.Rect, bool) {
	c := fig.Coords
	var x0, y0, x1, y1 float64

	if fig.CoordSource == paper.CoordCaption {
		// The caption is a thin text band; the drawing usually sits
		// above it. Grow upward from the caption anchor and widen to
		// column width.
		y1 = c.Y + c.Height + cfg.BelowCaption
		y0 = max(cfg.TopFloor, c.Y-cfg.ExpandAbove)
		x0 = max(cfg.Margin, c.X-cfg.LeftPad)
		x1 = min(pageW-cfg.Margin, c.X+c.Width+cfg.RightPad)

		caption := strings.ToLower(fig.Caption)
		if strings.Contains(caption, "flow") || strings.Contains(caption, "consort") {
			// Flow diagrams span the page.
			x0 = cfg.Margin
			x1 = pageW - cfg.Margin
			y0 = max(cfg.TopFloor, c.Y-cfg.FlowExpandAbove)
		}
	} else {
		x0, y0 = c.X, c.Y
		x1, y1 = c.X+c.Width, c.Y+c.Height
	}

	// Clamp to page bounds.
	x0 = max(0, x0)
	y0 = max(0, y0)
	x1 = min(pageW, x1)
	y1 = min(pageH, y1)

	if x1-x0 < cfg.MinSize || y1-y0 < cfg.MinSize {
		return paper.Rect{}, false
	}
	return paper.Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, true
}

// cropPNG cuts the page-space region out of a page image rendered at the
// given zoom and encodes it as PNG.
func cropPNG(img image.Image, region paper.Rect, zoom float64) ([]byte, error) {
	bounds := image.Rect(
		int(region.X*zoom),
		int(region.Y*zoom),
		int((region.X+region.Width)*zoom),
		int((region.Y+region.Height)*zoom),
	).Intersect(img.Bounds())
	if bounds.Empty() {
		return nil, fmt.Errorf("crop region outside rendered page")
	}

	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(out, out.Bounds(), img, bounds.Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}
