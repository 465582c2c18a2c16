package figures

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// FitzRenderer rasterizes pages with MuPDF.
type FitzRenderer struct {
	doc *fitz.Document
}

// Open opens the PDF at path and returns it as a Renderer. It is shaped
// to plug straight into callers that take an opener function.
func Open(path string) (Renderer, error) {
	return OpenPDF(path)
}

// OpenPDF opens the PDF at path for rendering.
func OpenPDF(path string) (*FitzRenderer, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("figures: opening %s: %w", path, err)
	}
	return &FitzRenderer{doc: doc}, nil
}

func (r *FitzRenderer) NumPages() int {
	return r.doc.NumPage()
}

// PageSize returns the page media box in points.
func (r *FitzRenderer) PageSize(page int) (float64, float64, error) {
	bound, err := r.doc.Bound(page)
	if err != nil {
		return 0, 0, fmt.Errorf("figures: page %d bounds: %w", page+1, err)
	}
	return float64(bound.Dx()), float64(bound.Dy()), nil
}

func (r *FitzRenderer) RenderPage(page int, dpi float64) (image.Image, error) {
	img, err := r.doc.ImageDPI(page, dpi)
	if err != nil {
		return nil, fmt.Errorf("figures: rendering page %d: %w", page+1, err)
	}
	return img, nil
}

func (r *FitzRenderer) Close() error {
	return r.doc.Close()
}
