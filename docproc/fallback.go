package docproc

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/medevidence/rctx/paper"
)

// pageUnits extracts plain text page by page, for PDFs that could not be
// processed by layout analysis. Each non-empty page becomes one unit.
func pageUnits(path string) ([]paper.Unit, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("docproc: opening PDF: %w", err)
	}
	defer f.Close()

	filename := filepath.Base(path)
	var units []paper.Unit

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Pages with broken font maps are skipped, not fatal.
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		units = append(units, paper.Unit{
			Text: text,
			Meta: paper.UnitMeta{
				SectionTitle: fmt.Sprintf("Page %d", i),
				SectionType:  paper.SectionOther,
				Filename:     filename,
				Source:       paper.SourcePages,
				Pages:        []int{i},
			},
		})
	}

	if len(units) == 0 {
		return nil, fmt.Errorf("docproc: no extractable text in %s", filename)
	}
	return units, nil
}
