package paper

import (
	"fmt"
	"strings"
)

// UnitSource marks which processing path produced a retrieval unit.
type UnitSource string

const (
	SourceLayout UnitSource = "layout" // section-aware layout parsing
	SourcePages  UnitSource = "pages"  // fallback page splitting
)

// UnitMeta is the metadata attached to one retrieval unit.
type UnitMeta struct {
	SectionTitle  string      `json:"section_title"`
	SectionType   SectionType `json:"section_type,omitempty"`
	SectionNumber string      `json:"section_number,omitempty"`
	ParentSection string      `json:"parent_section,omitempty"`
	PaperTitle    string      `json:"paper_title,omitempty"`
	Filename      string      `json:"filename,omitempty"`
	Source        UnitSource  `json:"source"`
	Pages         []int       `json:"pages,omitempty"`

	// Set when a long unit was split: this piece's ordinal and the
	// sibling count. Zero values mean the unit was not split.
	ChunkIndex  int `json:"chunk_index,omitempty"`
	TotalChunks int `json:"total_chunks,omitempty"`
}

// Unit is one retrieval unit: a span of text plus section-aware metadata.
type Unit struct {
	Text string   `json:"text"`
	Meta UnitMeta `json:"meta"`
}

// Units serializes the paper into retrieval units: the synthesized header
// block, the abstract, one unit per section, one per table (rendered as an
// aligned grid), and one per captioned figure. Sections with no content
// are dropped.
func (p *Paper) Units() []Unit {
	units := []Unit{{
		Text: p.HeaderContent(),
		Meta: UnitMeta{
			SectionTitle: "Paper Header/Metadata",
			SectionType:  SectionHeader,
			PaperTitle:   p.Title,
			Filename:     p.Filename,
			Source:       SourceLayout,
		},
	}}

	if p.Abstract != "" {
		units = append(units, Unit{
			Text: p.Abstract,
			Meta: UnitMeta{
				SectionTitle: "Abstract",
				SectionType:  SectionAbstract,
				PaperTitle:   p.Title,
				Filename:     p.Filename,
				Source:       SourceLayout,
			},
		})
	}

	for _, s := range p.Sections {
		if strings.TrimSpace(s.Content) == "" {
			continue
		}
		units = append(units, Unit{
			Text: s.Content,
			Meta: UnitMeta{
				SectionTitle:  s.Title,
				SectionType:   s.Type,
				SectionNumber: s.Number,
				ParentSection: s.ParentSection,
				PaperTitle:    p.Title,
				Filename:      p.Filename,
				Source:        SourceLayout,
				Pages:         s.Pages,
			},
		})
	}

	for _, t := range p.Tables {
		label := t.Label
		if label == "" {
			label = "Table"
		}
		units = append(units, Unit{
			Text: t.Render(),
			Meta: UnitMeta{
				SectionTitle: label,
				SectionType:  SectionTable,
				PaperTitle:   p.Title,
				Filename:     p.Filename,
				Source:       SourceLayout,
			},
		})
	}

	for _, f := range p.Figures {
		text := strings.TrimSpace(fmt.Sprintf("%s: %s", f.Label, f.Caption))
		if text == ":" || text == "" {
			continue
		}
		label := f.Label
		if label == "" {
			label = "Figure"
		}
		units = append(units, Unit{
			Text: text,
			Meta: UnitMeta{
				SectionTitle: label,
				SectionType:  SectionFigure,
				PaperTitle:   p.Title,
				Filename:     p.Filename,
				Source:       SourceLayout,
			},
		})
	}

	return units
}

// HeaderContent renders the paper's metadata as one formatted text block.
// Indexed as its own retrieval unit so header-level fields (title, journal,
// year, authors) are retrievable.
func (p *Paper) HeaderContent() string {
	var b strings.Builder
	b.WriteString("=== PAPER METADATA ===\n")
	fmt.Fprintf(&b, "Title: %s\n", p.Title)
	fmt.Fprintf(&b, "Journal: %s\n", p.JournalName)
	if p.JournalAbbrev != "" {
		fmt.Fprintf(&b, "Journal Abbreviation: %s\n", p.JournalAbbrev)
	}
	if p.Publisher != "" {
		fmt.Fprintf(&b, "Publisher: %s\n", p.Publisher)
	}
	if p.Year != 0 {
		fmt.Fprintf(&b, "Year of Publication: %d\n", p.Year)
	}
	if p.PublicationDate != "" {
		fmt.Fprintf(&b, "Publication Date: %s\n", p.PublicationDate)
	}
	if p.DOI != "" {
		fmt.Fprintf(&b, "DOI: %s\n", p.DOI)
	}
	if p.Volume != "" {
		fmt.Fprintf(&b, "Volume: %s\n", p.Volume)
	}
	if p.Issue != "" {
		fmt.Fprintf(&b, "Issue: %s\n", p.Issue)
	}
	if p.Pages != "" {
		fmt.Fprintf(&b, "Pages: %s\n", p.Pages)
	}

	fmt.Fprintf(&b, "\nAuthors (%d total):\n", len(p.Authors))
	for i, a := range p.Authors {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, a)
	}

	if p.CorrespondingAuthor != "" {
		fmt.Fprintf(&b, "\nCorresponding Author: %s\n", p.CorrespondingAuthor)
	}
	if p.CorrespondingAuthorEmail != "" {
		fmt.Fprintf(&b, "Corresponding Author Email: %s\n", p.CorrespondingAuthorEmail)
	}
	if p.CorrespondingAuthorCountry != "" {
		fmt.Fprintf(&b, "Corresponding Author Country: %s\n", p.CorrespondingAuthorCountry)
	}

	if len(p.Affiliations) > 0 {
		b.WriteString("\nAuthor Affiliations:\n")
		for _, aff := range p.Affiliations {
			line := aff.Institution
			if aff.Country != "" {
				line += ", " + aff.Country
			}
			fmt.Fprintf(&b, "  - %s\n", line)
		}
	}

	if len(p.Keywords) > 0 {
		fmt.Fprintf(&b, "\nKeywords: %s\n", strings.Join(p.Keywords, ", "))
	}

	return strings.TrimRight(b.String(), "\n")
}

// Render formats the table as readable text: label and caption header,
// optional description, then the grid with columns padded to equal width
// and a separator under the header row.
func (t *Table) Render() string {
	var lines []string
	lines = append(lines, fmt.Sprintf("=== %s: %s ===", t.Label, t.Caption))
	if t.Description != "" {
		lines = append(lines, "Description: "+t.Description)
	}

	if len(t.Rows) > 0 {
		lines = append(lines, "", "Table Data:")

		var widths []int
		for _, row := range t.Rows {
			for i, cell := range row {
				if i >= len(widths) {
					widths = append(widths, len(cell))
				} else if len(cell) > widths[i] {
					widths[i] = len(cell)
				}
			}
		}

		for i, row := range t.Rows {
			cells := make([]string, len(row))
			for j, cell := range row {
				w := 0
				if j < len(widths) {
					w = widths[j]
				}
				cells[j] = pad(cell, w)
			}
			line := strings.Join(cells, " | ")
			lines = append(lines, line)
			if i == 0 {
				lines = append(lines, strings.Repeat("-", len(line)))
			}
		}
	}

	return strings.Join(lines, "\n")
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
