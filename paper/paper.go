// Package paper defines the structured document model for a parsed
// scientific publication: header metadata, sections with canonical types,
// tables, figures with page-space coordinates, and the retrieval units
// derived from them.
package paper

// SectionType is the canonical IMRaD-style label assigned to a heading.
type SectionType string

const (
	SectionAbstract        SectionType = "abstract"
	SectionIntroduction    SectionType = "introduction"
	SectionMethods         SectionType = "methods"
	SectionResults         SectionType = "results"
	SectionDiscussion      SectionType = "discussion"
	SectionConclusion      SectionType = "conclusion"
	SectionAcknowledgments SectionType = "acknowledgments"
	SectionFunding         SectionType = "funding"
	SectionConflicts       SectionType = "conflicts"
	SectionReferences      SectionType = "references"
	SectionSupplementary   SectionType = "supplementary"
	SectionOther           SectionType = "other"

	// Synthetic types for units that don't come from a body division.
	SectionHeader SectionType = "header"
	SectionTable  SectionType = "table"
	SectionFigure SectionType = "figure"
)

// Section is one heading-bearing content division of the paper body.
type Section struct {
	Title         string      `json:"title"`
	Content       string      `json:"content"`
	Type          SectionType `json:"type"`
	Number        string      `json:"number,omitempty"`
	ParentSection string      `json:"parent_section,omitempty"`
	Pages         []int       `json:"pages,omitempty"`
}

// CoordSource records where a figure's coordinates came from.
type CoordSource string

const (
	CoordNone    CoordSource = ""
	CoordGraphic CoordSource = "graphic" // bitmap image anchor, crop directly
	CoordCaption CoordSource = "caption" // caption anchor, needs geometric expansion
)

// Coordinates locate a region in PDF page space. Page is 1-indexed,
// matching the layout service's convention.
type Coordinates struct {
	Page   int     `json:"page"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect is a resolved crop rectangle in page space, as used after
// expansion and page-bounds clamping.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Figure is a figure detected by the layout service. Image is populated
// by the figure-region extractor when rasterization succeeds; until then
// the figure carries only its label and caption.
type Figure struct {
	ID          string       `json:"id,omitempty"`
	Label       string       `json:"label"`
	Caption     string       `json:"caption"`
	Coords      *Coordinates `json:"coords,omitempty"`
	CoordSource CoordSource  `json:"coord_source,omitempty"`

	// Image is the base64-encoded PNG of the cropped region, when extracted.
	Image       string `json:"image,omitempty"`
	ImageFormat string `json:"image_format,omitempty"`
	CropRegion  *Rect  `json:"crop_region,omitempty"`
}

// Table is a parsed table grid. Rows preserve original column order;
// row 0 is treated as the header when rendering to text.
type Table struct {
	Label       string     `json:"label"`
	Caption     string     `json:"caption"`
	Description string     `json:"description,omitempty"`
	Rows        [][]string `json:"rows"`
}

// Affiliation is one author affiliation.
type Affiliation struct {
	Institution string `json:"institution,omitempty"`
	Department  string `json:"department,omitempty"`
	Laboratory  string `json:"laboratory,omitempty"`
	Country     string `json:"country,omitempty"`
}

// Reference is a minimal bibliographic entry. Only the title is kept;
// citation graphs are out of scope.
type Reference struct {
	Title string `json:"title"`
}

// Paper is the complete parsed publication. Every field is best-effort:
// a missing element in the layout output leaves the corresponding field
// at its zero value.
type Paper struct {
	Title    string   `json:"title"`
	Authors  []string `json:"authors"`
	Abstract string   `json:"abstract"`
	Filename string   `json:"filename"`

	JournalName   string `json:"journal_name,omitempty"`
	JournalAbbrev string `json:"journal_abbrev,omitempty"`
	Publisher     string `json:"publisher,omitempty"`
	Volume        string `json:"volume,omitempty"`
	Issue         string `json:"issue,omitempty"`
	Pages         string `json:"pages,omitempty"`
	DOI           string `json:"doi,omitempty"`

	// Year is 0 when the publication date could not be parsed; the raw
	// date string is kept in PublicationDate regardless.
	Year            int    `json:"year,omitempty"`
	PublicationDate string `json:"publication_date,omitempty"`

	Keywords     []string      `json:"keywords,omitempty"`
	Affiliations []Affiliation `json:"affiliations,omitempty"`

	CorrespondingAuthor        string `json:"corresponding_author,omitempty"`
	CorrespondingAuthorEmail   string `json:"corresponding_author_email,omitempty"`
	CorrespondingAuthorCountry string `json:"corresponding_author_country,omitempty"`

	Sections   []Section   `json:"sections"`
	Figures    []Figure    `json:"figures,omitempty"`
	Tables     []Table     `json:"tables,omitempty"`
	References []Reference `json:"references,omitempty"`
}

// SectionsByType returns all sections carrying the given canonical type.
func (p *Paper) SectionsByType(t SectionType) []Section {
	var out []Section
	for _, s := range p.Sections {
		if s.Type == t {
			out = append(out, s)
		}
	}
	return out
}

// SectionTypes returns the canonical type of every section, in order.
func (p *Paper) SectionTypes() []SectionType {
	out := make([]SectionType, len(p.Sections))
	for i, s := range p.Sections {
		out[i] = s.Type
	}
	return out
}

// FiguresWithImages returns the figures whose region was rasterized.
func (p *Paper) FiguresWithImages() []Figure {
	var out []Figure
	for _, f := range p.Figures {
		if f.Image != "" {
			out = append(out, f)
		}
	}
	return out
}
