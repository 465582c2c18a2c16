package layout

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/medevidence/rctx/paper"
)

// countryIndicators is checked against affiliation address lines when no
// explicit country element is present. Entries later in the list are only
// reached when earlier ones don't match, so order is stable.
var countryIndicators = []string{
	"Qatar", "UAE", "United Arab Emirates", "Saudi Arabia", "KSA",
	"Egypt", "Jordan", "Lebanon", "Iraq", "Kuwait", "Bahrain", "Oman",
	"Pakistan", "India", "Iran", "Turkey", "USA", "United States",
	"UK", "United Kingdom", "Germany", "France", "Italy", "Spain",
	"China", "Japan", "South Korea", "Australia", "Canada", "Brazil",
	"Dubai", "Abu Dhabi",
}

// cityCountry maps city names that appear as country indicators in
// affiliation lines to the country they belong to.
var cityCountry = map[string]string{
	"Dubai":     "UAE",
	"Abu Dhabi": "UAE",
}

// Parser turns TEI-XML layout analysis output into a paper.Paper. All
// field extraction is best-effort: a missing element leaves its field at
// the zero value rather than failing the parse.
type Parser struct {
	logger *slog.Logger
}

// NewParser returns a parser. A nil logger selects slog.Default.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// Parse reads the TEI document and extracts header metadata, body
// sections with canonical types, figures, tables, and references.
// It fails only on malformed XML.
func (p *Parser) Parse(tei []byte, filename string) (*paper.Paper, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(tei); err != nil {
		return nil, fmt.Errorf("layout: parsing TEI document: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("layout: empty TEI document")
	}

	pp := &paper.Paper{Filename: filename}

	pp.Title = allText(root.FindElement(".//titleStmt/title"))
	p.parseAuthors(root, pp)
	p.parseJournal(root, pp)
	p.parsePublication(root, pp)

	for _, term := range root.FindElements(".//profileDesc//keywords//term") {
		if kw := allText(term); kw != "" {
			pp.Keywords = append(pp.Keywords, kw)
		}
	}
	pp.Abstract = allText(root.FindElement(".//profileDesc/abstract"))

	body := root.FindElement(".//body")
	if body != nil {
		for _, div := range body.FindElements(".//div") {
			if s, ok := parseDiv(div); ok && strings.TrimSpace(s.Content) != "" {
				pp.Sections = append(pp.Sections, s)
			}
		}
	}

	p.parseFigures(root, body, pp)

	for _, ref := range root.FindElements(".//listBibl/biblStruct") {
		if title := allText(ref.FindElement(".//title")); title != "" {
			pp.References = append(pp.References, paper.Reference{Title: title})
		}
	}

	p.logger.Debug("parsed layout document",
		"file", filename,
		"sections", len(pp.Sections),
		"figures", len(pp.Figures),
		"tables", len(pp.Tables))
	return pp, nil
}

func (p *Parser) parseAuthors(root *etree.Element, pp *paper.Paper) {
	for _, author := range root.FindElements(".//sourceDesc//author") {
		surname := author.FindElement(".//surname")
		if surname != nil {
			name := allText(surname)
			if forename := author.FindElement(".//forename"); forename != nil {
				name = allText(forename) + " " + name
			}
			pp.Authors = append(pp.Authors, name)

			if author.SelectAttrValue("role", "") == "corresp" {
				pp.CorrespondingAuthor = name
				pp.CorrespondingAuthorEmail = allText(author.FindElement(".//email"))
				if aff := author.FindElement(".//affiliation"); aff != nil {
					if country := affiliationCountry(aff); country != "" {
						pp.CorrespondingAuthorCountry = country
					}
				}
			}
		}

		if aff := author.FindElement(".//affiliation"); aff != nil {
			if info, ok := parseAffiliation(aff); ok && !containsAffiliation(pp.Affiliations, info) {
				pp.Affiliations = append(pp.Affiliations, info)
			}
		}
	}
}

func (p *Parser) parseJournal(root *etree.Element, pp *paper.Paper) {
	monogr := root.FindElement(".//sourceDesc//monogr")
	if monogr == nil {
		return
	}

	pp.JournalName = allText(monogr.FindElement("title[@level='j'][@type='main']"))
	pp.JournalAbbrev = allText(monogr.FindElement("title[@level='j'][@type='abbrev']"))
	pp.Publisher = allText(monogr.FindElement(".//publisher"))

	imprint := monogr.FindElement("imprint")
	if imprint == nil {
		return
	}
	pp.Volume = allText(imprint.FindElement("biblScope[@unit='volume']"))
	pp.Issue = allText(imprint.FindElement("biblScope[@unit='issue']"))
	if page := imprint.FindElement("biblScope[@unit='page']"); page != nil {
		from := page.SelectAttrValue("from", "")
		to := page.SelectAttrValue("to", "")
		switch {
		case from != "" && to != "":
			pp.Pages = from + "-" + to
		case from != "":
			pp.Pages = from
		}
	}
}

func (p *Parser) parsePublication(root *etree.Element, pp *paper.Paper) {
	if date := root.FindElement(".//publicationStmt/date[@type='published']"); date != nil {
		when := date.SelectAttrValue("when", "")
		pp.PublicationDate = when
		if when != "" {
			if year, err := strconv.Atoi(strings.SplitN(when, "-", 2)[0]); err == nil {
				pp.Year = year
			}
		}
	}
	pp.DOI = allText(root.FindElement(".//idno[@type='DOI']"))
}

// parseFigures scans <figure> elements, splitting tables (type="table")
// from real figures. A second pass picks up figures outside the body,
// which some layout outputs place after the back matter.
func (p *Parser) parseFigures(root, body *etree.Element, pp *paper.Paper) {
	seen := map[*etree.Element]bool{}
	if body != nil {
		for _, fig := range body.FindElements(".//figure") {
			seen[fig] = true
			p.addFigureOrTable(fig, pp)
		}
	}
	for _, fig := range root.FindElements(".//figure") {
		if seen[fig] {
			continue
		}
		p.addFigureOrTable(fig, pp)
	}
}

func (p *Parser) addFigureOrTable(fig *etree.Element, pp *paper.Paper) {
	if fig.SelectAttrValue("type", "") == "table" {
		if table, ok := parseTable(fig); ok && !containsTable(pp.Tables, table) {
			pp.Tables = append(pp.Tables, table)
		}
		return
	}
	if figure, ok := parseFigure(fig); ok && !containsFigure(pp.Figures, figure) {
		pp.Figures = append(pp.Figures, figure)
	}
}

// parseFigure extracts a figure's label, caption, and page coordinates.
// Coordinates on the <graphic> child anchor a bitmap image directly;
// coordinates on the <figure> element itself locate only the caption and
// are flagged so the image extractor knows to expand the region. Elements
// without figure-like labeling are discarded as detector noise.
func parseFigure(fig *etree.Element) (paper.Figure, bool) {
	id := fig.SelectAttrValue("xml:id", "")
	label := allText(fig.FindElement("head"))
	if labelElem := fig.FindElement("label"); labelElem != nil {
		label = "Figure " + allText(labelElem)
	}
	caption := allText(fig.FindElement("figDesc"))

	var coords *paper.Coordinates
	source := paper.CoordNone

	if graphic := fig.FindElement("graphic"); graphic != nil {
		if c := parseCoords(graphic.SelectAttrValue("coords", "")); c != nil {
			coords = c
			source = paper.CoordGraphic
		}
	}
	if coords == nil {
		// Figure-element coords may carry several regions; the first is
		// the caption's.
		raw := fig.SelectAttrValue("coords", "")
		if raw != "" {
			if c := parseCoords(strings.Split(raw, ";")[0]); c != nil {
				coords = c
				source = paper.CoordCaption
			}
		}
	}

	if label == "" && caption == "" {
		return paper.Figure{}, false
	}

	lower := strings.ToLower(label)
	captionHead := strings.ToLower(caption)
	if len(captionHead) > 20 {
		captionHead = captionHead[:20]
	}
	if !strings.Contains(lower, "figure") && !strings.Contains(lower, "fig") &&
		!strings.Contains(captionHead, "figure") {
		return paper.Figure{}, false
	}

	return paper.Figure{
		ID:          id,
		Label:       label,
		Caption:     caption,
		Coords:      coords,
		CoordSource: source,
	}, true
}

// parseTable extracts a table's label, description, and cell grid.
func parseTable(fig *etree.Element) (paper.Table, bool) {
	label := allText(fig.FindElement("head"))
	if labelElem := fig.FindElement("label"); labelElem != nil {
		if num := allText(labelElem); !strings.HasPrefix(label, "Table") {
			label = "Table " + num + ": " + label
		}
	}
	description := allText(fig.FindElement("figDesc"))

	var rows [][]string
	if table := fig.FindElement("table"); table != nil {
		for _, row := range table.FindElements("row") {
			var cells []string
			for _, cell := range row.FindElements("cell") {
				cells = append(cells, allText(cell))
			}
			if len(cells) > 0 {
				rows = append(rows, cells)
			}
		}
	}

	if label == "" && len(rows) == 0 {
		return paper.Table{}, false
	}
	return paper.Table{
		Label:       label,
		Caption:     label,
		Description: description,
		Rows:        rows,
	}, true
}

// parseDiv extracts one body division: its heading, number, and the
// concatenated text of its direct paragraphs.
func parseDiv(div *etree.Element) (paper.Section, bool) {
	var title, number string
	if head := div.FindElement("head"); head != nil {
		title = allText(head)
		number = head.SelectAttrValue("n", "")
	}

	var parts []string
	if lead := strings.TrimSpace(div.Text()); lead != "" {
		parts = append(parts, lead)
	}
	for _, para := range div.FindElements("p") {
		if text := allText(para); text != "" {
			parts = append(parts, text)
		}
	}
	content := strings.Join(parts, "\n\n")

	if content == "" && title == "" {
		return paper.Section{}, false
	}

	sectionType := paper.SectionOther
	if title != "" {
		sectionType = SectionTypeFor(title)
	}
	return paper.Section{
		Title:   title,
		Content: content,
		Type:    sectionType,
		Number:  number,
	}, true
}

// parseAffiliation reads the organization names and country from an
// affiliation element.
func parseAffiliation(aff *etree.Element) (paper.Affiliation, bool) {
	out := paper.Affiliation{
		Institution: allText(aff.FindElement(".//orgName[@type='institution']")),
		Department:  allText(aff.FindElement(".//orgName[@type='department']")),
		Laboratory:  allText(aff.FindElement(".//orgName[@type='laboratory']")),
		Country:     affiliationCountry(aff),
	}
	if out == (paper.Affiliation{}) {
		return out, false
	}
	return out, true
}

// affiliationCountry prefers the explicit address country element and
// falls back to scanning the address line for known country names.
// City names that double as country indicators resolve to their country.
func affiliationCountry(aff *etree.Element) string {
	if country := allText(aff.FindElement(".//address/country")); country != "" {
		return country
	}
	addr := allText(aff.FindElement(".//address/addrLine"))
	if addr == "" {
		return ""
	}
	lower := strings.ToLower(addr)
	for _, country := range countryIndicators {
		if strings.Contains(lower, strings.ToLower(country)) {
			if mapped, ok := cityCountry[country]; ok {
				return mapped
			}
			return country
		}
	}
	return ""
}

// parseCoords parses a "page,x,y,width,height" coordinate string. The
// page number may itself be fractional in some outputs and is truncated.
func parseCoords(s string) *paper.Coordinates {
	parts := strings.Split(s, ",")
	if len(parts) < 5 {
		return nil
	}
	vals := make([]float64, 5)
	for i := 0; i < 5; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return nil
		}
		vals[i] = v
	}
	return &paper.Coordinates{
		Page:   int(vals[0]),
		X:      vals[1],
		Y:      vals[2],
		Width:  vals[3],
		Height: vals[4],
	}
}

// allText returns the concatenated character data of an element and all
// its descendants, trimmed. A nil element yields the empty string.
func allText(e *etree.Element) string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		for _, child := range el.Child {
			switch c := child.(type) {
			case *etree.CharData:
				b.WriteString(c.Data)
			case *etree.Element:
				walk(c)
			}
		}
	}
	walk(e)
	return strings.TrimSpace(b.String())
}

func containsAffiliation(list []paper.Affiliation, a paper.Affiliation) bool {
	for _, x := range list {
		if x == a {
			return true
		}
	}
	return false
}

func containsFigure(list []paper.Figure, f paper.Figure) bool {
	for _, x := range list {
		if x.ID == f.ID && x.Label == f.Label && x.Caption == f.Caption {
			return true
		}
	}
	return false
}

func containsTable(list []paper.Table, t paper.Table) bool {
	for _, x := range list {
		if x.Label == t.Label && x.Description == t.Description && len(x.Rows) == len(t.Rows) {
			return true
		}
	}
	return false
}
