package rctx

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/medevidence/rctx/paper"
)

// Result is the extraction output for one manuscript: the model's answer
// keyed by schema field name, plus run metadata and, in layout mode, the
// parse-derived provenance fields.
type Result map[string]any

// Extraction modes recorded in the result.
const (
	ModeLayout   = "layout"
	ModeFallback = "fallback"
)

// parseModelJSON extracts and decodes the JSON object from a model
// response. It tries a json-tagged fence first, then any fence, then the
// raw trimmed text. A response that cannot be decoded still produces a
// result, carrying the decode error and the raw text so a batch run never
// loses the model's output.
func parseModelJSON(text string) (Result, bool) {
	candidate := strings.TrimSpace(text)

	if i := strings.Index(text, "```json"); i >= 0 {
		rest := text[i+len("```json"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			candidate = strings.TrimSpace(rest[:j])
		}
	} else if i := strings.Index(text, "```"); i >= 0 {
		rest := text[i+3:]
		if j := strings.Index(rest, "```"); j >= 0 {
			candidate = strings.TrimSpace(rest[:j])
		}
	}

	var result Result
	if err := json.Unmarshal([]byte(candidate), &result); err != nil {
		return Result{
			"error":        err.Error(),
			"raw_response": text,
		}, false
	}
	return result, true
}

// addRunMetadata stamps the result with the run's identifying fields.
func (r Result) addRunMetadata(filename, model, mode string) {
	r["filename"] = filename
	r["extracted_at"] = time.Now().UTC().Format(time.RFC3339)
	r["model"] = model
	r["extraction_mode"] = mode
}

// addLayoutProvenance records what the layout parse itself saw, so
// model answers can be checked against parser ground truth downstream.
func (r Result) addLayoutProvenance(pp *paper.Paper) {
	r["layout_title"] = pp.Title
	r["layout_journal"] = pp.JournalName
	r["layout_year"] = pp.Year
	r["layout_doi"] = pp.DOI
	r["layout_authors"] = pp.Authors
	r["layout_corresponding_author"] = pp.CorrespondingAuthor
	r["layout_corresponding_country"] = pp.CorrespondingAuthorCountry
	r["layout_sections"] = pp.SectionTypes()
	r["layout_tables_count"] = len(pp.Tables)
	r["layout_figures_count"] = len(pp.Figures)

	if len(pp.Tables) > 0 {
		summaries := make([]map[string]any, len(pp.Tables))
		for i, t := range pp.Tables {
			summaries[i] = map[string]any{
				"label": t.Label,
				"rows":  len(t.Rows),
			}
		}
		r["layout_tables"] = summaries
	}
}

// Err returns the recorded extraction error, if any.
func (r Result) Err() string {
	if e, ok := r["error"].(string); ok {
		return e
	}
	return ""
}
