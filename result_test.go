package rctx

import (
	"testing"

	"github.com/medevidence/rctx/paper"
)

func TestParseModelJSONFenced(t *testing.T) {
	response := "Here is the extraction:\n```json\n{\"title\": \"Trial A\", \"totalParticipants\": 240}\n```\nDone."
	result, ok := parseModelJSON(response)
	if !ok {
		t.Fatalf("parseModelJSON failed: %+v", result)
	}
	if result["title"] != "Trial A" {
		t.Errorf("title = %v", result["title"])
	}
	if result["totalParticipants"] != float64(240) {
		t.Errorf("totalParticipants = %v", result["totalParticipants"])
	}
}

func TestParseModelJSONBareFence(t *testing.T) {
	result, ok := parseModelJSON("```\n{\"placebo\": true}\n```")
	if !ok || result["placebo"] != true {
		t.Errorf("result = %+v, ok = %v", result, ok)
	}
}

func TestParseModelJSONRaw(t *testing.T) {
	result, ok := parseModelJSON(`  {"journalName": null}  `)
	if !ok {
		t.Fatalf("parseModelJSON failed: %+v", result)
	}
	if v, present := result["journalName"]; !present || v != nil {
		t.Errorf("journalName = %v, present = %v", v, present)
	}
}

func TestParseModelJSONInvalid(t *testing.T) {
	result, ok := parseModelJSON("I could not read the manuscript.")
	if ok {
		t.Fatal("expected failure for non-JSON response")
	}
	if result.Err() == "" {
		t.Error("error field should be populated")
	}
	if result["raw_response"] != "I could not read the manuscript." {
		t.Errorf("raw_response = %v", result["raw_response"])
	}
}

func TestAddRunMetadata(t *testing.T) {
	result := Result{}
	result.addRunMetadata("trial.pdf", "gpt-4o", ModeLayout)
	if result["filename"] != "trial.pdf" || result["model"] != "gpt-4o" {
		t.Errorf("metadata = %+v", result)
	}
	if result["extraction_mode"] != "layout" {
		t.Errorf("extraction_mode = %v", result["extraction_mode"])
	}
	if result["extracted_at"] == "" {
		t.Error("extracted_at not set")
	}
}

func TestAddLayoutProvenance(t *testing.T) {
	pp := &paper.Paper{
		Title:                      "Trial A",
		JournalName:                "J Clin Trials",
		Year:                       2021,
		DOI:                        "10.1000/x",
		Authors:                    []string{"A", "B"},
		CorrespondingAuthor:        "A",
		CorrespondingAuthorCountry: "Qatar",
		Tables: []paper.Table{
			{Label: "Table 1: Baseline", Rows: [][]string{{"a"}, {"b"}}},
		},
		Figures: []paper.Figure{{Label: "Figure 1"}},
	}
	result := Result{}
	result.addLayoutProvenance(pp)

	if result["layout_title"] != "Trial A" || result["layout_year"] != 2021 {
		t.Errorf("provenance = %+v", result)
	}
	if result["layout_corresponding_country"] != "Qatar" {
		t.Errorf("layout_corresponding_country = %v", result["layout_corresponding_country"])
	}
	if result["layout_tables_count"] != 1 || result["layout_figures_count"] != 1 {
		t.Errorf("counts = %v / %v", result["layout_tables_count"], result["layout_figures_count"])
	}
	tables, ok := result["layout_tables"].([]map[string]any)
	if !ok || len(tables) != 1 || tables[0]["rows"] != 2 {
		t.Errorf("layout_tables = %v", result["layout_tables"])
	}
}

func TestAssembleContextLayoutMode(t *testing.T) {
	units := []paper.Unit{
		{Text: "First.", Meta: paper.UnitMeta{SectionTitle: "Methods"}},
		{Text: "Second.", Meta: paper.UnitMeta{}},
	}
	got := assembleContext(units, true)
	want := "[Section: Methods]\nFirst.\n\n---\n\n[Section: Unknown]\nSecond."
	if got != want {
		t.Errorf("assembleContext = %q, want %q", got, want)
	}
}

func TestAssembleContextFallbackMode(t *testing.T) {
	units := []paper.Unit{
		{Text: "Page one text."},
		{Text: "Page two text."},
	}
	got := assembleContext(units, false)
	want := "Page one text.\n\n---\n\nPage two text."
	if got != want {
		t.Errorf("assembleContext = %q, want %q", got, want)
	}
}

func TestPaperTitle(t *testing.T) {
	if got := paperTitle(&paper.Paper{Title: "Trial A"}); got != "Trial A" {
		t.Errorf("paperTitle = %q", got)
	}
	want := "Not available - extract from manuscript"
	if got := paperTitle(nil); got != want {
		t.Errorf("paperTitle(nil) = %q, want %q", got, want)
	}
	if got := paperTitle(&paper.Paper{}); got != want {
		t.Errorf("paperTitle(empty) = %q, want %q", got, want)
	}
}
