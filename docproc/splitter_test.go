package docproc

import (
	"strings"
	"testing"

	"github.com/medevidence/rctx/paper"
)

func TestSplitShortText(t *testing.T) {
	s := NewSplitter(2000, 400)
	chunks := s.Split("A short paragraph.")
	if len(chunks) != 1 || chunks[0] != "A short paragraph." {
		t.Errorf("Split = %v, want the text unchanged", chunks)
	}
}

func TestSplitParagraphBoundaries(t *testing.T) {
	s := NewSplitter(100, 20)
	text := strings.Repeat("First paragraph sentence. ", 3) + "\n\n" +
		strings.Repeat("Second paragraph sentence. ", 3) + "\n\n" +
		strings.Repeat("Third paragraph sentence. ", 3)

	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) > 100 {
			t.Errorf("chunk %d is %d chars, over the limit", i, len(chunk))
		}
	}
}

func TestSplitCoverage(t *testing.T) {
	// Every sentence of the input must land in at least one chunk.
	s := NewSplitter(80, 16)
	var sentences []string
	var b strings.Builder
	for _, word := range []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf", "hotel"} {
		sentence := "The " + word + " cohort completed follow-up. "
		sentences = append(sentences, strings.TrimSpace(sentence))
		b.WriteString(sentence)
	}

	joined := strings.Join(s.Split(b.String()), "\n")
	for _, sentence := range sentences {
		if !strings.Contains(joined, sentence) {
			t.Errorf("sentence %q missing from chunks", sentence)
		}
	}
}

func TestSplitOverlap(t *testing.T) {
	s := NewSplitter(80, 16)
	text := "The first cohort completed alpha. The second cohort completed bravo. " +
		"The third cohort completed charlie. The fourth cohort completed delta. " +
		"The fifth cohort completed echo."

	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	// Each chunk ends with a unique marker word that must reappear at
	// the start of the next chunk as carried overlap.
	for i := 1; i < len(chunks); i++ {
		fields := strings.Fields(chunks[i-1])
		last := fields[len(fields)-1]
		if !strings.Contains(chunks[i], last) {
			t.Errorf("chunk %d %q does not carry overlap %q from its predecessor", i, chunks[i], last)
		}
	}
}

func TestSplitOverlapAcrossOversizedParagraph(t *testing.T) {
	// A paragraph longer than the chunk size recurses into finer
	// separators. The chunks flanking that recursion must still share
	// overlap with their neighbors on both sides.
	s := NewSplitter(80, 16)
	text := "First paragraph ends with token alpha.\n\n" +
		"Second sentence carries bravo. Third sentence carries charlie. " +
		"Fourth sentence carries echo.\n\n" +
		"Closing paragraph has token delta."

	chunks := s.Split(text)
	if len(chunks) != 4 {
		t.Fatalf("got %d chunks %q, want 4", len(chunks), chunks)
	}
	for i, chunk := range chunks {
		if len(chunk) > 80 {
			t.Errorf("chunk %d is %d chars, over the limit", i, len(chunk))
		}
	}
	// Into the oversized paragraph: its first chunk carries the tail of
	// the preceding one.
	if !strings.Contains(chunks[1], "alpha") || !strings.Contains(chunks[1], "bravo") {
		t.Errorf("chunk 1 %q lost the boundary overlap", chunks[1])
	}
	// Out of it: the following chunk carries the tail of its last one.
	if !strings.Contains(chunks[3], "echo.") || !strings.Contains(chunks[3], "delta") {
		t.Errorf("chunk 3 %q lost the boundary overlap", chunks[3])
	}
}

func TestSplitNoSeparators(t *testing.T) {
	// Unbroken text falls through to the hard cut, which must respect
	// rune boundaries.
	s := NewSplitter(50, 10)
	text := strings.Repeat("é", 120)

	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if !strings.HasPrefix(chunk, "é") {
			t.Errorf("chunk %d starts mid-rune: %q", i, chunk[:1])
		}
	}
}

func TestNewSplitterDefaults(t *testing.T) {
	s := NewSplitter(0, -1)
	chunks := s.Split(strings.Repeat("word ", 1000))
	for i, chunk := range chunks {
		if len(chunk) > 2000 {
			t.Errorf("chunk %d is %d chars, default limit is 2000", i, len(chunk))
		}
	}
}

func TestSplitUnitsPassthrough(t *testing.T) {
	s := NewSplitter(2000, 400)
	units := []paper.Unit{
		{Text: "Short section.", Meta: paper.UnitMeta{SectionTitle: "Methods"}},
	}
	out := s.SplitUnits(units)
	if len(out) != 1 {
		t.Fatalf("SplitUnits = %d units, want 1", len(out))
	}
	if out[0].Meta.ChunkIndex != 0 || out[0].Meta.TotalChunks != 0 {
		t.Errorf("unsplit unit should have zero chunk metadata, got %+v", out[0].Meta)
	}
}

func TestSplitUnitsLongUnit(t *testing.T) {
	s := NewSplitter(100, 20)
	units := []paper.Unit{
		{
			Text: strings.Repeat("The trial enrolled adults with confirmed diagnoses. ", 10),
			Meta: paper.UnitMeta{SectionTitle: "Methods", SectionType: paper.SectionMethods},
		},
	}
	out := s.SplitUnits(units)
	if len(out) < 2 {
		t.Fatalf("expected the long unit to split, got %d units", len(out))
	}
	for i, u := range out {
		if u.Meta.SectionTitle != "Methods" {
			t.Errorf("chunk %d lost its section title", i)
		}
		if u.Meta.TotalChunks != len(out) {
			t.Errorf("chunk %d TotalChunks = %d, want %d", i, u.Meta.TotalChunks, len(out))
		}
		if u.Meta.ChunkIndex != i {
			t.Errorf("chunk %d ChunkIndex = %d, want %d", i, u.Meta.ChunkIndex, i)
		}
	}
}
