//go:build cgo

package index

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/medevidence/rctx/paper"
)

// fakeEmbedder maps keyword-bearing texts onto fixed unit vectors so
// nearest-neighbor results are deterministic.
type fakeEmbedder struct {
	failTexts map[string]bool
	failAll   bool
	calls     [][]string
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls = append(f.calls, texts)
	if f.failAll {
		return nil, fmt.Errorf("embedding backend down")
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if f.failTexts[text] {
			return nil, fmt.Errorf("cannot embed %q", text)
		}
		out[i] = embedText(text)
	}
	return out, nil
}

func embedText(text string) []float32 {
	v := make([]float32, 4)
	switch {
	case strings.Contains(text, "randomization"):
		v[0] = 1
	case strings.Contains(text, "outcome"):
		v[1] = 1
	case strings.Contains(text, "funding"):
		v[2] = 1
	default:
		v[3] = 1
	}
	return v
}

func testUnits() []paper.Unit {
	return []paper.Unit{
		{Text: "randomization used sealed envelopes", Meta: paper.UnitMeta{SectionType: paper.SectionMethods}},
		{Text: "the primary outcome was HbA1c", Meta: paper.UnitMeta{SectionType: paper.SectionMethods}},
		{Text: "funding from a public grant", Meta: paper.UnitMeta{SectionType: paper.SectionFunding}},
	}
}

func TestBuildAndQuery(t *testing.T) {
	ix, err := Build(context.Background(), testUnits(), &fakeEmbedder{}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer ix.Close()

	if ix.Len() != 3 {
		t.Fatalf("Len = %d, want 3", ix.Len())
	}

	results, err := ix.Query(context.Background(), "how was randomization performed", 2)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if !strings.Contains(results[0].Unit.Text, "randomization") {
		t.Errorf("top result = %q", results[0].Unit.Text)
	}
	if results[0].Score <= results[1].Score {
		t.Errorf("scores not descending: %v then %v", results[0].Score, results[1].Score)
	}
	// Identical vectors have distance 0 and score 1.
	if math.Abs(results[0].Score-1) > 1e-6 {
		t.Errorf("exact match score = %v, want 1", results[0].Score)
	}
}

func TestBuildEmpty(t *testing.T) {
	if _, err := Build(context.Background(), nil, &fakeEmbedder{}, nil); err == nil {
		t.Error("expected error for empty unit list")
	}
}

func TestBuildAllEmbeddingsFail(t *testing.T) {
	if _, err := Build(context.Background(), testUnits(), &fakeEmbedder{failAll: true}, nil); err == nil {
		t.Error("expected error when nothing embeds")
	}
}

func TestBuildDropsFailingUnit(t *testing.T) {
	units := testUnits()
	emb := &fakeEmbedder{failTexts: map[string]bool{units[1].Text: true}}

	ix, err := Build(context.Background(), units, emb, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer ix.Close()

	// The failing batch is retried per text; only the bad unit drops.
	if ix.Len() != 2 {
		t.Errorf("Len = %d, want 2 after dropping the bad unit", ix.Len())
	}
}

func TestBuildBatches(t *testing.T) {
	var units []paper.Unit
	for i := 0; i < embedBatchSize+5; i++ {
		units = append(units, paper.Unit{Text: fmt.Sprintf("unit %d text", i)})
	}
	emb := &fakeEmbedder{}
	ix, err := Build(context.Background(), units, emb, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer ix.Close()

	if len(emb.calls) != 2 {
		t.Errorf("embed calls = %d, want 2 batches", len(emb.calls))
	}
	if len(emb.calls[0]) != embedBatchSize {
		t.Errorf("first batch = %d texts, want %d", len(emb.calls[0]), embedBatchSize)
	}
}

func TestSerializeFloat32(t *testing.T) {
	data := serializeFloat32([]float32{1, 0.5})
	if len(data) != 8 {
		t.Fatalf("len = %d, want 8", len(data))
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(data[:4])); got != 1 {
		t.Errorf("first value = %v", got)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(data[4:])); got != 0.5 {
		t.Errorf("second value = %v", got)
	}
}
