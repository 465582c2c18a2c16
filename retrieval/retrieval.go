// Package retrieval runs the fixed probe set against a document index and
// assembles the deduplicated evidence units that feed extraction.
package retrieval

import (
	"context"
	"log/slog"
	"time"

	"github.com/medevidence/rctx/index"
	"github.com/medevidence/rctx/paper"
)

// Searcher is the per-document vector search surface. *index.Index
// satisfies it.
type Searcher interface {
	Query(ctx context.Context, query string, k int) ([]index.Result, error)
}

// Gather runs every probe against the searcher and returns the union of
// retrieved units, deduplicated and in probe order. Section-filtered
// probes prefer units of the listed types but backfill from the rest of
// the results when the filter leaves fewer than half of k. A failing
// probe is logged and skipped; Gather only fails when context is done.
func Gather(ctx context.Context, s Searcher, probes []Probe, k int, logger *slog.Logger) ([]paper.Unit, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	var out []paper.Unit
	seen := make(map[string]bool)

	for _, probe := range probes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		results, err := s.Query(ctx, probe.Query, k)
		if err != nil {
			logger.Warn("retrieval probe failed", "query", probe.Query, "error", err)
			continue
		}

		for _, r := range selectBySection(results, probe.Sections, k) {
			key := dedupKey(r.Unit.Text)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, r.Unit)
		}
	}

	logger.Debug("retrieval complete",
		"probes", len(probes),
		"units", len(out),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return out, nil
}

// selectBySection applies a probe's section filter. Filtered results win
// when at least k/2 of them survive; otherwise the unfiltered remainder
// pads the list back up toward k, preserving rank order.
func selectBySection(results []index.Result, sections []paper.SectionType, k int) []index.Result {
	if len(sections) == 0 {
		return results
	}

	wanted := make(map[paper.SectionType]bool, len(sections))
	for _, s := range sections {
		wanted[s] = true
	}

	var filtered []index.Result
	for _, r := range results {
		if wanted[r.Unit.Meta.SectionType] {
			filtered = append(filtered, r)
		}
	}

	if len(filtered) >= k/2 {
		if len(filtered) > k {
			filtered = filtered[:k]
		}
		return filtered
	}

	inFiltered := make(map[string]bool, len(filtered))
	for _, r := range filtered {
		inFiltered[dedupKey(r.Unit.Text)] = true
	}
	for _, r := range results {
		if len(filtered) >= k {
			break
		}
		if inFiltered[dedupKey(r.Unit.Text)] {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}

// dedupKey identifies a unit by the first 200 bytes of its text. Chunks
// from the same section share a heading prefix but diverge within the
// first 200 bytes of body text.
func dedupKey(text string) string {
	if len(text) > 200 {
		return text[:200]
	}
	return text
}
