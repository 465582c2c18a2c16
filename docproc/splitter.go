package docproc

import (
	"strings"
	"unicode/utf8"

	"github.com/medevidence/rctx/paper"
)

// separators is the split hierarchy, tried most-structural first:
// paragraph breaks, line breaks, sentence ends, words, then a hard cut.
var separators = []string{"\n\n", "\n", ". ", " "}

// Splitter breaks long text into overlapping character-bounded pieces.
type Splitter struct {
	chunkSize int
	overlap   int
}

// NewSplitter returns a splitter with the given limits. Zero-value
// fields get the defaults (2000 chars, 400 overlap).
func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 2000
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = chunkSize / 5
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}
}

// SplitUnits applies the splitter to each retrieval unit. Units that fit
// within the chunk size pass through unchanged; longer units are split
// into pieces that inherit the unit's metadata plus their ordinal
// position among siblings.
func (s *Splitter) SplitUnits(units []paper.Unit) []paper.Unit {
	var out []paper.Unit
	for _, u := range units {
		if len(u.Text) <= s.chunkSize {
			out = append(out, u)
			continue
		}
		pieces := s.Split(u.Text)
		for i, piece := range pieces {
			meta := u.Meta
			meta.ChunkIndex = i
			meta.TotalChunks = len(pieces)
			out = append(out, paper.Unit{Text: piece, Meta: meta})
		}
	}
	return out
}

// Split breaks text into pieces no longer than the chunk size, preferring
// paragraph and sentence boundaries and carrying overlap between
// consecutive pieces.
func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= s.chunkSize {
		return []string{text}
	}
	return s.split(text, separators)
}

func (s *Splitter) split(text string, seps []string) []string {
	if len(text) <= s.chunkSize {
		return []string{text}
	}
	if len(seps) == 0 {
		return s.hardCut(text)
	}

	parts := strings.SplitAfter(text, seps[0])
	if len(parts) == 1 {
		return s.split(text, seps[1:])
	}

	var out []string
	var cur strings.Builder
	fresh := false // whether cur holds anything beyond carried overlap

	flush := func() {
		if !fresh {
			return
		}
		chunk := strings.TrimSpace(cur.String())
		if chunk != "" {
			out = append(out, chunk)
		}
		tail := overlapTail(cur.String(), s.overlap)
		cur.Reset()
		cur.WriteString(tail)
		fresh = false
	}

	for _, part := range parts {
		if len(part) > s.chunkSize {
			// A single fragment exceeds the limit; recurse with the
			// next finer separator. The carried tail is spliced onto
			// the first sub-piece and the last sub-piece seeds the next
			// overlap, so both boundaries keep shared context.
			flush()
			sub := s.split(part, seps[1:])
			if len(sub) > 0 {
				if room := s.chunkSize - len(sub[0]); room > 0 && cur.Len() > 0 {
					sub[0] = overlapTail(cur.String(), min(room, s.overlap)) + sub[0]
				}
				cur.Reset()
				cur.WriteString(overlapTail(sub[len(sub)-1], s.overlap))
			}
			out = append(out, sub...)
			fresh = false
			continue
		}
		if cur.Len()+len(part) > s.chunkSize {
			flush()
			// The carried overlap plus this part may still not fit.
			if cur.Len()+len(part) > s.chunkSize {
				cur.Reset()
			}
		}
		cur.WriteString(part)
		if strings.TrimSpace(part) != "" {
			fresh = true
		}
	}
	flush()
	return out
}

// hardCut splits with no separator at all, stepping by chunk size minus
// overlap so adjacent pieces share context.
func (s *Splitter) hardCut(text string) []string {
	step := s.chunkSize - s.overlap
	if step <= 0 {
		step = s.chunkSize
	}
	var out []string
	for start := 0; start < len(text); start += step {
		end := start + s.chunkSize
		if end >= len(text) {
			out = append(out, text[start:])
			break
		}
		// Back off to a rune boundary.
		for end > start && !utf8.RuneStart(text[end]) {
			end--
		}
		out = append(out, text[start:end])
	}
	return out
}

// overlapTail returns the last n bytes of text, adjusted forward to a
// rune boundary.
func overlapTail(text string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(text) <= n {
		return text
	}
	idx := len(text) - n
	for idx < len(text) && !utf8.RuneStart(text[idx]) {
		idx++
	}
	return text[idx:]
}
