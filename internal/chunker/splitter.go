// Package chunker splits plain text into overlapping, size-bounded windows.
package chunker

import (
	"fmt"
	"strings"
)

// defaultSeparators is the split priority, coarsest first. The empty string
// is the character-level fallback, so every unit can ultimately be reduced
// below the size bound.
var defaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Splitter produces deterministic overlapping text windows. The same input
// always yields the same boundaries, which keeps chunk_index/total_chunks
// metadata reproducible across re-ingestions.
type Splitter struct {
	maxSize int
	overlap int
}

// NewSplitter validates the window configuration up front. An overlap equal
// to or larger than the window size would never terminate, so it is rejected
// before any document is processed.
func NewSplitter(maxSize, overlap int) (*Splitter, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", maxSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("chunk overlap must not be negative, got %d", overlap)
	}
	if overlap >= maxSize {
		return nil, fmt.Errorf("chunk overlap (%d) must be smaller than chunk size (%d)", overlap, maxSize)
	}
	return &Splitter{maxSize: maxSize, overlap: overlap}, nil
}

// MaxSize returns the configured window size.
func (s *Splitter) MaxSize() int { return s.maxSize }

// Overlap returns the configured window overlap in characters.
func (s *Splitter) Overlap() int { return s.overlap }

// Split breaks text into windows of at most MaxSize characters. Consecutive
// windows share the last Overlap characters of the emitted window. Whitespace
// is trimmed from window edges; empty or whitespace-only input yields no
// chunks, which callers must treat as "no extractable content".
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	units := s.decompose(text, defaultSeparators)
	return s.pack(units)
}

// decompose reduces text to ordered units no larger than maxSize by applying
// separators coarsest first. A unit still too large after one separator is
// recursively split with the finer ones; the character fallback slices it
// into maxSize pieces.
func (s *Splitter) decompose(text string, separators []string) []string {
	if len(text) <= s.maxSize {
		return []string{text}
	}

	sep, rest := pickSeparator(text, separators)
	if sep == "" {
		return s.sliceBytes(text)
	}

	var units []string
	for _, piece := range splitKeep(text, sep) {
		if len(piece) <= s.maxSize {
			units = append(units, piece)
		} else {
			units = append(units, s.decompose(piece, rest)...)
		}
	}
	return units
}

// pickSeparator returns the first separator present in text along with the
// finer separators remaining for recursion.
func pickSeparator(text string, separators []string) (string, []string) {
	for i, sep := range separators {
		if sep == "" {
			return "", nil
		}
		if strings.Contains(text, sep) {
			return sep, separators[i+1:]
		}
	}
	return "", nil
}

// splitKeep splits text on sep, keeping the separator attached to the
// preceding piece so no characters are lost.
func splitKeep(text, sep string) []string {
	parts := strings.SplitAfter(text, sep)
	// SplitAfter can leave a trailing empty piece when text ends with sep.
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// sliceBytes is the character-level fallback for runs with no separator.
func (s *Splitter) sliceBytes(text string) []string {
	var units []string
	for len(text) > s.maxSize {
		units = append(units, text[:s.maxSize])
		text = text[s.maxSize:]
	}
	if text != "" {
		units = append(units, text)
	}
	return units
}

// pack greedily fills windows from units. When a window fills, the next one
// starts with the last overlap characters of the previous window. The tail is
// taken before edge trimming so the separator that splitKeep attached to the
// last unit survives into the carry; trimming it off first would glue the
// carried text to the next unit. If the following unit is so large that the
// full overlap would push the window past maxSize, the carried overlap
// shrinks to fit.
func (s *Splitter) pack(units []string) []string {
	var chunks []string
	window := ""

	flush := func() {
		if emitted := strings.TrimSpace(window); emitted != "" {
			chunks = append(chunks, emitted)
		}
	}

	for _, unit := range units {
		if window != "" && len(window)+len(unit) > s.maxSize {
			flush()
			keep := s.overlap
			if room := s.maxSize - len(unit); keep > room {
				keep = room
			}
			if keep < 0 {
				keep = 0
			}
			if keep > len(window) {
				keep = len(window)
			}
			window = window[len(window)-keep:]
		}
		window += unit
	}
	flush()

	return chunks
}
