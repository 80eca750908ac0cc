package chunker

import (
	"strings"
	"testing"
)

func mustSplitter(t *testing.T, maxSize, overlap int) *Splitter {
	t.Helper()
	s, err := NewSplitter(maxSize, overlap)
	if err != nil {
		t.Fatalf("NewSplitter(%d, %d) failed: %v", maxSize, overlap, err)
	}
	return s
}

// TestNewSplitter_RejectsBadConfig verifies configuration errors surface
// before any document is processed.
func TestNewSplitter_RejectsBadConfig(t *testing.T) {
	cases := []struct {
		name    string
		maxSize int
		overlap int
	}{
		{"overlap equals size", 100, 100},
		{"overlap exceeds size", 100, 150},
		{"zero size", 0, 0},
		{"negative overlap", 100, -1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewSplitter(tc.maxSize, tc.overlap); err == nil {
				t.Errorf("expected error for maxSize=%d overlap=%d", tc.maxSize, tc.overlap)
			}
		})
	}
}

func TestSplit_EmptyInput(t *testing.T) {
	s := mustSplitter(t, 100, 20)

	if chunks := s.Split(""); len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty input, got %d", len(chunks))
	}
	if chunks := s.Split("   \n\n  "); len(chunks) != 0 {
		t.Errorf("expected 0 chunks for whitespace input, got %d", len(chunks))
	}
}

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	s := mustSplitter(t, 100, 20)

	chunks := s.Split("A short paragraph that fits in one window.")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "A short paragraph that fits in one window." {
		t.Errorf("unexpected chunk content: %q", chunks[0])
	}
}

// TestSplit_ParagraphBoundaries checks that paragraph breaks are preferred
// over mid-sentence splits when they fit.
func TestSplit_ParagraphBoundaries(t *testing.T) {
	para1 := strings.Repeat("alpha ", 10) // 60 chars
	para2 := strings.Repeat("beta ", 10)  // 50 chars
	text := strings.TrimSpace(para1) + "\n\n" + strings.TrimSpace(para2)

	s := mustSplitter(t, 70, 10)
	chunks := s.Split(text)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %q", len(chunks), chunks)
	}
	if !strings.Contains(chunks[0], "alpha") || strings.Contains(chunks[0], "beta") {
		t.Errorf("chunk 0 should hold the first paragraph only: %q", chunks[0])
	}
	if !strings.Contains(chunks[1], "beta") {
		t.Errorf("chunk 1 should hold the second paragraph: %q", chunks[1])
	}
}

func TestSplit_RespectsMaxSize(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 80)
	s := mustSplitter(t, 200, 40)

	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 200 {
			t.Errorf("chunk %d exceeds max size: %d chars", i, len(c))
		}
		if c == "" {
			t.Errorf("chunk %d is empty", i)
		}
		if !strings.Contains(text, c) {
			t.Errorf("chunk %d is not verbatim input text: %q", i, c)
		}
	}
}

// TestSplit_OverlapCarried verifies consecutive windows share content: the
// start of each chunk must also appear at the end of its predecessor.
func TestSplit_OverlapCarried(t *testing.T) {
	text := strings.Repeat("aaaa bbbb cccc dddd eeee ffff gggg hhhh ", 10)
	s := mustSplitter(t, 50, 10)

	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		shared := 0
		for j := min(len(prev), len(chunks[i]), s.Overlap()); j > 0; j-- {
			if strings.HasSuffix(prev, chunks[i][:j]) {
				shared = j
				break
			}
		}
		if shared == 0 {
			t.Errorf("chunk %d shares no overlap with chunk %d: prev=%q next=%q",
				i, i-1, prev, chunks[i])
		}
	}
}

// TestSplit_JunctionsPreserveWordBoundaries feeds space-separated words and
// checks no chunk holds a token glued together from two adjacent input words.
// The carried overlap may cut a word, so the first token of a chunk is also
// accepted when it is the tail of a vocabulary word; every later token must
// be a whole word.
func TestSplit_JunctionsPreserveWordBoundaries(t *testing.T) {
	words := []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf", "hotel"}
	text := strings.TrimSpace(strings.Repeat(strings.Join(words, " ")+" ", 12))
	s := mustSplitter(t, 50, 10)

	chunks := s.Split(text)
	if len(chunks) < 3 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}

	vocab := make(map[string]bool, len(words))
	for _, w := range words {
		vocab[w] = true
	}
	isWordTail := func(token string) bool {
		for _, w := range words {
			if token != w && strings.HasSuffix(w, token) {
				return true
			}
		}
		return false
	}

	for i, c := range chunks {
		for j, token := range strings.Fields(c) {
			if vocab[token] {
				continue
			}
			if j == 0 && isWordTail(token) {
				continue
			}
			t.Errorf("chunk %d holds corrupted token %q: %q", i, token, c)
		}
	}
}

// TestSplit_NoContentLoss checks every chunk is verbatim input text and every
// word of the input survives somewhere in the output.
func TestSplit_NoContentLoss(t *testing.T) {
	text := "First sentence here. Second sentence follows. Third one closes.\n\n" +
		"A new paragraph begins. It also has words worth keeping."
	s := mustSplitter(t, 40, 8)

	chunks := s.Split(text)
	joined := strings.Join(chunks, " ")
	for _, word := range strings.Fields(text) {
		if !strings.Contains(joined, word) {
			t.Errorf("word %q lost during splitting", word)
		}
	}
	for i, c := range chunks {
		if !strings.Contains(text, c) {
			t.Errorf("chunk %d is not verbatim input text: %q", i, c)
		}
	}
}

// TestSplit_LongUnbrokenRun exercises the character-level fallback.
func TestSplit_LongUnbrokenRun(t *testing.T) {
	text := strings.Repeat("x", 950)
	s := mustSplitter(t, 300, 50)

	chunks := s.Split(text)
	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks for a 950-char run, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 300 {
			t.Errorf("chunk %d exceeds max size: %d", i, len(c))
		}
	}
	var total int
	for _, c := range chunks {
		total += len(c)
	}
	// Overlap duplicates characters, so the total must cover the input.
	if total < len(text) {
		t.Errorf("chunks cover %d chars, input has %d", total, len(text))
	}
}

func TestSplit_Deterministic(t *testing.T) {
	text := strings.Repeat("Sentences repeat here. They repeat quite a lot. ", 40)
	s := mustSplitter(t, 120, 30)

	first := s.Split(text)
	second := s.Split(text)

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

// TestSplit_TypicalDocumentBudget mirrors the ingestion default: a 3000-char
// document with 1000/200 windows should land between 3 and 5 chunks.
func TestSplit_TypicalDocumentBudget(t *testing.T) {
	text := strings.Repeat("Quarterly revenue grew across all regions. ", 70) // 3010 chars
	s := mustSplitter(t, 1000, 200)

	chunks := s.Split(text)
	if len(chunks) < 3 || len(chunks) > 5 {
		t.Errorf("expected 3-5 chunks, got %d", len(chunks))
	}
}
