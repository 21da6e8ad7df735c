package splitter

import (
	"strings"
	"testing"
	"unicode/utf8"
)

// buildProse returns a single-paragraph word sequence of exactly n characters.
func buildProse(n int) string {
	var b strings.Builder
	for b.Len() < n {
		b.WriteString("lorem ipsum dolor sit amet consectetur adipiscing elit ")
	}
	return b.String()[:n]
}

func Test_Split_EmptyInputYieldsNoChunks(t *testing.T) {
	t.Parallel()
	s := New(800, 80)

	if got := s.Split(""); got != nil {
		t.Errorf("empty input: want nil, got %v", got)
	}
	if got := s.Split("   \n\n  "); got != nil {
		t.Errorf("whitespace input: want nil, got %v", got)
	}
}

func Test_Split_ShortInputSingleChunk(t *testing.T) {
	t.Parallel()
	s := New(800, 80)

	got := s.Split("a short document")
	if len(got) != 1 || got[0] != "a short document" {
		t.Errorf("short input: want single identical chunk, got %v", got)
	}
}

func Test_Split_SingleParagraph1700Chars(t *testing.T) {
	t.Parallel()
	s := New(800, 80)
	text := buildProse(1700)

	chunks := s.Split(text)

	if len(chunks) != 3 {
		t.Fatalf("want 3 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 800 {
			t.Errorf("chunk %d exceeds chunk_size: %d chars", i, len(c))
		}
	}
	// Consecutive chunks share up to chunk_overlap characters: the start of
	// each chunk must appear near the end of the previous one.
	for i := 1; i < len(chunks); i++ {
		head := chunks[i]
		if len(head) > 40 {
			head = head[:40]
		}
		prev := chunks[i-1]
		tail := prev
		if len(prev) > 160 {
			tail = prev[len(prev)-160:]
		}
		if !strings.Contains(tail, strings.Fields(head)[0]) {
			t.Errorf("chunk %d does not overlap chunk %d", i, i-1)
		}
	}
}

func Test_Split_UnbrokenRunHardCut(t *testing.T) {
	t.Parallel()
	s := New(800, 80)
	text := strings.Repeat("a", 1700)

	chunks := s.Split(text)

	if len(chunks) != 3 {
		t.Fatalf("want 3 chunks, got %d", len(chunks))
	}
	if len(chunks[0]) != 800 || len(chunks[1]) != 800 || len(chunks[2]) != 260 {
		t.Errorf("unexpected chunk lengths: %d, %d, %d",
			len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}
	// Hard cut advances by size-overlap, so each window repeats the last 80
	// characters of the previous one.
	if chunks[0][720:] != chunks[1][:80] {
		t.Error("chunk 1 does not start with chunk 0's overlap tail")
	}
}

// Multibyte text: chunk_size counts characters, so CJK runs must be cut on
// rune boundaries, never mid-character.
func Test_Split_MultibyteUnbrokenRun(t *testing.T) {
	t.Parallel()
	s := New(1000, 200)

	// 700 runes (2100 bytes): within the size, must come back whole.
	short := strings.Repeat("世", 700)
	chunks := s.Split(short)
	if len(chunks) != 1 || chunks[0] != short {
		t.Fatalf("700-rune input: want single identical chunk, got %d chunks", len(chunks))
	}

	// 2500 runes: hard cut into 1000-rune windows advancing by 800.
	long := strings.Repeat("世", 2500)
	chunks = s.Split(long)

	if len(chunks) != 3 {
		t.Fatalf("want 3 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if !utf8.ValidString(c) {
			t.Fatalf("chunk %d is invalid UTF-8: %q", i, c[:12])
		}
		if n := utf8.RuneCountInString(c); n > 1000 {
			t.Errorf("chunk %d exceeds chunk_size: %d runes", i, n)
		}
	}
	if n := utf8.RuneCountInString(chunks[0]); n != 1000 {
		t.Errorf("chunk 0: want 1000 runes, got %d", n)
	}
	if n := utf8.RuneCountInString(chunks[2]); n != 900 {
		t.Errorf("chunk 2: want 900 runes, got %d", n)
	}
}

// Multibyte prose with separators goes through merge, whose length accounting
// must also be in runes.
func Test_Split_MultibyteProseChunkSizeInRunes(t *testing.T) {
	t.Parallel()
	s := New(100, 10)

	word := strings.Repeat("й", 9) + " " // 10 runes, 19 bytes
	text := strings.TrimSpace(strings.Repeat(word, 25))

	chunks := s.Split(text)

	if len(chunks) < 3 {
		t.Fatalf("want at least 3 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if !utf8.ValidString(c) {
			t.Fatalf("chunk %d is invalid UTF-8", i)
		}
		if n := utf8.RuneCountInString(c); n > 100 {
			t.Errorf("chunk %d exceeds chunk_size: %d runes", i, n)
		}
	}
}

func Test_Split_Deterministic(t *testing.T) {
	t.Parallel()
	s := New(300, 50)
	text := buildProse(2000) + "\n\n" + buildProse(500)

	a := s.Split(text)
	b := s.Split(text)

	if len(a) != len(b) {
		t.Fatalf("run lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func Test_Split_ParagraphBoundaryPreferred(t *testing.T) {
	t.Parallel()
	s := New(100, 10)
	text := buildProse(80) + "\n\n" + buildProse(80)

	chunks := s.Split(text)

	if len(chunks) != 2 {
		t.Fatalf("want 2 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if strings.Contains(c, "\n\n") {
			t.Errorf("chunk %d spans a paragraph boundary", i)
		}
	}
}

func Test_New_ClampsInvalidConfig(t *testing.T) {
	t.Parallel()

	s := New(0, -1)
	if s.ChunkSize() != DefaultChunkSize || s.ChunkOverlap() != 0 {
		t.Errorf("defaults not applied: size=%d overlap=%d", s.ChunkSize(), s.ChunkOverlap())
	}

	s = New(100, 100)
	if s.ChunkOverlap() >= s.ChunkSize() {
		t.Errorf("overlap %d not clamped below size %d", s.ChunkOverlap(), s.ChunkSize())
	}
}
