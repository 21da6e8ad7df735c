// Package splitter implements deterministic text segmentation for indexing.
// Text is split into overlapping chunks of bounded size, preferring natural
// boundaries (paragraph, then sentence, then word) before falling back to a
// hard character cut.
package splitter

import (
	"strings"
	"unicode/utf8"
)

// Default segmentation parameters, matching the ingestion defaults.
const (
	// DefaultChunkSize is the maximum number of characters per chunk.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is the number of characters shared between
	// consecutive chunks for continuity.
	DefaultChunkOverlap = 200
)

// separators is the boundary preference order: paragraph break, line break,
// sentence end, word break. The hard character cut is the final fallback.
var separators = []string{"\n\n", "\n", ". ", " "}

// Splitter segments text into overlapping chunks. The output for a given
// input and configuration is deterministic. Safe for concurrent use.
type Splitter struct {
	// size is the maximum number of characters per chunk.
	size int

	// overlap is the number of characters shared between consecutive chunks.
	// Always strictly less than size.
	overlap int
}

// New constructs a Splitter. Non-positive size falls back to
// DefaultChunkSize; negative overlap falls back to 0; an overlap that is not
// strictly smaller than the size is clamped to size/10.
func New(size, overlap int) *Splitter {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 10
	}
	return &Splitter{size: size, overlap: overlap}
}

// ChunkSize returns the configured maximum chunk length.
func (s *Splitter) ChunkSize() int { return s.size }

// ChunkOverlap returns the configured overlap length.
func (s *Splitter) ChunkOverlap() int { return s.overlap }

// Split segments text into an ordered sequence of chunks, each at most
// ChunkSize characters, consecutive chunks sharing up to ChunkOverlap
// characters. An empty (or all-whitespace) input yields no chunks.
func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return s.split(text, separators)
}

// split recursively segments text using the given boundary preference list.
// All lengths are counted in runes, never bytes, so multibyte text is never
// cut mid-character.
func (s *Splitter) split(text string, seps []string) []string {
	if utf8.RuneCountInString(text) <= s.size {
		return []string{text}
	}
	if len(seps) == 0 {
		return s.hardCut(text)
	}
	if !strings.Contains(text, seps[0]) {
		return s.split(text, seps[1:])
	}

	// Separators stay attached to the preceding piece so concatenating the
	// pieces reproduces the input exactly.
	return s.merge(strings.SplitAfter(text, seps[0]), seps[1:])
}

// merge packs boundary-split pieces into chunks of at most size characters,
// carrying an overlap tail from each emitted chunk into the next. Pieces that
// individually exceed the size are re-split at the next finer boundary.
func (s *Splitter) merge(pieces []string, finer []string) []string {
	var chunks []string
	var cur []string
	curLen := 0
	fresh := false // true once cur holds anything beyond a carried-over tail

	emit := func(keepOverlap bool) {
		if curLen == 0 {
			return
		}
		chunk := strings.TrimSpace(strings.Join(cur, ""))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if !keepOverlap {
			cur, curLen = nil, 0
			fresh = false
			return
		}
		// Retain trailing pieces within the overlap budget as the start of
		// the next chunk.
		var tail []string
		tailLen := 0
		for i := len(cur) - 1; i >= 0; i-- {
			n := utf8.RuneCountInString(cur[i])
			if tailLen+n > s.overlap {
				break
			}
			tail = append([]string{cur[i]}, tail...)
			tailLen += n
		}
		cur, curLen = tail, tailLen
		fresh = false
	}

	for _, p := range pieces {
		n := utf8.RuneCountInString(p)
		if n > s.size {
			// The piece alone exceeds a chunk: flush what we have and
			// re-split the piece at the next finer boundary.
			emit(false)
			chunks = append(chunks, s.split(p, finer)...)
			continue
		}
		if curLen+n > s.size {
			emit(true)
			// If the carried overlap plus this piece still overflows,
			// shed overlap pieces from the front until it fits.
			for curLen > 0 && curLen+n > s.size {
				curLen -= utf8.RuneCountInString(cur[0])
				cur = cur[1:]
			}
		}
		cur = append(cur, p)
		curLen += n
		fresh = true
	}
	if fresh {
		emit(false)
	}

	return chunks
}

// hardCut slices text into size-length rune windows advancing by
// size-overlap, used when no natural boundary exists in an oversized run.
// Windows are taken over runes so a multibyte character is never split.
func (s *Splitter) hardCut(text string) []string {
	runes := []rune(text)
	var out []string
	step := s.size - s.overlap

	for start := 0; start < len(runes); start += step {
		end := start + s.size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}

	return out
}
