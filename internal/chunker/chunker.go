package chunker

import (
	"strings"
	"unicode/utf8"
)

// Default chunking parameters, tuned for prose documents.
const (
	DefaultChunkSize   = 1400
	DefaultOverlap     = 200
	DefaultMinFraction = 0.3
)

// boundaries are candidate cut markers inside a window: a paragraph break
// or sentence-ending punctuation followed by whitespace.
var boundaries = []string{"\n\n", ". ", ".\n", "! ", "!\n", "? ", "?\n"}

// Splitter splits text into overlapping character windows, preferring to
// cut at paragraph or sentence boundaries instead of the hard window edge.
type Splitter struct {
	chunkSize   int
	overlap     int
	minFraction float64
}

// NewSplitter creates a splitter with the given window size and overlap.
// Invalid parameters fall back to defaults so that chunkSize > overlap >= 0
// always holds and the cursor makes forward progress.
func NewSplitter(chunkSize, overlap int, minFraction float64) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	if minFraction <= 0 || minFraction >= 0.5 {
		minFraction = DefaultMinFraction
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap, minFraction: minFraction}
}

// Split cuts text into chunks of at most chunkSize bytes, never splitting
// a UTF-8 sequence. A chunk cut
// at the hard window edge overlaps the next chunk by up to overlap
// characters; a chunk cut at a boundary does not, since the boundary
// already separates content. Every returned chunk is non-empty after
// trimming; empty or whitespace-only input yields nil.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	minContent := int(float64(s.chunkSize) * s.minFraction)

	var chunks []string
	start := 0
	n := len(text)
	for start < n {
		end := start + s.chunkSize
		atBoundary := false
		if end >= n {
			end = n
		} else {
			// Prefer the rightmost boundary, but only when it leaves
			// enough content to avoid degenerate near-empty chunks.
			if cut := boundaryCut(text[start:end]); cut > minContent {
				end = start + cut
				atBoundary = true
			} else {
				// A hard edge must never land inside a multibyte rune.
				end = runeFloor(text, start, end)
			}
		}
		if chunk := strings.TrimSpace(text[start:end]); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end >= n {
			break
		}
		next := end
		if !atBoundary {
			next = runeFloor(text, start, end-s.overlap)
		}
		if next <= start {
			_, size := utf8.DecodeRuneInString(text[start:])
			next = start + size
		}
		start = next
	}
	return chunks
}

// runeFloor moves pos back to the nearest UTF-8 rune start, never before
// min.
func runeFloor(text string, min, pos int) int {
	for pos > min && !utf8.RuneStart(text[pos]) {
		pos--
	}
	return pos
}

// boundaryCut returns the cut position just after the rightmost boundary
// marker in window, or -1 when no boundary occurs. Sentence punctuation
// stays with its chunk.
func boundaryCut(window string) int {
	best := -1
	for _, b := range boundaries {
		if i := strings.LastIndex(window, b); i >= 0 && i+1 > best {
			best = i + 1
		}
	}
	return best
}
