package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEmptyInput(t *testing.T) {
	s := NewSplitter(500, 50, 0.3)
	assert.Empty(t, s.Split(""))
	assert.Empty(t, s.Split("   \n\t  "))
}

func TestSplitShortText(t *testing.T) {
	s := NewSplitter(500, 50, 0.3)
	chunks := s.Split("short text")
	require.Len(t, chunks, 1)
	assert.Equal(t, "short text", chunks[0])
}

func TestSplitTrimsChunks(t *testing.T) {
	s := NewSplitter(500, 50, 0.3)
	chunks := s.Split("  padded with whitespace  ")
	require.Len(t, chunks, 1)
	assert.Equal(t, "padded with whitespace", chunks[0])
}

func TestSplitParagraphBoundaries(t *testing.T) {
	text := "Paragraph one.\n\nParagraph two about cats.\n\nParagraph three about dogs."
	s := NewSplitter(30, 5, 0.3)
	chunks := s.Split(text)
	require.Len(t, chunks, 3)
	assert.Equal(t, "Paragraph one.", chunks[0])
	assert.Equal(t, "Paragraph two about cats.", chunks[1])
	assert.Equal(t, "Paragraph three about dogs.", chunks[2])
}

func TestSplitDeterministic(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 40)
	s := NewSplitter(200, 40, 0.3)
	first := s.Split(text)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, s.Split(text))
	}
}

func TestSplitChunkSizeCap(t *testing.T) {
	text := strings.Repeat("Sentences of a modest length keep arriving without pause. ", 60)
	s := NewSplitter(250, 50, 0.3)
	chunks := s.Split(text)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 250)
		assert.NotEmpty(t, strings.TrimSpace(c))
	}
}

func TestSplitTerminationBound(t *testing.T) {
	// No boundary markers at all, so every cut lands on the hard window
	// edge and the cursor advances by exactly chunkSize-overlap.
	text := strings.Repeat("x", 10000)
	s := NewSplitter(500, 100, 0.3)
	chunks := s.Split(text)
	bound := (len(text)+399)/400 + 1
	assert.LessOrEqual(t, len(chunks), bound)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 500)
	}
}

func TestSplitOverlapOnHardCuts(t *testing.T) {
	// Boundary-free text: consecutive chunks must share the overlap region.
	text := strings.Repeat("abcdefghij", 20)
	s := NewSplitter(50, 10, 0.3)
	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		tail := chunks[i-1][len(chunks[i-1])-10:]
		assert.True(t, strings.HasPrefix(chunks[i], tail),
			"chunk %d should start with the previous chunk's last 10 chars", i)
	}
}

func TestSplitCoversWholeInput(t *testing.T) {
	// Every part of the input must land in some chunk: splicing the
	// chunks back together in order reconstructs the full text.
	text := strings.Repeat("abcdefghij", 30)
	s := NewSplitter(70, 7, 0.3)
	chunks := s.Split(text)
	require.NotEmpty(t, chunks)
	rebuilt := chunks[0]
	for i := 1; i < len(chunks); i++ {
		// Hard cuts repeat the overlap at the start of the next chunk.
		rebuilt = rebuilt[:len(rebuilt)-7] + chunks[i]
	}
	assert.Equal(t, text, rebuilt)
}

func TestSplitNeverBreaksUTF8(t *testing.T) {
	// Boundary-free multibyte text forces hard window cuts; none of them
	// may land inside a UTF-8 sequence.
	text := strings.Repeat("héllo wörld ünïcode ", 50)
	s := NewSplitter(50, 10, 0.3)
	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		assert.True(t, utf8.ValidString(c), "chunk %d contains invalid UTF-8: %q", i, c)
	}
}

func TestSplitMultibyteCoversWholeInput(t *testing.T) {
	text := strings.Repeat("日本語のテキスト", 40)
	s := NewSplitter(60, 0, 0.3)
	chunks := s.Split(text)
	require.NotEmpty(t, chunks)
	for i, c := range chunks {
		assert.True(t, utf8.ValidString(c), "chunk %d contains invalid UTF-8", i)
	}
	// Zero overlap and no whitespace to trim: concatenation reconstructs
	// the input exactly.
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestNewSplitterClampsBadParameters(t *testing.T) {
	s := NewSplitter(-1, -5, 2.0)
	assert.Equal(t, DefaultChunkSize, s.chunkSize)
	assert.Equal(t, 0, s.overlap)
	assert.Equal(t, DefaultMinFraction, s.minFraction)

	// Overlap >= chunkSize would stall the cursor; it is reduced instead.
	s = NewSplitter(100, 100, 0.3)
	assert.Equal(t, 25, s.overlap)
}
