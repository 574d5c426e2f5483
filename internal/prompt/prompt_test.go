package prompt

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edurag/internal/domain"
)

func chunks(texts ...string) []domain.RetrievedChunk {
	out := make([]domain.RetrievedChunk, len(texts))
	for i, t := range texts {
		out[i] = domain.RetrievedChunk{Text: t}
	}
	return out
}

func TestBuildDeterministic(t *testing.T) {
	cs := chunks("first chunk", "second chunk")
	first := Build("what is this?", cs)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, Build("what is this?", cs))
	}
}

func TestBuildPreservesChunkOrder(t *testing.T) {
	p := Build("q", chunks("alpha", "beta", "gamma"))
	ia := strings.Index(p, "[1] alpha")
	ib := strings.Index(p, "[2] beta")
	ig := strings.Index(p, "[3] gamma")
	require.NotEqual(t, -1, ia)
	require.NotEqual(t, -1, ib)
	require.NotEqual(t, -1, ig)
	assert.Less(t, ia, ib)
	assert.Less(t, ib, ig)
}

func TestBuildContainsChunkThenQuestion(t *testing.T) {
	chunkText := "Paragraph two about cats."
	question := "tell me about cats"
	p := Build(question, chunks(chunkText))

	ic := strings.Index(p, chunkText)
	iq := strings.Index(p, question)
	require.NotEqual(t, -1, ic)
	require.NotEqual(t, -1, iq)
	assert.Less(t, ic, iq, "chunk text must precede the question")
	assert.Contains(t, p, "based solely on the information provided")
}

func TestBuildEmptyChunksRendersEmptyContext(t *testing.T) {
	p := Build("anything indexed?", nil)
	assert.Contains(t, p, "Context:\n\n")
	assert.Contains(t, p, "Question: anything indexed?")
}

func TestQuizCapsAndTruncatesContext(t *testing.T) {
	long := strings.Repeat("a", 400)
	p := Quiz(5, chunks(long, "short", "third", "fourth", "fifth", "sixth"))

	assert.Contains(t, p, "Generate 5 quiz questions")
	assert.Contains(t, p, "[1] "+strings.Repeat("a", 300))
	assert.NotContains(t, p, strings.Repeat("a", 301))
	assert.Contains(t, p, "[5] fifth")
	assert.NotContains(t, p, "sixth", "only the first five chunks feed the quiz")
	assert.Contains(t, p, `"questions"`)
}

func TestTruncateKeepsRunesIntact(t *testing.T) {
	text := strings.Repeat("ü", 200)
	cut := truncate(text, 301)
	assert.True(t, utf8.ValidString(cut))
	assert.Equal(t, 300, len(cut), "cut must back off to the rune start")
}
