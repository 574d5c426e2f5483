package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edurag/internal/domain"
)

// fakeEmbedder maps known words onto axes of a 3-dimensional space.
type fakeEmbedder struct{}

func (fakeEmbedder) Name() string   { return "fake" }
func (fakeEmbedder) Dimension() int { return 3 }

func (fakeEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	switch text {
	case "cats":
		return []float64{1, 0, 0}, nil
	case "dogs":
		return []float64{0, 1, 0}, nil
	case "birds":
		return []float64{0, 0, 1}, nil
	}
	return []float64{0, 0, 0}, nil
}

// fakeStore returns canned results and records calls.
type fakeStore struct {
	results       []domain.RetrievedChunk
	searchErr     error
	upserted      [][]domain.Chunk
	initDimension int
}

func (f *fakeStore) Init(_ context.Context, dim int) error {
	f.initDimension = dim
	return nil
}

func (f *fakeStore) Upsert(_ context.Context, chunks []domain.Chunk, vectors [][]float64) error {
	f.upserted = append(f.upserted, chunks)
	return nil
}

func (f *fakeStore) Search(_ context.Context, _ []float64, topK int) ([]domain.RetrievedChunk, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if topK > len(f.results) {
		topK = len(f.results)
	}
	return f.results[:topK], nil
}

func (f *fakeStore) Clear(context.Context) error { return nil }

// lexicalStore additionally implements LexicalSearcher.
type lexicalStore struct {
	fakeStore
	lexResults []domain.RetrievedChunk
	lexCalled  bool
}

func (l *lexicalStore) LexicalSearch(_ string, topK int) ([]domain.RetrievedChunk, error) {
	l.lexCalled = true
	if topK > len(l.lexResults) {
		topK = len(l.lexResults)
	}
	return l.lexResults[:topK], nil
}

func ranked(scores ...float64) []domain.RetrievedChunk {
	out := make([]domain.RetrievedChunk, len(scores))
	for i, s := range scores {
		out[i] = domain.RetrievedChunk{Text: "chunk", Score: s}
	}
	return out
}

func TestQueryRejectsNonPositiveK(t *testing.T) {
	svc := NewService(fakeEmbedder{}, &fakeStore{})
	for _, k := range []int{0, -1} {
		_, err := svc.Query(context.Background(), "cats", k, domain.ModeSemantic)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	}
}

func TestQueryRejectsUnknownMode(t *testing.T) {
	svc := NewService(fakeEmbedder{}, &fakeStore{})
	_, err := svc.Query(context.Background(), "cats", 3, domain.Mode(42))
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestQuerySemanticOrderingAndCap(t *testing.T) {
	store := &fakeStore{results: ranked(0.9, 0.5, 0.1)}
	svc := NewService(fakeEmbedder{}, store)

	results, err := svc.Query(context.Background(), "cats", 2, domain.ModeSemantic)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestQueryEmptyIndexIsNotAnError(t *testing.T) {
	svc := NewService(fakeEmbedder{}, &fakeStore{})
	results, err := svc.Query(context.Background(), "cats", 5, domain.ModeSemantic)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestQueryKeywordUsesLexicalWhenAvailable(t *testing.T) {
	store := &lexicalStore{lexResults: ranked(0.8)}
	svc := NewService(fakeEmbedder{}, store)

	results, err := svc.Query(context.Background(), "cats", 3, domain.ModeKeyword)
	require.NoError(t, err)
	assert.True(t, store.lexCalled)
	assert.Len(t, results, 1)
}

func TestQueryKeywordFallsBackToSemantic(t *testing.T) {
	// Store without lexical support: keyword aliases semantic search.
	store := &fakeStore{results: ranked(0.4)}
	svc := NewService(fakeEmbedder{}, store)

	results, err := svc.Query(context.Background(), "cats", 3, domain.ModeKeyword)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestQueryHybridPrefersSemanticSignal(t *testing.T) {
	store := &lexicalStore{
		fakeStore:  fakeStore{results: ranked(0.9)},
		lexResults: ranked(0.2),
	}
	svc := NewService(fakeEmbedder{}, store)

	results, err := svc.Query(context.Background(), "cats", 3, domain.ModeHybrid)
	require.NoError(t, err)
	assert.False(t, store.lexCalled)
	require.Len(t, results, 1)
	assert.Equal(t, 0.9, results[0].Score)
}

func TestQueryHybridFallsBackOnZeroVector(t *testing.T) {
	// "unknown words" embed to the zero vector; hybrid must go lexical.
	store := &lexicalStore{
		fakeStore:  fakeStore{results: ranked(0.9)},
		lexResults: ranked(0.3),
	}
	svc := NewService(fakeEmbedder{}, store)

	results, err := svc.Query(context.Background(), "unknown words", 3, domain.ModeHybrid)
	require.NoError(t, err)
	assert.True(t, store.lexCalled)
	require.Len(t, results, 1)
	assert.Equal(t, 0.3, results[0].Score)
}

func TestQueryHybridFallsBackOnZeroScores(t *testing.T) {
	store := &lexicalStore{
		fakeStore:  fakeStore{results: ranked(0, 0)},
		lexResults: ranked(0.5),
	}
	svc := NewService(fakeEmbedder{}, store)

	results, err := svc.Query(context.Background(), "cats", 3, domain.ModeHybrid)
	require.NoError(t, err)
	assert.True(t, store.lexCalled)
	require.Len(t, results, 1)
	assert.Equal(t, 0.5, results[0].Score)
}

func TestQueryPropagatesStoreErrors(t *testing.T) {
	store := &fakeStore{searchErr: errors.New("store down")}
	svc := NewService(fakeEmbedder{}, store)
	_, err := svc.Query(context.Background(), "cats", 3, domain.ModeSemantic)
	assert.Error(t, err)
}

func TestIndexWritesOneBatch(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(fakeEmbedder{}, store)
	chunks := []domain.Chunk{
		{Text: "cats", SourceID: "d", ChunkIndex: 1, ChunkTotal: 2},
		{Text: "dogs", SourceID: "d", ChunkIndex: 2, ChunkTotal: 2},
	}

	require.NoError(t, svc.Index(context.Background(), chunks))
	require.Len(t, store.upserted, 1, "all chunks must go in one upsert")
	assert.Len(t, store.upserted[0], 2)
	assert.Equal(t, 3, store.initDimension)
}

func TestIndexEmptyBatchIsNoop(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(fakeEmbedder{}, store)
	require.NoError(t, svc.Index(context.Background(), nil))
	assert.Empty(t, store.upserted)
}
