package qdrant

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edurag/internal/domain"
)

func TestPointIDIsStable(t *testing.T) {
	ch := domain.Chunk{SourceID: "abc123", ChunkIndex: 3}
	assert.Equal(t, pointID(ch), pointID(ch))
	assert.NotEqual(t, pointID(ch), pointID(domain.Chunk{SourceID: "abc123", ChunkIndex: 4}))
	assert.NotEqual(t, pointID(ch), pointID(domain.Chunk{SourceID: "other", ChunkIndex: 3}))
}

func TestUpsertReusesPointIDsAcrossIngests(t *testing.T) {
	var bodies []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.URL.Path == "/collections/test/points" {
			data, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			var body map[string]any
			require.NoError(t, json.Unmarshal(data, &body))
			bodies = append(bodies, body)
		}
		w.Write([]byte(`{"result": {}, "status": "ok"}`))
	}))
	defer srv.Close()

	s := NewStore(Config{URL: srv.URL, Collection: "test"})
	ctx := context.Background()
	chunks := []domain.Chunk{{Text: "hello", SourceID: "doc1", ChunkIndex: 1, ChunkTotal: 1}}
	vectors := [][]float64{{1, 0}}

	require.NoError(t, s.Upsert(ctx, chunks, vectors))
	require.NoError(t, s.Upsert(ctx, chunks, vectors))
	require.Len(t, bodies, 2)

	id := func(body map[string]any) any {
		points := body["points"].([]any)
		return points[0].(map[string]any)["id"]
	}
	assert.Equal(t, id(bodies[0]), id(bodies[1]),
		"re-ingesting the same chunk must address the same point")
}
