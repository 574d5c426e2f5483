package domain

import "context"

// Embedder converts free text into a numeric vector representation.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Chunker splits source text into spans suitable for indexing.
type Chunker interface {
	Split(text string) []string
}

// VectorStore persists chunk vectors and supports similarity search.
// Implementations must tolerate concurrent reads and writes.
type VectorStore interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, chunks []Chunk, vectors [][]float64) error
	Search(ctx context.Context, vector []float64, topK int) ([]RetrievedChunk, error)
	Clear(ctx context.Context) error
}

// LexicalSearcher is an optional extension of VectorStore for stores that
// can enumerate their chunks and score them by token overlap. Keyword and
// hybrid retrieval use it when present.
type LexicalSearcher interface {
	LexicalSearch(query string, topK int) ([]RetrievedChunk, error)
}

// Retriever serves similarity queries over the indexed corpus.
type Retriever interface {
	Query(ctx context.Context, text string, k int, mode Mode) ([]RetrievedChunk, error)
}

// ChunkWriter is the write path into the index.
type ChunkWriter interface {
	Index(ctx context.Context, chunks []Chunk) error
}

// ModelGateway dispatches prompts to named language-model backends.
type ModelGateway interface {
	Generate(ctx context.Context, backendID, prompt string, opts GenerateOptions) (string, error)
	Backends() []string
	Probe(ctx context.Context, backendID string) bool
}

// Ledger records indexed documents for listing purposes. It is an
// append-only side channel, never consulted by retrieval.
type Ledger interface {
	Append(ctx context.Context, entry LedgerEntry) error
	List(ctx context.Context) ([]LedgerEntry, error)
}
