package domain

import "time"

// Chunk is a contiguous span of source text prepared for indexing.
// ChunkIndex is 1-based; 1 <= ChunkIndex <= ChunkTotal.
type Chunk struct {
	Text       string
	SourceID   string
	ChunkIndex int
	ChunkTotal int
	Metadata   map[string]any
}

// RetrievedChunk is a chunk as returned by a query, decorated with a
// relevance score. Score semantics depend on the retrieval mode; results
// are always ordered most relevant first.
type RetrievedChunk struct {
	Text     string
	Score    float64
	Metadata map[string]any
}

// Mode selects the retrieval strategy for a query.
type Mode int

// ModeUnspecified is the zero value; request layers substitute their
// configured default before a query reaches a Retriever.
const (
	ModeUnspecified Mode = iota
	ModeSemantic
	ModeKeyword
	ModeHybrid
)

func (m Mode) String() string {
	switch m {
	case ModeSemantic:
		return "semantic"
	case ModeKeyword:
		return "keyword"
	case ModeHybrid:
		return "hybrid"
	}
	return "unknown"
}

// ParseMode maps a mode name to its Mode value. The second return value
// reports whether the name was recognized.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "semantic", "":
		return ModeSemantic, true
	case "keyword":
		return ModeKeyword, true
	case "hybrid":
		return ModeHybrid, true
	}
	return ModeSemantic, false
}

// GenerateOptions are passed through verbatim to the model backend.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float32
}

// ModelResult is the outcome of one backend invocation. Err is nil on
// success; Latency is recorded regardless of outcome.
type ModelResult struct {
	BackendID     string
	Text          string
	TokenEstimate int
	Latency       time.Duration
	Err           error
}

// OK reports whether the invocation succeeded.
func (r ModelResult) OK() bool { return r.Err == nil }

// Answer is the result of single-model question answering.
type Answer struct {
	Text          string
	BackendID     string
	TokenEstimate int
	UsedChunks    []RetrievedChunk
	Latency       time.Duration
}

// AggregateStats summarizes a comparison run. It is a derived view over
// the per-backend results, not authoritative state.
type AggregateStats struct {
	Succeeded int
	Failed    int
	Latency   map[string]time.Duration
	Tokens    map[string]int
}

// Comparison holds the outcome of running one question against several
// backends with a shared retrieval context.
type Comparison struct {
	PerBackend map[string]ModelResult
	UsedChunks []RetrievedChunk
	Aggregate  AggregateStats
}

// QuizQuestion is one multiple-choice question generated from indexed
// content.
type QuizQuestion struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation"`
	Difficulty  string   `json:"difficulty"`
}

// Quiz is a generated set of questions over the knowledge base.
type Quiz struct {
	Topic     string
	Questions []QuizQuestion
	BackendID string
	Latency   time.Duration
}

// IndexResult reports the outcome of indexing one source document.
// On failure ChunkCount is zero: a document is never partially visible.
type IndexResult struct {
	OK         bool
	SourceID   string
	ChunkCount int
	Err        error
}

// LedgerEntry is one row of the append-only knowledge ledger.
type LedgerEntry struct {
	SourceID   string
	Filename   string
	ChunkCount int
	Pages      int
	AddedAt    time.Time
}
