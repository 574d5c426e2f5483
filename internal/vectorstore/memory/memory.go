// Package memory provides an in-memory vector store using brute-force
// cosine similarity. It also supports lexical token-overlap search, which
// enables true keyword and hybrid retrieval without an external index.
package memory

import (
	"context"
	"errors"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"edurag/internal/domain"
)

type record struct {
	key      string
	text     string
	metadata map[string]any
	vector   []float64
}

// Store is a thread-safe in-memory vector store.
type Store struct {
	mu        sync.RWMutex
	dimension int
	records   []record
	byKey     map[string]int
}

var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

// NewStore creates an empty in-memory store.
func NewStore() *Store { return &Store{} }

// Init sets the vector dimension and drops any existing records.
func (s *Store) Init(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.records = nil
	s.byKey = nil
	return nil
}

// Upsert writes chunks with their vectors. A chunk with the same source
// id and chunk index as an existing record replaces it, so re-ingesting
// a document does not duplicate its chunks. Lineage fields are folded
// into the stored metadata so queries see one flat mapping.
func (s *Store) Upsert(_ context.Context, chunks []domain.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vectors {
		if len(v) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
	}
	if s.byKey == nil {
		s.byKey = make(map[string]int)
	}
	for i, ch := range chunks {
		rec := record{
			key:      chunkKey(ch),
			text:     ch.Text,
			metadata: flattenMetadata(ch),
			vector:   vectors[i],
		}
		if idx, ok := s.byKey[rec.key]; ok {
			s.records[idx] = rec
			continue
		}
		s.byKey[rec.key] = len(s.records)
		s.records = append(s.records, rec)
	}
	return nil
}

func chunkKey(ch domain.Chunk) string {
	return ch.SourceID + ":" + strconv.Itoa(ch.ChunkIndex)
}

// Search returns up to topK records ordered by cosine similarity,
// best first. Vectors are assumed L2-normalized.
func (s *Store) Search(_ context.Context, vector []float64, topK int) ([]domain.RetrievedChunk, error) {
	if topK <= 0 {
		return nil, errors.New("topK must be positive")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(s.records))
	for i := range s.records {
		scores[i] = scored{i, dot(s.records[i].vector, vector)}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if topK > len(scores) {
		topK = len(scores)
	}
	results := make([]domain.RetrievedChunk, 0, topK)
	for _, sc := range scores[:topK] {
		r := s.records[sc.idx]
		results = append(results, domain.RetrievedChunk{Text: r.text, Score: sc.score, Metadata: r.metadata})
	}
	return results, nil
}

// LexicalSearch scores every record by Ochiai token overlap with the
// query and returns the topK best matches.
func (s *Store) LexicalSearch(query string, topK int) ([]domain.RetrievedChunk, error) {
	if topK <= 0 {
		return nil, errors.New("topK must be positive")
	}
	qset := tokenSet(query)
	s.mu.RLock()
	defer s.mu.RUnlock()
	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(s.records))
	for i := range s.records {
		scores[i] = scored{i, ochiai(qset, s.records[i].text)}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if topK > len(scores) {
		topK = len(scores)
	}
	results := make([]domain.RetrievedChunk, 0, topK)
	for _, sc := range scores[:topK] {
		r := s.records[sc.idx]
		results = append(results, domain.RetrievedChunk{Text: r.text, Score: sc.score, Metadata: r.metadata})
	}
	return results, nil
}

// Clear drops all records but keeps the dimension.
func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.byKey = nil
	return nil
}

func flattenMetadata(ch domain.Chunk) map[string]any {
	meta := make(map[string]any, len(ch.Metadata)+3)
	for k, v := range ch.Metadata {
		meta[k] = v
	}
	meta["source_id"] = ch.SourceID
	meta["chunk_index"] = ch.ChunkIndex
	meta["chunk_total"] = ch.ChunkTotal
	return meta
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func tokenSet(s string) map[string]struct{} {
	tokens := tokenPattern.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

// ochiai computes |A∩B| / sqrt(|A||B|) over the query and text token sets.
func ochiai(qset map[string]struct{}, text string) float64 {
	tset := tokenSet(text)
	if len(qset) == 0 || len(tset) == 0 {
		return 0
	}
	inter := 0
	for t := range tset {
		if _, ok := qset[t]; ok {
			inter++
		}
	}
	return float64(inter) / math.Sqrt(float64(len(qset))*float64(len(tset)))
}
