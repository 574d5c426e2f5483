// Package indexer orchestrates the write path: split a source document
// into chunks, attach lineage metadata, and submit one batch to the
// index. On success a record is appended to the knowledge ledger.
package indexer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"edurag/internal/domain"
)

// Indexer turns raw source text into indexed chunk batches.
type Indexer struct {
	chunker domain.Chunker
	writer  domain.ChunkWriter
	ledger  domain.Ledger
}

// New creates an indexer. ledger may be nil when no listing surface is
// wanted; indexing itself does not depend on it.
func New(chunker domain.Chunker, writer domain.ChunkWriter, ledger domain.Ledger) *Indexer {
	return &Indexer{chunker: chunker, writer: writer, ledger: ledger}
}

// Index chunks sourceText, tags every chunk with lineage metadata and the
// caller-supplied metadata, and writes the whole document as one batch.
// The write is atomic from the caller's perspective: on failure the
// result reports zero chunks indexed and the ledger is left untouched.
func (ix *Indexer) Index(ctx context.Context, sourceText, sourceID string, metadata map[string]any) (domain.IndexResult, error) {
	if strings.TrimSpace(sourceText) == "" {
		err := fmt.Errorf("%w: source %q", domain.ErrEmptyContent, sourceID)
		return domain.IndexResult{SourceID: sourceID, Err: err}, err
	}

	parts := ix.chunker.Split(sourceText)
	if len(parts) == 0 {
		err := fmt.Errorf("%w: source %q produced no chunks", domain.ErrEmptyContent, sourceID)
		return domain.IndexResult{SourceID: sourceID, Err: err}, err
	}

	chunks := make([]domain.Chunk, len(parts))
	for i, text := range parts {
		chunks[i] = domain.Chunk{
			Text:       text,
			SourceID:   sourceID,
			ChunkIndex: i + 1,
			ChunkTotal: len(parts),
			Metadata:   metadata,
		}
	}

	if err := ix.writer.Index(ctx, chunks); err != nil {
		wrapped := fmt.Errorf("%w: %v", domain.ErrIndexWrite, err)
		return domain.IndexResult{SourceID: sourceID, Err: wrapped}, wrapped
	}

	if ix.ledger != nil {
		entry := domain.LedgerEntry{
			SourceID:   sourceID,
			Filename:   stringValue(metadata, "filename"),
			ChunkCount: len(chunks),
			Pages:      intValue(metadata, "pages"),
			AddedAt:    time.Now().UTC(),
		}
		if err := ix.ledger.Append(ctx, entry); err != nil {
			// The chunks are indexed; report the bookkeeping failure
			// without undoing the write.
			res := domain.IndexResult{OK: true, SourceID: sourceID, ChunkCount: len(chunks), Err: err}
			return res, fmt.Errorf("ledger append for %q: %w", sourceID, err)
		}
	}

	return domain.IndexResult{OK: true, SourceID: sourceID, ChunkCount: len(chunks)}, nil
}

func stringValue(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func intValue(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}
