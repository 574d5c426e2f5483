package domain

import (
	"errors"
	"fmt"
)

// Error kinds returned by core operations. Callers match with errors.Is.
var (
	// ErrInvalidArgument marks malformed input to a core operation,
	// such as a non-positive k or an unsupported retrieval mode.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrEmptyContent marks a source with no extractable text.
	ErrEmptyContent = errors.New("no extractable content")

	// ErrNoContext marks a retrieval that returned zero chunks. This is
	// an expected outcome, distinct from a hard failure.
	ErrNoContext = errors.New("no context retrieved")

	// ErrIndexWrite marks a rejected or failed index write batch.
	ErrIndexWrite = errors.New("index write failed")
)

// GenerationError reports a model backend failure. In single-model
// answering it aborts the request; in fan-out it is recorded per backend
// and never aborts sibling calls.
type GenerationError struct {
	Backend string
	Reason  string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed on backend %q: %s", e.Backend, e.Reason)
}
