package domain

import (
	"errors"
	"fmt"
)

var (
	ErrLoad            = errors.New("load failed")
	ErrEmbedding       = errors.New("embedding failed")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrSynthesis       = errors.New("synthesis failed")
	ErrEmptyQuery      = errors.New("query is empty")

	// ErrIndexNotBuilt is returned when answering before any index has been published.
	ErrIndexNotBuilt = errors.New("index not built")
	ErrStaleIndex    = errors.New("persisted index is stale")
)

// LoadError reports a document that could not be read or decoded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() []error {
	return []error{ErrLoad, e.Err}
}

// EmbeddingError reports a failure of the embedding service or a malformed response.
type EmbeddingError struct {
	Op  string
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding %s: %v", e.Op, e.Err)
}

func (e *EmbeddingError) Unwrap() []error {
	return []error{ErrEmbedding, e.Err}
}

// SynthesisError reports that no answer could be generated. Attempts is the
// number of generator calls made.
type SynthesisError struct {
	Attempts int
	Err      error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *SynthesisError) Unwrap() []error {
	return []error{ErrSynthesis, e.Err}
}

// InvalidArgument wraps ErrInvalidArgument with a message.
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
