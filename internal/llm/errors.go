package llm

import (
	"errors"
	"fmt"
)

// ErrEmptyEmbedding indicates the embedding service answered successfully
// but returned no usable vector. It is always wrapped in an EmbeddingError
// so callers can distinguish it from transport failures with errors.Is().
var ErrEmptyEmbedding = errors.New("embedding service returned no usable vector")

// CompletionError reports a failed text-generation call.
// StatusCode and Message carry the service's HTTP status and body text
// when available (0 / empty for pure transport errors).
type CompletionError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *CompletionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("completion failed: status=%d %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("completion failed: %v", e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }

// EmbeddingError reports a failed text-embedding call: a transport failure,
// a non-success status, or an empty/missing vector payload.
type EmbeddingError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *EmbeddingError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("embedding failed: status=%d %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("embedding failed: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }
