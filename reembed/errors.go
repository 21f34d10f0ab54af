package reembed

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrEmbeddingMismatch is returned when the embedder returns a different
	// number of vectors than fragments in the batch.
	ErrEmbeddingMismatch = errors.New("embedding count mismatch")

	// ErrInvalidCheckpoint is returned when a stored checkpoint key cannot be parsed.
	ErrInvalidCheckpoint = errors.New("invalid checkpoint")
)
