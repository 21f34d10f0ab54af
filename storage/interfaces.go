package storage

import (
	"context"

	"github.com/poiesic/caselens/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close releases repository resources. The shared backend is closed separately.
	Close() error
}

// VectorSearcher finds stored fragments by embedding similarity.
type VectorSearcher interface {
	// FindSimilar finds fragments similar to the given vector.
	// Returns fragments with similarity >= minSimilarity, up to limit results.
	// Results are ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error)
}

// DocumentRepository stores indexed cases. The corpus is append-only: there is
// no update or delete, and documents keep their insertion order.
type DocumentRepository interface {
	Repository

	// AddDocuments appends documents. Only ID, Text and Metadata are stored.
	// Returns ErrDuplicateKey if any ID is already present; nothing is written then.
	AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id string) (*core.Document, error)

	// GetDocuments retrieves multiple documents by their IDs.
	// Returns only the documents that exist (no error for missing documents).
	GetDocuments(ctx context.Context, ids ...string) ([]*core.Document, error)

	// ForEachDocument calls fn for every document in insertion order.
	// Iteration stops at the first error returned by fn.
	ForEachDocument(ctx context.Context, fn func(*core.Document) error) error

	// CountDocuments returns the number of stored documents.
	CountDocuments(ctx context.Context) (int, error)
}

// FragmentRepository stores segmented fragments and their embeddings.
// Fragments are stored flat: sub-fragments are separate records and match
// lists are never persisted.
type FragmentRepository interface {
	Repository
	VectorSearcher

	// AddFragments stores fragments, replacing any with the same ID.
	AddFragments(ctx context.Context, fragments ...*core.Fragment) ([]*core.Fragment, error)

	// UpdateFragments replaces existing fragments.
	// Returns ErrNotFound if any fragment doesn't exist.
	UpdateFragments(ctx context.Context, fragments ...*core.Fragment) ([]*core.Fragment, error)

	// GetFragment retrieves a single fragment by ID.
	// Returns ErrNotFound if the fragment doesn't exist.
	GetFragment(ctx context.Context, id core.ID) (*core.Fragment, error)

	// GetFragmentsByParent retrieves the fragments of one document.
	GetFragmentsByParent(ctx context.Context, parentID string) ([]*core.Fragment, error)

	// GetFragmentsAfter returns up to limit fragments with IDs greater than
	// after, in ID order. Pass 0 to start from the beginning.
	GetFragmentsAfter(ctx context.Context, after core.ID, limit int) ([]*core.Fragment, error)

	// CountFragments returns the number of stored fragments.
	CountFragments(ctx context.Context) (int, error)
}

// CheckpointRepository persists progress of resumable jobs.
type CheckpointRepository interface {
	// SaveCheckpoint persists a checkpoint, setting UpdatedAt.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint retrieves the checkpoint for a processor type.
	// Returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, processorType string) (*core.Checkpoint, error)

	// DeleteCheckpoint removes the checkpoint for a processor type, if any.
	DeleteCheckpoint(ctx context.Context, processorType string) error
}
