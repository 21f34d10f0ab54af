package reembed

import (
	"context"

	"github.com/poiesic/caselens/core"
	"github.com/poiesic/caselens/storage"
)

const (
	// DefaultBatchSize is the default number of fragments to fetch in each batch
	DefaultBatchSize = 100
)

// FragmentIterator pages through stored fragments in key order.
type FragmentIterator struct {
	repo      storage.FragmentRepository
	batchSize int
}

// NewFragmentIterator creates an iterator fetching batchSize fragments per page.
func NewFragmentIterator(repo storage.FragmentRepository, batchSize int) *FragmentIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &FragmentIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach calls fn with successive batches of fragments whose key sorts after
// after. Pass 0 to start from the first fragment. Iteration stops at the first
// error from fn or when ctx ends.
func (it *FragmentIterator) ForEach(ctx context.Context, after core.ID, fn func([]*core.Fragment) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		batch, err := it.repo.GetFragmentsAfter(ctx, after, it.batchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		if err := fn(batch); err != nil {
			return err
		}
		if len(batch) < it.batchSize {
			return nil
		}
		after = batch[len(batch)-1].ID
	}
}
