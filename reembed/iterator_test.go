package reembed

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/poiesic/caselens/core"
	"github.com/poiesic/caselens/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *badger.Repositories {
	t.Helper()
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })
	return repos
}

// seedFragments stores n fragments without vectors and returns them in key order.
func seedFragments(t *testing.T, repos *badger.Repositories, n int) []*core.Fragment {
	t.Helper()
	fragments := make([]*core.Fragment, n)
	for i := range fragments {
		f, err := core.NewFragment(fmt.Sprintf("case-%d", i%3), fmt.Sprintf("第%d句", i), core.Paras, core.Location{i, 0})
		require.NoError(t, err)
		fragments[i] = f
	}
	_, err := repos.Fragments.AddFragments(context.Background(), fragments...)
	require.NoError(t, err)

	stored, err := repos.Fragments.GetFragmentsAfter(context.Background(), 0, n+1)
	require.NoError(t, err)
	require.Len(t, stored, n)
	return stored
}

func TestFragmentIterator_ForEach(t *testing.T) {
	repos := setupTestDB(t)
	stored := seedFragments(t, repos, 10)

	tests := []struct {
		name      string
		batchSize int
		batches   []int
	}{
		{"exact multiple", 5, []int{5, 5}},
		{"remainder", 3, []int{3, 3, 3, 1}},
		{"larger than total", 50, []int{10}},
		{"default batch size", 0, []int{10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := NewFragmentIterator(repos.Fragments, tt.batchSize)

			var sizes []int
			var ids []core.ID
			err := it.ForEach(context.Background(), 0, func(batch []*core.Fragment) error {
				sizes = append(sizes, len(batch))
				for _, f := range batch {
					ids = append(ids, f.ID)
				}
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, tt.batches, sizes)

			want := make([]core.ID, len(stored))
			for i, f := range stored {
				want[i] = f.ID
			}
			assert.Equal(t, want, ids, "every fragment once, in key order")
		})
	}
}

func TestFragmentIterator_ResumesAfterKey(t *testing.T) {
	repos := setupTestDB(t)
	stored := seedFragments(t, repos, 6)

	var ids []core.ID
	err := NewFragmentIterator(repos.Fragments, 2).ForEach(context.Background(), stored[3].ID, func(batch []*core.Fragment) error {
		for _, f := range batch {
			ids = append(ids, f.ID)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []core.ID{stored[4].ID, stored[5].ID}, ids)
}

func TestFragmentIterator_EmptyDatabase(t *testing.T) {
	repos := setupTestDB(t)

	called := false
	err := NewFragmentIterator(repos.Fragments, 10).ForEach(context.Background(), 0, func([]*core.Fragment) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestFragmentIterator_StopsOnError(t *testing.T) {
	repos := setupTestDB(t)
	seedFragments(t, repos, 10)

	stop := errors.New("stop")
	calls := 0
	err := NewFragmentIterator(repos.Fragments, 2).ForEach(context.Background(), 0, func([]*core.Fragment) error {
		calls++
		if calls == 2 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, calls)
}

func TestFragmentIterator_ContextCancelled(t *testing.T) {
	repos := setupTestDB(t)
	seedFragments(t, repos, 10)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := NewFragmentIterator(repos.Fragments, 2).ForEach(ctx, 0, func([]*core.Fragment) error {
		calls++
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
