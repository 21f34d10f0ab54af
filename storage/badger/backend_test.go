package badger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/caselens/core"
	"github.com/poiesic/caselens/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepos(t *testing.T) *Repositories {
	t.Helper()
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })
	return repos
}

func vectorFragment(t *testing.T, parent, text string, vector []float32) *core.Fragment {
	t.Helper()
	f, err := core.NewFragment(parent, text, core.Paras, core.Location{0, 0})
	require.NoError(t, err)
	f.Vector = vector
	return f
}

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "db")
	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	defer backend.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenBackend_NotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := OpenBackend(file, false)
	assert.Error(t, err)
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())

	_, err = backend.FindSimilar(context.Background(), []float32{1}, 0, 1)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestFindSimilar_NoRecords(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	results, err := backend.FindSimilar(context.Background(), []float32{0.1, 0.2, 0.3}, 0.5, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindSimilar_WithFragments(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	_, err := repos.Fragments.AddFragments(ctx,
		vectorFragment(t, "docA", "first", []float32{1.0, 0.0, 0.0}),
		vectorFragment(t, "docA", "second", []float32{0.9, 0.1, 0.0}),
		vectorFragment(t, "docB", "third", []float32{0.0, 0.0, 1.0}),
		vectorFragment(t, "docB", "no vector", nil),
	)
	require.NoError(t, err)

	results, err := repos.Fragments.FindSimilar(ctx, []float32{1.0, 0.0, 0.0}, 0.8, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "first", results[0].Fragment.Text)
	assert.Equal(t, "docA", results[0].Fragment.ParentID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.Equal(t, "second", results[1].Fragment.Text)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}

func TestFindSimilar_Limit(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := repos.Fragments.AddFragments(ctx,
			vectorFragment(t, "doc", string(rune('a'+i)), []float32{1, float32(i) / 10}))
		require.NoError(t, err)
	}

	results, err := repos.Fragments.FindSimilar(ctx, []float32{1, 0}, 0, 3)
	require.NoError(t, err)
	assert.Len(t, results, 3)

	_, err = repos.Fragments.FindSimilar(ctx, []float32{1, 0}, 0, 0)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestFindSimilar_ContextCancelled(t *testing.T) {
	repos := newTestRepos(t)
	_, err := repos.Fragments.AddFragments(context.Background(), vectorFragment(t, "doc", "x", []float32{1}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = repos.Fragments.FindSimilar(ctx, []float32{1}, 0, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDotProduct(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{"identical unit vectors", []float32{1, 0, 0}, []float32{1, 0, 0}, 1.0},
		{"orthogonal vectors", []float32{1, 0, 0}, []float32{0, 1, 0}, 0.0},
		{"opposite vectors", []float32{1, 0}, []float32{-1, 0}, -1.0},
		{"different lengths", []float32{1, 2, 3}, []float32{1, 1}, 3.0},
		{"empty", nil, []float32{1}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, dotProduct(tt.a, tt.b), 0.0001)
		})
	}
}

func TestWithTransaction(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()

	t.Run("successful transaction", func(t *testing.T) {
		err := backend.WithTransaction(ctx, func(ctx context.Context) error {
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("failed transaction", func(t *testing.T) {
		err := backend.WithTransaction(ctx, func(ctx context.Context) error {
			return assert.AnError
		})
		assert.Equal(t, assert.AnError, err)
	})
}

func TestGetSequence(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	seq, err := backend.GetSequence("test_sequence")
	require.NoError(t, err)
	defer seq.Release()

	id1, err := seq.Next()
	require.NoError(t, err)
	id2, err := seq.Next()
	require.NoError(t, err)
	assert.Greater(t, id2, id1)
}
