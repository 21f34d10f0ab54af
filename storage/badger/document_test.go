package badger

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/poiesic/caselens/core"
	"github.com/poiesic/caselens/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentRepository_AddAndGet(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	doc := &core.Document{
		ID:        "case-1",
		Text:      "张三危险驾驶罪一审刑事判决书",
		Metadata:  map[string]string{"court": "某某市人民法院"},
		Fragments: []*core.Fragment{{ParentID: "case-1", Text: "x", Modality: core.Paras}},
	}
	added, err := repos.Documents.AddDocuments(ctx, doc)
	require.NoError(t, err)
	require.Len(t, added, 1)

	got, err := repos.Documents.GetDocument(ctx, "case-1")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)
	assert.Equal(t, doc.Text, got.Text)
	assert.Equal(t, doc.Metadata, got.Metadata)
	assert.Empty(t, got.Fragments, "fragments are stored separately")

	_, err = repos.Documents.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDocumentRepository_RejectsDuplicates(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	_, err := repos.Documents.AddDocuments(ctx, &core.Document{ID: "a", Text: "first"})
	require.NoError(t, err)

	t.Run("existing id", func(t *testing.T) {
		_, err := repos.Documents.AddDocuments(ctx, &core.Document{ID: "a", Text: "second"})
		assert.ErrorIs(t, err, storage.ErrDuplicateKey)

		got, err := repos.Documents.GetDocument(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "first", got.Text, "existing document untouched")
	})

	t.Run("duplicate within batch writes nothing", func(t *testing.T) {
		_, err := repos.Documents.AddDocuments(ctx,
			&core.Document{ID: "b"}, &core.Document{ID: "b"})
		assert.ErrorIs(t, err, storage.ErrDuplicateKey)

		_, err = repos.Documents.GetDocument(ctx, "b")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("empty id", func(t *testing.T) {
		_, err := repos.Documents.AddDocuments(ctx, &core.Document{})
		assert.ErrorIs(t, err, core.ErrEmptyID)
	})

	count, err := repos.Documents.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDocumentRepository_ForEachInInsertionOrder(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	// IDs chosen so that key order differs from insertion order
	want := []string{"z", "b", "m", "a", "y"}
	for _, id := range want[:3] {
		_, err := repos.Documents.AddDocuments(ctx, &core.Document{ID: id})
		require.NoError(t, err)
	}
	_, err := repos.Documents.AddDocuments(ctx, &core.Document{ID: "a"}, &core.Document{ID: "y"})
	require.NoError(t, err)

	var got []string
	err = repos.Documents.ForEachDocument(ctx, func(doc *core.Document) error {
		got = append(got, doc.ID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, want, got)

	count, err := repos.Documents.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(want), count)
}

func TestDocumentRepository_ForEachStopsOnError(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := repos.Documents.AddDocuments(ctx, &core.Document{ID: fmt.Sprintf("d%d", i)})
		require.NoError(t, err)
	}

	stop := errors.New("stop")
	calls := 0
	err := repos.Documents.ForEachDocument(ctx, func(*core.Document) error {
		calls++
		if calls == 2 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, calls)
}

func TestDocumentRepository_GetDocuments(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	_, err := repos.Documents.AddDocuments(ctx, &core.Document{ID: "a"}, &core.Document{ID: "b"})
	require.NoError(t, err)

	docs, err := repos.Documents.GetDocuments(ctx, "b", "missing", "a")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "b", docs[0].ID)
	assert.Equal(t, "a", docs[1].ID)
}

func TestDocumentRepository_Persistence(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	open := func() *Repositories {
		backend, err := OpenBackend(dir, false)
		require.NoError(t, err)
		repos, err := NewRepositories(backend)
		require.NoError(t, err)
		return repos
	}

	repos := open()
	_, err := repos.Documents.AddDocuments(ctx, &core.Document{ID: "first"}, &core.Document{ID: "second"})
	require.NoError(t, err)
	require.NoError(t, repos.Close())

	repos = open()
	defer repos.Close()
	_, err = repos.Documents.AddDocuments(ctx, &core.Document{ID: "third"})
	require.NoError(t, err)

	var got []string
	require.NoError(t, repos.Documents.ForEachDocument(ctx, func(doc *core.Document) error {
		got = append(got, doc.ID)
		return nil
	}))
	assert.Equal(t, []string{"first", "second", "third"}, got)
}
