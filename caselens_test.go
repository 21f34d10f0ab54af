package caselens

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/caselens/ai"
	"github.com/poiesic/caselens/ai/mock"
	"github.com/poiesic/caselens/core"
	"github.com/poiesic/caselens/ingestion"
	"github.com/poiesic/caselens/reembed"
	"github.com/poiesic/caselens/search"
	"github.com/poiesic/caselens/segment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCases() []*ingestion.Case {
	return []*ingestion.Case{
		{ID: "case-1", Source: &segment.CaseSource{
			Title: "张三危险驾驶罪一审刑事判决书",
			Court: "某某市人民法院",
			Paras: []segment.Paragraph{{Tag: "facts", Content: "被告人醉酒驾驶机动车。"}},
		}},
		{ID: "case-2", Source: &segment.CaseSource{
			Title: "李四盗窃罪一审刑事判决书",
			Court: "另一区人民法院",
			Paras: []segment.Paragraph{{Tag: "facts", Content: "被告人窃取财物。"}},
		}},
	}
}

func openTest(t *testing.T, path string) *Database {
	t.Helper()
	db, err := Open(context.Background(), path, WithAIProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	return db
}

func TestOpen(t *testing.T) {
	t.Run("create new database", func(t *testing.T) {
		db := openTest(t, filepath.Join(t.TempDir(), "test_db"))
		defer db.Close()

		assert.NotNil(t, db.DocumentRepository())
		assert.NotNil(t, db.FragmentRepository())
		assert.NotNil(t, db.CheckpointRepository())
		assert.Zero(t, db.LexicalIndex().Len())
	})

	t.Run("default provider", func(t *testing.T) {
		db, err := Open(context.Background(), "", WithInMemory(), WithAIConfig(ai.DefaultConfig()))
		require.NoError(t, err)
		require.NoError(t, db.Close())
	})

	t.Run("invalid AI config", func(t *testing.T) {
		_, err := Open(context.Background(), "", WithInMemory(), WithAIConfig(&ai.Config{}))
		assert.Error(t, err)
	})

	t.Run("error with invalid path", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(tmpFile, []byte("test"), 0644))

		db, err := Open(context.Background(), tmpFile, WithAIProvider(mock.NewMockProvider()))
		assert.Error(t, err)
		assert.Nil(t, db)
	})
}

func TestDatabase_CloseReleasesProvider(t *testing.T) {
	provider := mock.NewMockProvider()
	db, err := Open(context.Background(), "", WithInMemory(), WithAIProvider(provider))
	require.NoError(t, err)

	require.NoError(t, db.Close())
	assert.True(t, provider.(*mock.MockProvider).Closed())
}

func TestDatabase_IngestSearchReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	db := openTest(t, dir)
	pipeline, err := db.NewIngestionPipeline()
	require.NoError(t, err)
	report, err := pipeline.Ingest(ctx, testCases())
	pipeline.Release()
	require.NoError(t, err)
	require.NoError(t, report.Err())
	assert.Equal(t, 2, db.LexicalIndex().Len())
	require.NoError(t, db.Close())

	// the lexical index is rebuilt from storage
	db = openTest(t, dir)
	defer db.Close()
	assert.Equal(t, 2, db.LexicalIndex().Len())

	searcher, err := db.NewSearcher(search.WithMinSimilarity(0.9))
	require.NoError(t, err)
	defer searcher.Release()

	lexical, err := searcher.SearchText(ctx, "某某市人民法院", 5)
	require.NoError(t, err)
	require.Len(t, lexical, 1)
	assert.Equal(t, "case-1", lexical[0].ID)

	matches, err := searcher.FindMatches(ctx, search.NewQuery("被告人醉酒驾驶机动车"), nil)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "case-1", matches[0].ID)
}

func TestDatabase_ReopenWithPunctuationTitle(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	db := openTest(t, dir)
	pipeline, err := db.NewIngestionPipeline()
	require.NoError(t, err)
	cases := append(testCases(), &ingestion.Case{ID: "dots", Source: &segment.CaseSource{
		Title: "……",
		Paras: []segment.Paragraph{{Tag: "facts", Content: "被告人醉酒驾驶机动车。"}},
	}})
	report, err := pipeline.Ingest(ctx, cases)
	pipeline.Release()
	require.NoError(t, err)
	assert.Equal(t, []string{"case-1", "case-2"}, report.Indexed)
	require.Len(t, report.Failed, 1)
	assert.ErrorIs(t, report.Failed[0].Err, ingestion.ErrNoLexicalTerms)

	// a term-less document stored by other means must not block reopening
	_, err = db.DocumentRepository().AddDocuments(ctx, &core.Document{ID: "legacy", Text: "……"})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db = openTest(t, dir)
	defer db.Close()
	assert.Equal(t, 2, db.LexicalIndex().Len())

	count, err := db.DocumentRepository().CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestDatabase_Reembed(t *testing.T) {
	ctx := context.Background()
	db := openTest(t, t.TempDir())
	defer db.Close()

	pipeline, err := db.NewIngestionPipeline()
	require.NoError(t, err)
	defer pipeline.Release()
	_, err = pipeline.Ingest(ctx, testCases())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, db.NewReembedder(&reembed.Config{
		BatchSize:      4,
		ReportInterval: 4,
		MaxRetries:     1,
	}, &buf).Run(ctx))
	assert.Contains(t, buf.String(), "Reembedding complete")

	cp, err := db.CheckpointRepository().LoadCheckpoint(ctx, reembed.ProcessorType)
	require.NoError(t, err)
	assert.Nil(t, cp)
}
