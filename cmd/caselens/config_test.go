package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/caselens/ai"
	"github.com/poiesic/caselens/rank"
	"github.com/poiesic/caselens/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)

	defaults := ai.DefaultConfig()
	assert.Equal(t, "./caselens_db", cfg.DB)
	assert.Equal(t, defaults.EmbeddingHost, cfg.Embedding.Host)
	assert.Equal(t, defaults.EmbeddingModel, cfg.Embedding.Model)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedding.APIKeyEnv)
	assert.Equal(t, rank.DefaultLimit, cfg.Search.TopK)
	assert.Equal(t, "root", cfg.Search.Traversal)
	assert.Equal(t, rank.DefaultMetric, cfg.Search.Metric)
	require.NotNil(t, cfg.Search.MinSimilarity)
	assert.Equal(t, float32(search.DefaultMinSimilarity), *cfg.Search.MinSimilarity)
	assert.Equal(t, 1.5, cfg.Lexical.K1)
	assert.Equal(t, 0.75, cfg.Lexical.B)
	assert.Equal(t, 10, cfg.Lexical.TopK)
}

func TestLoadConfig_PartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "caselens.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
db: /data/cases
embedding:
  model: bge-m3
  api_key_env: CASELENS_KEY
search:
  top_k: 3
  traversal: fragment
segment:
  fields: [title, causes]
  truncation:
    title: tail
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/cases", cfg.DB)
	assert.Equal(t, "bge-m3", cfg.Embedding.Model)
	assert.Equal(t, ai.DefaultConfig().EmbeddingHost, cfg.Embedding.Host)
	assert.Equal(t, 3, cfg.Search.TopK)
	assert.Equal(t, "fragment", cfg.Search.Traversal)
	assert.Equal(t, []string{"title", "causes"}, cfg.Segment.Fields)

	opts, err := cfg.SegmentOptions()
	require.NoError(t, err)
	assert.Len(t, opts, 3, "max length, fields and one truncation")

	t.Setenv("CASELENS_KEY", "secret")
	aiConfig := cfg.AIConfig()
	assert.Equal(t, "secret", aiConfig.APIKey)
	assert.Equal(t, "bge-m3", aiConfig.EmbeddingModel)
}

func TestLoadConfig_ZeroMinSimilarity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "caselens.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search:\n  min_similarity: 0\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Search.MinSimilarity)
	assert.Zero(t, *cfg.Search.MinSimilarity)

	require.NoError(t, os.WriteFile(path, []byte("search:\n  min_similarity: 0.25\n"), 0644))
	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, float32(0.25), *cfg.Search.MinSimilarity)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "caselens.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search: [not, a, map]\n"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSegmentOptions_Errors(t *testing.T) {
	cfg := defaultConfig()
	cfg.Segment.Fields = []string{"no-such-field"}
	_, err := cfg.SegmentOptions()
	assert.Error(t, err)

	cfg = defaultConfig()
	cfg.Segment.Truncation = map[string]string{"title": "middle"}
	_, err = cfg.SegmentOptions()
	assert.Error(t, err)
}
