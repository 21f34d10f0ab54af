package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/poiesic/caselens/ai"
	"github.com/poiesic/caselens/bm25"
	"github.com/poiesic/caselens/core"
	"github.com/poiesic/caselens/rank"
	"github.com/poiesic/caselens/search"
	"github.com/poiesic/caselens/segment"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is read when --config is not given.
const DefaultConfigPath = "caselens.yaml"

// EmbeddingConfig configures the OpenAI-compatible embedding service.
type EmbeddingConfig struct {
	Host      string `yaml:"host"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	BatchSize int    `yaml:"batch_size"`
}

// SegmentConfig configures case segmentation. Fields lists the optional case
// fields to index, such as title or causes. Truncation maps a modality to
// "head" or "tail".
type SegmentConfig struct {
	MaxLength  int               `yaml:"max_length"`
	SkipTags   []string          `yaml:"skip_tags,omitempty"`
	Fields     []string          `yaml:"fields,omitempty"`
	Truncation map[string]string `yaml:"truncation,omitempty"`
}

// SearchConfig holds the vector search defaults. MinSimilarity is a pointer
// so that an explicit 0 disables the similarity floor.
type SearchConfig struct {
	TopK          int      `yaml:"top_k"`
	Traversal     string   `yaml:"traversal"`
	Metric        string   `yaml:"metric"`
	Distance      bool     `yaml:"distance"`
	Candidates    int      `yaml:"candidates"`
	MinSimilarity *float32 `yaml:"min_similarity"`
}

// LexicalConfig holds the BM25 parameters.
type LexicalConfig struct {
	K1   float64 `yaml:"k1"`
	B    float64 `yaml:"b"`
	TopK int     `yaml:"top_k"`
}

// IngestConfig sizes the ingestion pipeline.
type IngestConfig struct {
	PoolSize       int `yaml:"pool_size"`
	EmbedBatchSize int `yaml:"embed_batch_size"`
}

// Config is the CLI configuration file.
type Config struct {
	DB        string          `yaml:"db"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Segment   SegmentConfig   `yaml:"segment"`
	Search    SearchConfig    `yaml:"search"`
	Lexical   LexicalConfig   `yaml:"lexical"`
	Ingest    IngestConfig    `yaml:"ingest"`
}

// LoadConfig reads path. A missing file yields the defaults; fields absent
// from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

func defaultConfig() *Config {
	cfg := &Config{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *Config) {
	defaults := ai.DefaultConfig()
	if cfg.DB == "" {
		cfg.DB = "./caselens_db"
	}
	if cfg.Embedding.Host == "" {
		cfg.Embedding.Host = defaults.EmbeddingHost
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = defaults.EmbeddingModel
	}
	if cfg.Embedding.APIKeyEnv == "" {
		cfg.Embedding.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = defaults.BatchSize
	}
	if cfg.Segment.MaxLength == 0 {
		cfg.Segment.MaxLength = core.DefaultMaxFragmentLength
	}
	if cfg.Search.TopK == 0 {
		cfg.Search.TopK = rank.DefaultLimit
	}
	if cfg.Search.Traversal == "" {
		cfg.Search.Traversal = rank.DepthRoot.String()
	}
	if cfg.Search.Metric == "" {
		cfg.Search.Metric = rank.DefaultMetric
	}
	if cfg.Search.Candidates == 0 {
		cfg.Search.Candidates = search.DefaultCandidates
	}
	if cfg.Search.MinSimilarity == nil {
		floor := float32(search.DefaultMinSimilarity)
		cfg.Search.MinSimilarity = &floor
	}
	if cfg.Lexical.K1 == 0 {
		cfg.Lexical.K1 = bm25.DefaultK1
	}
	if cfg.Lexical.B == 0 {
		cfg.Lexical.B = bm25.DefaultB
	}
	if cfg.Lexical.TopK == 0 {
		cfg.Lexical.TopK = bm25.DefaultTopK
	}
}

// AIConfig builds the embedding configuration, reading the API key from the
// environment variable named by APIKeyEnv.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.Embedding.Host),
		ai.WithEmbeddingModel(c.Embedding.Model),
		ai.WithAPIKey(os.Getenv(c.Embedding.APIKeyEnv)),
		ai.WithBatchSize(c.Embedding.BatchSize),
	)
}

// SegmentOptions translates the segment section into segmenter options.
func (c *Config) SegmentOptions() ([]segment.Option, error) {
	opts := []segment.Option{segment.WithMaxLength(c.Segment.MaxLength)}
	if c.Segment.SkipTags != nil {
		opts = append(opts, segment.WithSkipTags(c.Segment.SkipTags...))
	}

	fields := make([]core.Modality, 0, len(c.Segment.Fields))
	for _, name := range c.Segment.Fields {
		m, err := core.ParseModality(name)
		if err != nil {
			return nil, fmt.Errorf("segment field %q: %w", name, err)
		}
		fields = append(fields, m)
	}
	if len(fields) > 0 {
		opts = append(opts, segment.WithFields(fields...))
	}

	for name, dir := range c.Segment.Truncation {
		m, err := core.ParseModality(name)
		if err != nil {
			return nil, fmt.Errorf("truncation modality %q: %w", name, err)
		}
		d, err := segment.ParseDirection(dir)
		if err != nil {
			return nil, err
		}
		opts = append(opts, segment.WithTruncation(m, d))
	}
	return opts, nil
}
