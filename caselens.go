// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package caselens

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/poiesic/caselens/ai"
	"github.com/poiesic/caselens/ai/openai"
	"github.com/poiesic/caselens/bm25"
	"github.com/poiesic/caselens/core"
	"github.com/poiesic/caselens/ingestion"
	"github.com/poiesic/caselens/reembed"
	"github.com/poiesic/caselens/search"
	"github.com/poiesic/caselens/storage"
	"github.com/poiesic/caselens/storage/badger"
)

// Database is an opened case corpus: its repositories, the lexical index
// rebuilt from the stored documents and the embedding provider.
type Database struct {
	repos    *badger.Repositories
	lexical  *bm25.Index
	provider ai.AIProvider
	base     *slog.Logger
	logger   *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig    *ai.Config
	provider    ai.AIProvider
	inMemory    bool
	bm25Options []bm25.Option
	logger      *slog.Logger
}

// WithAIConfig sets the configuration of the default OpenAI-compatible provider.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = config
	}
}

// WithAIProvider uses provider instead of building one from the AI config.
// The database closes it on Close.
func WithAIProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithInMemory keeps all data in memory and ignores the path.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// WithLexicalOptions configures the BM25 index.
func WithLexicalOptions(opts ...bm25.Option) DatabaseOption {
	return func(o *databaseOptions) {
		o.bm25Options = append(o.bm25Options, opts...)
	}
}

// WithLogger sets the logger. A nil logger means slog.Default().
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = logger
	}
}

// Open opens or creates the database at filePath and rebuilds the lexical
// index from the documents already stored there.
func Open(ctx context.Context, filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	logger := options.logger.With("component", "database")

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}
	repos, err := badger.NewRepositories(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	lexical, err := bm25.NewIndex(append([]bm25.Option{bm25.WithLogger(options.logger)}, options.bm25Options...)...)
	if err != nil {
		repos.Close()
		return nil, err
	}
	err = repos.Documents.ForEachDocument(ctx, func(doc *core.Document) error {
		err := ingestion.IndexLexical(lexical, doc)
		if errors.Is(err, bm25.ErrEmptyText) {
			logger.Warn("document has no lexical terms", "document", doc.ID)
			return nil
		}
		return err
	})
	if err != nil {
		repos.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			repos.Close()
			return nil, err
		}
	}

	logger.Info("opened database", "path", filePath, "documents", lexical.Len())
	return &Database{
		repos:    repos,
		lexical:  lexical,
		provider: provider,
		base:     options.logger,
		logger:   logger,
	}, nil
}

// Close releases the AI provider, then the storage.
func (db *Database) Close() error {
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}
	if err := db.repos.Close(); err != nil {
		db.logger.Error("error closing storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) DocumentRepository() storage.DocumentRepository {
	return db.repos.Documents
}

func (db *Database) FragmentRepository() storage.FragmentRepository {
	return db.repos.Fragments
}

func (db *Database) CheckpointRepository() storage.CheckpointRepository {
	return db.repos.Checkpoints
}

// LexicalIndex returns the BM25 index shared by pipelines and searchers.
func (db *Database) LexicalIndex() *bm25.Index {
	return db.lexical
}

// NewIngestionPipeline creates a pipeline writing to this database and its
// lexical index. Options override the defaults.
func (db *Database) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	opts = append([]ingestion.Option{
		ingestion.WithLexicalIndex(db.lexical),
		ingestion.WithLogger(db.base),
	}, opts...)
	return ingestion.NewPipeline(db.repos.Documents, db.repos.Fragments, db.provider, opts...)
}

// NewSearcher creates a searcher over this database and its lexical index.
func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	opts = append([]search.Option{
		search.WithLexicalIndex(db.lexical),
		search.WithLogger(db.base),
	}, opts...)
	return search.NewSearcher(db.repos.Fragments, db.provider, opts...)
}

// NewReembedder creates a re-embedder over the stored fragments using the
// database's embedder. A nil config uses reembed.DefaultConfig.
func (db *Database) NewReembedder(config *reembed.Config, progress io.Writer) *reembed.Reembedder {
	return reembed.NewReembedder(db.repos.Fragments, db.repos.Checkpoints, db.provider.Embedder(), config, progress)
}
