package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/caselens/ai"
	"github.com/poiesic/caselens/bm25"
	"github.com/poiesic/caselens/core"
	"github.com/poiesic/caselens/segment"
	"github.com/poiesic/caselens/storage"
)

// DefaultEmbedBatchSize is the number of fragments embedded per request.
const DefaultEmbedBatchSize = 64

// Pipeline orchestrates the ingestion of legal cases.
// Embeddings are generated concurrently on a worker pool.
type Pipeline struct {
	documentRepository storage.DocumentRepository
	fragmentRepository storage.FragmentRepository
	segmenter          *segment.IndexSegmenter
	lexicalIndex       *bm25.Index
	embeddingPool      *ants.Pool
	embeddingProc      processor
	lexicalProc        processor
	embedBatchSize     int
	logger             *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if p.embeddingPool != nil {
			p.embeddingPool.Release()
		}
		p.embeddingPool = pool
		return nil
	}
}

// WithEmbedBatchSize sets how many fragments are embedded per request.
func WithEmbedBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return fmt.Errorf("%w: embed batch size %d", ErrInvalidOption, size)
		}
		p.embedBatchSize = size
		return nil
	}
}

// WithSegmenter sets the segmenter used to split cases into fragments.
// Default is segment.NewIndexSegmenter() with no options.
func WithSegmenter(segmenter *segment.IndexSegmenter) Option {
	return func(p *Pipeline) error {
		if segmenter == nil {
			return fmt.Errorf("%w: nil segmenter", ErrInvalidOption)
		}
		p.segmenter = segmenter
		return nil
	}
}

// WithLexicalIndex feeds every stored case to a BM25 index.
// Without it the pipeline skips lexical indexing.
func WithLexicalIndex(index *bm25.Index) Option {
	return func(p *Pipeline) error {
		p.lexicalIndex = index
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	documentRepository storage.DocumentRepository,
	fragmentRepository storage.FragmentRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Pipeline, error) {
	if documentRepository == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if fragmentRepository == nil {
		return nil, ErrFragmentRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := max(runtime.NumCPU()/2, 1)
	embeddingPool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		documentRepository: documentRepository,
		fragmentRepository: fragmentRepository,
		embeddingPool:      embeddingPool,
		embedBatchSize:     DefaultEmbedBatchSize,
		logger:             slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.logger = p.logger.With("component", "ingestion")

	if p.segmenter == nil {
		p.segmenter, err = segment.NewIndexSegmenter(segment.WithLogger(p.logger))
		if err != nil {
			p.Release()
			return nil, err
		}
	}

	// Processors are created after options so they get the final config
	p.embeddingProc, err = newEmbeddingProcessor(fragmentRepository, provider.Embedder(), p.embedBatchSize, p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}
	if p.lexicalIndex != nil {
		p.lexicalProc = newLexicalProcessor(p.lexicalIndex, p.logger)
	}

	return p, nil
}

// Ingest segments and stores each case, adds it to the lexical index and
// embeds its fragments. Cases are isolated from each other: the returned
// Report lists the outcome of every case. The error is non-nil only when ctx
// ends before all cases were attempted; the Report then covers the cases
// handled so far.
func (p *Pipeline) Ingest(ctx context.Context, cases []*Case) (*Report, error) {
	results := make([]result, len(cases))
	var wg sync.WaitGroup

	var ctxErr error
	for i, c := range cases {
		if ctxErr = ctx.Err(); ctxErr != nil {
			break
		}
		res := &results[i]
		if c == nil {
			res.outcome, res.err = failed, fmt.Errorf("%w: nil case", core.ErrInvalidDocument)
			continue
		}
		res.id = c.ID

		doc, fragments, err := p.store(ctx, c)
		if err != nil {
			p.logger.Warn("case not stored", "document", c.ID, "err", err)
			res.outcome, res.err = failed, err
			continue
		}
		if doc == nil {
			p.logger.Warn("case produced no fragments", "document", c.ID)
			res.outcome = skipped
			continue
		}

		wg.Add(1)
		submitErr := p.embeddingPool.Submit(func() {
			defer wg.Done()
			if err := p.embeddingProc.process(ctx, doc, fragments); err != nil {
				p.logger.Error("error processing embeddings", "document", doc.ID, "err", err)
				res.outcome, res.err = failed, fmt.Errorf("embedding: %w", err)
				return
			}
			res.outcome = indexed
		})
		if submitErr != nil {
			wg.Done()
			res.outcome, res.err = failed, submitErr
		}
	}
	wg.Wait()

	report := buildReport(results)
	p.logger.Info("ingested cases",
		"indexed", len(report.Indexed), "skipped", len(report.Skipped), "failed", len(report.Failed))
	return report, ctxErr
}

// store segments a case and persists it. A nil document means the case had no fragments.
func (p *Pipeline) store(ctx context.Context, c *Case) (*core.Document, []*core.Fragment, error) {
	doc := &core.Document{ID: c.ID}
	if c.Source != nil {
		doc.Text = strings.TrimSpace(c.Source.Title)
		doc.Metadata = c.Source.Metadata()
	}

	fragments, err := p.segmenter.Segment(doc, c.Source)
	if err != nil {
		return nil, nil, err
	}
	if len(fragments) == 0 {
		return nil, nil, nil
	}
	if len(segment.Terms(doc.Text, doc.Metadata)) == 0 {
		return nil, nil, fmt.Errorf("%w: %w: document %q", ErrNoLexicalTerms, bm25.ErrEmptyText, doc.ID)
	}
	flat := segment.Flatten(fragments)

	if _, err := p.documentRepository.AddDocuments(ctx, doc); err != nil {
		return nil, nil, err
	}
	if _, err := p.fragmentRepository.AddFragments(ctx, flat...); err != nil {
		return nil, nil, err
	}

	if p.lexicalProc != nil {
		if err := p.lexicalProc.process(ctx, doc, flat); err != nil {
			p.logger.Warn("case not lexically indexed", "document", doc.ID, "err", err)
		}
	}
	return doc, flat, nil
}

// Release releases resources including worker pools.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.embeddingPool != nil {
		p.embeddingPool.Release()
	}
}
