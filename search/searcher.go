package search

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/caselens/ai"
	"github.com/poiesic/caselens/bm25"
	"github.com/poiesic/caselens/core"
	"github.com/poiesic/caselens/rank"
	"github.com/poiesic/caselens/segment"
	"github.com/poiesic/caselens/storage"
)

const (
	// DefaultCandidates is how many stored fragments are fetched per query fragment.
	DefaultCandidates = 20

	// DefaultMinSimilarity is the lowest cosine similarity a stored fragment
	// needs to become a candidate. It must stay above the aggregator's epsilon,
	// or unrelated fragments would take the diversity sentinel.
	DefaultMinSimilarity = 0.6

	// LexicalScore names the score carried by SearchText matches.
	LexicalScore = "bm25"

	// CosineDistance names the 1 - cosine score carried by vector candidates.
	CosineDistance = "cosine_distance"

	// L2Distance names the euclidean distance between the unit query and
	// stored vectors carried by vector candidates.
	L2Distance = "l2"
)

// vectorMetrics maps every score set on vector candidates to whether it is a distance.
var vectorMetrics = map[string]bool{
	rank.DefaultMetric: false,
	CosineDistance:     true,
	L2Distance:         true,
}

// IsDistanceMetric reports whether metric is one of the distance scores set
// on vector candidates, where lower is better.
func IsDistanceMetric(metric string) bool {
	return vectorMetrics[metric]
}

// Searcher finds stored cases similar to query documents.
type Searcher struct {
	fragmentRepository storage.FragmentRepository
	embedder           ai.Embedder
	segmenter          *segment.QuerySegmenter
	aggregator         *rank.Aggregator
	lexicalIndex       *bm25.Index
	candidates         int
	minSimilarity      float32
	pool               *ants.Pool
	logger             *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithAggregator sets the aggregator ranking fragment candidates.
// Default is rank.NewAggregator() with no options.
func WithAggregator(aggregator *rank.Aggregator) Option {
	return func(s *Searcher) error {
		if aggregator == nil {
			return fmt.Errorf("%w: nil aggregator", ErrInvalidOption)
		}
		s.aggregator = aggregator
		return nil
	}
}

// WithSegmenter sets the query segmenter.
// Default is segment.NewQuerySegmenter() with no options.
func WithSegmenter(segmenter *segment.QuerySegmenter) Option {
	return func(s *Searcher) error {
		if segmenter == nil {
			return fmt.Errorf("%w: nil segmenter", ErrInvalidOption)
		}
		s.segmenter = segmenter
		return nil
	}
}

// WithLexicalIndex enables SearchText over a BM25 index.
func WithLexicalIndex(index *bm25.Index) Option {
	return func(s *Searcher) error {
		s.lexicalIndex = index
		return nil
	}
}

// WithCandidates sets how many stored fragments are fetched per query fragment.
func WithCandidates(n int) Option {
	return func(s *Searcher) error {
		if n < 1 {
			return fmt.Errorf("%w: candidates %d", ErrInvalidOption, n)
		}
		s.candidates = n
		return nil
	}
}

// WithMinSimilarity drops stored fragments whose cosine similarity to the
// query fragment is below min. Default is DefaultMinSimilarity.
func WithMinSimilarity(min float32) Option {
	return func(s *Searcher) error {
		s.minSimilarity = min
		return nil
	}
}

// WithPoolSize sets the worker pool size used by FindMatchesBatch.
// Default is runtime.NumCPU(), with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(s *Searcher) error {
		pool, err := ants.NewPool(max(size, 1))
		if err != nil {
			return err
		}
		if s.pool != nil {
			s.pool.Release()
		}
		s.pool = pool
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	fragmentRepository storage.FragmentRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Searcher, error) {
	if fragmentRepository == nil {
		return nil, ErrFragmentRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	pool, err := ants.NewPool(max(runtime.NumCPU(), 1))
	if err != nil {
		return nil, err
	}

	s := &Searcher{
		fragmentRepository: fragmentRepository,
		embedder:           provider.Embedder(),
		candidates:         DefaultCandidates,
		minSimilarity:      DefaultMinSimilarity,
		pool:               pool,
		logger:             slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			s.Release()
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "searcher")

	if s.segmenter == nil {
		if s.segmenter, err = segment.NewQuerySegmenter(segment.WithLogger(s.logger)); err != nil {
			s.Release()
			return nil, err
		}
	}
	if s.aggregator == nil {
		if s.aggregator, err = rank.NewAggregator(rank.WithLogger(s.logger)); err != nil {
			s.Release()
			return nil, err
		}
	}

	return s, nil
}

// NewQuery wraps free text in a query document with a random ID.
func NewQuery(text string) *core.Document {
	return &core.Document{ID: uuid.NewString(), Text: text}
}

// FindMatches searches for the stored cases most similar to the query.
// The query's fragments are replaced by its segmentation, then cleared by
// aggregation; its Matches hold the ranked result, which is also returned.
func (s *Searcher) FindMatches(ctx context.Context, query *core.Document, req *rank.Request) ([]*core.Match, error) {
	return s.FindMatchesWithMonitor(ctx, query, req, nil)
}

// FindMatchesWithMonitor is FindMatches with callbacks at each stage.
func (s *Searcher) FindMatchesWithMonitor(ctx context.Context, query *core.Document, req *rank.Request, monitor SearchMonitor) ([]*core.Match, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req != nil && req.Metric != "" {
		if _, ok := vectorMetrics[req.Metric]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, req.Metric)
		}
	}

	monitor.Start(query)

	// 1. Segment the query
	fragments, err := s.segmenter.Segment(query)
	if err != nil {
		return nil, err
	}
	monitor.AfterSegmentation(fragments)

	// 2. Embed query fragments and their clause sub-fragments
	flat := segment.Flatten(fragments)
	if err := s.embed(ctx, flat); err != nil {
		s.logger.Error("error generating embeddings for query", "query", query.ID, "err", err)
		return nil, err
	}
	monitor.AfterEmbedding(flat)

	// 3. Fetch stored fragments similar to each query fragment
	for _, f := range flat {
		results, err := s.fragmentRepository.FindSimilar(ctx, f.Vector, s.minSimilarity, s.candidates)
		if err != nil {
			s.logger.Error("error querying for similar fragments", "query", query.ID, "err", err)
			return nil, err
		}
		f.Matches = candidates(results)
		monitor.FragmentCandidates(f, f.Matches)
	}

	// 4. Aggregate into document-level matches
	if err := s.aggregator.Aggregate(query, req); err != nil {
		return nil, err
	}
	monitor.Finish(query.Matches)

	s.logger.Debug("found matches", "query", query.ID, "fragments", len(flat), "matches", len(query.Matches))
	return query.Matches, nil
}

func (s *Searcher) embed(ctx context.Context, fragments []*core.Fragment) error {
	if len(fragments) == 0 {
		return nil
	}
	texts := make([]string, len(fragments))
	for i, f := range fragments {
		texts[i] = f.Text
	}
	vectors, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(fragments) {
		return fmt.Errorf("%w: expected %d, received %d", ErrEmbeddingMismatch, len(fragments), len(vectors))
	}
	for i := range vectors {
		fragments[i].Vector = ai.NormalizeVector(vectors[i])
	}
	return nil
}

// candidates converts vector search results into fragment-level match
// candidates. Vectors are unit length, so both distances follow from the
// cosine similarity.
func candidates(results []*core.SearchResult) []*core.Match {
	matches := make([]*core.Match, 0, len(results))
	for _, r := range results {
		f := r.Fragment
		m := &core.Match{
			ID:       f.ID.String(),
			ParentID: f.ParentID,
			Modality: f.Modality,
			Location: f.Location,
			Text:     f.Text,
		}
		cos := float64(r.Score)
		m.SetScore(rank.DefaultMetric, cos)
		m.SetScore(CosineDistance, 1-cos)
		m.SetScore(L2Distance, math.Sqrt(max(0, 2-2*cos)))
		matches = append(matches, m)
	}
	return matches
}

// BatchResult is the outcome of one query of FindMatchesBatch.
type BatchResult struct {
	Query   *core.Document
	Matches []*core.Match
	Err     error
}

// FindMatchesBatch runs FindMatches for every query on the worker pool.
// Results follow the order of queries; a failing query never affects the
// others. The error is non-nil only when ctx ends before all queries were
// submitted.
func (s *Searcher) FindMatchesBatch(ctx context.Context, queries []*core.Document, req *rank.Request) ([]BatchResult, error) {
	results := make([]BatchResult, len(queries))
	var wg sync.WaitGroup

	var ctxErr error
	for i, q := range queries {
		res := &results[i]
		res.Query = q
		if ctxErr = ctx.Err(); ctxErr != nil {
			res.Err = ctxErr
			continue
		}
		if q == nil {
			res.Err = fmt.Errorf("%w: query is nil", core.ErrInvalidDocument)
			continue
		}

		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			res.Matches, res.Err = s.FindMatches(ctx, q, req)
			if res.Err != nil {
				s.logger.Warn("query failed", "query", q.ID, "err", res.Err)
			}
		})
		if err != nil {
			wg.Done()
			res.Err = err
		}
	}
	wg.Wait()

	return results, ctxErr
}

// SearchText ranks stored cases lexically against text with BM25 and returns
// up to topK document-level matches carrying the LexicalScore. Query terms are
// the punctuation and whitespace separated clauses of text.
func (s *Searcher) SearchText(ctx context.Context, text string, topK int) ([]*core.Match, error) {
	if s.lexicalIndex == nil {
		return nil, ErrLexicalIndexRequired
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hits, err := s.lexicalIndex.SearchTokens(segment.Terms(text, nil), topK)
	if err != nil {
		return nil, err
	}

	matches := make([]*core.Match, len(hits))
	for i, hit := range hits {
		m := &core.Match{
			ID:        hit.Document.ID,
			ParentID:  hit.Document.ID,
			Modality:  core.Name,
			Text:      hit.Document.Text,
			Diversity: 1,
		}
		m.SetScore(LexicalScore, hit.Score)
		matches[i] = m
	}
	s.logger.Debug("lexical search", "terms", text, "hits", len(matches))
	return matches, nil
}

// Release releases the batch worker pool.
// The searcher should not be used after calling Release.
func (s *Searcher) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}
