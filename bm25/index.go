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


package bm25

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/poiesic/caselens/core"
)

const (
	// DefaultK1 is the default term frequency saturation.
	DefaultK1 = 1.5
	// DefaultB is the default document length normalization.
	DefaultB = 0.75
	// DefaultDelimiter separates tokens in document and query text.
	DefaultDelimiter = " "
	// DefaultTopK is the number of hits callers ask for when they have no preference.
	DefaultTopK = 10
)

// Hit is a scored corpus document. Score is always positive.
type Hit struct {
	Document *core.Document
	Score    float64
}

// Index is an append-only BM25 corpus with a lazily rebuilt model.
type Index struct {
	mu sync.RWMutex

	k1        float64
	b         float64
	delimiter string
	logger    *slog.Logger

	docs   []*core.Document
	tokens [][]string
	dirty  bool

	// model, valid while !dirty
	freqs   []map[string]int
	lengths []int
	idf     map[string]float64
	avgLen  float64
}

// NewIndex creates an empty index.
func NewIndex(opts ...Option) (*Index, error) {
	ix := &Index{
		k1:        DefaultK1,
		b:         DefaultB,
		delimiter: DefaultDelimiter,
		logger:    slog.Default(),
		idf:       map[string]float64{},
	}
	for _, opt := range opts {
		if err := opt(ix); err != nil {
			return nil, err
		}
	}
	ix.logger = ix.logger.With("component", "bm25")
	return ix, nil
}

// Tokenize splits text on the index delimiter, dropping empty tokens.
func (ix *Index) Tokenize(text string) []string {
	parts := strings.Split(text, ix.delimiter)
	tokens := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

// Index appends a document to the corpus and marks the model dirty.
// The document is retained by reference and returned as-is from searches.
func (ix *Index) Index(doc *core.Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", core.ErrInvalidDocument)
	}
	return ix.IndexTokens(doc, ix.Tokenize(doc.Text))
}

// IndexTokens is Index with pre-tokenized text. Blank tokens are dropped.
func (ix *Index) IndexTokens(doc *core.Document, tokens []string) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", core.ErrInvalidDocument)
	}
	tokens = nonEmpty(tokens)
	if len(tokens) == 0 {
		return fmt.Errorf("%w: document %q", ErrEmptyText, doc.ID)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.docs = append(ix.docs, doc)
	ix.tokens = append(ix.tokens, tokens)
	ix.dirty = true
	return nil
}

func nonEmpty(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// Search tokenizes query and returns up to topK documents with a positive
// score, best first. Ties keep corpus order. A topK above the corpus size is
// clamped.
func (ix *Index) Search(query string, topK int) ([]Hit, error) {
	return ix.SearchTokens(ix.Tokenize(query), topK)
}

// SearchTokens is Search over pre-tokenized query terms. A term repeated in
// the query contributes once per occurrence.
func (ix *Index) SearchTokens(query []string, topK int) ([]Hit, error) {
	if len(query) == 0 {
		return nil, ErrEmptyQuery
	}
	if topK < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTopK, topK)
	}

	ix.mu.RLock()
	if !ix.dirty {
		hits := ix.score(query, topK)
		ix.mu.RUnlock()
		return hits, nil
	}
	ix.mu.RUnlock()

	ix.mu.Lock()
	defer ix.mu.Unlock()
	// another search may have rebuilt while we waited
	if ix.dirty {
		ix.rebuild()
	}
	return ix.score(query, topK), nil
}

// rebuild recomputes term statistics over the whole corpus. Callers hold the write lock.
func (ix *Index) rebuild() {
	start := time.Now()
	n := len(ix.docs)

	freqs := make([]map[string]int, n)
	lengths := make([]int, n)
	df := make(map[string]int)
	total := 0
	for i, tokens := range ix.tokens {
		tf := make(map[string]int, len(tokens))
		for _, t := range tokens {
			tf[t]++
		}
		for t := range tf {
			df[t]++
		}
		freqs[i] = tf
		lengths[i] = len(tokens)
		total += len(tokens)
	}

	idf := make(map[string]float64, len(df))
	for t, f := range df {
		idf[t] = math.Log((float64(n)-float64(f)+0.5)/(float64(f)+0.5) + 1)
	}

	ix.freqs = freqs
	ix.lengths = lengths
	ix.idf = idf
	ix.avgLen = 0
	if n > 0 {
		ix.avgLen = float64(total) / float64(n)
	}
	ix.dirty = false

	ix.logger.Debug("rebuilt model",
		"documents", n, "terms", len(idf), "avg_length", ix.avgLen, "duration", time.Since(start))
}

// score ranks the corpus against query. Callers hold at least the read lock
// and the model is built.
func (ix *Index) score(query []string, topK int) []Hit {
	candidates := make([]candidate, 0, len(ix.freqs))
	for i, tf := range ix.freqs {
		s := ix.scoreDocument(query, tf, ix.lengths[i])
		if s > 0 {
			candidates = append(candidates, candidate{pos: i, score: s})
		}
	}

	top := selectTop(candidates, min(topK, len(ix.docs)))
	hits := make([]Hit, len(top))
	for i, c := range top {
		hits[i] = Hit{Document: ix.docs[c.pos], Score: c.score}
	}
	return hits
}

func (ix *Index) scoreDocument(query []string, tf map[string]int, length int) float64 {
	norm := ix.k1 * (1 - ix.b + ix.b*float64(length)/ix.avgLen)
	var s float64
	for _, t := range query {
		f, ok := tf[t]
		if !ok {
			continue
		}
		freq := float64(f)
		s += ix.idf[t] * freq * (ix.k1 + 1) / (freq + norm)
	}
	return s
}
