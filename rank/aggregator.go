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


package rank

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"

	"github.com/poiesic/caselens/core"
)

const (
	// DefaultLimit is the default number of document-level matches kept.
	DefaultLimit = 5

	// DefaultMetric is the default score read from match candidates.
	DefaultMetric = "cosine"

	// DefaultEpsilon is the raw score at or below which a representative match
	// gets DiversityCeiling instead of its modality count.
	DefaultEpsilon = 1e-5

	// DefaultDiversityCeiling is the sentinel diversity of near-zero matches.
	DefaultDiversityCeiling = math.MaxInt32

	// DiversityScore names the score entry recording a match's diversity.
	DiversityScore = "diversity"
)

// Depth selects which level of the fragment tree receives aggregated matches.
// A node at the selected depth collects the candidates of its direct children.
type Depth int

const (
	// DepthRoot aggregates onto the document from its fragments.
	DepthRoot Depth = iota
	// DepthFragment aggregates onto each fragment from its sub-fragments.
	DepthFragment
	// DepthSubFragment aggregates onto each sub-fragment. Sub-fragments are
	// leaves, so they always end with an empty match list.
	DepthSubFragment
)

// ParseDepth accepts "root"/"r", "fragment"/"c" and "sub-fragment"/"cc".
func ParseDepth(s string) (Depth, error) {
	switch s {
	case "", "root", "r":
		return DepthRoot, nil
	case "fragment", "c":
		return DepthFragment, nil
	case "sub-fragment", "subfragment", "cc":
		return DepthSubFragment, nil
	}
	return DepthRoot, fmt.Errorf("%w: %q", ErrInvalidDepth, s)
}

func (d Depth) String() string {
	switch d {
	case DepthRoot:
		return "root"
	case DepthFragment:
		return "fragment"
	case DepthSubFragment:
		return "sub-fragment"
	}
	return "depth(" + strconv.Itoa(int(d)) + ")"
}

// Request carries per-call overrides. Zero fields fall back to the
// aggregator's configuration; IsDistance is only read when Metric is set.
type Request struct {
	Limit      int
	Depth      *Depth
	Metric     string
	IsDistance bool
}

// Aggregator turns fragment-level match candidates into a short ranked list of
// document-level matches. It holds no per-call state and is safe for concurrent
// use on distinct documents.
type Aggregator struct {
	limit            int
	depth            Depth
	metric           string
	isDistance       bool
	epsilon          float64
	diversityCeiling int
	trace            bool
	logger           *slog.Logger
}

// NewAggregator creates an aggregator with the defaults of DefaultLimit,
// DepthRoot, DefaultMetric in similarity mode, DefaultEpsilon and
// DefaultDiversityCeiling, with tracing enabled.
func NewAggregator(opts ...Option) (*Aggregator, error) {
	a := &Aggregator{
		limit:            DefaultLimit,
		depth:            DepthRoot,
		metric:           DefaultMetric,
		epsilon:          DefaultEpsilon,
		diversityCeiling: DefaultDiversityCeiling,
		trace:            true,
		logger:           slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

type settings struct {
	limit      int
	depth      Depth
	metric     string
	isDistance bool
}

func (a *Aggregator) resolve(req *Request) (settings, error) {
	s := settings{limit: a.limit, depth: a.depth, metric: a.metric, isDistance: a.isDistance}
	if req != nil {
		if req.Limit != 0 {
			s.limit = req.Limit
		}
		if req.Depth != nil {
			s.depth = *req.Depth
		}
		if req.Metric != "" {
			s.metric = req.Metric
			s.isDistance = req.IsDistance
		}
	}
	if s.limit <= 0 {
		return s, fmt.Errorf("%w: %d", ErrInvalidLimit, s.limit)
	}
	if s.depth < DepthRoot || s.depth > DepthSubFragment {
		return s, fmt.Errorf("%w: %d", ErrInvalidDepth, s.depth)
	}
	return s, nil
}

// node is one aggregation target: a document or a fragment.
type node struct {
	children *[]*core.Fragment
	matches  *[]*core.Match
}

func targets(doc *core.Document, depth Depth) []node {
	if depth == DepthRoot {
		return []node{{children: &doc.Fragments, matches: &doc.Matches}}
	}
	var nodes []node
	for _, f := range doc.Fragments {
		if f == nil {
			continue
		}
		if depth == DepthFragment {
			nodes = append(nodes, node{children: &f.Fragments, matches: &f.Matches})
			continue
		}
		for _, sub := range f.Fragments {
			if sub != nil {
				nodes = append(nodes, node{children: &sub.Fragments, matches: &sub.Matches})
			}
		}
	}
	return nodes
}

// Aggregate groups the match candidates carried by the document's fragments by
// parent document, keeps the best candidate of each group as a document-level
// match and ranks the result by modality diversity then score.
//
// The document's fragments are cleared and its match list replaced. Candidates
// without a parent-document identifier, candidates missing the score metric and a
// non-positive limit are rejected before anything is mutated.
//
// Ties are broken first-seen-wins: groups keep the order in which their first
// candidate appears while walking fragments in order, and both sorts are stable.
func (a *Aggregator) Aggregate(doc *core.Document, req *Request) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", core.ErrInvalidDocument)
	}
	s, err := a.resolve(req)
	if err != nil {
		return err
	}

	nodes := targets(doc, s.depth)
	flattened := make([][]*core.Match, len(nodes))
	for i, n := range nodes {
		candidates, err := flatten(*n.children)
		if err != nil {
			return fmt.Errorf("document %q: %w", doc.ID, err)
		}
		for _, c := range candidates {
			v, ok := c.ScoreValue(s.metric)
			if !ok {
				return fmt.Errorf("document %q: %w: %q on candidate %q", doc.ID, ErrMissingScore, s.metric, c.ID)
			}
			if math.IsNaN(v) {
				return fmt.Errorf("document %q: %w: %q on candidate %q", doc.ID, ErrInvalidScore, s.metric, c.ID)
			}
		}
		flattened[i] = candidates
	}

	for i, n := range nodes {
		*n.matches = a.rank(flattened[i], s)
		*n.children = nil
	}

	a.logger.Debug("aggregated document",
		"document", doc.ID, "depth", s.depth.String(), "matches", len(doc.Matches))
	return nil
}

// flatten collects the candidates of all fragments, in fragment order.
func flatten(fragments []*core.Fragment) ([]*core.Match, error) {
	var out []*core.Match
	for _, f := range fragments {
		if f == nil {
			continue
		}
		for _, m := range f.Matches {
			if err := core.ValidateMatch(m); err != nil {
				return nil, err
			}
			out = append(out, m)
		}
	}
	return out, nil
}

type group struct {
	key        string
	candidates []*core.Match
}

// groupByParent groups candidates by parent id, keeping first-seen order of groups.
func groupByParent(candidates []*core.Match) []*group {
	index := make(map[string]*group)
	var groups []*group
	for _, c := range candidates {
		g, ok := index[c.ParentID]
		if !ok {
			g = &group{key: c.ParentID}
			index[c.ParentID] = g
			groups = append(groups, g)
		}
		g.candidates = append(g.candidates, c)
	}
	return groups
}

func (a *Aggregator) rank(candidates []*core.Match, s settings) []*core.Match {
	if len(candidates) == 0 {
		return []*core.Match{}
	}

	better := func(x, y *core.Match) int {
		xv, _ := x.ScoreValue(s.metric)
		yv, _ := y.ScoreValue(s.metric)
		return compareScores(xv, yv, s.isDistance)
	}

	groups := groupByParent(candidates)
	results := make([]*core.Match, 0, len(groups))
	for _, g := range groups {
		modalities := make(map[core.Modality]struct{}, len(g.candidates))
		for _, c := range g.candidates {
			modalities[c.Modality] = struct{}{}
		}

		ordered := slices.Clone(g.candidates)
		slices.SortStableFunc(ordered, better)

		rep := ordered[0].Clone()
		rep.ID = g.key

		raw, _ := rep.ScoreValue(s.metric)
		if raw > a.epsilon {
			rep.Diversity = len(modalities)
		} else {
			rep.Diversity = a.diversityCeiling
		}
		rep.SetScore(DiversityScore, float64(rep.Diversity))

		if a.trace {
			rep.Scores[s.metric].Operands = operands(ordered, s.metric)
		}
		results = append(results, rep)
	}

	slices.SortStableFunc(results, func(x, y *core.Match) int {
		if x.Diversity != y.Diversity {
			if x.Diversity > y.Diversity {
				return -1
			}
			return 1
		}
		return better(x, y)
	})

	if len(results) > s.limit {
		results = results[:s.limit]
	}
	return results
}

// compareScores orders higher-is-better scores descending and distances ascending.
func compareScores(x, y float64, isDistance bool) int {
	if x == y {
		return 0
	}
	if (x > y) != isDistance {
		return -1
	}
	return 1
}

func operands(ordered []*core.Match, metric string) []core.ScoreOperand {
	ops := make([]core.ScoreOperand, 0, len(ordered))
	for _, m := range ordered {
		v, _ := m.ScoreValue(metric)
		ops = append(ops, core.ScoreOperand{
			Name:        strconv.Itoa(m.Location[0]),
			Value:       v,
			RefID:       m.ParentID,
			Description: m.Modality.String() + ": " + m.Text,
		})
	}
	return ops
}
