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


package segment

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/poiesic/caselens/core"
)

// ParaTag is the fragment tag recording the source paragraph's tag.
const ParaTag = "para_tag"

// sentenceBreak ends a sentence inside a paragraph line.
const sentenceBreak = "。"

// IndexSegmenter splits a stored case into fragments for indexing.
type IndexSegmenter struct {
	*settings
}

// NewIndexSegmenter creates a segmenter that emits paras fragments and any
// optional fields enabled with WithFields.
func NewIndexSegmenter(opts ...Option) (*IndexSegmenter, error) {
	s, err := newSettings(opts)
	if err != nil {
		return nil, err
	}
	s.logger = s.logger.With("component", "index_segmenter")
	return &IndexSegmenter{settings: s}, nil
}

// Segment replaces doc.Fragments with the fragments of src and returns them.
// A case whose fields are all blank or skipped yields no fragments.
func (s *IndexSegmenter) Segment(doc *core.Document, src *CaseSource) ([]*core.Fragment, error) {
	if doc == nil || doc.ID == "" {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidDocument, core.ErrEmptyID)
	}
	if src == nil {
		return nil, fmt.Errorf("%w: document %q", ErrMissingSource, doc.ID)
	}

	b := builder{parent: doc.ID, truncator: s.truncator}
	// Line numbers run across every paragraph of the case so that equal
	// sentences in different paragraphs keep distinct locations.
	lineNo := 0
	for _, para := range src.Paras {
		if para.Content == "" {
			continue
		}
		lines := strings.Split(para.Content, "\n")
		first := lineNo
		lineNo += len(lines)
		if _, skip := s.skipTags[para.Tag]; skip {
			continue
		}
		for pIdx, line := range lines {
			for sIdx, sentence := range nonBlank(strings.Split(line, sentenceBreak)) {
				f := b.add(sentence, core.Paras, core.Location{first + pIdx, sIdx})
				if f != nil {
					f.Tags = map[string]string{ParaTag: para.Tag}
				}
			}
		}
	}

	if s.fields[core.Title] && strings.TrimSpace(src.Title) != "" {
		title := b.add(src.Title, core.Title, core.Location{0, 0})
		if title != nil {
			parts := nonBlank(strings.FieldsFunc(src.Title, isClauseBreak))
			if len(parts) > 1 {
				for i, part := range parts {
					b.addSub(title, part, core.TitleSubsentence, core.Location{0, i})
				}
			}
		}
	}
	if s.fields[core.Causes] {
		for i, cause := range src.Causes {
			b.add(cause, core.Causes, core.Location{i, 0})
		}
	}
	for _, field := range []struct {
		modality core.Modality
		value    string
	}{
		{core.Court, src.Court},
		{core.DocType, src.DocType},
		{core.TopCause, src.TopCause},
		{core.TrialRound, src.TrialRound},
		{core.Name, src.Name},
		{core.CaseNumber, src.CaseNumber},
	} {
		if s.fields[field.modality] {
			b.add(field.value, field.modality, core.Location{0, 0})
		}
	}

	if b.err != nil {
		return nil, fmt.Errorf("document %q: %w", doc.ID, b.err)
	}
	doc.Fragments = b.fragments
	s.logger.Debug("segmented case", "document", doc.ID, "fragments", len(b.fragments))
	return b.fragments, nil
}

// QuerySegmenter splits free-text query documents into one fragment per line
// with clause sub-fragments.
type QuerySegmenter struct {
	*settings
}

// NewQuerySegmenter creates a query segmenter.
func NewQuerySegmenter(opts ...Option) (*QuerySegmenter, error) {
	s, err := newSettings(opts)
	if err != nil {
		return nil, err
	}
	s.logger = s.logger.With("component", "query_segmenter")
	return &QuerySegmenter{settings: s}, nil
}

// Segment replaces doc.Fragments with one fragment per non-blank line of
// doc.Text and returns them. Location is [line index, 0]. A line with more
// than one clause also gets one sub-fragment per clause at
// [line index, clause index].
func (s *QuerySegmenter) Segment(doc *core.Document) ([]*core.Fragment, error) {
	if doc == nil || doc.ID == "" {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidDocument, core.ErrEmptyID)
	}
	b := builder{parent: doc.ID, truncator: s.truncator}
	for i, line := range strings.Split(doc.Text, "\n") {
		f := b.add(line, s.queryModality, core.Location{i, 0})
		if f == nil {
			continue
		}
		clauses := nonBlank(strings.FieldsFunc(line, isClauseBreak))
		if len(clauses) > 1 {
			for j, clause := range clauses {
				b.addSub(f, clause, s.queryModality, core.Location{i, j})
			}
		}
	}
	if b.err != nil {
		return nil, fmt.Errorf("document %q: %w", doc.ID, b.err)
	}
	doc.Fragments = b.fragments
	s.logger.Debug("segmented query", "document", doc.ID, "fragments", len(b.fragments))
	return b.fragments, nil
}

// builder accumulates fragments and keeps the first construction error.
type builder struct {
	parent    string
	truncator *Truncator
	fragments []*core.Fragment
	err       error
}

func (b *builder) build(text string, m core.Modality, loc core.Location) *core.Fragment {
	if b.err != nil {
		return nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	f, err := core.NewFragment(b.parent, b.truncator.Truncate(text, m), m, loc)
	if err != nil {
		b.err = err
		return nil
	}
	return f
}

func (b *builder) add(text string, m core.Modality, loc core.Location) *core.Fragment {
	f := b.build(text, m, loc)
	if f != nil {
		b.fragments = append(b.fragments, f)
	}
	return f
}

func (b *builder) addSub(parent *core.Fragment, text string, m core.Modality, loc core.Location) {
	if f := b.build(text, m, loc); f != nil {
		parent.Fragments = append(parent.Fragments, f)
	}
}

// nonBlank trims pieces and drops the blank ones.
func nonBlank(pieces []string) []string {
	out := pieces[:0]
	for _, p := range pieces {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isClauseBreak(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r)
}

// Flatten returns the fragments and their sub-fragments in depth-first order.
func Flatten(fragments []*core.Fragment) []*core.Fragment {
	var out []*core.Fragment
	for _, f := range fragments {
		if f == nil {
			continue
		}
		out = append(out, f)
		out = append(out, Flatten(f.Fragments)...)
	}
	return out
}
