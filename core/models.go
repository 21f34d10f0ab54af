package core

import (
	"encoding/binary"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a content-derived identifier for fragments.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// String renders the ID as fixed-width hex so it can stand in for a string identifier.
func (id ID) String() string {
	s := strconv.FormatUint(uint64(id), 16)
	for len(s) < 16 {
		s = "0" + s
	}
	return s
}

// Location records the structural position of a fragment, e.g. paragraph and
// sentence index. It is only used for diagnostics.
type Location [2]int

// Document is the root entity: a case (at index time) or a query (at search time).
// Fragments are cleared and Matches populated once a document is aggregated.
type Document struct {
	ID        string
	Text      string
	Fragments []*Fragment
	Matches   []*Match
	Metadata  map[string]string
}

// Fragment is a typed span of a document's text. ParentID is a back-reference,
// never an ownership edge. A fragment may own sub-fragments (depth at most 2).
type Fragment struct {
	ID        ID
	ParentID  string
	Text      string
	Modality  Modality
	Location  Location
	Tags      map[string]string
	Vector    []float32 // populated by the embedding stage
	Matches   []*Match
	Fragments []*Fragment
}

// ScoreOperand is one entry of a score's explainability trace.
type ScoreOperand struct {
	Name        string
	Value       float64
	RefID       string
	Description string
}

// Score is a named numeric score, optionally with the operands that produced it.
type Score struct {
	Value    float64
	Operands []ScoreOperand
}

// Match is a scored hit. At fragment level ID names the matched fragment; after
// aggregation ID is rewritten to the parent document's identifier.
type Match struct {
	ID        string
	ParentID  string
	Modality  Modality
	Location  Location
	Text      string
	Scores    map[string]*Score
	Diversity int
}

// ScoreValue returns the value of the named score and whether it is present.
func (m *Match) ScoreValue(metric string) (float64, bool) {
	if m.Scores == nil {
		return 0, false
	}
	s, ok := m.Scores[metric]
	if !ok || s == nil {
		return 0, false
	}
	return s.Value, true
}

// SetScore sets the named score value, keeping any existing operands.
func (m *Match) SetScore(metric string, value float64) {
	if m.Scores == nil {
		m.Scores = make(map[string]*Score)
	}
	if s, ok := m.Scores[metric]; ok && s != nil {
		s.Value = value
		return
	}
	m.Scores[metric] = &Score{Value: value}
}

// Clone returns a copy of the match that shares no mutable state with m.
func (m *Match) Clone() *Match {
	c := *m
	if m.Scores != nil {
		c.Scores = make(map[string]*Score, len(m.Scores))
		for k, s := range m.Scores {
			if s == nil {
				continue
			}
			cs := *s
			cs.Operands = append([]ScoreOperand(nil), s.Operands...)
			c.Scores[k] = &cs
		}
	}
	return &c
}

// Checkpoint records the progress of a resumable maintenance job.
type Checkpoint struct {
	ProcessorType string
	LastKey       string
	UpdatedAt     time.Time
}

// SearchResult is a stored fragment returned by vector search with its similarity.
type SearchResult struct {
	Fragment *Fragment
	Score    float32
}
