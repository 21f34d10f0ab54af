package search

import (
	"github.com/poiesic/caselens/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query *core.Document)
	AfterSegmentation(fragments []*core.Fragment)
	AfterEmbedding(fragments []*core.Fragment)
	FragmentCandidates(fragment *core.Fragment, candidates []*core.Match)
	Finish(matches []*core.Match)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ *core.Document)                               {}
func (n *noopMonitor) AfterSegmentation(_ []*core.Fragment)                 {}
func (n *noopMonitor) AfterEmbedding(_ []*core.Fragment)                    {}
func (n *noopMonitor) FragmentCandidates(_ *core.Fragment, _ []*core.Match) {}
func (n *noopMonitor) Finish(_ []*core.Match)                               {}
