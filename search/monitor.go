package search

import (
	"github.com/poiesic/relayout/core"
)

// SearchMonitor provides hooks to observe the search process.
type SearchMonitor interface {
	Start(query string)
	AfterSemanticSearch(candidates []*core.ChunkResult)
	VerbatimHit(chunk *core.Chunk)
	Finish(results []*core.ChunkResult)
}

type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                          {}
func (n *noopMonitor) AfterSemanticSearch(_ []*core.ChunkResult) {}
func (n *noopMonitor) VerbatimHit(_ *core.Chunk)               {}
func (n *noopMonitor) Finish(_ []*core.ChunkResult)            {}
