package manytomany

import (
	"routingtable/pkg/bucket"
	"routingtable/pkg/facade"
	"routingtable/pkg/ids"
)

// SearchContext carries the MLD parent-cell restriction a single
// phantom's search must honor. CHEngine takes it only to satisfy Engine
// and ignores it entirely — CH has no partition to restrict against.
type SearchContext struct {
	ParentLevel facade.LevelID
	ParentCell  facade.CellID
}

// Engine is the strategy both CHEngine and MLDEngine implement so the
// orchestrator loop never branches on algorithm family (spec §9): one
// loop shape, two engines.
type Engine interface {
	ResetForCall(numNodes int)
	BackwardSearch(target facade.PhantomNode, column ids.Column, buckets *bucket.Index, ctx SearchContext)
	ForwardSearch(source facade.PhantomNode, row ids.Row, buckets *bucket.Index, table *Table, ctx SearchContext)
	// SettledCount returns the number of nodes popped across every
	// backward and forward search since the last ResetForCall, for
	// callers that want to observe per-call work size (e.g. metrics).
	SettledCount() int
}

// Search computes the dense weight/duration table between the phantoms
// named by sourceIdx and targetIdx (spec §4.F, §6): every target's
// backward search first, populating the shared bucket index, then every
// source's forward search reading it. An empty sourceIdx or targetIdx
// means "every phantom, in order". part is nil for a CH engine; an MLD
// engine needs it to compute each phantom's parent-cell restriction.
func Search(engine Engine, numNodes int, part facade.MultiLevelPartition, phantoms []facade.PhantomNode, sourceIdx, targetIdx []int) *Table {
	sources := resolveIndices(sourceIdx, len(phantoms))
	targets := resolveIndices(targetIdx, len(phantoms))

	sourcePhantoms := selectPhantoms(phantoms, sources)
	targetPhantoms := selectPhantoms(phantoms, targets)

	// Each side's parent-cell restriction is computed against the
	// opposite side only, mirroring the original's "current phantom
	// against every opposite-side phantom" rule rather than a single
	// restriction shared by every phantom in the query.
	targetCtxs := parentContextsAgainst(part, targetPhantoms, sourcePhantoms)
	sourceCtxs := parentContextsAgainst(part, sourcePhantoms, targetPhantoms)

	table := NewTable(len(sources), len(targets))
	buckets := bucket.New(numNodes)
	engine.ResetForCall(numNodes)

	for col, ti := range targets {
		engine.BackwardSearch(phantoms[ti], ids.Column(col), buckets, targetCtxs[col])
	}

	for row, si := range sources {
		engine.ForwardSearch(phantoms[si], ids.Row(row), buckets, table, sourceCtxs[row])
	}

	return table
}

func resolveIndices(idx []int, n int) []int {
	if len(idx) > 0 {
		return idx
	}
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	return all
}

func selectPhantoms(all []facade.PhantomNode, idx []int) []facade.PhantomNode {
	out := make([]facade.PhantomNode, len(idx))
	for i, id := range idx {
		out[i] = all[id]
	}
	return out
}

// parentContextsAgainst computes, for every phantom in own, the MLD
// parent-cell restriction its search must honor: the level one above
// the highest level at which it can differ from any phantom in opposite
// — found by scanning all four forward/reverse segment combinations per
// (own, opposite) pair, since either side may have only one segment
// enabled — and the cell that level assigns to the phantom's own
// forward segment. A nil
// part (CH callers) yields the zero SearchContext for every phantom.
//
// The anchor is always ForwardSegment.Node, enabled or not, matching
// the original's getParentCellID, which indexes
// partition.GetCell(level, source.forward_segment_id.id) unconditionally
// — a phantom's forward segment id is always a real node id even when
// routing through it is disabled, so there is nothing to fall back to.
func parentContextsAgainst(part facade.MultiLevelPartition, own, opposite []facade.PhantomNode) []SearchContext {
	ctxs := make([]SearchContext, len(own))
	if part == nil {
		return ctxs
	}

	oppositeNodes := segmentNodes(opposite)
	for i, p := range own {
		// L* is one level above where the two sides last differ: the
		// smallest level guaranteed to hold both in the same cell, per
		// spec §4.E's "L* = highest_different_level + 1".
		level := highestLevelAgainst(part, p, oppositeNodes) + 1
		ctxs[i] = SearchContext{ParentLevel: level, ParentCell: part.Cell(level, p.ForwardSegment.Node)}
	}
	return ctxs
}

func segmentNodes(phantoms []facade.PhantomNode) []ids.NodeID {
	var nodes []ids.NodeID
	for _, p := range phantoms {
		if p.ForwardSegment.Enabled {
			nodes = append(nodes, p.ForwardSegment.Node)
		}
		if p.ReverseSegment.Enabled {
			nodes = append(nodes, p.ReverseSegment.Node)
		}
	}
	return nodes
}

// highestLevelAgainst scans every forward/reverse segment of p against
// every node in oppositeNodes and returns the highest level at which
// any such pair lies in different cells.
func highestLevelAgainst(part facade.MultiLevelPartition, p facade.PhantomNode, oppositeNodes []ids.NodeID) facade.LevelID {
	var own []ids.NodeID
	if p.ForwardSegment.Enabled {
		own = append(own, p.ForwardSegment.Node)
	}
	if p.ReverseSegment.Enabled {
		own = append(own, p.ReverseSegment.Node)
	}

	var max facade.LevelID
	for _, a := range own {
		for _, b := range oppositeNodes {
			if d := part.HighestDifferentLevel(a, b); d > max {
				max = d
			}
		}
	}
	return max
}
