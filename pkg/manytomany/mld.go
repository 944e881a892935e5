package manytomany

import (
	"routingtable/pkg/bucket"
	"routingtable/pkg/facade"
	"routingtable/pkg/heap"
	"routingtable/pkg/ids"
)

// mldEntry is the MLD heap payload (spec §3's "HeapEntry (MLD variant)").
type mldEntry struct {
	parent        ids.NodeID
	fromCliqueArc bool
	level         facade.LevelID
	duration      ids.Duration
}

// MLDEngine is the bidirectional-bucket many-to-many search core over a
// multi-level partition (spec §4.E): cell-restricted border-edge
// relaxation plus level-shortcut (clique arc) expansion at pop time, in
// place of CH's stall-on-demand.
type MLDEngine struct {
	graph   facade.MLDGraph
	part    facade.MultiLevelPartition
	cells   facade.CellStorage
	heap    *heap.Heap[mldEntry]
	settled int
}

// NewMLDEngine builds an MLD search core over graph.
func NewMLDEngine(graph facade.MLDGraph) *MLDEngine {
	return &MLDEngine{graph: graph, part: graph.Partition(), cells: graph.CellStorage()}
}

func (e *MLDEngine) ResetForCall(numNodes int) {
	e.settled = 0
	if e.heap == nil {
		e.heap = heap.New[mldEntry](numNodes)
		return
	}
	e.heap.Reset(numNodes)
}

// SettledCount mirrors CHEngine.SettledCount.
func (e *MLDEngine) SettledCount() int { return e.settled }

// insertOrUpdate mirrors CHEngine's: strict improvement decreases the
// key, an exact tie with a strictly better duration overwrites the
// queued data in place, matching Table.Update's tie-break rule.
func (e *MLDEngine) insertOrUpdate(node ids.NodeID, weight ids.Weight, data mldEntry) {
	if !e.heap.WasInserted(node) {
		e.heap.Insert(node, weight, data)
		return
	}
	switch key := e.heap.GetKey(node); {
	case weight < key:
		*e.heap.GetData(node) = data
		e.heap.DecreaseKey(node, weight)
	case weight == key && data.duration < e.heap.GetData(node).duration:
		*e.heap.GetData(node) = data
	}
}

// BackwardSearch runs one target phantom's backward search.
func (e *MLDEngine) BackwardSearch(target facade.PhantomNode, column ids.Column, buckets *bucket.Index, ctx SearchContext) {
	e.heap.Clear()
	if target.ForwardSegment.Enabled {
		n := target.ForwardSegment.Node
		e.insertOrUpdate(n, target.TargetForwardWeight, mldEntry{parent: n, duration: target.TargetForwardDuration})
	}
	if target.ReverseSegment.Enabled {
		n := target.ReverseSegment.Node
		e.insertOrUpdate(n, target.TargetReverseWeight, mldEntry{parent: n, duration: target.TargetReverseDuration})
	}

	for !e.heap.Empty() {
		node := e.heap.DeleteMin()
		e.settled++
		weight := e.heap.GetKey(node)
		entry := *e.heap.GetData(node)

		buckets.Append(node, column, weight, entry.duration)

		e.relax(node, weight, entry.duration, entry, Backward, ctx)
	}
}

// ForwardSearch runs one source phantom's forward search, composing
// table cells from bucket hits. MLD performs no loop repair: an
// overflowed candidate sum is simply rejected (spec §4.E).
func (e *MLDEngine) ForwardSearch(source facade.PhantomNode, row ids.Row, buckets *bucket.Index, table *Table, ctx SearchContext) {
	e.heap.Clear()
	if source.ForwardSegment.Enabled {
		n := source.ForwardSegment.Node
		e.insertOrUpdate(n, source.SourceForwardWeight, mldEntry{parent: n, duration: source.SourceForwardDuration})
	}
	if source.ReverseSegment.Enabled {
		n := source.ReverseSegment.Node
		e.insertOrUpdate(n, source.SourceReverseWeight, mldEntry{parent: n, duration: source.SourceReverseDuration})
	}

	for !e.heap.Empty() {
		node := e.heap.DeleteMin()
		e.settled++
		weight := e.heap.GetKey(node)
		entry := *e.heap.GetData(node)

		if entries, ok := buckets.Lookup(node); ok {
			for _, be := range entries {
				newWeight := weight + be.Weight
				if newWeight < 0 {
					continue
				}
				table.Update(row, be.Column, newWeight, entry.duration+be.Duration)
			}
		}

		e.relax(node, weight, entry.duration, entry, Forward, ctx)
	}
}

// relax performs the MLD level-shortcut expansion (when the popped
// node's level allows it) followed by border-edge relaxation restricted
// to the parent cell, per spec §4.E.
func (e *MLDEngine) relax(node ids.NodeID, weight ids.Weight, duration ids.Duration, entry mldEntry, dir Direction, ctx SearchContext) {
	level := entry.level
	if d := e.part.HighestDifferentLevel(entry.parent, node); d > level {
		level = d
	}

	if level >= 1 && !entry.fromCliqueArc {
		cell := e.cells.GetCell(level, e.part.Cell(level, node))
		if dir == Forward {
			if weights, durations := cell.OutgoingFrom(node); weights != nil {
				for i, dest := range cell.DestinationNodes {
					w := weights[i]
					if w == ids.InvalidWeight || dest == node {
						continue
					}
					e.insertOrUpdate(dest, weight+w, mldEntry{parent: node, fromCliqueArc: true, level: level, duration: duration + durations[i]})
				}
			}
		} else {
			if weights, durations := cell.IncomingTo(node); weights != nil {
				for i, src := range cell.SourceNodes {
					w := weights[i]
					if w == ids.InvalidWeight || src == node {
						continue
					}
					e.insertOrUpdate(src, weight+w, mldEntry{parent: node, fromCliqueArc: true, level: level, duration: duration + durations[i]})
				}
			}
		}
	}

	for _, edge := range e.graph.BorderEdges(level, node) {
		data := e.graph.EdgeData(edge)
		if !dir.setFlag(data.Forward, data.Backward) {
			continue
		}
		ids.AssertPanic(data.Weight > 0, "mld: relaxed border edge weight must be positive")
		to := e.graph.Target(edge)
		if e.part.Cell(ctx.ParentLevel, to) != ctx.ParentCell {
			continue
		}
		e.insertOrUpdate(to, weight+data.Weight, mldEntry{parent: node, fromCliqueArc: false, level: level, duration: duration + data.Duration})
	}
}
