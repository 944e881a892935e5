package manytomany

import (
	"routingtable/pkg/bucket"
	"routingtable/pkg/facade"
	"routingtable/pkg/heap"
	"routingtable/pkg/ids"
)

// chEntry is the CH heap payload (spec §3's "HeapEntry (CH variant)").
type chEntry struct {
	parent   ids.NodeID
	duration ids.Duration
}

// CHEngine is the bidirectional-bucket many-to-many search core over a
// Contraction Hierarchies graph (spec §4.D). StallOnDemand defaults to
// enabled; it exists as a field, not a build tag, specifically so the
// "toggling it off must produce identical numeric results" property
// (spec §8) can be exercised from a test.
type CHEngine struct {
	graph         facade.LoopGraph
	heap          *heap.Heap[chEntry]
	StallOnDemand bool
	settled       int
}

// NewCHEngine builds a CH search core over graph.
func NewCHEngine(graph facade.LoopGraph) *CHEngine {
	return &CHEngine{graph: graph, StallOnDemand: true}
}

func (e *CHEngine) ResetForCall(numNodes int) {
	e.settled = 0
	if e.heap == nil {
		e.heap = heap.New[chEntry](numNodes)
		return
	}
	e.heap.Reset(numNodes)
}

// SettledCount returns the number of nodes popped across every backward
// and forward search since the last ResetForCall, for callers (e.g.
// internal/metrics) that want per-call work-size observations.
func (e *CHEngine) SettledCount() int { return e.settled }

// insertOrUpdate inserts node if unseen; otherwise it only overwrites the
// queued candidate on strict weight improvement (decreasing the key) or
// on an exact weight tie with a strictly better duration (same key,
// mirroring Table.Update's tie-break rule so a tied-weight path with a
// shorter duration isn't lost before it ever reaches the output table).
func (e *CHEngine) insertOrUpdate(node ids.NodeID, weight ids.Weight, data chEntry) {
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

// BackwardSearch runs one target phantom's backward search, recording a
// bucket entry for every settled node (spec §4.D "Backward search").
func (e *CHEngine) BackwardSearch(target facade.PhantomNode, column ids.Column, buckets *bucket.Index, _ SearchContext) {
	e.heap.Clear()
	if target.ForwardSegment.Enabled {
		e.insertOrUpdate(target.ForwardSegment.Node, target.TargetForwardWeight, chEntry{parent: ids.InvalidNode, duration: target.TargetForwardDuration})
	}
	if target.ReverseSegment.Enabled {
		e.insertOrUpdate(target.ReverseSegment.Node, target.TargetReverseWeight, chEntry{parent: ids.InvalidNode, duration: target.TargetReverseDuration})
	}

	for !e.heap.Empty() {
		node := e.heap.DeleteMin()
		e.settled++
		weight := e.heap.GetKey(node)
		duration := e.heap.GetData(node).duration

		buckets.Append(node, column, weight, duration)

		if e.StallOnDemand && e.stallAtNode(node, weight, Backward) {
			continue
		}
		e.relax(node, weight, duration, Backward)
	}
}

// ForwardSearch runs one source phantom's forward search, composing
// table cells from bucket hits as nodes settle (spec §4.D "Forward
// search"), including the loop-repair branch for contracted self-loops.
func (e *CHEngine) ForwardSearch(source facade.PhantomNode, row ids.Row, buckets *bucket.Index, table *Table, _ SearchContext) {
	e.heap.Clear()
	if source.ForwardSegment.Enabled {
		e.insertOrUpdate(source.ForwardSegment.Node, source.SourceForwardWeight, chEntry{parent: ids.InvalidNode, duration: source.SourceForwardDuration})
	}
	if source.ReverseSegment.Enabled {
		e.insertOrUpdate(source.ReverseSegment.Node, source.SourceReverseWeight, chEntry{parent: ids.InvalidNode, duration: source.SourceReverseDuration})
	}

	for !e.heap.Empty() {
		node := e.heap.DeleteMin()
		e.settled++
		weight := e.heap.GetKey(node)
		duration := e.heap.GetData(node).duration

		if entries, ok := buckets.Lookup(node); ok {
			for _, be := range entries {
				e.applyBucketHit(table, row, node, weight, duration, be)
			}
		}

		if e.StallOnDemand && e.stallAtNode(node, weight, Forward) {
			continue
		}
		e.relax(node, weight, duration, Forward)
	}
}

// applyBucketHit combines a settled source weight/duration with one
// bucket entry left by a target's backward search, repairing the
// contraction-loop arithmetic hazard described in spec §4.D when the
// signed sum wraps negative.
func (e *CHEngine) applyBucketHit(table *Table, row ids.Row, node ids.NodeID, weight ids.Weight, duration ids.Duration, be bucket.Entry) {
	newWeight := weight + be.Weight
	if newWeight < 0 {
		loopWeight := e.graph.LoopWeight(node)
		if loopWeight == ids.InvalidWeight {
			return
		}
		repaired := newWeight + loopWeight
		if repaired < 0 {
			return
		}
		newDuration := duration + be.Duration + e.graph.LoopDuration(node)
		table.Update(row, be.Column, repaired, newDuration)
		return
	}
	table.Update(row, be.Column, newWeight, duration+be.Duration)
}

func (e *CHEngine) relax(node ids.NodeID, weight ids.Weight, duration ids.Duration, dir Direction) {
	for _, edge := range e.graph.AdjacentEdges(node) {
		data := e.graph.EdgeData(edge)
		if !dir.setFlag(data.Forward, data.Backward) {
			continue
		}
		ids.AssertPanic(data.Weight > 0, "ch: relaxed edge weight must be positive")
		to := e.graph.Target(edge)
		e.insertOrUpdate(to, weight+data.Weight, chEntry{parent: node, duration: duration + data.Duration})
	}
}

func (e *CHEngine) stallAtNode(node ids.NodeID, weight ids.Weight, dir Direction) bool {
	for _, edge := range e.graph.AdjacentEdges(node) {
		data := e.graph.EdgeData(edge)
		if !dir.opposite(data.Forward, data.Backward) {
			continue
		}
		m := e.graph.Target(edge)
		if e.heap.WasInserted(m) && e.heap.GetKey(m)+data.Weight <= weight {
			return true
		}
	}
	return false
}
