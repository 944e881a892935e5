// Package facade defines the read-only contracts this module consumes
// from the graph preprocessing/ingestion pipeline (§1, §6 of the spec):
// node/edge access, CH loop lookups, and the MLD partition/cell-storage
// views. None of these are implemented by a preprocessing pipeline here
// — ingestion, contraction and partitioning are explicitly out of scope.
package facade

import "routingtable/pkg/ids"

// EdgeData is what the facade reports for a single directed adjacency
// entry: its weight/duration and which of the two directions it is
// traversable in. Ordinary edges carry strictly positive weight;
// shortcut edges (CH) may carry ids.InvalidWeight to mark an absent
// shortcut slot.
type EdgeData struct {
	Weight   ids.Weight
	Duration ids.Duration
	Forward  bool
	Backward bool
}

// Graph is the read-only adjacency view both search cores consume.
type Graph interface {
	// NumberOfNodes returns the dense node-id range [0, NumberOfNodes).
	NumberOfNodes() int
	// AdjacentEdges returns the ids of every adjacency entry leaving or
	// touching node, in the order the CSR layout stores them.
	AdjacentEdges(node ids.NodeID) []ids.EdgeID
	// EdgeData returns the weight/duration/direction flags of edge.
	EdgeData(edge ids.EdgeID) EdgeData
	// Target returns the far endpoint of edge.
	Target(edge ids.EdgeID) ids.NodeID
}

// LoopGraph is the CH-only extension of Graph exposing the contracted
// self-loop lookups that the loop-repair branch needs.
type LoopGraph interface {
	Graph
	// LoopWeight returns the minimum forward self-loop weight at node,
	// or ids.InvalidWeight if node has no self-loop.
	LoopWeight(node ids.NodeID) ids.Weight
	// LoopDuration returns the duration paired with LoopWeight's
	// minimal self-loop. Only meaningful when LoopWeight is valid.
	LoopDuration(node ids.NodeID) ids.Duration
}

// LevelID indexes a level of a multi-level partition; level 0 is the
// base graph.
type LevelID uint32

// CellID indexes a cell within a level.
type CellID uint32

// MultiLevelPartition is the read-only nested-partition view MLD
// consumes to restrict and level-gate its search.
type MultiLevelPartition interface {
	// Cell returns the id of the cell containing node at level.
	Cell(level LevelID, node ids.NodeID) CellID
	// HighestDifferentLevel returns the highest level at which a and b
	// lie in different cells (0 if they share every level).
	HighestDifferentLevel(a, b ids.NodeID) LevelID
}

// Cell is the per-(level,cell) clique-arc ("shortcut") data CellStorage
// hands back: parallel source/destination node lists and parallel
// weight/duration arrays addressed by source- or destination-relative
// position.
type Cell struct {
	SourceNodes      []ids.NodeID
	DestinationNodes []ids.NodeID
	// OutWeights/OutDurations are outgoing clique arcs from each source
	// node, row-major: OutWeights[i*len(DestinationNodes)+j] is the arc
	// from SourceNodes[i] to DestinationNodes[j].
	OutWeights   []ids.Weight
	OutDurations []ids.Duration
	// InWeights/InDurations are incoming clique arcs into each
	// destination node, row-major: InWeights[j*len(SourceNodes)+i] is
	// the arc from SourceNodes[i] to DestinationNodes[j].
	InWeights   []ids.Weight
	InDurations []ids.Duration
}

// OutRow returns the weight/duration of every outgoing clique arc from
// sourceNode (must be a member of SourceNodes at position srcPos),
// zipped with DestinationNodes in the same order, matching the original
// implementation's parallel-array zip.
func (c Cell) OutRow(srcPos int) ([]ids.Weight, []ids.Duration) {
	n := len(c.DestinationNodes)
	return c.OutWeights[srcPos*n : srcPos*n+n], c.OutDurations[srcPos*n : srcPos*n+n]
}

// InRow returns the weight/duration of every incoming clique arc into
// destNode (must be a member of DestinationNodes at position dstPos),
// zipped with SourceNodes in the same order.
func (c Cell) InRow(dstPos int) ([]ids.Weight, []ids.Duration) {
	n := len(c.SourceNodes)
	return c.InWeights[dstPos*n : dstPos*n+n], c.InDurations[dstPos*n : dstPos*n+n]
}

// OutgoingFrom returns OutRow for the position of source node within
// SourceNodes, or (nil, nil) if node is not a source of this cell.
func (c Cell) OutgoingFrom(node ids.NodeID) ([]ids.Weight, []ids.Duration) {
	for i, s := range c.SourceNodes {
		if s == node {
			return c.OutRow(i)
		}
	}
	return nil, nil
}

// IncomingTo returns InRow for the position of destination node within
// DestinationNodes, or (nil, nil) if node is not a destination of this
// cell.
func (c Cell) IncomingTo(node ids.NodeID) ([]ids.Weight, []ids.Duration) {
	for i, d := range c.DestinationNodes {
		if d == node {
			return c.InRow(i)
		}
	}
	return nil, nil
}

// CellStorage is the read-only clique-arc view MLD consumes.
type CellStorage interface {
	GetCell(level LevelID, cell CellID) Cell
}

// MLDGraph is the MLD-only extension of Graph exposing the partition,
// cell storage and border-edge lookups the level-shortcut expansion and
// parent-cell restriction need.
type MLDGraph interface {
	Graph
	Partition() MultiLevelPartition
	CellStorage() CellStorage
	// BorderEdges returns the ids of the adjacency entries a relaxation
	// at level must consider leaving node. Level 0 is the base graph, so
	// every adjacency entry is a candidate there; at level >= 1,
	// intra-cell connectivity is already covered by that level's clique
	// arcs, so only entries whose far endpoint lies outside node's cell
	// at that level (border edges proper) are returned.
	BorderEdges(level LevelID, node ids.NodeID) []ids.EdgeID
}

// SegmentID names a directed road segment a phantom node is snapped
// onto, or marks it disabled when the phantom has no candidate in that
// direction (e.g. a phantom on a oneway street has no reverse segment).
type SegmentID struct {
	Node    ids.NodeID
	Enabled bool
}

// PhantomNode is a coordinate snapped onto a directed road segment,
// carrying the small per-direction offset weight/duration that the
// search injects when the phantom is used as a source or as a target.
// Building these from raw coordinates (snapping) is out of scope; this
// module only consumes already-snapped phantoms.
type PhantomNode struct {
	ForwardSegment SegmentID
	ReverseSegment SegmentID

	// SourceForwardWeight/Duration is injected at ForwardSegment.Node
	// when this phantom is used as a forward-search source.
	SourceForwardWeight   ids.Weight
	SourceForwardDuration ids.Duration
	// SourceReverseWeight/Duration is injected at ReverseSegment.Node
	// when this phantom is used as a forward-search source.
	SourceReverseWeight   ids.Weight
	SourceReverseDuration ids.Duration

	// TargetForwardWeight/Duration is injected at ForwardSegment.Node
	// when this phantom is used as a backward-search target.
	TargetForwardWeight   ids.Weight
	TargetForwardDuration ids.Duration
	// TargetReverseWeight/Duration is injected at ReverseSegment.Node
	// when this phantom is used as a backward-search target.
	TargetReverseWeight   ids.Weight
	TargetReverseDuration ids.Duration
}
