// Package fixture builds small, deterministic CH/MLD graphs for the
// many-to-many search cores' tests: named scenarios matching the
// property list the spec calls out (single node, disjoint components,
// a diamond with a shortcut, a contracted self-loop) plus a seeded
// random-graph generator for broader coverage. The random generator
// uses golang.org/x/exp/rand rather than math/rand, the same choice the
// teacher makes in its own seeded-randomness test helpers
// (pkg/util.generateRandomInt), so a fixed seed reproduces identical
// graphs across runs and test binaries.
package fixture

import (
	"routingtable/pkg/facade"
	"routingtable/pkg/facade/static"
	"routingtable/pkg/ids"

	"golang.org/x/exp/rand"
)

// Phantom builds a PhantomNode pinned exactly at node: forward segment
// enabled with a zero injection offset, no reverse segment. This is
// the common case for the synthetic graphs built here, where phantoms
// sit at a node rather than partway along a road segment (snapping
// phantoms from raw coordinates is out of this module's scope).
func Phantom(node ids.NodeID) facade.PhantomNode {
	return facade.PhantomNode{ForwardSegment: facade.SegmentID{Node: node, Enabled: true}}
}

// SingleNode returns a one-node graph with no edges, exercising the
// degenerate case where every phantom coincides with the same node.
func SingleNode() *static.Graph {
	return static.NewBuilder(1).Build()
}

// TwoNodeLine returns a two-node graph with a single directed edge
// 0->1 of the given weight/duration, forward-only, so a 1->0 query is
// unreachable but 0->1 is not.
func TwoNodeLine(weight ids.Weight, duration ids.Duration) *static.Graph {
	b := static.NewBuilder(2)
	b.AddEdge(0, 1, weight, duration, true, false)
	return b.Build()
}

// TwoNodeBidirectional is TwoNodeLine but with the edge traversable in
// both directions, sharing one adjacency slot the way the teacher
// stores two-way street segments.
func TwoNodeBidirectional(weight ids.Weight, duration ids.Duration) *static.Graph {
	b := static.NewBuilder(2)
	b.AddEdge(0, 1, weight, duration, true, true)
	return b.Build()
}

// DisjointComponents returns a graph of 2*n nodes split into two
// disjoint connected components ({0..n-1} and {n..2n-1}), a chain
// within each, so cross-component queries are always unreachable.
func DisjointComponents(n int) *static.Graph {
	b := static.NewBuilder(2 * n)
	for i := 0; i < n-1; i++ {
		b.AddEdge(ids.NodeID(i), ids.NodeID(i+1), 1, 1, true, true)
		b.AddEdge(ids.NodeID(n+i), ids.NodeID(n+i+1), 1, 1, true, true)
	}
	return b.Build()
}

// DiamondWithShortcut returns a four-node diamond (0->1->3 and
// 0->2->3, each leg weight 5) plus a direct 0->3 edge of weight 10
// standing in for a CH contraction shortcut. All three 0->3 routes tie
// on weight (10); their durations differ (14, 8, and 20 respectively),
// so a 0->3 query exercises the table's tie-break rule: the winning
// cell must carry duration 8, from the 0->2->3 leg, not whichever path
// settles first.
func DiamondWithShortcut() *static.Graph {
	b := static.NewBuilder(4)
	b.AddEdge(0, 1, 5, 7, true, false)
	b.AddEdge(1, 3, 5, 7, true, false)
	b.AddEdge(0, 2, 5, 4, true, false)
	b.AddEdge(2, 3, 5, 4, true, false)
	b.AddEdge(0, 3, 10, 20, true, false)
	return b.Build()
}

// SelfLoopGraph returns a three-node graph (0->1, 1->2) where node 1
// carries a contracted self-loop, for exercising the CH loop-repair
// branch when a backward bucket entry and a forward settle sum to a
// negative signed weight at the shared node.
func SelfLoopGraph(loopWeight ids.Weight, loopDuration ids.Duration) *static.Graph {
	b := static.NewBuilder(3)
	b.AddEdge(0, 1, 3, 3, true, false)
	b.AddEdge(1, 2, 4, 4, true, false)
	b.SetLoop(1, loopWeight, loopDuration)
	return b.Build()
}

// RandomCHGraph builds a seeded random directed graph of numNodes nodes
// and roughly numEdges edges (self-loops among the random draws are
// skipped, so the actual edge count may be slightly lower), each edge's
// weight/duration drawn from [1, maxWeight].
func RandomCHGraph(numNodes, numEdges, maxWeight int, seed uint64) *static.Graph {
	rng := rand.New(rand.NewSource(seed))
	b := static.NewBuilder(numNodes)
	for i := 0; i < numEdges; i++ {
		from := ids.NodeID(rng.Intn(numNodes))
		to := ids.NodeID(rng.Intn(numNodes))
		if from == to {
			continue
		}
		w := ids.Weight(1 + rng.Intn(maxWeight))
		d := ids.Duration(1 + rng.Intn(maxWeight))
		b.AddEdge(from, to, w, d, true, false)
	}
	return b.Build()
}

// RandomMLDGraph builds the same kind of random directed graph as
// RandomCHGraph, partitioned into len(levelGroupSizes) levels with no
// precomputed clique arcs: every cell lookup returns the zero Cell, so
// the level-shortcut expansion never fires and the search degenerates
// to plain border-edge relaxation. This is the fixture behind the
// spec's "MLD on a trivial partition matches CH" property (§8).
//
// One level beyond levelGroupSizes is always appended as a single
// global cell covering every node: the orchestrator's parent-cell
// restriction looks up one level above wherever two phantoms last
// differ (spec §4.E's "L* = highest_different_level + 1"), so the
// coarsest stored level must be guaranteed to hold the whole graph in
// one cell or that lookup runs off the end of the partition.
func RandomMLDGraph(numNodes, numEdges, maxWeight int, seed uint64, levelGroupSizes []int) *static.MLDGraph {
	g := RandomCHGraph(numNodes, numEdges, maxWeight, seed)
	cells := make([][]facade.CellID, len(levelGroupSizes)+1)
	for lvl, groupSize := range levelGroupSizes {
		row := make([]facade.CellID, numNodes)
		for n := 0; n < numNodes; n++ {
			row[n] = facade.CellID(n / groupSize)
		}
		cells[lvl] = row
	}
	cells[len(levelGroupSizes)] = make([]facade.CellID, numNodes) // catch-all: every node in cell 0
	part := static.NewPartition(cells)
	cs := static.NewCellStorage()
	return static.NewMLDGraph(g, part, cs)
}
