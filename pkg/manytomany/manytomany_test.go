package manytomany_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routingtable/internal/fixture"
	"routingtable/pkg/facade"
	"routingtable/pkg/facade/static"
	"routingtable/pkg/ids"
	"routingtable/pkg/manytomany"
)

func chTable(g *static.Graph, phantoms []facade.PhantomNode, sourceIdx, targetIdx []int) *manytomany.Table {
	eng := manytomany.NewCHEngine(g)
	return manytomany.Search(eng, g.NumberOfNodes(), nil, phantoms, sourceIdx, targetIdx)
}

// Scenario 1: single node, source=target={0}.
func TestSingleNode(t *testing.T) {
	g := fixture.SingleNode()
	phantoms := []facade.PhantomNode{fixture.Phantom(0)}

	table := chTable(g, phantoms, nil, nil)

	w, d := table.At(0, 0)
	assert.Equal(t, ids.Weight(0), w)
	assert.Equal(t, ids.Duration(0), d)
}

// Scenario 2: two-node line, forward-only edge.
func TestTwoNodeLineForwardOnly(t *testing.T) {
	g := fixture.TwoNodeLine(10, 10)
	phantoms := []facade.PhantomNode{fixture.Phantom(0), fixture.Phantom(1)}

	table := chTable(g, phantoms, nil, nil)

	w, d := table.At(0, 0)
	assert.Equal(t, ids.Weight(0), w)
	assert.Equal(t, ids.Duration(0), d)

	w, d = table.At(0, 1)
	assert.Equal(t, ids.Weight(10), w)
	assert.Equal(t, ids.Duration(10), d)

	w, d = table.At(1, 0)
	assert.Equal(t, ids.InvalidWeight, w)
	assert.Equal(t, ids.MaxDuration, d)

	w, d = table.At(1, 1)
	assert.Equal(t, ids.Weight(0), w)
	assert.Equal(t, ids.Duration(0), d)
}

// Scenario 2 variant: bidirectional edge, symmetric table.
func TestTwoNodeLineBidirectional(t *testing.T) {
	g := fixture.TwoNodeBidirectional(10, 10)
	phantoms := []facade.PhantomNode{fixture.Phantom(0), fixture.Phantom(1)}

	table := chTable(g, phantoms, nil, nil)

	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			wij, _ := table.At(ids.Row(i), ids.Column(j))
			wji, _ := table.At(ids.Row(j), ids.Column(i))
			assert.Equal(t, wij, wji, "undirected graph must be symmetric at (%d,%d)", i, j)
		}
	}
	w, d := table.At(0, 1)
	assert.Equal(t, ids.Weight(10), w)
	assert.Equal(t, ids.Duration(10), d)
}

// Scenario 3: disjoint components — cross-component cells stay sentinel,
// within-component minima match the direct chain distance.
func TestDisjointComponents(t *testing.T) {
	g := fixture.DisjointComponents(3) // {0,1,2} and {3,4,5}
	phantoms := []facade.PhantomNode{
		fixture.Phantom(0), fixture.Phantom(1), fixture.Phantom(2),
		fixture.Phantom(3), fixture.Phantom(4), fixture.Phantom(5),
	}

	table := chTable(g, phantoms, nil, nil)

	w, d := table.At(0, 5)
	assert.Equal(t, ids.InvalidWeight, w)
	assert.Equal(t, ids.MaxDuration, d)

	w, _ = table.At(0, 2)
	assert.Equal(t, ids.Weight(2), w)
}

// Scenario 4: diamond with a shortcut edge standing in for a CH
// contraction shortcut — the direct 0->3 edge ties on weight with both
// two-hop legs, and the 0->2->3 leg wins the duration tie-break.
func TestDiamondWithShortcutTieBreak(t *testing.T) {
	g := fixture.DiamondWithShortcut()
	phantoms := []facade.PhantomNode{fixture.Phantom(0), fixture.Phantom(3)}

	table := chTable(g, phantoms, nil, nil)

	w, d := table.At(0, 1)
	assert.Equal(t, ids.Weight(10), w)
	assert.Equal(t, ids.Duration(8), d, "the 0->2->3 leg ties on weight but has the lower duration")
}

// Scenario 5: self-loop repair — a contracted self-loop at the shared
// node repairs the negative signed sum produced by bucket arithmetic.
func TestSelfLoopRepair(t *testing.T) {
	// graph: 0 -(3)-> 1 -(4)-> 2, loop at 1.
	// Forward search from 0 settles node 1 at weight 3.
	// Make the bucket at node 1 (from a backward search starting AT node
	// 1, offset so the stored bucket weight undercounts the loop) carry
	// a weight low enough that weight+bucketWeight goes negative,
	// exercising the repair branch directly via a synthetic target
	// phantom with a negative injected offset.
	g := fixture.SelfLoopGraph(5, 5)
	phantoms := []facade.PhantomNode{
		fixture.Phantom(0),
		{
			ForwardSegment:         facade.SegmentID{Node: 1, Enabled: true},
			TargetForwardWeight:    -10,
			TargetForwardDuration: 2,
		},
	}

	table := chTable(g, phantoms, []int{0}, []int{1})

	// weight at node1 via forward search = 3; bucket weight = -10 =>
	// new_w = -7 < 0; loop_weight = 5 => repaired = -2, still < 0 =>
	// candidate dropped, cell stays sentinel.
	w, d := table.At(0, 0)
	assert.Equal(t, ids.InvalidWeight, w)
	assert.Equal(t, ids.MaxDuration, d)
}

// A self-loop repair that succeeds: the repaired sum is non-negative and
// wins the cell.
func TestSelfLoopRepairSucceeds(t *testing.T) {
	g := fixture.SelfLoopGraph(5, 9)
	phantoms := []facade.PhantomNode{
		fixture.Phantom(0),
		{
			ForwardSegment:        facade.SegmentID{Node: 1, Enabled: true},
			TargetForwardWeight:   -4,
			TargetForwardDuration: 1,
		},
	}

	table := chTable(g, phantoms, []int{0}, []int{1})

	// weight at node1 = 3 (via 0->1); bucket weight = -4 => new_w = -1 <
	// 0; loop_weight = 5 => repaired = 4 >= 0 => new_d = duration(3) +
	// td(1) + loopDuration(9) = 13.
	w, d := table.At(0, 0)
	assert.Equal(t, ids.Weight(4), w)
	assert.Equal(t, ids.Duration(13), d)
}

// Scenario 6: source/target subsetting — the sub-matrix must equal the
// corresponding cells of the full table.
func TestSourceTargetSubsetting(t *testing.T) {
	g := fixture.RandomCHGraph(30, 120, 50, 7)
	phantoms := make([]facade.PhantomNode, 5)
	for i := range phantoms {
		phantoms[i] = fixture.Phantom(ids.NodeID(i))
	}

	full := chTable(g, phantoms, nil, nil)
	sourceIdx := []int{0, 2}
	targetIdx := []int{1, 3, 4}
	sub := chTable(g, phantoms, sourceIdx, targetIdx)

	require.Equal(t, 2, sub.Rows)
	require.Equal(t, 3, sub.Cols)
	for si, i := range sourceIdx {
		for tj, j := range targetIdx {
			fw, fd := full.At(ids.Row(i), ids.Column(j))
			sw, sd := sub.At(ids.Row(si), ids.Column(tj))
			assert.Equal(t, fw, sw, "weight mismatch at full(%d,%d) vs sub(%d,%d)", i, j, si, tj)
			assert.Equal(t, fd, sd, "duration mismatch at full(%d,%d) vs sub(%d,%d)", i, j, si, tj)
		}
	}
}

// Duplicate indices must produce duplicate rows/columns (spec §6).
func TestDuplicateIndicesProduceDuplicateRowsAndColumns(t *testing.T) {
	g := fixture.TwoNodeBidirectional(7, 7)
	phantoms := []facade.PhantomNode{fixture.Phantom(0), fixture.Phantom(1)}

	table := chTable(g, phantoms, []int{0, 0}, []int{1, 1})
	require.Equal(t, 2, table.Rows)
	require.Equal(t, 2, table.Cols)

	w00, d00 := table.At(0, 0)
	w11, d11 := table.At(1, 1)
	assert.Equal(t, w00, w11)
	assert.Equal(t, d00, d11)
}

// Sentinel invariant: weight sentinel iff duration sentinel, for every cell.
func TestSentinelInvariantHoldsEverywhere(t *testing.T) {
	g := fixture.DisjointComponents(4)
	phantoms := make([]facade.PhantomNode, 8)
	for i := range phantoms {
		phantoms[i] = fixture.Phantom(ids.NodeID(i))
	}

	table := chTable(g, phantoms, nil, nil)
	for i := 0; i < table.Rows; i++ {
		for j := 0; j < table.Cols; j++ {
			w, d := table.At(ids.Row(i), ids.Column(j))
			if w == ids.InvalidWeight {
				assert.Equal(t, ids.MaxDuration, d, "cell (%d,%d)", i, j)
			} else {
				assert.NotEqual(t, ids.MaxDuration, d, "cell (%d,%d)", i, j)
			}
		}
	}
}

// Triangle inequality across a random graph, using every node also as an
// intermediate (source AND target).
func TestTriangleInequality(t *testing.T) {
	g := fixture.RandomCHGraph(25, 100, 40, 99)
	phantoms := make([]facade.PhantomNode, 10)
	for i := range phantoms {
		phantoms[i] = fixture.Phantom(ids.NodeID(i))
	}

	table := chTable(g, phantoms, nil, nil)
	n := len(phantoms)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			wij, _ := table.At(ids.Row(i), ids.Column(j))
			if wij == ids.InvalidWeight {
				continue
			}
			for k := 0; k < n; k++ {
				wik, _ := table.At(ids.Row(i), ids.Column(k))
				wkj, _ := table.At(ids.Row(k), ids.Column(j))
				if wik == ids.InvalidWeight || wkj == ids.InvalidWeight {
					continue
				}
				assert.LessOrEqual(t, wij, wik+wkj, "triangle inequality violated for i=%d k=%d j=%d", i, k, j)
			}
		}
	}
}

// Stall-on-demand is a pruning optimization: toggling it off must not
// change the numeric result.
func TestStallOnDemandTogglingPreservesResult(t *testing.T) {
	g := fixture.RandomCHGraph(40, 200, 60, 42)
	phantoms := make([]facade.PhantomNode, 12)
	for i := range phantoms {
		phantoms[i] = fixture.Phantom(ids.NodeID(i))
	}

	withStall := manytomany.NewCHEngine(g)
	tableStall := manytomany.Search(withStall, g.NumberOfNodes(), nil, phantoms, nil, nil)

	withoutStall := manytomany.NewCHEngine(g)
	withoutStall.StallOnDemand = false
	tableNoStall := manytomany.Search(withoutStall, g.NumberOfNodes(), nil, phantoms, nil, nil)

	assert.Equal(t, tableStall.Weights, tableNoStall.Weights)
	assert.Equal(t, tableStall.Durations, tableNoStall.Durations)
}

// MLD on a partition with no clique arcs and a trivial (whole-graph)
// parent cell restriction degenerates to plain Dijkstra and must match
// CH on the same base graph.
func TestMLDDegeneratesToCHWithoutSharedCellRestriction(t *testing.T) {
	g := fixture.RandomCHGraph(30, 120, 50, 7)
	mld := fixture.RandomMLDGraph(30, 120, 50, 7, []int{1000}) // one giant cell per level: no level differs, so L* = 1 and its cell is the whole graph
	phantoms := make([]facade.PhantomNode, 6)
	for i := range phantoms {
		phantoms[i] = fixture.Phantom(ids.NodeID(i))
	}

	chEng := manytomany.NewCHEngine(g)
	chTab := manytomany.Search(chEng, g.NumberOfNodes(), nil, phantoms, nil, nil)

	mldEng := manytomany.NewMLDEngine(mld)
	mldTab := manytomany.Search(mldEng, mld.NumberOfNodes(), mld.Partition(), phantoms, nil, nil)

	assert.Equal(t, chTab.Weights, mldTab.Weights)
}

// MLD with a real clique arc: crossing into the border node's cell must
// trigger the level-1 shortcut expansion, beating a cheaper-looking but
// longer border-edge-only route.
func TestMLDLevelShortcutExpansion(t *testing.T) {
	// level 1 (cells[0]): nodes 0,1 in cell 0; nodes 2,3 in cell 1.
	// level 2 (cells[1], catch-all): every node in cell 0.
	b := static.NewBuilder(4)
	b.AddEdge(0, 2, 100, 100, true, false) // border edge into cell 1
	b.AddEdge(0, 3, 200, 200, true, false) // direct but more expensive alternative
	g := b.Build()

	part := static.NewPartition([][]facade.CellID{{0, 0, 1, 1}, {0, 0, 0, 0}})
	cs := static.NewCellStorage()
	// within cell 1 at level 1, a clique arc shortcuts node 2 -> node 3.
	cs.SetCell(1, 1, facade.Cell{
		SourceNodes:      []ids.NodeID{2},
		DestinationNodes: []ids.NodeID{3},
		OutWeights:       []ids.Weight{3},
		OutDurations:     []ids.Duration{3},
		InWeights:        []ids.Weight{3},
		InDurations:      []ids.Duration{3},
	})
	mld := static.NewMLDGraph(g, part, cs)

	phantoms := []facade.PhantomNode{fixture.Phantom(0), fixture.Phantom(3)}
	eng := manytomany.NewMLDEngine(mld)
	table := manytomany.Search(eng, mld.NumberOfNodes(), mld.Partition(), phantoms, nil, nil)

	w, d := table.At(0, 1)
	assert.Equal(t, ids.Weight(103), w, "0->2 (100) plus the level-1 clique arc 2->3 (3) beats the direct 0->3 edge (200)")
	assert.Equal(t, ids.Duration(103), d)
}
