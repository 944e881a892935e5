// Package static provides a small in-memory, read-only graph facade
// implementation backed by flat CSR arrays, used by the many-to-many
// search cores' tests. It does no ingestion, contraction or
// partitioning of its own — callers hand it already-built adjacency,
// partition and cell-storage data, matching the "ready, read-only graph
// view" the spec describes as an external collaborator.
//
// The CSR layout follows the teacher's own compressed adjacency
// convention (a per-node offset array into a flat edge array).
package static

import (
	"routingtable/pkg/facade"
	"routingtable/pkg/ids"
)

type edgeRecord struct {
	to       ids.NodeID
	weight   ids.Weight
	duration ids.Duration
	forward  bool
	backward bool
}

// Graph is a flat CSR adjacency list implementing facade.Graph and
// facade.LoopGraph.
type Graph struct {
	edgeStart []int32 // len = numNodes+1
	edges     []edgeRecord

	loopWeight   map[ids.NodeID]ids.Weight
	loopDuration map[ids.NodeID]ids.Duration
}

// Builder accumulates edges per source node before Build lays them out
// in CSR form.
type Builder struct {
	numNodes int
	perNode  [][]edgeRecord
	loopW    map[ids.NodeID]ids.Weight
	loopD    map[ids.NodeID]ids.Duration
}

// NewBuilder allocates a builder for a graph with exactly numNodes
// dense node ids.
func NewBuilder(numNodes int) *Builder {
	return &Builder{
		numNodes: numNodes,
		perNode:  make([][]edgeRecord, numNodes),
		loopW:    make(map[ids.NodeID]ids.Weight),
		loopD:    make(map[ids.NodeID]ids.Duration),
	}
}

// AddEdge adds a directed adjacency entry from -> to. An undirected
// edge is two calls, or one call with forward=backward=true sharing a
// single adjacency slot the way the teacher's graph stores two-way
// street segments.
func (b *Builder) AddEdge(from, to ids.NodeID, weight ids.Weight, duration ids.Duration, forward, backward bool) {
	b.perNode[from] = append(b.perNode[from], edgeRecord{to: to, weight: weight, duration: duration, forward: forward, backward: backward})
}

// SetLoop records a contracted self-loop's weight/duration at node,
// keeping the minimum if called more than once (mirrors "loop_weight =
// min over self-loops at n").
func (b *Builder) SetLoop(node ids.NodeID, weight ids.Weight, duration ids.Duration) {
	if cur, ok := b.loopW[node]; !ok || weight < cur {
		b.loopW[node] = weight
		b.loopD[node] = duration
	}
}

// Build lays out the accumulated adjacency into a flat CSR graph.
func (b *Builder) Build() *Graph {
	g := &Graph{
		edgeStart:    make([]int32, b.numNodes+1),
		loopWeight:   b.loopW,
		loopDuration: b.loopD,
	}
	total := 0
	for n := 0; n < b.numNodes; n++ {
		total += len(b.perNode[n])
	}
	g.edges = make([]edgeRecord, 0, total)
	for n := 0; n < b.numNodes; n++ {
		g.edgeStart[n] = int32(len(g.edges))
		g.edges = append(g.edges, b.perNode[n]...)
	}
	g.edgeStart[b.numNodes] = int32(len(g.edges))
	return g
}

func (g *Graph) NumberOfNodes() int { return len(g.edgeStart) - 1 }

func (g *Graph) AdjacentEdges(node ids.NodeID) []ids.EdgeID {
	start, end := g.edgeStart[node], g.edgeStart[node+1]
	out := make([]ids.EdgeID, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, ids.EdgeID(i))
	}
	return out
}

func (g *Graph) EdgeData(edge ids.EdgeID) facade.EdgeData {
	e := g.edges[edge]
	return facade.EdgeData{Weight: e.weight, Duration: e.duration, Forward: e.forward, Backward: e.backward}
}

func (g *Graph) Target(edge ids.EdgeID) ids.NodeID { return g.edges[edge].to }

func (g *Graph) LoopWeight(node ids.NodeID) ids.Weight {
	if w, ok := g.loopWeight[node]; ok {
		return w
	}
	return ids.InvalidWeight
}

func (g *Graph) LoopDuration(node ids.NodeID) ids.Duration {
	if d, ok := g.loopDuration[node]; ok {
		return d
	}
	return 0
}

// Partition is a dense, array-backed MultiLevelPartition: cells[i][node]
// holds the assignment for real partition level i+1. Level 0 is the
// implicit, ungrouped base graph (spec glossary) and is never stored:
// callers never address it directly, since the orchestrator's parent
// cell is always one level above wherever two phantoms last differ
// (spec §4.E), and the MLD core only consults the partition once a
// popped node's level has risen to at least 1.
//
// The coarsest stored row (the last one) must put every node in the
// same cell — the CRP invariant that the topmost level is the whole
// graph as a single cell — or HighestDifferentLevel's "+1" lookup in
// the orchestrator can address a level past the end of cells.
type Partition struct {
	cells [][]facade.CellID // cells[i][node] is node's cell at level i+1
}

// NewPartition builds a partition from a dense level-major cell table,
// cells[i] holding level i+1's assignment.
func NewPartition(cells [][]facade.CellID) *Partition {
	return &Partition{cells: cells}
}

func (p *Partition) Cell(level facade.LevelID, node ids.NodeID) facade.CellID {
	return p.cells[level-1][node]
}

// HighestDifferentLevel returns the highest real level (1-indexed) at
// which a and b lie in different cells, or 0 if they share every
// stored level.
func (p *Partition) HighestDifferentLevel(a, b ids.NodeID) facade.LevelID {
	for i := len(p.cells) - 1; i >= 0; i-- {
		if p.cells[i][a] != p.cells[i][b] {
			return facade.LevelID(i + 1)
		}
	}
	return 0
}

// CellStorage is a map-backed facade.CellStorage.
type CellStorage struct {
	cells map[[2]uint32]facade.Cell
}

// NewCellStorage builds a cell-storage view from an explicit set of
// (level, cell) -> clique-arc entries.
func NewCellStorage() *CellStorage {
	return &CellStorage{cells: make(map[[2]uint32]facade.Cell)}
}

// SetCell stores the clique-arc data for (level, cell).
func (cs *CellStorage) SetCell(level facade.LevelID, cell facade.CellID, c facade.Cell) {
	cs.cells[[2]uint32{uint32(level), uint32(cell)}] = c
}

func (cs *CellStorage) GetCell(level facade.LevelID, cell facade.CellID) facade.Cell {
	return cs.cells[[2]uint32{uint32(level), uint32(cell)}]
}

// MLDGraph wraps a Graph with a Partition and CellStorage, implementing
// facade.MLDGraph. Border edges are computed on demand by comparing the
// far endpoint's cell at level against node's own cell at level.
type MLDGraph struct {
	*Graph
	partition   *Partition
	cellStorage *CellStorage
}

// NewMLDGraph composes a base CSR graph with its partition and cell
// storage into the combined facade the MLD core consumes.
func NewMLDGraph(g *Graph, p *Partition, cs *CellStorage) *MLDGraph {
	return &MLDGraph{Graph: g, partition: p, cellStorage: cs}
}

func (m *MLDGraph) Partition() facade.MultiLevelPartition { return m.partition }
func (m *MLDGraph) CellStorage() facade.CellStorage       { return m.cellStorage }

func (m *MLDGraph) BorderEdges(level facade.LevelID, node ids.NodeID) []ids.EdgeID {
	all := m.Graph.AdjacentEdges(node)
	if level == 0 {
		return all
	}
	ownCell := m.partition.Cell(level, node)
	var out []ids.EdgeID
	for _, e := range all {
		to := m.Graph.Target(e)
		if m.partition.Cell(level, to) != ownCell {
			out = append(out, e)
		}
	}
	return out
}
