// Package bucket implements the bucket index that the many-to-many
// search cores use to share computation across backward (target) and
// forward (source) searches.
package bucket

import "routingtable/pkg/ids"

// Entry is one (column, weight, duration) contribution left behind by a
// target's backward search at a node it settled.
type Entry struct {
	Column   ids.Column
	Weight   ids.Weight
	Duration ids.Duration
}

// Index maps a settled node to the ordered, append-only list of bucket
// entries left there by completed backward searches. Order is insertion
// order; duplicates (multiple targets settling the same node) are
// expected and kept, one entry per (node, target) pair.
//
// The source OSRM implementation notes a plain hash map of slices over a
// multimap here ("needs benchmarking") and this module follows that
// choice rather than inventing a dedicated multimap type. It is also,
// like the original's SearchSpaceWithBuckets, a local declared fresh
// inside one many-to-many call rather than a thread-local resource
// reused across calls the way the heap is — its lifetime is exactly one
// call (spec §3 Lifecycle), so there is no cross-call reset to support.
type Index struct {
	entries map[ids.NodeID][]Entry
}

// New returns an empty bucket index, sized as a hint for the expected
// number of distinct settled nodes across all backward searches.
func New(nodeHint int) *Index {
	return &Index{entries: make(map[ids.NodeID][]Entry, nodeHint)}
}

// Append records that target column settled node with the given weight
// and duration. Called once per node per backward search.
func (b *Index) Append(node ids.NodeID, column ids.Column, weight ids.Weight, duration ids.Duration) {
	b.entries[node] = append(b.entries[node], Entry{Column: column, Weight: weight, Duration: duration})
}

// Lookup returns the bucket entries recorded at node, if any. The
// returned slice must not be mutated by the caller.
func (b *Index) Lookup(node ids.NodeID) ([]Entry, bool) {
	e, ok := b.entries[node]
	return e, ok
}
