// Package ids defines the dense integer handles and weight/duration types
// shared by the graph facade and the many-to-many search cores.
package ids

import "math"

// NodeID is an opaque dense handle into the graph facade's node array.
type NodeID int32

// EdgeID is an opaque dense handle into the graph facade's edge array.
type EdgeID int32

// InvalidNode marks the absence of a node (e.g. an unset heap parent).
const InvalidNode NodeID = -1

// InvalidEdge marks the absence of an edge.
const InvalidEdge EdgeID = -1

// Weight is a signed accumulator for edge/shortcut weight sums.
//
// It must be wide enough that ordinary sums never wrap, yet narrow enough
// that the CH loop-crossing case does wrap: int32 matches the source's
// own width, so the same wraparound-as-signal trick is preserved.
type Weight int32

// InvalidWeight marks "no shortcut"/"unreachable"; treated as +inf in
// every comparison.
const InvalidWeight Weight = math.MaxInt32

// Duration is a signed accumulator for edge/shortcut duration sums.
type Duration int32

// MaxDuration is the sentinel stored for unreachable table cells.
const MaxDuration Duration = math.MaxInt32

// Valid reports whether w is not the sentinel.
func (w Weight) Valid() bool { return w != InvalidWeight }

// Column indexes a target in the output tables; Row indexes a source.
type Column = uint32
type Row = uint32

// AssertPanic panics with msg if cond is false. It guards the search
// cores' own preconditions (spec §7: a violated invariant is a
// programmer error, not a recoverable failure), the same role the
// teacher's pkg/util.AssertPanic plays around its own heap and
// contraction invariants.
func AssertPanic(cond bool, msg string) {
	if !cond {
		panic(msg)
	}
}
