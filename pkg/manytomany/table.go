package manytomany

import "routingtable/pkg/ids"

// Table is the dense row-major R×C output: one weight and one duration
// per (source, target) pair. Cells start at the sentinel values and are
// monotonically improved as bucket hits are found during forward
// searches.
type Table struct {
	Weights   []ids.Weight
	Durations []ids.Duration
	Rows      int
	Cols      int
}

// NewTable allocates a table of the given shape with every cell set to
// the unreachable sentinel.
func NewTable(rows, cols int) *Table {
	t := &Table{
		Weights:   make([]ids.Weight, rows*cols),
		Durations: make([]ids.Duration, rows*cols),
		Rows:      rows,
		Cols:      cols,
	}
	for i := range t.Weights {
		t.Weights[i] = ids.InvalidWeight
		t.Durations[i] = ids.MaxDuration
	}
	return t
}

func (t *Table) index(row ids.Row, col ids.Column) int { return int(row)*t.Cols + int(col) }

// At returns the current best-known weight/duration for (row, col).
func (t *Table) At(row ids.Row, col ids.Column) (ids.Weight, ids.Duration) {
	i := t.index(row, col)
	return t.Weights[i], t.Durations[i]
}

// Update applies a candidate (weight, duration) to (row, col): strictly
// better weight replaces both fields; an exactly tied weight keeps the
// earlier duration unless the new one is smaller. This is the tie rule
// the spec calls out explicitly: "on strict improvement replace; on
// equality, retain the earlier value" unless the new value is lower.
func (t *Table) Update(row ids.Row, col ids.Column, weight ids.Weight, duration ids.Duration) {
	i := t.index(row, col)
	switch {
	case weight < t.Weights[i]:
		t.Weights[i] = weight
		t.Durations[i] = duration
	case weight == t.Weights[i] && duration < t.Durations[i]:
		t.Durations[i] = duration
	}
}
