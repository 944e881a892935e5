package heap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"routingtable/pkg/heap"
	"routingtable/pkg/ids"
)

func generateRandomInt(min, max int) int {
	return min + rand.Intn(max-min)
}

type payload struct {
	tag int
}

func TestHeapInsertExtractMinSorted(t *testing.T) {
	const n = 2000
	h := heap.New[payload](n)

	min := ids.Weight(1 << 30)
	for i := 0; i < n; i++ {
		key := ids.Weight(generateRandomInt(0, 1_000_000))
		if key < min {
			min = key
		}
		h.Insert(ids.NodeID(i), key, payload{tag: i})
	}

	var prev ids.Weight = -1
	for !h.Empty() {
		node := h.DeleteMin()
		key := h.GetKey(node)
		require.GreaterOrEqual(t, key, prev, "heap popped out of order")
		prev = key
	}
}

func TestHeapDecreaseKey(t *testing.T) {
	const n = 2000
	h := heap.New[payload](n)

	for i := 0; i < n; i++ {
		h.Insert(ids.NodeID(i), ids.Weight(generateRandomInt(10_000, 1_000_000)), payload{tag: i})
	}
	for i := 0; i < n; i++ {
		h.DecreaseKey(ids.NodeID(i), ids.Weight(generateRandomInt(0, 9_999)))
	}

	var prev ids.Weight = -1
	for !h.Empty() {
		node := h.DeleteMin()
		key := h.GetKey(node)
		assert.GreaterOrEqual(t, key, prev)
		prev = key
	}
}

func TestHeapWasInsertedDistinguishesUnseenFromSettled(t *testing.T) {
	h := heap.New[payload](4)
	assert.False(t, h.WasInserted(0))

	h.Insert(0, 5, payload{})
	assert.True(t, h.WasInserted(0))
	assert.False(t, h.WasInserted(1))

	node := h.DeleteMin()
	assert.Equal(t, ids.NodeID(0), node)
	assert.True(t, h.WasInserted(0), "a settled node must still report WasInserted")
}

func TestHeapClearResetsOnlyTouchedNodes(t *testing.T) {
	h := heap.New[payload](100)
	for i := 0; i < 5; i++ {
		h.Insert(ids.NodeID(i), ids.Weight(i), payload{})
	}
	h.Clear()

	assert.True(t, h.Empty())
	for i := 0; i < 5; i++ {
		assert.False(t, h.WasInserted(ids.NodeID(i)))
	}

	h.Insert(0, 42, payload{tag: 7})
	require.True(t, h.WasInserted(0))
	assert.Equal(t, ids.Weight(42), h.GetKey(0))
	assert.Equal(t, 7, h.GetData(0).tag)
}

func TestHeapResetReallocatesOnSizeChange(t *testing.T) {
	h := heap.New[payload](4)
	h.Insert(0, 1, payload{})

	h.Reset(10)
	assert.True(t, h.Empty())
	assert.False(t, h.WasInserted(0))

	h.Insert(9, 1, payload{})
	assert.True(t, h.WasInserted(9))
}
