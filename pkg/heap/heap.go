// Package heap implements the addressable min-heap used by the
// many-to-many search cores: an indexed, decrease-key priority queue
// keyed directly by NodeID, with an O(1) WasInserted that distinguishes
// "never touched" from "already settled" without a second set.
package heap

import "routingtable/pkg/ids"

const arity = 4

const (
	stateUnseen uint8 = iota
	stateOpen
	stateSettled
)

// Heap is a d-ary addressable min-heap. T is the per-node payload carried
// alongside the tentative key (e.g. parent + duration for CH, or
// parent + level + from-clique-arc + duration for MLD).
//
// It is sized to the graph's node count and reset via Clear between
// phantom iterations rather than reallocated, per the working-storage
// model in §5 of the spec this implements.
type Heap[T any] struct {
	tree  []ids.NodeID // heap-ordered array of node ids
	pos   []int32      // pos[node] = index in tree, -1 if not currently in tree
	key   []ids.Weight // key[node] = tentative weight, valid once state != unseen
	data  []T          // data[node] = payload, valid once state != unseen
	state []uint8

	touched []ids.NodeID // nodes touched since last Clear, for O(touched) reset
}

// New allocates a heap addressable over numNodes distinct node ids.
func New[T any](numNodes int) *Heap[T] {
	h := &Heap[T]{}
	h.Reset(numNodes)
	return h
}

// Reset resizes the heap's per-node storage to numNodes if needed and
// clears it. Called once per many-to-many call from the search engine's
// ResetForCall, matching the reset-not-reallocate rule.
func (h *Heap[T]) Reset(numNodes int) {
	if len(h.pos) != numNodes {
		h.pos = make([]int32, numNodes)
		h.key = make([]ids.Weight, numNodes)
		h.data = make([]T, numNodes)
		h.state = make([]uint8, numNodes)
		h.tree = h.tree[:0]
		h.touched = h.touched[:0]
		return
	}
	h.Clear()
}

// Clear empties the heap, ready for the next phantom's search. Only
// nodes actually touched since the previous Clear are reset, so cost is
// proportional to the size of the last search, not the graph.
func (h *Heap[T]) Clear() {
	for _, n := range h.touched {
		h.state[n] = stateUnseen
		h.pos[n] = -1
	}
	h.touched = h.touched[:0]
	h.tree = h.tree[:0]
}

// Empty reports whether the heap currently holds no open nodes.
func (h *Heap[T]) Empty() bool { return len(h.tree) == 0 }

// WasInserted reports whether node has ever been inserted since the last
// Clear, whether it is still open or has already been popped.
func (h *Heap[T]) WasInserted(node ids.NodeID) bool {
	return h.state[node] != stateUnseen
}

// GetKey returns node's current tentative weight.
func (h *Heap[T]) GetKey(node ids.NodeID) ids.Weight { return h.key[node] }

// GetData returns a mutable pointer to node's payload so callers can
// overwrite the parent/duration fields in place before DecreaseKey.
func (h *Heap[T]) GetData(node ids.NodeID) *T { return &h.data[node] }

// Insert adds a never-before-seen node with the given key and payload.
func (h *Heap[T]) Insert(node ids.NodeID, key ids.Weight, data T) {
	h.touched = append(h.touched, node)
	h.key[node] = key
	h.data[node] = data
	h.state[node] = stateOpen

	idx := len(h.tree)
	h.tree = append(h.tree, node)
	h.pos[node] = int32(idx)
	h.siftUp(idx)
}

// DecreaseKey lowers an already-open node's key and re-heapifies.
func (h *Heap[T]) DecreaseKey(node ids.NodeID, newKey ids.Weight) {
	h.key[node] = newKey
	h.siftUp(int(h.pos[node]))
}

// DeleteMin pops and returns the node with the smallest key, marking it
// settled so WasInserted keeps returning true for it.
func (h *Heap[T]) DeleteMin() ids.NodeID {
	root := h.tree[0]
	last := len(h.tree) - 1
	h.swap(0, last)
	h.tree = h.tree[:last]
	h.pos[root] = -1
	h.state[root] = stateSettled
	if len(h.tree) > 0 {
		h.siftDown(0)
	}
	return root
}

func (h *Heap[T]) swap(i, j int) {
	h.tree[i], h.tree[j] = h.tree[j], h.tree[i]
	h.pos[h.tree[i]] = int32(i)
	h.pos[h.tree[j]] = int32(j)
}

func (h *Heap[T]) siftUp(i int) {
	for i != 0 {
		parent := (i - 1) / arity
		if h.key[h.tree[i]] >= h.key[h.tree[parent]] {
			break
		}
		h.swap(i, parent)
		i = parent
	}
}

func (h *Heap[T]) siftDown(i int) {
	n := len(h.tree)
	for {
		firstChild := i*arity + 1
		if firstChild >= n {
			return
		}
		end := firstChild + arity
		if end > n {
			end = n
		}
		smallest := firstChild
		for c := firstChild + 1; c < end; c++ {
			if h.key[h.tree[c]] < h.key[h.tree[smallest]] {
				smallest = c
			}
		}
		if h.key[h.tree[smallest]] >= h.key[h.tree[i]] {
			return
		}
		h.swap(i, smallest)
		i = smallest
	}
}
