// Package queue provides a small value-based priority queue for top-k
// candidate selection during search.
package queue

// Item represents a scored candidate in the priority queue.
// Value-based on purpose: no pointer indirection on the search hot path.
type Item struct {
	ID    uint32  // Insertion offset of the candidate vector
	Score float32 // Similarity score (higher is better)
}

// PriorityQueue holds Items ordered by Score.
//
// A min-queue keeps the worst candidate on top, which is the shape needed for
// bounded top-k selection: compare incoming scores against Top and replace it
// when they beat it.
type PriorityQueue struct {
	max   bool // true = highest score on top, false = lowest score on top
	items []Item
}

// NewMin initializes a priority queue with the lowest score on top.
func NewMin(capacity int) *PriorityQueue {
	return &PriorityQueue{
		max:   false,
		items: make([]Item, 0, capacity),
	}
}

// NewMax initializes a priority queue with the highest score on top.
func NewMax(capacity int) *PriorityQueue {
	return &PriorityQueue{
		max:   true,
		items: make([]Item, 0, capacity),
	}
}

// Len returns the number of elements in the queue.
func (pq *PriorityQueue) Len() int { return len(pq.items) }

// Top returns the top element without removing it.
func (pq *PriorityQueue) Top() (Item, bool) {
	if len(pq.items) == 0 {
		return Item{}, false
	}
	return pq.items[0], true
}

// Push inserts an item while maintaining the heap invariant.
func (pq *PriorityQueue) Push(item Item) {
	pq.items = append(pq.items, item)
	pq.siftUp(len(pq.items) - 1)
}

// Pop removes and returns the top element while maintaining the heap invariant.
func (pq *PriorityQueue) Pop() (Item, bool) {
	n := len(pq.items)
	if n == 0 {
		return Item{}, false
	}
	root := pq.items[0]
	last := pq.items[n-1]
	pq.items[n-1] = Item{}
	pq.items = pq.items[:n-1]
	if n-1 > 0 {
		pq.items[0] = last
		pq.siftDown(0)
	}
	return root, true
}

// Reset clears the queue for reuse, keeping the backing array.
func (pq *PriorityQueue) Reset() {
	pq.items = pq.items[:0]
}

func (pq *PriorityQueue) less(i, j int) bool {
	if pq.max {
		return pq.items[i].Score > pq.items[j].Score
	}
	return pq.items[i].Score < pq.items[j].Score
}

func (pq *PriorityQueue) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !pq.less(i, p) {
			return
		}
		pq.items[i], pq.items[p] = pq.items[p], pq.items[i]
		i = p
	}
}

func (pq *PriorityQueue) siftDown(i int) {
	n := len(pq.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		best := l
		if r := l + 1; r < n && pq.less(r, l) {
			best = r
		}
		if !pq.less(best, i) {
			return
		}
		pq.items[i], pq.items[best] = pq.items[best], pq.items[i]
		i = best
	}
}
