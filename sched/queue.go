package sched

import "container/heap"

// UEQueue is a max-heap of History Store slots ordered by an outranks
// function. It is rebuilt every TTI and never owns the contexts.
type UEQueue struct {
	slots    []int
	store    *HistoryStore
	outranks func(a, b *UEContext) bool
}

// NewUEQueue creates an empty queue over store.
func NewUEQueue(store *HistoryStore, outranks func(a, b *UEContext) bool) *UEQueue {
	q := &UEQueue{
		slots:    make([]int, 0, store.Cap()),
		store:    store,
		outranks: outranks,
	}
	heap.Init(q)
	return q
}

// Len implements heap.Interface
func (q *UEQueue) Len() int {
	return len(q.slots)
}

// Less implements heap.Interface; the root is the highest-ranked UE.
func (q *UEQueue) Less(i, j int) bool {
	return q.outranks(q.store.Slot(q.slots[i]), q.store.Slot(q.slots[j]))
}

// Swap implements heap.Interface
func (q *UEQueue) Swap(i, j int) {
	q.slots[i], q.slots[j] = q.slots[j], q.slots[i]
}

// Push implements heap.Interface
func (q *UEQueue) Push(x interface{}) {
	q.slots = append(q.slots, x.(int))
}

// Pop implements heap.Interface
func (q *UEQueue) Pop() interface{} {
	old := q.slots
	n := len(old)
	item := old[n-1]
	q.slots = old[0 : n-1]
	return item
}

// Schedule adds a slot to the queue.
func (q *UEQueue) Schedule(slot int) {
	heap.Push(q, slot)
}

// PopNext removes and returns the highest-ranked slot.
func (q *UEQueue) PopNext() (int, bool) {
	if q.Len() == 0 {
		return -1, false
	}
	return heap.Pop(q).(int), true
}

// Peek returns the highest-ranked slot without removing it.
func (q *UEQueue) Peek() (int, bool) {
	if q.Len() == 0 {
		return -1, false
	}
	return q.slots[0], true
}

// Drain empties the queue, calling fn for every slot still queued.
func (q *UEQueue) Drain(fn func(slot int)) {
	for _, slot := range q.slots {
		fn(slot)
	}
	q.slots = q.slots[:0]
}

// Remove drops slot from the queue if present.
func (q *UEQueue) Remove(slot int) bool {
	for i, s := range q.slots {
		if s == slot {
			heap.Remove(q, i)
			return true
		}
	}
	return false
}
