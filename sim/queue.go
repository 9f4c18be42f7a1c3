package sim

import "container/heap"

// queueEntry pairs a Schedulable with the sequence number it received
// when it was (re)inserted.
type queueEntry struct {
	s   Schedulable
	seq uint64
}

// EventQueue implements a priority queue with deterministic ordering.
// Ordering: Time() → insertion sequence number. Entries sharing a
// bit-identical time pop in the order they were scheduled.
type EventQueue struct {
	entries []queueEntry
	nextSeq uint64
}

// NewEventQueue creates an empty event queue.
func NewEventQueue() *EventQueue {
	q := &EventQueue{
		entries: make([]queueEntry, 0),
	}
	heap.Init(q)
	return q
}

// Len implements heap.Interface
func (q *EventQueue) Len() int {
	return len(q.entries)
}

// Less implements heap.Interface with deterministic ordering
func (q *EventQueue) Less(i, j int) bool {
	ei, ej := q.entries[i], q.entries[j]
	ti, tj := ei.s.Time(), ej.s.Time()
	if ti != tj {
		return ti < tj
	}
	return ei.seq < ej.seq
}

// Swap implements heap.Interface
func (q *EventQueue) Swap(i, j int) {
	q.entries[i], q.entries[j] = q.entries[j], q.entries[i]
}

// Push implements heap.Interface
func (q *EventQueue) Push(x any) {
	q.entries = append(q.entries, x.(queueEntry))
}

// Pop implements heap.Interface
func (q *EventQueue) Pop() any {
	old := q.entries
	n := len(old)
	item := old[n-1]
	old[n-1] = queueEntry{}
	q.entries = old[0 : n-1]
	return item
}

// Schedule adds a Schedulable to the queue, stamping it with the next
// sequence number.
func (q *EventQueue) Schedule(s Schedulable) {
	q.nextSeq++
	heap.Push(q, queueEntry{s: s, seq: q.nextSeq})
}

// PopNext removes and returns the earliest Schedulable, or nil if the
// queue is empty.
func (q *EventQueue) PopNext() Schedulable {
	if q.Len() == 0 {
		return nil
	}
	return heap.Pop(q).(queueEntry).s
}

// Peek returns the earliest Schedulable without removing it.
func (q *EventQueue) Peek() Schedulable {
	if q.Len() == 0 {
		return nil
	}
	return q.entries[0].s
}
