// Package queue provides a bounded thread-safe FIFO used to buffer telemetry
// between producers and a periodic writer.
package queue

import (
	"sync"
)

// Queue is a generic thread-safe queue. A bounded queue discards its oldest
// items when a push would exceed the limit.
type Queue[T any] struct {
	mu      sync.Mutex
	items   []T
	limit   int
	dropped int
}

// New creates a new empty, unbounded queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{
		items: make([]T, 0),
	}
}

// NewBounded creates a queue holding at most limit items. A limit <= 0 is
// unbounded.
func NewBounded[T any](limit int) *Queue[T] {
	q := New[T]()
	q.limit = limit
	return q
}

// Push appends items to the queue.
func (q *Queue[T]) Push(items ...T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, items...)
	q.trim()
}

// Requeue puts items back at the head of the queue, ahead of anything
// pushed since they were taken.
func (q *Queue[T]) Requeue(items ...T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(append(make([]T, 0, len(items)+len(q.items)), items...), q.items...)
	q.trim()
}

func (q *Queue[T]) trim() {
	if q.limit > 0 && len(q.items) > q.limit {
		over := len(q.items) - q.limit
		q.dropped += over
		q.items = append(q.items[:0], q.items[over:]...)
	}
}

// Pop removes and returns the first item. ok is false if the queue is empty.
func (q *Queue[T]) Pop() (item T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return item, false
	}
	item = q.items[0]
	q.items = q.items[1:]
	return item, true
}

// Empty returns true if the queue has no items.
func (q *Queue[T]) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) == 0
}

// Len returns the number of items in the queue.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Dropped returns how many items a bounded queue has discarded.
func (q *Queue[T]) Dropped() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Clear removes all items from the queue.
func (q *Queue[T]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = q.items[:0]
}

// GetAndEmpty returns all items and clears the queue.
func (q *Queue[T]) GetAndEmpty() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	result := q.items
	q.items = make([]T, 0, cap(q.items))
	return result
}
