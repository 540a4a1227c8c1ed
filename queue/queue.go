package queue

import "sync"

// Queue is a bounded FIFO that is safe for concurrent use. Enqueueing onto
// a full queue drops the oldest item.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
	limit int
}

// New returns an empty queue. limit <= 0 means unbounded.
func New[T any](limit int) *Queue[T] {
	return &Queue[T]{items: []T{}, limit: limit}
}

// Enqueue adds an element to the end of the queue.
func (q *Queue[T]) Enqueue(item T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, item)
	if q.limit > 0 && len(q.items) > q.limit {
		var zero T
		q.items[0] = zero
		q.items = q.items[1:]
	}
}

// Last returns the most recently enqueued element.
// The boolean is false if the queue is empty.
func (q *Queue[T]) Last() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	return q.items[len(q.items)-1], true
}

// Items returns a copy of the queue contents, oldest first.
func (q *Queue[T]) Items() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]T, len(q.items))
	copy(out, q.items)
	return out
}
