package pipeline

import (
	"sync"
	"sync/atomic"
)

// PendingResult pairs a finished payload with the callback that receives it.
type PendingResult[T any] struct {
	Callback func(T)
	Payload  T
}

// ResultQueue is a FIFO of finished results. Any number of goroutines may
// Push; a single owner drains it.
type ResultQueue[T any] struct {
	mu    sync.Mutex
	items []PendingResult[T]
}

// NewResultQueue returns an empty queue.
func NewResultQueue[T any]() *ResultQueue[T] {
	return &ResultQueue[T]{}
}

// Push appends one result.
func (q *ResultQueue[T]) Push(callback func(T), payload T) {
	q.mu.Lock()
	q.items = append(q.items, PendingResult[T]{Callback: callback, Payload: payload})
	q.mu.Unlock()
}

// Drain removes and returns everything queued so far, oldest first.
func (q *ResultQueue[T]) Drain() []PendingResult[T] {
	q.mu.Lock()
	items := q.items
	q.items = nil
	q.mu.Unlock()
	return items
}

// Len returns the number of queued results.
func (q *ResultQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// requeue puts items back in front of anything queued since they were drained.
func (q *ResultQueue[T]) requeue(items []PendingResult[T]) {
	if len(items) == 0 {
		return
	}
	q.mu.Lock()
	q.items = append(items[:len(items):len(items)], q.items...)
	q.mu.Unlock()
}

// deliver drains q and runs its callbacks on the calling goroutine, adding
// each invocation to delivered. If a callback panics, the results after it
// go back to the front of q for the next drain and the panic propagates.
func deliver[T any](q *ResultQueue[T], delivered *atomic.Int64) int {
	items := q.Drain()
	n := 0
	defer func() {
		if n < len(items) {
			// items[n] panicked; its callback did run.
			delivered.Add(1)
			q.requeue(items[n+1:])
		}
	}()
	for _, it := range items {
		if it.Callback != nil {
			it.Callback(it.Payload)
		}
		n++
		delivered.Add(1)
	}
	return n
}
