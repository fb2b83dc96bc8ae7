package async

import (
	"context"
	"errors"
	"sync"
)

// ErrQueueClosed is returned by Take once a queue is closed and drained.
var ErrQueueClosed = errors.New("async: queue closed")

// Queue is an unbounded FIFO queue whose Take blocks until an item
// arrives. An Add while takers are waiting hands the item to the oldest
// waiter directly; it never passes through the backing slice, so Len and
// IsEmpty reflect stored items only.
//
// Closing rejects waiting takers but keeps stored items takeable: Take
// drains the remainder in order and only then fails with ErrQueueClosed.
type Queue[T any] struct {
	mu      sync.Mutex
	items   []T
	waiters []*Promise[T]
	closed  bool
}

// NewQueue returns an empty open queue.
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{}
}

// Add appends v, or hands it to the oldest waiting Take. Add never
// blocks. Adding to a closed queue discards v.
func (q *Queue[T]) Add(v T) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	if len(q.waiters) > 0 {
		w := q.waiters[0]
		q.waiters = q.waiters[1:]
		q.mu.Unlock()
		w.Resolve(v)
		return
	}
	q.items = append(q.items, v)
	q.mu.Unlock()
}

// Take removes and returns the head item. On an empty queue it returns
// ErrQueueClosed if the queue is closed, otherwise it blocks until an
// Add hands it a value, the queue closes, or ctx is done. Concurrent
// takers are served in arrival order.
func (q *Queue[T]) Take(ctx context.Context) (T, error) {
	q.mu.Lock()
	if len(q.items) > 0 {
		v := q.items[0]
		q.items = q.items[1:]
		q.mu.Unlock()
		return v, nil
	}
	if q.closed {
		q.mu.Unlock()
		var zero T
		return zero, ErrQueueClosed
	}
	w := NewPromise[T]()
	q.waiters = append(q.waiters, w)
	q.mu.Unlock()

	v, err := w.Wait(ctx)
	switch {
	case err == nil:
		return v, nil
	case errors.Is(err, ErrQueueClosed):
		var zero T
		return zero, err
	}

	// ctx expired. Withdraw the waiter if it is still queued; if it is
	// gone, an Add or Close already committed to it and the settled
	// result must be returned so the value is not lost.
	q.mu.Lock()
	for i, o := range q.waiters {
		if o == w {
			q.waiters = append(q.waiters[:i], q.waiters[i+1:]...)
			q.mu.Unlock()
			var zero T
			return zero, err
		}
	}
	q.mu.Unlock()
	return w.Wait(context.Background())
}

// Len reports the number of stored items. Waiting takers do not count.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// IsEmpty reports whether no items are stored.
func (q *Queue[T]) IsEmpty() bool {
	return q.Len() == 0
}

// Close marks the queue closed and rejects all waiting takers with
// ErrQueueClosed. Stored items remain takeable until drained. Close is
// idempotent; Adds after Close are discarded.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	ws := q.waiters
	q.waiters = nil
	q.mu.Unlock()

	for _, w := range ws {
		w.Reject(ErrQueueClosed)
	}
}
