package queue

import (
	"context"
	"errors"
)

// ErrInvalidCapacity is returned when a queue is created with a non-positive capacity.
var ErrInvalidCapacity = errors.New("queue capacity must be positive")

// Bounded is a fixed-capacity FIFO safe for concurrent producers and consumers.
type Bounded[T any] struct {
	// items buffers queued values in arrival order.
	items chan T
}

// NewBounded creates a queue holding at most capacity items.
func NewBounded[T any](capacity int) (*Bounded[T], error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	return &Bounded[T]{
		items: make(chan T, capacity),
	}, nil
}

// TryEnqueue appends item without blocking and reports whether it was accepted.
func (q *Bounded[T]) TryEnqueue(item T) bool {
	select {
	case q.items <- item:
		return true
	default:
		return false
	}
}

// Dequeue blocks until an item is available or ctx is done.
func (q *Bounded[T]) Dequeue(ctx context.Context) (T, error) {
	select {
	case item := <-q.items:
		return item, nil
	case <-ctx.Done():
		var zero T

		return zero, ctx.Err()
	}
}

// TryDequeue removes the oldest item without blocking.
func (q *Bounded[T]) TryDequeue() (T, bool) {
	select {
	case item := <-q.items:
		return item, true
	default:
		var zero T

		return zero, false
	}
}

// Len returns the number of queued items.
func (q *Bounded[T]) Len() int {
	return len(q.items)
}

// Cap returns the queue capacity.
func (q *Bounded[T]) Cap() int {
	return cap(q.items)
}
