package ble

import (
	"context"
	"sync"
)

// eventQueue serializes event delivery onto a single goroutine. Pushing never
// blocks, so a handler running on the loop may push follow-up events without
// re-entering itself.
type eventQueue struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{wake: make(chan struct{}, 1)}
}

// push appends fn to the queue. Safe for concurrent use.
func (q *eventQueue) push(fn func()) {
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// len returns the number of undelivered events.
func (q *eventQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// run delivers queued events in order until ctx is cancelled.
func (q *eventQueue) run(ctx context.Context) error {
	for {
		q.drain()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.wake:
		}
	}
}

// drain delivers everything queued so far, including events pushed by the
// handlers it runs.
func (q *eventQueue) drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.mu.Unlock()
			return
		}
		fn := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()

		fn()
	}
}
