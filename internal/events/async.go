package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrClosed is returned by a publisher after Close.
	ErrClosed = errors.New("publisher closed")

	// ErrQueueFull is returned when an Async publisher cannot take more events.
	ErrQueueFull = errors.New("event queue full")
)

type queued struct {
	ctx   context.Context
	event Event
}

// Async hands events to a background worker so callers never wait on the broker.
// Events are delivered to next in order; failures are logged and dropped.
type Async struct {
	next    Publisher
	timeout time.Duration
	queue   chan queued
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
}

var _ Publisher = (*Async)(nil)

// NewAsync starts a worker publishing to next with up to buffer events
// waiting and timeout per event.
func NewAsync(next Publisher, buffer int, timeout time.Duration) *Async {
	a := &Async{
		next:    next,
		timeout: timeout,
		queue:   make(chan queued, buffer),
		done:    make(chan struct{}),
	}
	go a.run()
	return a
}

// Publish queues e and returns immediately. Request values on ctx are kept
// for logging; its cancellation is not.
func (a *Async) Publish(ctx context.Context, e Event) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}
	select {
	case a.queue <- queued{ctx: context.WithoutCancel(ctx), event: e}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (a *Async) run() {
	defer close(a.done)
	for q := range a.queue {
		ctx, cancel := context.WithTimeout(q.ctx, a.timeout)
		if err := a.next.Publish(ctx, q.event); err != nil {
			slog.WarnContext(ctx, "Failed to publish event", "type", q.event.Type, "entity_id", q.event.EntityID, "error", err)
		}
		cancel()
	}
}

// Close stops accepting events and waits until the queue drains or ctx ends.
func (a *Async) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
