package broker

import (
	"context"
	"sync"
	"time"

	"github.com/convoflow/coordinator/internal/domain"
)

// MemoryBroker is an in-process Broker. The work queue and every event
// queue pair an unbounded slice with a one-slot wakeup channel, so waiters
// block on a notification instead of sleep-polling. Queues for different
// sessions share only the registry lock, taken on create and release.
type MemoryBroker struct {
	work workQueue

	mu     sync.Mutex
	queues map[string]*eventQueue
}

// NewMemoryBroker creates an empty in-memory broker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		work:   workQueue{ready: make(chan struct{}, 1)},
		queues: make(map[string]*eventQueue),
	}
}

var _ Broker = (*MemoryBroker)(nil)

func (b *MemoryBroker) EnqueueSession(sessionID string) {
	b.work.push(sessionID)
}

func (b *MemoryBroker) DequeueSession(ctx context.Context, timeout time.Duration) (string, bool) {
	return b.work.pop(ctx, timeout)
}

func (b *MemoryBroker) Publish(sessionID string, event domain.StreamEvent) {
	b.getOrCreate(sessionID).push(event)
}

func (b *MemoryBroker) Subscribe(sessionID string) EventQueue {
	return b.getOrCreate(sessionID)
}

func (b *MemoryBroker) Release(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.queues, sessionID)
}

func (b *MemoryBroker) getOrCreate(sessionID string) *eventQueue {
	b.mu.Lock()
	defer b.mu.Unlock()
	q, ok := b.queues[sessionID]
	if !ok {
		q = &eventQueue{ready: make(chan struct{}, 1)}
		b.queues[sessionID] = q
	}
	return q
}

// workQueue is an unbounded FIFO of session ids.
type workQueue struct {
	mu    sync.Mutex
	items []string
	ready chan struct{}
}

func (q *workQueue) push(id string) {
	q.mu.Lock()
	q.items = append(q.items, id)
	q.mu.Unlock()
	signal(q.ready)
}

func (q *workQueue) pop(ctx context.Context, timeout time.Duration) (string, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			id := q.items[0]
			q.items = q.items[1:]
			remaining := len(q.items)
			q.mu.Unlock()
			if remaining > 0 {
				// Pass the wakeup on so other waiters see the leftovers.
				signal(q.ready)
			}
			return id, true
		}
		q.mu.Unlock()

		select {
		case <-q.ready:
			// Woken; another dequeuer may have won, so loop and re-check.
		case <-timer.C:
			return "", false
		case <-ctx.Done():
			return "", false
		}
	}
}

// eventQueue is an unbounded FIFO of stream events for one session.
type eventQueue struct {
	mu     sync.Mutex
	events []domain.StreamEvent
	ready  chan struct{}
}

func (q *eventQueue) push(event domain.StreamEvent) {
	q.mu.Lock()
	q.events = append(q.events, event)
	q.mu.Unlock()
	signal(q.ready)
}

func (q *eventQueue) Receive(ctx context.Context, timeout time.Duration) (domain.StreamEvent, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		q.mu.Lock()
		if len(q.events) > 0 {
			event := q.events[0]
			q.events = q.events[1:]
			remaining := len(q.events)
			q.mu.Unlock()
			if remaining > 0 {
				signal(q.ready)
			}
			return event, true
		}
		q.mu.Unlock()

		select {
		case <-q.ready:
		case <-timer.C:
			return domain.StreamEvent{}, false
		case <-ctx.Done():
			return domain.StreamEvent{}, false
		}
	}
}

// signal makes a non-blocking wakeup; a pending wakeup already covers any
// number of queued items because waiters re-check the queue in a loop.
func signal(ready chan struct{}) {
	select {
	case ready <- struct{}{}:
	default:
	}
}
