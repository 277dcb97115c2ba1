// Package broker decouples message submission from response generation: a
// FIFO work queue of session ids plus a registry of per-session event
// channels used for streaming delivery.
package broker

import (
	"context"
	"time"

	"github.com/convoflow/coordinator/internal/domain"
)

// EventQueue is the read side of a session's event channel. A single
// producer (the worker) publishes into it and normally a single consumer
// (the stream relay) drains it; each event is delivered at most once.
type EventQueue interface {
	// Receive waits up to timeout for the next event. The second return is
	// false when the timeout elapsed or ctx was cancelled.
	Receive(ctx context.Context, timeout time.Duration) (domain.StreamEvent, bool)
}

// Broker handles queuing sessions for generation and streaming events to
// clients.
type Broker interface {
	// EnqueueSession appends a session id to the work queue. Never blocks.
	EnqueueSession(sessionID string)

	// DequeueSession waits up to timeout for the next session id. The
	// second return is false when no work was available within the timeout
	// or ctx was cancelled. Concurrent dequeuers never lose or duplicate
	// an id.
	DequeueSession(ctx context.Context, timeout time.Duration) (string, bool)

	// Publish appends an event to a session's channel, creating the
	// channel if it does not exist yet.
	Publish(sessionID string, event domain.StreamEvent)

	// Subscribe returns the session's event channel, creating it if it
	// does not exist yet.
	Subscribe(sessionID string) EventQueue

	// Release removes a session's event channel. Safe to call when no
	// channel exists.
	Release(sessionID string)
}
