// Package worker runs the background generation loop: it dequeues sessions,
// drives the state machine through the generation phase and streams output
// events into the session's event channel.
package worker

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/convoflow/coordinator/internal/broker"
	"github.com/convoflow/coordinator/internal/domain"
	"github.com/convoflow/coordinator/internal/fsm"
	"github.com/convoflow/coordinator/internal/generate"
)

// Options tune the worker loop. Zero values fall back to defaults.
type Options struct {
	// DequeueTimeout bounds each wait on the work queue.
	DequeueTimeout time.Duration
	// IdleWait is how long the loop sleeps after an empty dequeue.
	IdleWait time.Duration
}

const (
	defaultDequeueTimeout = time.Second
	defaultIdleWait       = 500 * time.Millisecond
)

// Worker processes queued sessions one at a time. Run multiple workers for
// parallelism; each dequeues independently.
type Worker struct {
	fsm    *fsm.FSM
	broker broker.Broker
	gen    generate.Generator
	opts   Options

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a worker. Start must be called to begin processing.
func New(f *fsm.FSM, br broker.Broker, gen generate.Generator, opts Options) *Worker {
	if opts.DequeueTimeout <= 0 {
		opts.DequeueTimeout = defaultDequeueTimeout
	}
	if opts.IdleWait <= 0 {
		opts.IdleWait = defaultIdleWait
	}
	return &Worker{fsm: f, broker: br, gen: gen, opts: opts}
}

// Start launches the processing loop in a goroutine. A second Start without
// an intervening Stop is a no-op.
func (w *Worker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		log.Println("WARN: worker already running")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	done := make(chan struct{})
	w.done = done
	go w.run(ctx, done)
	log.Println("Worker started")
}

// Stop interrupts the current wait and blocks until the loop has exited.
// Events already published to a session's channel are left for the relay to
// drain.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	log.Println("Worker stopped")
}

func (w *Worker) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		sessionID, ok := w.broker.DequeueSession(ctx, w.opts.DequeueTimeout)
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.opts.IdleWait):
			}
			continue
		}

		log.Printf("Processing session: %s", sessionID)
		w.processSession(ctx, sessionID)
	}
}

// processSession runs one generation cycle. Failures are converted into an
// error transition plus an error terminal event; they never abort the loop.
// Exactly one terminal event (commit_done or error) is published per cycle,
// always last.
func (w *Worker) processSession(ctx context.Context, sessionID string) {
	if err := w.generate(ctx, sessionID); err != nil {
		log.Printf("ERROR: failed to process session %s: %v", sessionID, err)
		if _, markErr := w.fsm.MarkError(ctx, sessionID, err.Error()); markErr != nil {
			log.Printf("ERROR: failed to mark session %s as errored: %v", sessionID, markErr)
		}
		w.broker.Publish(sessionID, domain.StreamEvent{
			Type: domain.EventTypeError,
			Data: err.Error(),
		})
	}
}

func (w *Worker) generate(ctx context.Context, sessionID string) error {
	session, err := w.fsm.BeginGeneration(ctx, sessionID)
	if err != nil {
		return err
	}

	last := session.LastMessage()
	if last == nil || last.Role != "user" {
		return &domain.ProcessingError{SessionID: sessionID, Reason: "no user message found"}
	}

	response, err := w.gen.Generate(ctx, session.Messages)
	if err != nil {
		return &domain.ProcessingError{SessionID: sessionID, Reason: err.Error()}
	}

	// Stream word by word. The first token is the bare word, every later one
	// carries its leading space, so the consumer reconstructs the text by
	// plain concatenation.
	words := strings.Fields(response)
	full := strings.Join(words, " ")
	for i, word := range words {
		token := word
		if i > 0 {
			token = " " + word
		}
		w.broker.Publish(sessionID, domain.StreamEvent{
			Type: domain.EventTypeToken,
			Data: token,
		})
	}
	w.broker.Publish(sessionID, domain.StreamEvent{Type: domain.EventTypeMessageEnd})

	if _, err := w.fsm.CommitAssistantMessage(ctx, sessionID, full); err != nil {
		return err
	}

	w.broker.Publish(sessionID, domain.StreamEvent{
		Type: domain.EventTypeCommitDone,
		Data: sessionID,
	})
	log.Printf("Session %s completed", sessionID)
	return nil
}
