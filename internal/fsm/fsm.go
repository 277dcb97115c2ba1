// Package fsm implements the state machine driving session coordination.
// All session mutation flows through here: handlers submit user messages,
// the worker drives the generation phase.
package fsm

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/convoflow/coordinator/internal/broker"
	"github.com/convoflow/coordinator/internal/domain"
	"github.com/convoflow/coordinator/internal/store"
)

// FSM validates and applies session state transitions, persisting each step
// through the store and handing finished submissions to the work queue.
type FSM struct {
	store  store.Store
	broker broker.Broker
}

// New creates a state machine over the given store and broker.
func New(st store.Store, br broker.Broker) *FSM {
	return &FSM{store: st, broker: br}
}

// SubmitUserMessage handles an incoming user message: it fetches or creates
// the session, validates its state, appends the message with two persisted
// transitions (user_writing, then user_committed) and enqueues the session
// for generation. A failure after validation best-effort marks the session
// as errored before returning, since the message may already be partially
// applied.
func (f *FSM) SubmitUserMessage(ctx context.Context, userID, content, sessionID string) (*domain.Session, error) {
	var session *domain.Session
	if sessionID != "" {
		var err error
		session, err = f.store.GetSession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if session.UserID != userID {
			return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrOwnershipMismatch)
		}
	} else {
		session = domain.NewSession(uuid.New().String(), userID)
		if err := f.store.CreateSession(ctx, session); err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
	}

	// Messages are only accepted when no generation is pending or running.
	if session.State != domain.StateIdle && session.State != domain.StateAICommitted {
		return nil, &domain.StateTransitionError{
			From:    session.State,
			To:      domain.StateUserWriting,
			Allowed: domain.ValidTransitions[session.State],
		}
	}

	if err := f.applySubmit(ctx, session, content); err != nil {
		// The session may hold a half-applied turn; surface that state.
		session.SetError(err.Error())
		if updateErr := f.store.UpdateSession(ctx, session); updateErr != nil {
			log.Printf("ERROR: failed to mark session %s as errored: %v", session.ID, updateErr)
		}
		return nil, err
	}

	f.broker.EnqueueSession(session.ID)
	return session, nil
}

func (f *FSM) applySubmit(ctx context.Context, session *domain.Session, content string) error {
	// A session caught between the two persisted commit transitions is still
	// ai_committed; finish the pending hop to idle so the walk stays on the
	// transition table.
	if session.State == domain.StateAICommitted {
		if err := session.Transition(domain.StateIdle); err != nil {
			return err
		}
		if err := f.store.UpdateSession(ctx, session); err != nil {
			return fmt.Errorf("failed to persist idle: %w", err)
		}
	}

	if err := session.Transition(domain.StateUserWriting); err != nil {
		return err
	}
	if err := f.store.UpdateSession(ctx, session); err != nil {
		return fmt.Errorf("failed to persist user_writing: %w", err)
	}

	session.AddMessage(domain.Message{
		ID:        "msg_" + uuid.New().String()[:8],
		Role:      "user",
		Content:   content,
		Timestamp: time.Now().UTC(),
	})

	if err := session.Transition(domain.StateUserCommitted); err != nil {
		return err
	}
	if err := f.store.UpdateSession(ctx, session); err != nil {
		return fmt.Errorf("failed to persist user_committed: %w", err)
	}
	return nil
}

// BeginGeneration marks a session as generating. Called only by the worker
// when it picks up the session from the work queue.
func (f *FSM) BeginGeneration(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := f.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.Transition(domain.StateGenerating); err != nil {
		return nil, err
	}
	if err := f.store.UpdateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist generating: %w", err)
	}
	return session, nil
}

// CommitAssistantMessage appends the generated message and persists two
// transitions: ai_committed, then idle. The intermediate commit point is
// persisted on its own so external observers can see it.
func (f *FSM) CommitAssistantMessage(ctx context.Context, sessionID, content string) (*domain.Session, error) {
	session, err := f.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.State != domain.StateGenerating {
		return nil, &domain.StateTransitionError{
			From:    session.State,
			To:      domain.StateAICommitted,
			Allowed: domain.ValidTransitions[session.State],
		}
	}

	session.AddMessage(domain.Message{
		ID:        "msg_" + uuid.New().String()[:8],
		Role:      "assistant",
		Content:   content,
		Timestamp: time.Now().UTC(),
	})

	if err := session.Transition(domain.StateAICommitted); err != nil {
		return nil, err
	}
	if err := f.store.UpdateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist ai_committed: %w", err)
	}

	if err := session.Transition(domain.StateIdle); err != nil {
		return nil, err
	}
	if err := f.store.UpdateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist idle: %w", err)
	}
	return session, nil
}

// MarkError moves a session into the error state, recording the description
// and bumping the retry counter. Valid from any state.
func (f *FSM) MarkError(ctx context.Context, sessionID, description string) (*domain.Session, error) {
	session, err := f.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session.SetError(description)
	if err := f.store.UpdateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist error state: %w", err)
	}
	return session, nil
}
