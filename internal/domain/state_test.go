package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestCanTransitionTable(t *testing.T) {
	allowed := []struct {
		from, to SessionState
	}{
		{StateIdle, StateUserWriting},
		{StateIdle, StateTimeout},
		{StateUserWriting, StateUserCommitted},
		{StateUserWriting, StateError},
		{StateUserCommitted, StateGenerating},
		{StateUserCommitted, StateError},
		{StateGenerating, StateAICommitted},
		{StateGenerating, StateError},
		{StateAICommitted, StateIdle},
		{StateError, StateIdle},
		{StateTimeout, StateIdle},
	}
	for _, tc := range allowed {
		if !CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be allowed", tc.from, tc.to)
		}
	}

	denied := []struct {
		from, to SessionState
	}{
		{StateIdle, StateGenerating},
		{StateIdle, StateAICommitted},
		{StateGenerating, StateIdle},
		{StateGenerating, StateUserWriting},
		{StateUserCommitted, StateIdle},
		{StateError, StateGenerating},
		{StateTimeout, StateUserWriting},
	}
	for _, tc := range denied {
		if CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be denied", tc.from, tc.to)
		}
	}
}

func TestTransitionRejectedLeavesSessionUnmodified(t *testing.T) {
	session := NewSession("s1", "u1")
	before := session.UpdatedAt

	err := session.Transition(StateGenerating)
	if err == nil {
		t.Fatal("expected transition error")
	}
	var transitionErr *StateTransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("expected StateTransitionError, got %T", err)
	}
	if transitionErr.From != StateIdle || transitionErr.To != StateGenerating {
		t.Errorf("unexpected error fields: %+v", transitionErr)
	}
	if !strings.Contains(err.Error(), "idle") || !strings.Contains(err.Error(), "generating") {
		t.Errorf("error should name both states: %v", err)
	}
	if session.State != StateIdle || !session.UpdatedAt.Equal(before) {
		t.Errorf("rejected transition modified session: %+v", session)
	}
}

func TestTransitionClearsErrorMessage(t *testing.T) {
	session := NewSession("s1", "u1")
	session.SetError("boom")
	if session.State != StateError || session.ErrorMessage != "boom" || session.RetryCount != 1 {
		t.Fatalf("unexpected session after SetError: %+v", session)
	}

	if err := session.Transition(StateIdle); err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if session.ErrorMessage != "" {
		t.Errorf("error message not cleared: %q", session.ErrorMessage)
	}
	if session.RetryCount != 1 {
		t.Errorf("retry count should survive recovery, got %d", session.RetryCount)
	}
}

func TestSetErrorAllowedFromAnyState(t *testing.T) {
	for state := range ValidTransitions {
		session := NewSession("s1", "u1")
		session.State = state
		session.SetError("failed")
		if session.State != StateError {
			t.Errorf("SetError from %s: got state %s", state, session.State)
		}
	}
}

func TestCloneIsolatesMessages(t *testing.T) {
	session := NewSession("s1", "u1")
	session.AddMessage(Message{ID: "m1", Role: "user", Content: "hi"})

	clone := session.Clone()
	clone.Messages[0].Content = "changed"
	clone.AddMessage(Message{ID: "m2", Role: "assistant", Content: "hello"})

	if session.Messages[0].Content != "hi" {
		t.Error("clone shares message backing array with original")
	}
	if len(session.Messages) != 1 {
		t.Errorf("expected 1 message in original, got %d", len(session.Messages))
	}
}

func TestStreamEventSSE(t *testing.T) {
	event := StreamEvent{Type: EventTypeToken, Data: "Hello"}
	if got := event.SSE(); got != "event: token\ndata: Hello\n\n" {
		t.Errorf("unexpected SSE encoding: %q", got)
	}

	end := StreamEvent{Type: EventTypeMessageEnd}
	if got := end.SSE(); got != "event: message_end\ndata: \n\n" {
		t.Errorf("unexpected SSE encoding: %q", got)
	}

	if !(StreamEvent{Type: EventTypeCommitDone}).IsTerminal() {
		t.Error("commit_done should be terminal")
	}
	if !(StreamEvent{Type: EventTypeError}).IsTerminal() {
		t.Error("error should be terminal")
	}
	if (StreamEvent{Type: EventTypeToken}).IsTerminal() {
		t.Error("token should not be terminal")
	}
}
