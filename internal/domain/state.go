// Package domain defines the core domain models for the coordinator.
package domain

import "fmt"

// SessionState represents the lifecycle state of a session.
type SessionState string

const (
	StateIdle          SessionState = "idle"
	StateUserWriting   SessionState = "user_writing"
	StateUserCommitted SessionState = "user_committed"
	StateGenerating    SessionState = "generating"
	StateAICommitted   SessionState = "ai_committed"
	StateError         SessionState = "error"
	// StateTimeout is reachable only from idle. No code path produces this
	// transition today; staleness detection is a deliberate follow-on and the
	// detection policy (threshold, sweep mechanism) is left to whoever adds it.
	StateTimeout SessionState = "timeout"
)

// ValidTransitions maps each state to the states it may move to.
var ValidTransitions = map[SessionState][]SessionState{
	StateIdle:          {StateUserWriting, StateTimeout},
	StateUserWriting:   {StateUserCommitted, StateError},
	StateUserCommitted: {StateGenerating, StateError},
	StateGenerating:    {StateAICommitted, StateError},
	StateAICommitted:   {StateIdle},
	StateError:         {StateIdle},
	StateTimeout:       {StateIdle},
}

// CanTransition reports whether moving from one state to another is allowed.
func CanTransition(from, to SessionState) bool {
	for _, s := range ValidTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// StateTransitionError is returned when a transition is not in the table.
type StateTransitionError struct {
	From    SessionState
	To      SessionState
	Allowed []SessionState
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("invalid state transition: %s -> %s (allowed: %v)", e.From, e.To, e.Allowed)
}
