package domain

import "time"

// Message represents a single message in a session. Messages are immutable
// once appended.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // user, assistant
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session represents a conversation session. Sessions are owned by the
// store; callers mutate a fetched copy and write it back.
type Session struct {
	ID           string       `json:"id"`
	UserID       string       `json:"user_id"`
	State        SessionState `json:"state"`
	Messages     []Message    `json:"messages"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	ErrorMessage string       `json:"error_message,omitempty"`
	RetryCount   int          `json:"retry_count"`
}

// NewSession creates a session in the idle state.
func NewSession(id, userID string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		UserID:    userID,
		State:     StateIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddMessage appends a message and refreshes the update timestamp.
func (s *Session) AddMessage(msg Message) {
	s.Messages = append(s.Messages, msg)
	s.UpdatedAt = time.Now().UTC()
}

// LastMessage returns the most recent message, or nil if there is none.
func (s *Session) LastMessage() *Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return &s.Messages[len(s.Messages)-1]
}

// Transition validates the move against the transition table and applies it.
// The session is left unmodified when the transition is rejected. Leaving
// the error state clears the error description.
func (s *Session) Transition(next SessionState) error {
	if !CanTransition(s.State, next) {
		return &StateTransitionError{
			From:    s.State,
			To:      next,
			Allowed: ValidTransitions[s.State],
		}
	}
	s.State = next
	s.UpdatedAt = time.Now().UTC()
	if next != StateError {
		s.ErrorMessage = ""
	}
	return nil
}

// SetError forces the session into the error state, records the description
// and increments the retry counter. Unlike Transition it is valid from any
// state: error marking must not itself be rejectable.
func (s *Session) SetError(description string) {
	s.State = StateError
	s.ErrorMessage = description
	s.RetryCount++
	s.UpdatedAt = time.Now().UTC()
}

// Clone returns a deep copy so store internals never leak shared mutable
// message slices to callers.
func (s *Session) Clone() *Session {
	cp := *s
	if s.Messages != nil {
		cp.Messages = make([]Message, len(s.Messages))
		copy(cp.Messages, s.Messages)
	}
	return &cp
}
