package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a session id is unknown.
var ErrNotFound = errors.New("session not found")

// ErrOwnershipMismatch is returned when a session belongs to a different user.
var ErrOwnershipMismatch = errors.New("session does not belong to user")

// ProcessingError is a generation-time failure, e.g. a missing or invalid
// last message. It is caught by the worker and never aborts its loop.
type ProcessingError struct {
	SessionID string
	Reason    string
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing failed for session %s: %s", e.SessionID, e.Reason)
}
