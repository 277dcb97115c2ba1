package domain

import "fmt"

// EventType represents the type of a stream event.
type EventType string

const (
	EventTypeToken      EventType = "token"
	EventTypeMessageEnd EventType = "message_end"
	EventTypeCommitDone EventType = "commit_done"
	EventTypeError      EventType = "error"
)

// StreamEvent is a single unit of generated output delivered to a client.
// Events are transient: they live in a session's event queue for one
// generation cycle and are discarded after delivery.
type StreamEvent struct {
	Type EventType `json:"type"`
	Data string    `json:"data"`
}

// IsTerminal reports whether this event ends a generation cycle's stream.
func (e StreamEvent) IsTerminal() bool {
	return e.Type == EventTypeCommitDone || e.Type == EventTypeError
}

// SSE encodes the event in Server-Sent Events wire format. The trailing
// blank line is part of the framing.
func (e StreamEvent) SSE() string {
	return fmt.Sprintf("event: %s\ndata: %s\n\n", e.Type, e.Data)
}

// SSEKeepalive is the non-semantic comment line sent during idle waits to
// keep the transport connection open.
const SSEKeepalive = ": keepalive\n\n"
