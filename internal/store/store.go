// Package store defines the session storage interface and implementations.
package store

import (
	"context"

	"github.com/convoflow/coordinator/internal/domain"
)

// Store defines the interface for session persistence. All session mutation
// goes through these calls; nothing outside a Store holds a shared mutable
// reference to a stored session.
type Store interface {
	// CreateSession persists a new session. Fails if the id already exists.
	CreateSession(ctx context.Context, session *domain.Session) error

	// GetSession retrieves a session by id. Returns domain.ErrNotFound if
	// the id is unknown.
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)

	// UpdateSession replaces an existing session. Returns domain.ErrNotFound
	// if the id is unknown.
	UpdateSession(ctx context.Context, session *domain.Session) error

	// ListUserSessions returns all sessions owned by a user.
	ListUserSessions(ctx context.Context, userID string) ([]*domain.Session, error)

	// DeleteSession removes a session and its messages. Returns
	// domain.ErrNotFound if the id is unknown.
	DeleteSession(ctx context.Context, sessionID string) error

	// Close releases any resources held by the store.
	Close() error
}
