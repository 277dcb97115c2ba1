package store

import (
	"context"
	"errors"
	"testing"

	"github.com/convoflow/coordinator/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestSQLiteStoreSessionRoundtrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	session := domain.NewSession("s1", "u1")
	session.AddMessage(domain.Message{ID: "m1", Role: "user", Content: "hello"})
	if err := s.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	got, err := s.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.UserID != "u1" || got.State != domain.StateIdle {
		t.Fatalf("unexpected session: %+v", got)
	}
	if len(got.Messages) != 1 || got.Messages[0].Content != "hello" {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
}

func TestSQLiteStoreUpdateAppendsMessages(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	session := domain.NewSession("s1", "u1")
	if err := s.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	session.AddMessage(domain.Message{ID: "m1", Role: "user", Content: "hello"})
	if err := session.Transition(domain.StateUserWriting); err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if err := s.UpdateSession(ctx, session); err != nil {
		t.Fatalf("UpdateSession failed: %v", err)
	}

	session.AddMessage(domain.Message{ID: "m2", Role: "assistant", Content: "hi there"})
	if err := s.UpdateSession(ctx, session); err != nil {
		t.Fatalf("UpdateSession failed: %v", err)
	}

	got, err := s.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.State != domain.StateUserWriting {
		t.Fatalf("unexpected state: %s", got.State)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got.Messages))
	}
	// Insertion order is conversation order.
	if got.Messages[0].ID != "m1" || got.Messages[1].ID != "m2" {
		t.Fatalf("messages out of order: %+v", got.Messages)
	}
}

func TestSQLiteStoreErrorFields(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	session := domain.NewSession("s1", "u1")
	if err := s.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	session.SetError("generation failed")
	if err := s.UpdateSession(ctx, session); err != nil {
		t.Fatalf("UpdateSession failed: %v", err)
	}

	got, err := s.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.State != domain.StateError || got.ErrorMessage != "generation failed" || got.RetryCount != 1 {
		t.Fatalf("error fields not persisted: %+v", got)
	}
}

func TestSQLiteStoreNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.GetSession(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.UpdateSession(ctx, domain.NewSession("missing", "u1")); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteSession(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStoreDeleteRemovesMessages(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	session := domain.NewSession("s1", "u1")
	session.AddMessage(domain.Message{ID: "m1", Role: "user", Content: "hello"})
	if err := s.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if err := s.DeleteSession(ctx, "s1"); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if _, err := s.GetSession(ctx, "s1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM messages WHERE session_id = 's1'`).Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no orphan messages, got %d", count)
	}
}

func TestSQLiteStoreListUserSessions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, id := range []string{"s1", "s2"} {
		if err := s.CreateSession(ctx, domain.NewSession(id, "u1")); err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}
	}
	if err := s.CreateSession(ctx, domain.NewSession("s3", "u2")); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	sessions, err := s.ListUserSessions(ctx, "u1")
	if err != nil {
		t.Fatalf("ListUserSessions failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
}
