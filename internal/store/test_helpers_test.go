package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/journey/internal/journey"
)

// t0 is Monday 2026-03-02 09:00 UTC.
var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSession creates a session with minimal required fields.
func createTestSession(id, customer, channel string, startedAt time.Time) journey.Session {
	return journey.Session{
		ID:         id,
		CustomerID: customer,
		Channel:    channel,
		Device:     "desktop",
		StartedAt:  startedAt,
	}
}

// mustAppendSession writes a session or fails the test.
func mustAppendSession(t *testing.T, s *Store, sess journey.Session) {
	t.Helper()
	if err := s.AppendSession(context.Background(), sess); err != nil {
		t.Fatalf("AppendSession(%q) failed: %v", sess.ID, err)
	}
}

// mustAppendTouchpoint writes a touchpoint or fails the test.
func mustAppendTouchpoint(t *testing.T, s *Store, id, sessionID, event string, at time.Time, meta map[string]string) journey.Touchpoint {
	t.Helper()
	tp, err := s.AppendTouchpoint(context.Background(), journey.Touchpoint{
		ID: id, SessionID: sessionID, Event: event, OccurredAt: at, Metadata: meta,
	})
	if err != nil {
		t.Fatalf("AppendTouchpoint(%q) failed: %v", id, err)
	}
	return tp
}
