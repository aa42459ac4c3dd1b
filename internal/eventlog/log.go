// Package eventlog provides the in-memory append-only event store.
//
// Log holds the funnel stages, sessions and touchpoints of one process and
// implements journey.Store. The SQLite store in internal/store implements
// the same interface for durable state, so analytics and recording code
// work unchanged against either.
package eventlog

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/roach88/journey/internal/journey"
)

// Log is an append-only in-memory event store.
//
// Thread-safety: all methods are safe for concurrent use. Readers never
// observe a partially appended record.
type Log struct {
	mu          sync.RWMutex
	stages      []journey.FunnelStage
	sessions    []journey.Session
	sessionIdx  map[string]int
	touchpoints []journey.Touchpoint
	touchIDs    map[string]struct{}
	seq         int64
}

// New creates an empty log.
func New() *Log {
	return &Log{
		sessionIdx: make(map[string]int),
		touchIDs:   make(map[string]struct{}),
	}
}

var _ journey.Store = (*Log)(nil)

// SaveStages replaces the stage registry.
func (l *Log) SaveStages(_ context.Context, stages []journey.FunnelStage) error {
	cp := make([]journey.FunnelStage, len(stages))
	copy(cp, stages)
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].Order < cp[j].Order })

	l.mu.Lock()
	defer l.mu.Unlock()
	l.stages = cp
	return nil
}

// Stages returns the registered stages in ascending order.
func (l *Log) Stages(_ context.Context) ([]journey.FunnelStage, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]journey.FunnelStage, len(l.stages))
	copy(out, l.stages)
	return out, nil
}

// AppendSession records a new session. Duplicate IDs are rejected.
func (l *Log) AppendSession(_ context.Context, s journey.Session) error {
	s.StartedAt = journey.UTC(s.StartedAt)

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.sessionIdx[s.ID]; exists {
		return fmt.Errorf("append session %q: duplicate id", s.ID)
	}
	l.sessionIdx[s.ID] = len(l.sessions)
	l.sessions = append(l.sessions, s)
	return nil
}

// Session returns the session with the given ID.
// Returns an error wrapping journey.ErrNotFound for unknown IDs.
func (l *Log) Session(_ context.Context, id string) (journey.Session, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	idx, ok := l.sessionIdx[id]
	if !ok {
		return journey.Session{}, fmt.Errorf("session %q: %w", id, journey.ErrNotFound)
	}
	return l.sessions[idx], nil
}

// AppendTouchpoint records a touchpoint and assigns its Seq.
// The owning session must exist.
func (l *Log) AppendTouchpoint(_ context.Context, tp journey.Touchpoint) (journey.Touchpoint, error) {
	tp.OccurredAt = journey.UTC(tp.OccurredAt)
	tp.Metadata = copyMetadata(tp.Metadata)

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.sessionIdx[tp.SessionID]; !ok {
		return journey.Touchpoint{}, fmt.Errorf("append touchpoint: session %q: %w", tp.SessionID, journey.ErrNotFound)
	}
	if _, dup := l.touchIDs[tp.ID]; dup {
		return journey.Touchpoint{}, fmt.Errorf("append touchpoint %q: duplicate id", tp.ID)
	}
	l.seq++
	tp.Seq = l.seq
	l.touchIDs[tp.ID] = struct{}{}
	l.touchpoints = append(l.touchpoints, tp)
	return tp, nil
}

// Sessions returns sessions matching f, ordered by StartedAt then ID.
// The window applies to StartedAt.
func (l *Log) Sessions(_ context.Context, f journey.Filter) ([]journey.Session, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := []journey.Session{}
	for _, s := range l.sessions {
		if !matchSession(s, f) || !f.Window.Contains(s.StartedAt) {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.Before(out[j].StartedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Touchpoints returns touchpoints matching f, ordered by OccurredAt then Seq.
// The window applies to OccurredAt; channel and customer filters apply to
// the owning session.
func (l *Log) Touchpoints(_ context.Context, f journey.Filter) ([]journey.Touchpoint, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := []journey.Touchpoint{}
	for _, tp := range l.touchpoints {
		if !f.Window.Contains(tp.OccurredAt) {
			continue
		}
		if f.Channel != "" || f.CustomerID != "" {
			s := l.sessions[l.sessionIdx[tp.SessionID]]
			if !matchSession(s, f) {
				continue
			}
		}
		tp.Metadata = copyMetadata(tp.Metadata)
		out = append(out, tp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

// Len returns the number of sessions and touchpoints recorded.
func (l *Log) Len() (sessions, touchpoints int) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.sessions), len(l.touchpoints)
}

func matchSession(s journey.Session, f journey.Filter) bool {
	if f.Channel != "" && s.Channel != f.Channel {
		return false
	}
	if f.CustomerID != "" && s.CustomerID != f.CustomerID {
		return false
	}
	return true
}

func copyMetadata(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
