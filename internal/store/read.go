package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/journey/internal/journey"
)

// Stages returns the registered stages ordered by position.
// Returns an empty slice (not nil) if no stages are registered.
func (s *Store) Stages(ctx context.Context) ([]journey.FunnelStage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, position, entry_event, exit_event, description
		FROM funnel_stages
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query stages: %w", err)
	}
	defer rows.Close()

	stages := []journey.FunnelStage{}
	for rows.Next() {
		var st journey.FunnelStage
		if err := rows.Scan(&st.Name, &st.Order, &st.EntryEvent, &st.ExitEvent, &st.Description); err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		stages = append(stages, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stages: %w", err)
	}
	return stages, nil
}

// Session retrieves a single session by ID.
// Returns an error wrapping journey.ErrNotFound if it does not exist.
func (s *Store) Session(ctx context.Context, id string) (journey.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, customer_id, channel, device, started_at_ns, ltv
		FROM sessions
		WHERE id = ?
	`, id)

	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return journey.Session{}, fmt.Errorf("session %q: %w", id, journey.ErrNotFound)
	}
	if err != nil {
		return journey.Session{}, fmt.Errorf("read session %q: %w", id, err)
	}
	return sess, nil
}

// Sessions returns sessions matching f.
// The window applies to started_at_ns. Results are ordered by
// started_at_ns ASC, id ASC COLLATE BINARY.
func (s *Store) Sessions(ctx context.Context, f journey.Filter) ([]journey.Session, error) {
	where, args := sessionWhere(f, "started_at_ns", "")

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_id, channel, device, started_at_ns, ltv
		FROM sessions`+where+`
		ORDER BY started_at_ns ASC, id COLLATE BINARY ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []journey.Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// Touchpoints returns touchpoints matching f.
// The window applies to occurred_at_ns; channel and customer filters apply
// to the owning session. Results are ordered by occurred_at_ns ASC, seq ASC.
func (s *Store) Touchpoints(ctx context.Context, f journey.Filter) ([]journey.Touchpoint, error) {
	where, args := sessionWhere(f, "t.occurred_at_ns", "s.")

	rows, err := s.db.QueryContext(ctx, `
		SELECT t.seq, t.id, t.session_id, t.event, t.occurred_at_ns, t.metadata
		FROM touchpoints t
		JOIN sessions s ON s.id = t.session_id`+where+`
		ORDER BY t.occurred_at_ns ASC, t.seq ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query touchpoints: %w", err)
	}
	defer rows.Close()

	touchpoints := []journey.Touchpoint{}
	for rows.Next() {
		var tp journey.Touchpoint
		var occurredNs int64
		var metaJSON string
		if err := rows.Scan(&tp.Seq, &tp.ID, &tp.SessionID, &tp.Event, &occurredNs, &metaJSON); err != nil {
			return nil, fmt.Errorf("scan touchpoint: %w", err)
		}
		tp.OccurredAt = fromNanos(occurredNs)
		tp.Metadata, err = unmarshalMetadata(metaJSON)
		if err != nil {
			return nil, err
		}
		touchpoints = append(touchpoints, tp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate touchpoints: %w", err)
	}
	return touchpoints, nil
}

// sessionWhere builds the WHERE clause for f. timeCol is the column the
// window bounds; prefix qualifies the session columns.
func sessionWhere(f journey.Filter, timeCol, prefix string) (string, []any) {
	var conds []string
	var args []any

	if !f.Window.Start.IsZero() {
		conds = append(conds, timeCol+" >= ?")
		args = append(args, boundNanos(f.Window.Start))
	}
	if !f.Window.End.IsZero() {
		conds = append(conds, timeCol+" < ?")
		args = append(args, boundNanos(f.Window.End))
	}
	if f.Channel != "" {
		conds = append(conds, prefix+"channel = ?")
		args = append(args, f.Channel)
	}
	if f.CustomerID != "" {
		conds = append(conds, prefix+"customer_id = ?")
		args = append(args, f.CustomerID)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "\n\t\tWHERE " + strings.Join(conds, " AND "), args
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (journey.Session, error) {
	var sess journey.Session
	var startedNs int64
	var ltv sql.NullFloat64

	if err := row.Scan(&sess.ID, &sess.CustomerID, &sess.Channel, &sess.Device, &startedNs, &ltv); err != nil {
		return journey.Session{}, err
	}
	sess.StartedAt = fromNanos(startedNs)
	sess.LTV = ltvPtr(ltv)
	return sess, nil
}
