package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/journey/internal/journey"
)

// SaveStages replaces the stage registry in a single transaction.
// Readers never observe a partially written registry.
func (s *Store) SaveStages(ctx context.Context, stages []journey.FunnelStage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save stages: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM funnel_stages`); err != nil {
		return fmt.Errorf("save stages: clear: %w", err)
	}

	for _, st := range stages {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO funnel_stages (name, position, entry_event, exit_event, description)
			VALUES (?, ?, ?, ?, ?)
		`, st.Name, st.Order, st.EntryEvent, st.ExitEvent, st.Description)
		if err != nil {
			return fmt.Errorf("save stages: insert %q: %w", st.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save stages: commit: %w", err)
	}
	return nil
}

// AppendSession inserts a new session. Duplicate IDs are rejected by the
// primary key.
func (s *Store) AppendSession(ctx context.Context, sess journey.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, customer_id, channel, device, started_at_ns, ltv)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		sess.ID,
		sess.CustomerID,
		sess.Channel,
		sess.Device,
		toNanos(sess.StartedAt),
		nullLTV(sess.LTV),
	)
	if err != nil {
		return fmt.Errorf("append session %q: %w", sess.ID, err)
	}
	return nil
}

// AppendTouchpoint inserts a touchpoint and returns it with the seq
// SQLite assigned.
//
// Returns an error wrapping journey.ErrNotFound if the owning session does
// not exist. Duplicate touchpoint IDs are rejected by the UNIQUE constraint.
func (s *Store) AppendTouchpoint(ctx context.Context, tp journey.Touchpoint) (journey.Touchpoint, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ?`, tp.SessionID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return journey.Touchpoint{}, fmt.Errorf("append touchpoint: session %q: %w", tp.SessionID, journey.ErrNotFound)
	}
	if err != nil {
		return journey.Touchpoint{}, fmt.Errorf("append touchpoint: lookup session: %w", err)
	}

	metaJSON, err := marshalMetadata(tp.Metadata)
	if err != nil {
		return journey.Touchpoint{}, fmt.Errorf("append touchpoint: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO touchpoints (id, session_id, event, occurred_at_ns, metadata)
		VALUES (?, ?, ?, ?, ?)
	`,
		tp.ID,
		tp.SessionID,
		tp.Event,
		toNanos(tp.OccurredAt),
		metaJSON,
	)
	if err != nil {
		return journey.Touchpoint{}, fmt.Errorf("append touchpoint %q: %w", tp.ID, err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return journey.Touchpoint{}, fmt.Errorf("append touchpoint %q: read seq: %w", tp.ID, err)
	}

	tp.Seq = seq
	tp.OccurredAt = journey.UTC(tp.OccurredAt)
	tp.Metadata, err = unmarshalMetadata(metaJSON)
	if err != nil {
		return journey.Touchpoint{}, err
	}
	return tp, nil
}
