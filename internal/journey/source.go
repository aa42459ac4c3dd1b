package journey

import "context"

// Filter selects records from an event store.
// Empty fields do not filter.
type Filter struct {
	// Window bounds Session.StartedAt for session queries and
	// Touchpoint.OccurredAt for touchpoint queries.
	Window Window

	// Channel restricts results to sessions on this channel.
	Channel string

	// CustomerID restricts results to sessions owned by this customer.
	CustomerID string
}

// Source is the read side of an event store.
//
// Implementations must return:
//   - stages ordered by Order ascending
//   - sessions ordered by StartedAt ascending, then ID
//   - touchpoints ordered by OccurredAt ascending, then Seq
//
// Empty results are returned as empty, non-nil slices.
type Source interface {
	Stages(ctx context.Context) ([]FunnelStage, error)
	Sessions(ctx context.Context, f Filter) ([]Session, error)
	Touchpoints(ctx context.Context, f Filter) ([]Touchpoint, error)
}

// Recorder is the write side of an event store.
//
// Session returns an error wrapping ErrNotFound for unknown IDs.
// AppendTouchpoint assigns Seq and returns the stored touchpoint.
// SaveStages replaces the whole stage registry atomically.
type Recorder interface {
	Session(ctx context.Context, id string) (Session, error)
	AppendSession(ctx context.Context, s Session) error
	AppendTouchpoint(ctx context.Context, tp Touchpoint) (Touchpoint, error)
	SaveStages(ctx context.Context, stages []FunnelStage) error
}

// Store is an event store that can be both read and written.
type Store interface {
	Source
	Recorder
}
