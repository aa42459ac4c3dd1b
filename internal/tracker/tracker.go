// Package tracker implements the recording side of the journey engine:
// defining funnel stages, starting sessions and recording touchpoints.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/roach88/journey/internal/journey"
	"github.com/roach88/journey/internal/stages"
)

// Tracker records stages, sessions and touchpoints into a journey.Store.
//
// The tracker holds no registry of its own; every stage operation reloads
// the registry from the store, validates the change and saves it back.
type Tracker struct {
	store journey.Store
	clock journey.Clock
	ids   journey.IDGenerator
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock sets the clock used for default timestamps.
func WithClock(c journey.Clock) Option {
	return func(t *Tracker) {
		t.clock = c
	}
}

// WithIDGenerator sets the generator for session and touchpoint IDs.
func WithIDGenerator(g journey.IDGenerator) Option {
	return func(t *Tracker) {
		t.ids = g
	}
}

// New creates a tracker over store. Defaults: system clock, UUIDv7 IDs.
func New(store journey.Store, opts ...Option) *Tracker {
	t := &Tracker{
		store: store,
		clock: journey.SystemClock{},
		ids:   journey.UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// StageSpec describes a stage to add.
type StageSpec struct {
	Name        string
	Order       int
	EntryEvent  string
	ExitEvent   string
	Description string
}

// AddStage validates and registers a new funnel stage.
// Duplicate orders or names are InputErrors.
func (t *Tracker) AddStage(ctx context.Context, spec StageSpec) (journey.FunnelStage, error) {
	reg, err := t.registry(ctx)
	if err != nil {
		return journey.FunnelStage{}, err
	}
	stage, err := reg.Add(journey.FunnelStage{
		Name:        spec.Name,
		Order:       spec.Order,
		EntryEvent:  spec.EntryEvent,
		ExitEvent:   spec.ExitEvent,
		Description: strings.TrimSpace(spec.Description),
	})
	if err != nil {
		return journey.FunnelStage{}, err
	}
	if err := t.store.SaveStages(ctx, reg.Stages()); err != nil {
		return journey.FunnelStage{}, journey.NewStorageError("save stages", err)
	}
	return stage, nil
}

// AddStages registers several stages in one registry update. Either every
// stage is added or none is.
func (t *Tracker) AddStages(ctx context.Context, specs []StageSpec) ([]journey.FunnelStage, error) {
	reg, err := t.registry(ctx)
	if err != nil {
		return nil, err
	}
	added := make([]journey.FunnelStage, 0, len(specs))
	for i, spec := range specs {
		stage, err := reg.Add(journey.FunnelStage{
			Name:        spec.Name,
			Order:       spec.Order,
			EntryEvent:  spec.EntryEvent,
			ExitEvent:   spec.ExitEvent,
			Description: strings.TrimSpace(spec.Description),
		})
		if err != nil {
			return nil, fmt.Errorf("stage[%d]: %w", i, err)
		}
		added = append(added, stage)
	}
	if err := t.store.SaveStages(ctx, reg.Stages()); err != nil {
		return nil, journey.NewStorageError("save stages", err)
	}
	return added, nil
}

// ReorderStage moves an existing stage to a new order value.
func (t *Tracker) ReorderStage(ctx context.Context, name string, order int) (journey.FunnelStage, error) {
	reg, err := t.registry(ctx)
	if err != nil {
		return journey.FunnelStage{}, err
	}
	stage, err := reg.Reorder(name, order)
	if err != nil {
		return journey.FunnelStage{}, err
	}
	if err := t.store.SaveStages(ctx, reg.Stages()); err != nil {
		return journey.FunnelStage{}, journey.NewStorageError("save stages", err)
	}
	return stage, nil
}

// SessionOptions holds the optional fields of StartSession.
type SessionOptions struct {
	// Device defaults to journey.DefaultDevice.
	Device string

	// StartedAt defaults to the tracker clock's now.
	StartedAt time.Time

	// LTV is the session's lifetime value, if known.
	LTV *float64
}

// StartSession records a new session for a customer on a channel.
func (t *Tracker) StartSession(ctx context.Context, customerID, channel string, opts SessionOptions) (journey.Session, error) {
	customerID = strings.TrimSpace(customerID)
	channel = strings.TrimSpace(channel)
	if customerID == "" {
		return journey.Session{}, journey.NewInvalidArgumentError("customer_id", "customer id is required")
	}
	if channel == "" {
		return journey.Session{}, journey.NewInvalidArgumentError("channel", "channel is required")
	}
	// Negative values are refunds and stay valid.
	if opts.LTV != nil && (math.IsNaN(*opts.LTV) || math.IsInf(*opts.LTV, 0)) {
		return journey.Session{}, journey.NewInvalidArgumentError("ltv", fmt.Sprintf("lifetime value must be a finite number, got %v", *opts.LTV))
	}

	s := journey.Session{
		ID:         t.ids.Generate(),
		CustomerID: customerID,
		Channel:    channel,
		Device:     strings.TrimSpace(opts.Device),
		StartedAt:  opts.StartedAt,
		LTV:        opts.LTV,
	}
	if s.Device == "" {
		s.Device = journey.DefaultDevice
	}
	if s.StartedAt.IsZero() {
		s.StartedAt = t.clock.Now()
	}
	s.StartedAt = journey.UTC(s.StartedAt)

	if err := t.store.AppendSession(ctx, s); err != nil {
		return journey.Session{}, journey.NewStorageError("append session", err)
	}
	return s, nil
}

// TouchpointOptions holds the optional fields of RecordTouchpoint.
type TouchpointOptions struct {
	// OccurredAt defaults to the tracker clock's now.
	OccurredAt time.Time

	// Metadata is an open key/value map; "reason" is read by dropoff analysis.
	Metadata map[string]string
}

// Recorded is the outcome of RecordTouchpoint: the stored touchpoint and
// the stage its event entered, if any.
type Recorded struct {
	Touchpoint journey.Touchpoint  `json:"touchpoint"`
	Stage      *journey.FunnelStage `json:"stage_entered,omitempty"`
}

// RecordTouchpoint appends a touchpoint to an existing session.
// Returns an InputError if the session was never started.
func (t *Tracker) RecordTouchpoint(ctx context.Context, sessionID, event string, opts TouchpointOptions) (Recorded, error) {
	event = journey.NormalizeEvent(event)
	if event == "" {
		return Recorded{}, journey.NewInvalidArgumentError("event", "event is required")
	}
	if _, err := t.store.Session(ctx, sessionID); err != nil {
		if errors.Is(err, journey.ErrNotFound) {
			return Recorded{}, journey.NewUnknownSessionError(sessionID)
		}
		return Recorded{}, journey.NewStorageError("read session", err)
	}

	tp := journey.Touchpoint{
		ID:         t.ids.Generate(),
		SessionID:  sessionID,
		Event:      event,
		OccurredAt: opts.OccurredAt,
		Metadata:   journey.NormalizeMetadata(opts.Metadata),
	}
	if tp.OccurredAt.IsZero() {
		tp.OccurredAt = t.clock.Now()
	}
	tp.OccurredAt = journey.UTC(tp.OccurredAt)

	// Stages are read before the append so a failed read records nothing.
	reg, err := t.registry(ctx)
	if err != nil {
		return Recorded{}, err
	}
	stored, err := t.store.AppendTouchpoint(ctx, tp)
	if err != nil {
		return Recorded{}, journey.NewStorageError("append touchpoint", err)
	}

	rec := Recorded{Touchpoint: stored}
	if stage, ok := stages.NewMatcher(reg).Match(event); ok {
		rec.Stage = &stage
	}
	return rec, nil
}

func (t *Tracker) registry(ctx context.Context) (*stages.Registry, error) {
	list, err := t.store.Stages(ctx)
	if err != nil {
		return nil, journey.NewStorageError("read stages", err)
	}
	reg, err := stages.NewRegistry(list...)
	if err != nil {
		return nil, journey.NewStorageError("load stages", err)
	}
	return reg, nil
}
