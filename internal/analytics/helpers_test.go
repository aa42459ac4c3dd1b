package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/journey/internal/eventlog"
	"github.com/roach88/journey/internal/journey"
	"github.com/roach88/journey/internal/testutil"
	"github.com/roach88/journey/internal/tracker"
)

// t0 is Monday 2026-03-02 09:00 UTC.
var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type fixture struct {
	t       *testing.T
	log     *eventlog.Log
	tracker *tracker.Tracker
	clock   *testutil.ManualClock
	engine  *Engine
}

// newFixture creates an in-memory log whose clock reads t0 + 1h, with the
// given stages registered.
func newFixture(t *testing.T, stages ...journey.FunnelStage) *fixture {
	t.Helper()
	log := eventlog.New()
	clock := testutil.NewManualClock(t0.Add(time.Hour))
	tr := tracker.New(log, tracker.WithClock(clock), tracker.WithIDGenerator(journey.NewSequenceGenerator("id")))
	for _, s := range stages {
		_, err := tr.AddStage(context.Background(), tracker.StageSpec{
			Name: s.Name, Order: s.Order, EntryEvent: s.EntryEvent, ExitEvent: s.ExitEvent,
		})
		require.NoError(t, err)
	}
	return &fixture{
		t:       t,
		log:     log,
		tracker: tr,
		clock:   clock,
		engine:  NewEngine(log, WithClock(clock)),
	}
}

func twoStages() []journey.FunnelStage {
	return []journey.FunnelStage{
		{Name: "Awareness", Order: 1, EntryEvent: "page_view"},
		{Name: "Purchase", Order: 2, EntryEvent: "checkout"},
	}
}

// session starts a session at at and returns its ID.
func (f *fixture) session(customer, channel string, at time.Time, ltv *float64) string {
	f.t.Helper()
	s, err := f.tracker.StartSession(context.Background(), customer, channel, tracker.SessionOptions{
		Device: "desktop", StartedAt: at, LTV: ltv,
	})
	require.NoError(f.t, err)
	return s.ID
}

// touch records event on session id at the given instant.
func (f *fixture) touch(id, event string, at time.Time, meta map[string]string) {
	f.t.Helper()
	_, err := f.tracker.RecordTouchpoint(context.Background(), id, event, tracker.TouchpointOptions{
		OccurredAt: at, Metadata: meta,
	})
	require.NoError(f.t, err)
}

// walk starts a session and records events one minute apart.
func (f *fixture) walk(customer, channel string, events ...string) string {
	f.t.Helper()
	id := f.session(customer, channel, t0, nil)
	for i, ev := range events {
		f.touch(id, ev, t0.Add(time.Duration(i)*time.Minute), nil)
	}
	return id
}

func metricFor(t *testing.T, metrics []journey.StageMetric, stage string) journey.StageMetric {
	t.Helper()
	for _, m := range metrics {
		if m.Stage == stage {
			return m
		}
	}
	t.Fatalf("stage %q not in metrics", stage)
	return journey.StageMetric{}
}
