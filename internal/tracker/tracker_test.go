package tracker

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/journey/internal/eventlog"
	"github.com/roach88/journey/internal/journey"
	"github.com/roach88/journey/internal/testutil"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newTestTracker(t *testing.T) (*Tracker, *eventlog.Log, *testutil.ManualClock) {
	t.Helper()
	log := eventlog.New()
	clock := testutil.NewManualClock(t0)
	tr := New(log, WithClock(clock), WithIDGenerator(journey.NewSequenceGenerator("id")))
	return tr, log, clock
}

func addDefaultStages(t *testing.T, tr *Tracker) []journey.FunnelStage {
	t.Helper()
	var out []journey.FunnelStage
	for _, s := range testutil.DefaultStages() {
		st, err := tr.AddStage(context.Background(), StageSpec{
			Name: s.Name, Order: s.Order, EntryEvent: s.EntryEvent, ExitEvent: s.ExitEvent, Description: s.Description,
		})
		require.NoError(t, err)
		out = append(out, st)
	}
	return out
}

func TestAddStage_OrderedByPosition(t *testing.T) {
	tr, log, _ := newTestTracker(t)
	created := addDefaultStages(t, tr)
	require.Len(t, created, 5)
	assert.Equal(t, "product_view", created[2].EntryEvent)

	stored, err := log.Stages(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 5)
	for i := 1; i < len(stored); i++ {
		assert.Less(t, stored[i-1].Order, stored[i].Order)
	}
}

func TestAddStage_DuplicateOrderRejected(t *testing.T) {
	tr, log, _ := newTestTracker(t)
	addDefaultStages(t, tr)

	_, err := tr.AddStage(context.Background(), StageSpec{Name: "Loyalty", Order: 3, EntryEvent: "repeat"})
	require.Error(t, err)
	assert.Equal(t, journey.ErrCodeDuplicateOrder, journey.InputErrorCodeOf(err))

	stored, err := log.Stages(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 5)
}

func TestAddStages_AllOrNothing(t *testing.T) {
	tr, log, _ := newTestTracker(t)
	_, err := tr.AddStages(context.Background(), []StageSpec{
		{Name: "A", Order: 1, EntryEvent: "a"},
		{Name: "B", Order: 1, EntryEvent: "b"},
	})
	require.Error(t, err)
	assert.True(t, journey.IsInputError(err))
	assert.Contains(t, err.Error(), "stage[1]")

	stored, err := log.Stages(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestReorderStage(t *testing.T) {
	tr, log, _ := newTestTracker(t)
	addDefaultStages(t, tr)

	st, err := tr.ReorderStage(context.Background(), "Awareness", 6)
	require.NoError(t, err)
	assert.Equal(t, 6, st.Order)

	stored, err := log.Stages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Awareness", stored[len(stored)-1].Name)
}

func TestStartSession_Defaults(t *testing.T) {
	tr, _, _ := newTestTracker(t)

	s, err := tr.StartSession(context.Background(), "cust-001", "organic", SessionOptions{})
	require.NoError(t, err)
	assert.Equal(t, "id-1", s.ID)
	assert.Equal(t, journey.DefaultDevice, s.Device)
	assert.Equal(t, t0, s.StartedAt)
	assert.Nil(t, s.LTV)
}

func TestStartSession_Explicit(t *testing.T) {
	tr, log, _ := newTestTracker(t)
	at := t0.Add(-time.Hour)

	s, err := tr.StartSession(context.Background(), "cust-001", "paid", SessionOptions{
		Device: "mobile", StartedAt: at, LTV: testutil.Float(49.99),
	})
	require.NoError(t, err)

	stored, err := log.Session(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, "mobile", stored.Device)
	assert.Equal(t, at, stored.StartedAt)
	require.NotNil(t, stored.LTV)
	assert.InDelta(t, 49.99, *stored.LTV, 1e-9)
}

func TestStartSession_Validation(t *testing.T) {
	tr, _, _ := newTestTracker(t)

	_, err := tr.StartSession(context.Background(), "", "organic", SessionOptions{})
	assert.Equal(t, journey.ErrCodeInvalidArgument, journey.InputErrorCodeOf(err))

	_, err = tr.StartSession(context.Background(), "c1", "  ", SessionOptions{})
	assert.Equal(t, journey.ErrCodeInvalidArgument, journey.InputErrorCodeOf(err))
}

func TestStartSession_LTV(t *testing.T) {
	ctx := context.Background()

	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		tr, log, _ := newTestTracker(t)
		_, err := tr.StartSession(ctx, "c1", "organic", SessionOptions{LTV: testutil.Float(v)})
		var ie *journey.InputError
		require.ErrorAs(t, err, &ie, "ltv=%v", v)
		assert.Equal(t, journey.ErrCodeInvalidArgument, ie.Code)
		assert.Equal(t, "ltv", ie.Field)

		sessions, _ := log.Len()
		assert.Zero(t, sessions, "ltv=%v", v)
	}

	tr, _, _ := newTestTracker(t)
	refund, err := tr.StartSession(ctx, "c1", "organic", SessionOptions{LTV: testutil.Float(-25)})
	require.NoError(t, err)
	require.NotNil(t, refund.LTV)
	assert.InDelta(t, -25.0, *refund.LTV, 1e-9)
}

func TestRecordTouchpoint_StageEntered(t *testing.T) {
	tr, _, clock := newTestTracker(t)
	addDefaultStages(t, tr)
	ctx := context.Background()

	s, err := tr.StartSession(ctx, "cust-001", "organic", SessionOptions{Device: "desktop"})
	require.NoError(t, err)

	rec, err := tr.RecordTouchpoint(ctx, s.ID, "page_view", TouchpointOptions{})
	require.NoError(t, err)
	require.NotNil(t, rec.Stage)
	assert.Equal(t, "Awareness", rec.Stage.Name)
	assert.NotEmpty(t, rec.Touchpoint.ID)
	assert.Equal(t, t0, rec.Touchpoint.OccurredAt)

	clock.Advance(time.Minute)
	rec, err = tr.RecordTouchpoint(ctx, s.ID, "add_to_cart", TouchpointOptions{})
	require.NoError(t, err)
	require.NotNil(t, rec.Stage)
	assert.Equal(t, "Intent", rec.Stage.Name)
	assert.Equal(t, t0.Add(time.Minute), rec.Touchpoint.OccurredAt)
	assert.Greater(t, rec.Touchpoint.Seq, int64(1))
}

func TestRecordTouchpoint_Unmatched(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	addDefaultStages(t, tr)
	ctx := context.Background()

	s, err := tr.StartSession(ctx, "c1", "email", SessionOptions{})
	require.NoError(t, err)

	rec, err := tr.RecordTouchpoint(ctx, s.ID, "newsletter_open", TouchpointOptions{
		Metadata: map[string]string{"campaign": "spring"},
	})
	require.NoError(t, err)
	assert.Nil(t, rec.Stage)
	assert.Equal(t, "spring", rec.Touchpoint.Metadata["campaign"])
}

func TestRecordTouchpoint_UnknownSession(t *testing.T) {
	tr, _, _ := newTestTracker(t)

	_, err := tr.RecordTouchpoint(context.Background(), "missing", "page_view", TouchpointOptions{})
	require.Error(t, err)
	assert.Equal(t, journey.ErrCodeUnknownSession, journey.InputErrorCodeOf(err))
}

func TestRecordTouchpoint_EmptyEvent(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	s, err := tr.StartSession(context.Background(), "c1", "email", SessionOptions{})
	require.NoError(t, err)

	_, err = tr.RecordTouchpoint(context.Background(), s.ID, " ", TouchpointOptions{})
	assert.Equal(t, journey.ErrCodeInvalidArgument, journey.InputErrorCodeOf(err))
}

// failingStore fails every call, to check storage errors are surfaced.
type failingStore struct {
	*eventlog.Log
	err error
}

func (f failingStore) Session(context.Context, string) (journey.Session, error) {
	return journey.Session{}, f.err
}

func (f failingStore) AppendSession(context.Context, journey.Session) error {
	return f.err
}

func (f failingStore) Stages(context.Context) ([]journey.FunnelStage, error) {
	return nil, f.err
}

func TestTracker_StorageErrors(t *testing.T) {
	boom := errors.New("disk unavailable")
	tr := New(failingStore{Log: eventlog.New(), err: boom})
	ctx := context.Background()

	_, err := tr.StartSession(ctx, "c1", "organic", SessionOptions{})
	require.Error(t, err)
	assert.True(t, journey.IsStorageError(err))
	assert.ErrorIs(t, err, boom)

	_, err = tr.RecordTouchpoint(ctx, "s1", "page_view", TouchpointOptions{})
	assert.True(t, journey.IsStorageError(err))
	assert.False(t, journey.IsInputError(err))

	_, err = tr.AddStage(ctx, StageSpec{Name: "A", Order: 1, EntryEvent: "a"})
	assert.True(t, journey.IsStorageError(err))
}

// stagesDown reads sessions normally but fails stage reads.
type stagesDown struct {
	*eventlog.Log
	err error
}

func (s stagesDown) Stages(context.Context) ([]journey.FunnelStage, error) {
	return nil, s.err
}

func TestRecordTouchpoint_StageReadFailureRecordsNothing(t *testing.T) {
	boom := errors.New("disk unavailable")
	log := eventlog.New()
	tr := New(stagesDown{Log: log, err: boom}, WithClock(testutil.NewManualClock(t0)))
	ctx := context.Background()

	s, err := tr.StartSession(ctx, "c1", "organic", SessionOptions{})
	require.NoError(t, err)

	_, err = tr.RecordTouchpoint(ctx, s.ID, "page_view", TouchpointOptions{})
	require.Error(t, err)
	assert.True(t, journey.IsStorageError(err))
	assert.ErrorIs(t, err, boom)

	_, touchpoints := log.Len()
	assert.Zero(t, touchpoints)
}
