package eventlog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/journey/internal/journey"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) // Monday

func seedLog(t *testing.T) *Log {
	t.Helper()
	ctx := context.Background()
	l := New()
	require.NoError(t, l.AppendSession(ctx, journey.Session{ID: "s1", CustomerID: "c1", Channel: "organic", Device: "desktop", StartedAt: t0}))
	require.NoError(t, l.AppendSession(ctx, journey.Session{ID: "s2", CustomerID: "c2", Channel: "paid", Device: "mobile", StartedAt: t0.Add(time.Hour)}))
	require.NoError(t, l.AppendSession(ctx, journey.Session{ID: "s3", CustomerID: "c1", Channel: "paid", Device: "mobile", StartedAt: t0.Add(2 * time.Hour)}))

	for _, tp := range []journey.Touchpoint{
		{ID: "t1", SessionID: "s1", Event: "page_view", OccurredAt: t0},
		{ID: "t2", SessionID: "s2", Event: "page_view", OccurredAt: t0.Add(time.Hour)},
		{ID: "t3", SessionID: "s1", Event: "checkout", OccurredAt: t0.Add(10 * time.Minute)},
		{ID: "t4", SessionID: "s3", Event: "page_view", OccurredAt: t0.Add(2 * time.Hour)},
	} {
		_, err := l.AppendTouchpoint(ctx, tp)
		require.NoError(t, err)
	}
	return l
}

func TestLog_SessionLookup(t *testing.T) {
	l := seedLog(t)

	s, err := l.Session(context.Background(), "s2")
	require.NoError(t, err)
	assert.Equal(t, "paid", s.Channel)

	_, err = l.Session(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, journey.ErrNotFound))
}

func TestLog_AppendSession_Duplicate(t *testing.T) {
	l := seedLog(t)
	err := l.AppendSession(context.Background(), journey.Session{ID: "s1"})
	assert.Error(t, err)
}

func TestLog_AppendTouchpoint_UnknownSession(t *testing.T) {
	l := New()
	_, err := l.AppendTouchpoint(context.Background(), journey.Touchpoint{ID: "t1", SessionID: "nope"})
	require.Error(t, err)
	assert.ErrorIs(t, err, journey.ErrNotFound)
}

func TestLog_AppendTouchpoint_AssignsSeq(t *testing.T) {
	l := seedLog(t)
	tp, err := l.AppendTouchpoint(context.Background(), journey.Touchpoint{ID: "t5", SessionID: "s1", Event: "x", OccurredAt: t0})
	require.NoError(t, err)
	assert.Equal(t, int64(5), tp.Seq)
	assert.NotNil(t, tp.Metadata)
}

func TestLog_Touchpoints_Ordered(t *testing.T) {
	l := seedLog(t)
	tps, err := l.Touchpoints(context.Background(), journey.Filter{})
	require.NoError(t, err)

	ids := make([]string, len(tps))
	for i, tp := range tps {
		ids[i] = tp.ID
	}
	assert.Equal(t, []string{"t1", "t3", "t2", "t4"}, ids)
}

func TestLog_Touchpoints_SameInstantUsesSeq(t *testing.T) {
	ctx := context.Background()
	l := New()
	require.NoError(t, l.AppendSession(ctx, journey.Session{ID: "s1", StartedAt: t0}))
	_, err := l.AppendTouchpoint(ctx, journey.Touchpoint{ID: "b", SessionID: "s1", OccurredAt: t0})
	require.NoError(t, err)
	_, err = l.AppendTouchpoint(ctx, journey.Touchpoint{ID: "a", SessionID: "s1", OccurredAt: t0})
	require.NoError(t, err)

	tps, err := l.Touchpoints(ctx, journey.Filter{})
	require.NoError(t, err)
	require.Len(t, tps, 2)
	assert.Equal(t, "b", tps[0].ID)
	assert.Equal(t, "a", tps[1].ID)
}

func TestLog_Filters(t *testing.T) {
	l := seedLog(t)
	ctx := context.Background()

	tests := []struct {
		name        string
		filter      journey.Filter
		sessions    int
		touchpoints int
	}{
		{"unfiltered", journey.Filter{}, 3, 4},
		{"channel", journey.Filter{Channel: "paid"}, 2, 2},
		{"customer", journey.Filter{CustomerID: "c1"}, 2, 3},
		{"channel and customer", journey.Filter{Channel: "paid", CustomerID: "c1"}, 1, 1},
		{"window start inclusive", journey.Filter{Window: journey.Window{Start: t0.Add(time.Hour)}}, 2, 2},
		{"window end exclusive", journey.Filter{Window: journey.Window{End: t0.Add(time.Hour)}}, 1, 2},
		{"empty window", journey.Filter{Window: journey.Window{Start: t0.Add(24 * time.Hour)}}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions, err := l.Sessions(ctx, tt.filter)
			require.NoError(t, err)
			assert.Len(t, sessions, tt.sessions)
			assert.NotNil(t, sessions)

			tps, err := l.Touchpoints(ctx, tt.filter)
			require.NoError(t, err)
			assert.Len(t, tps, tt.touchpoints)
			assert.NotNil(t, tps)
		})
	}
}

func TestLog_NormalizesToUTC(t *testing.T) {
	ctx := context.Background()
	l := New()
	tz := time.FixedZone("UTC+5", 5*3600)
	require.NoError(t, l.AppendSession(ctx, journey.Session{ID: "s1", StartedAt: time.Date(2026, 3, 2, 14, 0, 0, 0, tz)}))

	s, err := l.Session(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, s.StartedAt.Location())
	assert.Equal(t, 9, s.StartedAt.Hour())
}

func TestLog_MetadataIsolated(t *testing.T) {
	ctx := context.Background()
	l := New()
	require.NoError(t, l.AppendSession(ctx, journey.Session{ID: "s1", StartedAt: t0}))
	meta := map[string]string{"reason": "price"}
	_, err := l.AppendTouchpoint(ctx, journey.Touchpoint{ID: "t1", SessionID: "s1", OccurredAt: t0, Metadata: meta})
	require.NoError(t, err)

	meta["reason"] = "changed"
	tps, err := l.Touchpoints(ctx, journey.Filter{})
	require.NoError(t, err)
	assert.Equal(t, "price", tps[0].Metadata["reason"])

	tps[0].Metadata["reason"] = "mutated"
	again, err := l.Touchpoints(ctx, journey.Filter{})
	require.NoError(t, err)
	assert.Equal(t, "price", again[0].Metadata["reason"])
}

func TestLog_SaveStagesSorted(t *testing.T) {
	ctx := context.Background()
	l := New()
	require.NoError(t, l.SaveStages(ctx, []journey.FunnelStage{
		{Name: "B", Order: 2, EntryEvent: "b"},
		{Name: "A", Order: 1, EntryEvent: "a"},
	}))
	stages, err := l.Stages(ctx)
	require.NoError(t, err)
	require.Len(t, stages, 2)
	assert.Equal(t, "A", stages[0].Name)
}

func TestLog_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	l := New()
	require.NoError(t, l.AppendSession(ctx, journey.Session{ID: "s1", StartedAt: t0}))

	gen := journey.NewSequenceGenerator("tp")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.AppendTouchpoint(ctx, journey.Touchpoint{ID: gen.Generate(), SessionID: "s1", OccurredAt: t0})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	_, n := l.Len()
	assert.Equal(t, 50, n)
}
