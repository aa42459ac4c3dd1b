package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/journey/internal/journey"
)

func TestHeatmap_Cells(t *testing.T) {
	f := newFixture(t, twoStages()...)
	id := f.session("c1", "organic", t0.Add(-300*time.Hour), nil)
	f.touch(id, "page_view", t0, nil)
	f.touch(id, "scroll", t0.Add(10*time.Minute), nil)
	// Sunday 08:00
	f.touch(id, "page_view", t0.Add(-25*time.Hour), nil)
	// Outside the default week
	f.touch(id, "page_view", t0.Add(-200*time.Hour), nil)

	h, err := f.engine.Heatmap(context.Background(), DefaultHeatmapHours)
	require.NoError(t, err)

	assert.Equal(t, 2, h.Matrix[0][9])
	assert.Equal(t, 1, h.Matrix[6][8])
	assert.Equal(t, 3, h.Total)

	sum := 0
	for _, c := range h.Cells() {
		sum += c.Count
	}
	assert.Equal(t, h.Total, sum)
}

func TestHeatmap_ShortWindow(t *testing.T) {
	f := newFixture(t, twoStages()...)
	id := f.session("c1", "organic", t0, nil)
	f.touch(id, "page_view", t0, nil)
	f.touch(id, "page_view", t0.Add(-2*time.Hour), nil)

	h, err := f.engine.Heatmap(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 1, h.Total)
	assert.Equal(t, 1, h.Matrix[0][9])
}

func TestHeatmap_NonPositiveHours(t *testing.T) {
	f := newFixture(t, twoStages()...)

	_, err := f.engine.Heatmap(context.Background(), 0)
	require.Error(t, err)
	assert.Equal(t, journey.ErrCodeInvalidArgument, journey.InputErrorCodeOf(err))
}

func TestBuildHeatmap_UsesUTC(t *testing.T) {
	// 23:30 Sunday in UTC-3 is 02:30 Monday UTC
	tz := time.FixedZone("UTC-3", -3*3600)
	tp := journey.Touchpoint{OccurredAt: time.Date(2026, 3, 1, 23, 30, 0, 0, tz)}

	h := BuildHeatmap([]journey.Touchpoint{tp})
	assert.Equal(t, 1, h.Matrix[0][2])
	assert.Equal(t, 1, h.Total)
}

func TestBuildHeatmap_Empty(t *testing.T) {
	h := BuildHeatmap(nil)
	assert.Zero(t, h.Total)
	assert.Len(t, h.Cells(), 7*24)
}
