package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var start = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func TestManualClock_StartsAtStart(t *testing.T) {
	clock := NewManualClock(start)
	assert.Equal(t, start, clock.Now())
	// Reading twice does not move the clock
	assert.Equal(t, start, clock.Now())
}

func TestManualClock_ConvertsToUTC(t *testing.T) {
	tz := time.FixedZone("UTC-3", -3*3600)
	clock := NewManualClock(time.Date(2026, 3, 2, 6, 0, 0, 0, tz))
	assert.Equal(t, time.UTC, clock.Now().Location())
	assert.Equal(t, 9, clock.Now().Hour())
}

func TestManualClock_Advance(t *testing.T) {
	clock := NewManualClock(start)
	got := clock.Advance(90 * time.Minute)
	assert.Equal(t, start.Add(90*time.Minute), got)
	assert.Equal(t, got, clock.Now())
}

func TestManualClock_SetAndReset(t *testing.T) {
	clock := NewManualClock(start)
	later := start.Add(48 * time.Hour)
	clock.Set(later)
	assert.Equal(t, later, clock.Now())

	clock.Reset()
	assert.Equal(t, start, clock.Now())
}

func TestManualClock_ThreadSafe(t *testing.T) {
	clock := NewManualClock(start)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				clock.Advance(time.Second)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, start.Add(1000*time.Second), clock.Now())
}
