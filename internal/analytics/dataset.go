// Package analytics derives funnel, path, dropoff, attribution, LTV
// segment and heatmap results from recorded journeys.
//
// Every derivation is a pure function of a Dataset: the stage registry
// plus the sessions and touchpoints already fetched from a store. Engine
// wraps those functions with store loading and time windows.
package analytics

import (
	"time"

	"github.com/roach88/journey/internal/journey"
	"github.com/roach88/journey/internal/stages"
)

// Dataset is the in-memory input of every derivation.
//
// Touchpoints must be ordered by (OccurredAt, Seq), which is what every
// journey.Source returns.
type Dataset struct {
	Registry    *stages.Registry
	Sessions    []journey.Session
	Touchpoints []journey.Touchpoint

	matcher   *stages.Matcher
	timelines []*timeline
	bySession map[string]*timeline
}

// NewDataset assembles a dataset from already-loaded records.
func NewDataset(reg *stages.Registry, sessions []journey.Session, touchpoints []journey.Touchpoint) *Dataset {
	if reg == nil {
		reg = &stages.Registry{}
	}
	return &Dataset{
		Registry:    reg,
		Sessions:    sessions,
		Touchpoints: touchpoints,
	}
}

// timeline is one session's touchpoints with the first instant each stage
// was seen. first and seen are indexed by ascending stage position.
type timeline struct {
	session     journey.Session
	touchpoints []journey.Touchpoint
	first       []time.Time
	seen        []bool
}

// last returns the session's final touchpoint in the dataset.
func (tl *timeline) last() journey.Touchpoint {
	return tl.touchpoints[len(tl.touchpoints)-1]
}

// matched reports whether the session matched at least one stage.
func (tl *timeline) matched() bool {
	for _, s := range tl.seen {
		if s {
			return true
		}
	}
	return false
}

// converted reports whether the session moved on from stage i.
//
// The terminal stage always converts once entered. Any other stage
// converts when the next stage was first seen no earlier than stage i.
func (tl *timeline) converted(i int) bool {
	if !tl.seen[i] {
		return false
	}
	if i == len(tl.seen)-1 {
		return true
	}
	return tl.seen[i+1] && !tl.first[i+1].Before(tl.first[i])
}

// reachedTerminal reports whether the session ever matched the last stage.
func (tl *timeline) reachedTerminal() bool {
	n := len(tl.seen)
	return n > 0 && tl.seen[n-1]
}

// build groups touchpoints into per-session timelines. Sessions appear in
// the order of their first touchpoint.
func (d *Dataset) build() {
	if d.timelines != nil {
		return
	}
	d.matcher = stages.NewMatcher(d.Registry)
	n := d.Registry.Len()

	known := make(map[string]journey.Session, len(d.Sessions))
	for _, s := range d.Sessions {
		known[s.ID] = s
	}

	d.bySession = make(map[string]*timeline)
	d.timelines = []*timeline{}
	for _, tp := range d.Touchpoints {
		tl, ok := d.bySession[tp.SessionID]
		if !ok {
			s, found := known[tp.SessionID]
			if !found {
				s = journey.Session{ID: tp.SessionID}
			}
			tl = &timeline{
				session: s,
				first:   make([]time.Time, n),
				seen:    make([]bool, n),
			}
			d.bySession[tp.SessionID] = tl
			d.timelines = append(d.timelines, tl)
		}
		tl.touchpoints = append(tl.touchpoints, tp)

		idx := d.matcher.MatchIndex(tp.Event)
		if idx < 0 || tl.seen[idx] {
			// Repeats of a stage never move its first occurrence
			continue
		}
		tl.seen[idx] = true
		tl.first[idx] = tp.OccurredAt
	}
}

// timelineCount returns the number of sessions with at least one touchpoint.
func (d *Dataset) timelineCount() int {
	d.build()
	return len(d.timelines)
}

func (d *Dataset) timelineFor(id string) (*timeline, bool) {
	d.build()
	tl, ok := d.bySession[id]
	return tl, ok
}
