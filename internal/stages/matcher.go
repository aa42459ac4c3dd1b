package stages

import (
	"github.com/roach88/journey/internal/journey"
)

// Matcher maps a touchpoint event onto a funnel stage.
//
// The match is determined by:
//  1. Entry events: the lowest-order stage whose entry_event equals the event
//  2. Exit events: otherwise the lowest-order stage whose exit_event equals it
//
// Entry matches win over exit matches so a stage's exit event that doubles
// as the next stage's entry event resolves to the next stage.
//
// The matcher is a snapshot; registry changes after construction are not seen.
type Matcher struct {
	stages  []journey.FunnelStage
	byEntry map[string]int
	byExit  map[string]int
}

// NewMatcher indexes the registry's current stages.
func NewMatcher(r *Registry) *Matcher {
	m := &Matcher{
		stages:  r.Stages(),
		byEntry: make(map[string]int),
		byExit:  make(map[string]int),
	}
	// Stages are ascending, so the first index stored per event is the
	// lowest order.
	for i, s := range m.stages {
		if _, ok := m.byEntry[s.EntryEvent]; !ok {
			m.byEntry[s.EntryEvent] = i
		}
		if s.HasExit() {
			if _, ok := m.byExit[s.ExitEvent]; !ok {
				m.byExit[s.ExitEvent] = i
			}
		}
	}
	return m
}

// Match returns the stage for event, or false when no stage matches.
func (m *Matcher) Match(event string) (journey.FunnelStage, bool) {
	idx := m.MatchIndex(event)
	if idx < 0 {
		return journey.FunnelStage{}, false
	}
	return m.stages[idx], true
}

// MatchIndex returns the ascending position of the matching stage, or -1.
func (m *Matcher) MatchIndex(event string) int {
	event = journey.NormalizeEvent(event)
	if idx, ok := m.byEntry[event]; ok {
		return idx
	}
	if idx, ok := m.byExit[event]; ok {
		return idx
	}
	return -1
}

// Stages returns the ascending stages the matcher was built from.
func (m *Matcher) Stages() []journey.FunnelStage {
	return m.stages
}
