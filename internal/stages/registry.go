// Package stages holds the ordered funnel stage registry and the matcher
// that maps touchpoint events onto stages.
package stages

import (
	"fmt"
	"sort"

	"github.com/roach88/journey/internal/journey"
)

// Registry is the ordered list of funnel stages.
//
// Invariants:
//   - Order values are unique
//   - Names are unique
//   - Stages() always returns ascending Order
//
// Registry is not safe for concurrent mutation; callers own it for the
// duration of a command or query.
type Registry struct {
	stages []journey.FunnelStage
}

// NewRegistry builds a registry from existing stages, validating every
// invariant. Input order does not matter.
func NewRegistry(stages ...journey.FunnelStage) (*Registry, error) {
	r := &Registry{}
	for _, s := range stages {
		if _, err := r.Add(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Add validates and inserts a stage, returning the normalised stage.
func (r *Registry) Add(s journey.FunnelStage) (journey.FunnelStage, error) {
	s = normalize(s)
	if err := validate(s); err != nil {
		return journey.FunnelStage{}, err
	}
	for _, existing := range r.stages {
		if existing.Order == s.Order {
			return journey.FunnelStage{}, &journey.InputError{
				Code:    journey.ErrCodeDuplicateOrder,
				Message: fmt.Sprintf("order %d is already used by stage %q", s.Order, existing.Name),
				Field:   "order",
			}
		}
		if existing.Name == s.Name {
			return journey.FunnelStage{}, &journey.InputError{
				Code:    journey.ErrCodeDuplicateStage,
				Message: fmt.Sprintf("stage %q already exists", s.Name),
				Field:   "name",
			}
		}
	}
	r.stages = append(r.stages, s)
	r.sort()
	return s, nil
}

// Reorder moves the named stage to a new order value.
func (r *Registry) Reorder(name string, order int) (journey.FunnelStage, error) {
	name = journey.NormalizeEvent(name)
	idx := r.indexOf(name)
	if idx < 0 {
		return journey.FunnelStage{}, journey.NewUnknownStageError(name)
	}
	for i, existing := range r.stages {
		if i != idx && existing.Order == order {
			return journey.FunnelStage{}, &journey.InputError{
				Code:    journey.ErrCodeDuplicateOrder,
				Message: fmt.Sprintf("order %d is already used by stage %q", order, existing.Name),
				Field:   "order",
			}
		}
	}
	r.stages[idx].Order = order
	moved := r.stages[idx]
	r.sort()
	return moved, nil
}

// Stages returns a copy of the stages in ascending order.
func (r *Registry) Stages() []journey.FunnelStage {
	out := make([]journey.FunnelStage, len(r.stages))
	copy(out, r.stages)
	return out
}

// Len returns the number of registered stages.
func (r *Registry) Len() int {
	return len(r.stages)
}

// At returns the stage at position i in ascending order.
func (r *Registry) At(i int) journey.FunnelStage {
	return r.stages[i]
}

// Index returns the position of the named stage, or -1.
func (r *Registry) Index(name string) int {
	return r.indexOf(journey.NormalizeEvent(name))
}

// Terminal returns the position of the last stage, or -1 when empty.
func (r *Registry) Terminal() int {
	return len(r.stages) - 1
}

func (r *Registry) indexOf(name string) int {
	for i, s := range r.stages {
		if s.Name == name {
			return i
		}
	}
	return -1
}

func (r *Registry) sort() {
	sort.SliceStable(r.stages, func(i, j int) bool {
		return r.stages[i].Order < r.stages[j].Order
	})
}

func normalize(s journey.FunnelStage) journey.FunnelStage {
	s.Name = journey.NormalizeEvent(s.Name)
	s.EntryEvent = journey.NormalizeEvent(s.EntryEvent)
	s.ExitEvent = journey.NormalizeEvent(s.ExitEvent)
	return s
}

func validate(s journey.FunnelStage) error {
	if s.Name == "" {
		return journey.NewInvalidArgumentError("name", "stage name is required")
	}
	if s.EntryEvent == "" {
		return journey.NewInvalidArgumentError("entry_event", "entry event is required")
	}
	return nil
}
