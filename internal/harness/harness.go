package harness

import (
	"context"
	"fmt"

	"github.com/roach88/journey/internal/analytics"
	"github.com/roach88/journey/internal/funneldef"
	"github.com/roach88/journey/internal/journey"
	"github.com/roach88/journey/internal/store"
	"github.com/roach88/journey/internal/testutil"
	"github.com/roach88/journey/internal/tracker"
)

// Harness executes one scenario against a fresh store.
type Harness struct {
	store   *store.Store
	tracker *tracker.Tracker
	engine  *analytics.Engine
	clock   *testutil.ManualClock
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory SQLite database for isolation.
// A manual clock and sequential IDs make the outputs reproducible.
//
// Execution flow:
//  1. Create fresh in-memory database
//  2. Register the stages
//  3. Record sessions and touchpoints
//  4. Run queries with the clock fixed at Now
//  5. Evaluate assertions
//
// Returns an error only when the scenario cannot be set up. Query and
// assertion failures are reported in the Result.
func Run(s *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	clock := testutil.NewManualClock(s.Start)
	h := &Harness{
		store:   st,
		tracker: tracker.New(st, tracker.WithClock(clock), tracker.WithIDGenerator(journey.NewSequenceGenerator("id"))),
		engine:  analytics.NewEngine(st, analytics.WithClock(clock)),
		clock:   clock,
	}

	ctx := context.Background()
	result := NewResult()

	if err := h.registerStages(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to register stages: %w", err)
	}
	if err := h.recordSessions(ctx, s, result); err != nil {
		return nil, fmt.Errorf("failed to record sessions: %w", err)
	}

	clock.Set(s.Now)
	for i, q := range s.Queries {
		if err := h.runQuery(ctx, i, q, result); err != nil {
			return nil, err
		}
	}

	for _, msg := range EvaluateAssertions(result, s.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) registerStages(ctx context.Context, s *Scenario) error {
	stages := s.Stages
	if s.StagesFile != "" {
		loaded, err := funneldef.Load(s.StagesFile)
		if err != nil {
			return err
		}
		stages = loaded
	}

	specs := make([]tracker.StageSpec, len(stages))
	for i, st := range stages {
		specs[i] = tracker.StageSpec{
			Name:        st.Name,
			Order:       st.Order,
			EntryEvent:  st.EntryEvent,
			ExitEvent:   st.ExitEvent,
			Description: st.Description,
		}
	}
	_, err := h.tracker.AddStages(ctx, specs)
	return err
}

func (h *Harness) recordSessions(ctx context.Context, s *Scenario, result *Result) error {
	for i, step := range s.Sessions {
		startedAt := s.Start.Add(step.At)
		sess, err := h.tracker.StartSession(ctx, step.CustomerID, step.Channel, tracker.SessionOptions{
			Device:    step.Device,
			StartedAt: startedAt,
			LTV:       step.LTV,
		})
		if err != nil {
			return fmt.Errorf("sessions[%d]: %w", i, err)
		}
		result.Sessions++

		for j, tp := range step.Touchpoints {
			_, err := h.tracker.RecordTouchpoint(ctx, sess.ID, tp.Event, tracker.TouchpointOptions{
				OccurredAt: startedAt.Add(tp.At),
				Metadata:   tp.Metadata,
			})
			if err != nil {
				return fmt.Errorf("sessions[%d].touchpoints[%d]: %w", i, j, err)
			}
			result.Touchpoints++
		}
	}
	return nil
}

// runQuery executes one query and records its output. Input errors are
// outcomes, checked against ExpectError; storage errors abort the run.
func (h *Harness) runQuery(ctx context.Context, index int, q QueryStep, result *Result) error {
	value, err := h.execute(ctx, q)
	out := QueryOutput{Query: q.Query}

	switch {
	case err != nil && !journey.IsInputError(err):
		return fmt.Errorf("queries[%d]: %w", index, err)
	case err != nil:
		out.ErrorCode = journey.InputErrorCodeOf(err)
		if q.ExpectError == "" {
			result.AddError(fmt.Sprintf("queries[%d] (%s): unexpected error: %v", index, q.Query, err))
		} else if q.ExpectError != out.ErrorCode {
			result.AddError(fmt.Sprintf("queries[%d] (%s): expected error %s, got %s", index, q.Query, q.ExpectError, out.ErrorCode))
		}
	default:
		out.Result = value
		if q.ExpectError != "" {
			result.AddError(fmt.Sprintf("queries[%d] (%s): expected error %s, got success", index, q.Query, q.ExpectError))
		}
	}

	result.AddOutput(out)
	return nil
}

func (h *Harness) execute(ctx context.Context, q QueryStep) (any, error) {
	switch q.Query {
	case QueryFunnel:
		return h.engine.AnalyzeFunnel(ctx, orDefault(q.Days, analytics.DefaultDays), q.Channel)
	case QueryPaths:
		return h.engine.TopPaths(ctx, orDefault(q.Limit, analytics.DefaultPathLimit))
	case QueryDropoffs:
		return h.engine.AnalyzeDropoffs(ctx, q.Stage)
	case QueryChannels:
		return h.engine.ChannelAttribution(ctx, orDefault(q.Days, analytics.DefaultDays))
	case QuerySegments:
		return h.engine.LTVSegments(ctx, orDefault(q.Buckets, analytics.DefaultLTVBuckets))
	case QueryHeatmap:
		return h.engine.Heatmap(ctx, orDefault(q.Hours, analytics.DefaultHeatmapHours))
	default:
		return nil, journey.NewInvalidArgumentError("query", fmt.Sprintf("unknown query type %q", q.Query))
	}
}

// orDefault returns def when v is zero. Negative values pass through so
// scenarios can exercise argument validation.
func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
