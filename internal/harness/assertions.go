package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/journey/internal/journey"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions checks every assertion against result and returns
// one message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertFunnelStage:
		return assertFunnelStage(result, a)
	case AssertTopPath:
		return assertTopPath(result, a)
	case AssertDropoffTotal:
		return assertDropoffTotal(result, a)
	case AssertChannel:
		return assertChannel(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func missing(kind, query string) error {
	return &AssertionError{
		Type:     kind,
		Expected: fmt.Sprintf("a successful %s query", query),
		Actual:   "none ran",
	}
}

// assertFunnelStage checks the stage's metric in the last funnel output.
func assertFunnelStage(result *Result, a Assertion) error {
	v, ok := result.last(QueryFunnel)
	if !ok {
		return missing(a.Type, QueryFunnel)
	}
	for _, m := range v.([]journey.StageMetric) {
		if m.Stage != a.Stage {
			continue
		}
		if err := checkInt(a.Type, a.Stage+" entries", a.Entries, m.Entries); err != nil {
			return err
		}
		return checkInt(a.Type, a.Stage+" conversions", a.Conversions, m.Conversions)
	}
	return &AssertionError{Type: a.Type, Expected: "stage " + a.Stage, Actual: "not in funnel"}
}

// assertTopPath checks the path at a 1-based rank in the last paths output.
func assertTopPath(result *Result, a Assertion) error {
	v, ok := result.last(QueryPaths)
	if !ok {
		return missing(a.Type, QueryPaths)
	}
	paths := v.([]journey.Path)
	if a.Rank > len(paths) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("at least %d paths", a.Rank),
			Actual:   fmt.Sprintf("%d paths", len(paths)),
		}
	}
	p := paths[a.Rank-1]
	if a.Sequence != nil && !slices.Equal(a.Sequence, p.Sequence) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("rank %d sequence %v", a.Rank, a.Sequence),
			Actual:   fmt.Sprintf("%v", p.Sequence),
		}
	}
	return checkInt(a.Type, fmt.Sprintf("rank %d frequency", a.Rank), a.Frequency, p.Frequency)
}

// assertDropoffTotal checks the last dropoff report for the stage.
func assertDropoffTotal(result *Result, a Assertion) error {
	for i := len(result.Outputs) - 1; i >= 0; i-- {
		out := result.Outputs[i]
		if out.Query != QueryDropoffs || out.ErrorCode != "" {
			continue
		}
		report := out.Result.(journey.DropoffReport)
		if report.Stage != a.Stage {
			continue
		}
		return checkInt(a.Type, a.Stage+" total", a.Total, report.Total)
	}
	return missing(a.Type, QueryDropoffs+" "+a.Stage)
}

// assertChannel checks the channel's row in the last attribution output.
func assertChannel(result *Result, a Assertion) error {
	v, ok := result.last(QueryChannels)
	if !ok {
		return missing(a.Type, QueryChannels)
	}
	for _, ca := range v.([]journey.ChannelAttribution) {
		if ca.Channel != a.Channel {
			continue
		}
		if err := checkInt(a.Type, a.Channel+" sessions", a.Sessions, ca.Sessions); err != nil {
			return err
		}
		return checkInt(a.Type, a.Channel+" conversions", a.Conversions, ca.Conversions)
	}
	return &AssertionError{Type: a.Type, Expected: "channel " + a.Channel, Actual: "not in attribution"}
}

// checkInt compares an optional expected count. A nil want always passes.
func checkInt(kind, what string, want *int, got int) error {
	if want == nil || *want == got {
		return nil
	}
	return &AssertionError{
		Type:     kind,
		Expected: fmt.Sprintf("%s = %d", what, *want),
		Actual:   fmt.Sprintf("%d", got),
	}
}
