package harness

import "github.com/roach88/journey/internal/journey"

// QueryOutput is the recorded outcome of one scenario query.
// Exactly one of Result and ErrorCode is set.
type QueryOutput struct {
	// Query is the query type, e.g. "funnel".
	Query string `json:"query"`

	// Result holds the engine's answer for successful queries.
	Result any `json:"result,omitempty"`

	// ErrorCode is the InputError code of a rejected query.
	ErrorCode journey.InputErrorCode `json:"error_code,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every query and assertion behaved as expected.
	Pass bool `json:"pass"`

	// Outputs holds one entry per query, in scenario order.
	Outputs []QueryOutput `json:"outputs"`

	// Errors contains expectation and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Sessions is the number of sessions recorded.
	Sessions int `json:"sessions"`

	// Touchpoints is the number of touchpoints recorded.
	Touchpoints int `json:"touchpoints"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Outputs: []QueryOutput{},
		Errors:  []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddOutput records a query outcome.
func (r *Result) AddOutput(out QueryOutput) {
	r.Outputs = append(r.Outputs, out)
}

// last returns the most recent successful output of the given query type.
func (r *Result) last(query string) (any, bool) {
	for i := len(r.Outputs) - 1; i >= 0; i-- {
		out := r.Outputs[i]
		if out.Query == query && out.ErrorCode == "" {
			return out.Result, true
		}
	}
	return nil, false
}
