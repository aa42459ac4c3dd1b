package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/journey/internal/journey"
)

// Scenario is a recorded set of customer journeys plus the queries to run
// over them. Scenarios make analytics results reproducible: every instant
// is an offset from Start and the query clock is fixed at Now.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Start is the base instant for session offsets.
	Start time.Time `yaml:"start"`

	// Now is the query clock. Defaults to Start plus 24 hours.
	Now time.Time `yaml:"now,omitempty"`

	// Stages declares the funnel inline.
	Stages []journey.FunnelStage `yaml:"stages,omitempty"`

	// StagesFile loads the funnel from a YAML or CUE file instead.
	// Relative paths resolve against the scenario file's directory.
	StagesFile string `yaml:"stages_file,omitempty"`

	// Sessions are recorded in order before any query runs.
	Sessions []SessionStep `yaml:"sessions"`

	// Queries run in order against the recorded journeys.
	Queries []QueryStep `yaml:"queries"`

	// Assertions check the query results.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// SessionStep starts one session and records its touchpoints.
type SessionStep struct {
	CustomerID string `yaml:"customer_id"`
	Channel    string `yaml:"channel"`
	Device     string `yaml:"device,omitempty"`

	// At is the session start as an offset from Scenario.Start.
	At time.Duration `yaml:"at,omitempty"`

	LTV *float64 `yaml:"ltv,omitempty"`

	Touchpoints []TouchStep `yaml:"touchpoints,omitempty"`
}

// TouchStep records one touchpoint.
type TouchStep struct {
	Event string `yaml:"event"`

	// At is an offset from the owning session's start.
	At time.Duration `yaml:"at,omitempty"`

	Metadata map[string]string `yaml:"metadata,omitempty"`
}

// QueryStep is one engine query. Zero parameters take the engine defaults.
type QueryStep struct {
	// Query selects the operation; see the Query* constants.
	Query string `yaml:"query"`

	Days    int    `yaml:"days,omitempty"`
	Hours   int    `yaml:"hours,omitempty"`
	Limit   int    `yaml:"limit,omitempty"`
	Buckets int    `yaml:"buckets,omitempty"`
	Channel string `yaml:"channel,omitempty"`
	Stage   string `yaml:"stage,omitempty"`

	// ExpectError, when set, requires the query to fail with this
	// InputError code.
	ExpectError journey.InputErrorCode `yaml:"expect_error,omitempty"`
}

// Query type constants.
const (
	QueryFunnel   = "funnel"
	QueryPaths    = "paths"
	QueryDropoffs = "dropoffs"
	QueryChannels = "channels"
	QuerySegments = "segments"
	QueryHeatmap  = "heatmap"
)

// Assertion validates a query result.
type Assertion struct {
	// Type specifies the assertion type:
	// - "funnel_stage": entries/conversions of Stage in the last funnel
	// - "top_path": Sequence/Frequency of the path at Rank in the last paths
	// - "dropoff_total": Total of the last dropoff report for Stage
	// - "channel": Sessions/Conversions of Channel in the last attribution
	Type string `yaml:"type"`

	Stage    string   `yaml:"stage,omitempty"`
	Channel  string   `yaml:"channel,omitempty"`
	Rank     int      `yaml:"rank,omitempty"`
	Sequence []string `yaml:"sequence,omitempty"`

	Entries     *int `yaml:"entries,omitempty"`
	Conversions *int `yaml:"conversions,omitempty"`
	Frequency   *int `yaml:"frequency,omitempty"`
	Sessions    *int `yaml:"sessions,omitempty"`
	Total       *int `yaml:"total,omitempty"`
}

// Assertion type constants.
const (
	AssertFunnelStage  = "funnel_stage"
	AssertTopPath      = "top_path"
	AssertDropoffTotal = "dropoff_total"
	AssertChannel      = "channel"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	s, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if s.StagesFile != "" && !filepath.IsAbs(s.StagesFile) {
		s.StagesFile = filepath.Join(filepath.Dir(path), s.StagesFile)
	}
	return s, nil
}

// ParseScenario parses scenario YAML. Relative stages_file paths are left
// as written.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	if scenario.Now.IsZero() {
		scenario.Now = scenario.Start.Add(24 * time.Hour)
	}
	scenario.Start = journey.UTC(scenario.Start)
	scenario.Now = journey.UTC(scenario.Now)
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Start.IsZero() {
		return fmt.Errorf("start is required")
	}

	switch {
	case len(s.Stages) == 0 && s.StagesFile == "":
		return fmt.Errorf("stages or stages_file is required")
	case len(s.Stages) > 0 && s.StagesFile != "":
		return fmt.Errorf("stages and stages_file are mutually exclusive")
	}

	if len(s.Queries) == 0 {
		return fmt.Errorf("queries list is required and must be non-empty")
	}

	for i, sess := range s.Sessions {
		if sess.CustomerID == "" {
			return fmt.Errorf("sessions[%d]: customer_id is required", i)
		}
		if sess.Channel == "" {
			return fmt.Errorf("sessions[%d]: channel is required", i)
		}
		for j, tp := range sess.Touchpoints {
			if tp.Event == "" {
				return fmt.Errorf("sessions[%d].touchpoints[%d]: event is required", i, j)
			}
		}
	}

	for i, q := range s.Queries {
		if err := validateQuery(i, q); err != nil {
			return err
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateQuery(index int, q QueryStep) error {
	switch q.Query {
	case QueryFunnel, QueryPaths, QueryChannels, QuerySegments, QueryHeatmap:
	case QueryDropoffs:
		if q.Stage == "" {
			return fmt.Errorf("queries[%d]: stage is required for dropoffs", index)
		}
	case "":
		return fmt.Errorf("queries[%d]: query is required", index)
	default:
		return fmt.Errorf("queries[%d]: unknown query type %q", index, q.Query)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case AssertFunnelStage:
		if a.Stage == "" {
			return fmt.Errorf("assertions[%d]: stage is required for funnel_stage", index)
		}
	case AssertTopPath:
		if a.Rank <= 0 {
			return fmt.Errorf("assertions[%d]: rank must be positive for top_path", index)
		}
	case AssertDropoffTotal:
		if a.Stage == "" || a.Total == nil {
			return fmt.Errorf("assertions[%d]: stage and total are required for dropoff_total", index)
		}
	case AssertChannel:
		if a.Channel == "" {
			return fmt.Errorf("assertions[%d]: channel is required for channel", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
