package journey

import (
	"math"
	"strconv"
	"time"
)

// DefaultDevice is recorded when a session is started without a device.
const DefaultDevice = "unknown"

// FunnelStage is one ordered step of the conversion funnel.
type FunnelStage struct {
	Name        string `json:"name" yaml:"name"`
	Order       int    `json:"order" yaml:"order"`
	EntryEvent  string `json:"entry_event" yaml:"entry_event"`
	ExitEvent   string `json:"exit_event,omitempty" yaml:"exit_event,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// HasExit reports whether the stage declares an exit event.
func (s FunnelStage) HasExit() bool {
	return s.ExitEvent != ""
}

// Session is a single customer visit on one channel and device.
// LTV is nil when no lifetime value was recorded for the session.
type Session struct {
	ID         string    `json:"session_id"`
	CustomerID string    `json:"customer_id"`
	Channel    string    `json:"channel"`
	Device     string    `json:"device"`
	StartedAt  time.Time `json:"started_at"`
	LTV        *float64  `json:"ltv,omitempty"`
}

// Value returns the session's LTV, or 0 when none was recorded or the
// recorded value is not finite.
func (s Session) Value() float64 {
	if s.LTV == nil || math.IsNaN(*s.LTV) || math.IsInf(*s.LTV, 0) {
		return 0
	}
	return *s.LTV
}

// Touchpoint is an immutable event recorded inside a session.
//
// Seq is assigned by the event store when the touchpoint is appended and
// breaks ties between touchpoints that share OccurredAt.
type Touchpoint struct {
	ID         string            `json:"touchpoint_id"`
	SessionID  string            `json:"session_id"`
	Event      string            `json:"event"`
	OccurredAt time.Time         `json:"occurred_at"`
	Metadata   map[string]string `json:"metadata"`
	Seq        int64             `json:"seq"`
}

// Before reports whether t sorts before other in session order:
// occurred_at ascending, then seq ascending.
func (t Touchpoint) Before(other Touchpoint) bool {
	if !t.OccurredAt.Equal(other.OccurredAt) {
		return t.OccurredAt.Before(other.OccurredAt)
	}
	return t.Seq < other.Seq
}

// MetadataValue returns the metadata value for key and whether it was set.
func (t Touchpoint) MetadataValue(key string) (string, bool) {
	if t.Metadata == nil {
		return "", false
	}
	v, ok := t.Metadata[key]
	return v, ok
}

// StageMetric is the funnel result for a single stage.
type StageMetric struct {
	Stage          string        `json:"stage"`
	Order          int           `json:"order"`
	Entries        int           `json:"entries"`
	Conversions    int           `json:"conversions"`
	ConversionRate float64       `json:"conversion_rate"`
	DropoffRate    float64       `json:"dropoff_rate"`
	AvgTimeInStage time.Duration `json:"avg_time_in_stage"`
}

// Path is a distinct stage sequence and how often sessions followed it.
type Path struct {
	Sequence       []string `json:"sequence"`
	Frequency      int      `json:"frequency"`
	Conversions    int      `json:"conversions"`
	ConversionRate float64  `json:"conversion_rate"`
}

// ChannelAttribution aggregates raw session outcomes for one channel.
type ChannelAttribution struct {
	Channel     string  `json:"channel"`
	Sessions    int     `json:"sessions"`
	Conversions int     `json:"conversions"`
	TotalValue  float64 `json:"total_value"`
}

// HeatmapCell is one (weekday, hour) count of the touchpoint heatmap.
type HeatmapCell struct {
	Hour    int `json:"hour"`
	Weekday int `json:"weekday"`
	Count   int `json:"count"`
}

// DropoffReport describes sessions that entered a stage and never
// reached the next one.
type DropoffReport struct {
	Stage     string         `json:"stage"`
	Total     int            `json:"total"`
	Reasons   map[string]int `json:"reasons"`
	ByHour    [24]int        `json:"by_hour"`
	ByChannel map[string]int `json:"by_channel"`
}

// LTVSegment is one equal-width lifetime value bucket.
type LTVSegment struct {
	Bucket     int     `json:"bucket"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Customers  int     `json:"customers"`
	TotalValue float64 `json:"total_value"`
}

// Label returns the display label for the segment.
func (s LTVSegment) Label() string {
	return "Segment " + strconv.Itoa(s.Bucket)
}

// Heatmap is the 7×24 touchpoint density matrix, indexed [weekday][hour].
type Heatmap struct {
	Matrix [7][24]int `json:"matrix"`
	Total  int        `json:"total_touchpoints"`
}

// WeekdayLabels names the heatmap rows, Monday first.
var WeekdayLabels = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Cells flattens the matrix into cells ordered by weekday then hour.
func (h Heatmap) Cells() []HeatmapCell {
	cells := make([]HeatmapCell, 0, 7*24)
	for d := 0; d < 7; d++ {
		for hr := 0; hr < 24; hr++ {
			cells = append(cells, HeatmapCell{Hour: hr, Weekday: d, Count: h.Matrix[d][hr]})
		}
	}
	return cells
}
