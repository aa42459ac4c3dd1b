package analytics

import (
	"strings"

	"github.com/roach88/journey/internal/journey"
)

// ReasonKey is the touchpoint metadata key read for dropoff reasons.
const ReasonKey = "reason"

// UnknownReason is reported when the last touchpoint carries no reason.
const UnknownReason = "unknown"

// Dropoffs reports the sessions that entered the named stage and did not
// reach the next one.
//
// Each dropped session contributes its last touchpoint in the dataset:
// the "reason" metadata value, the UTC hour it occurred and the session
// channel. The terminal stage never has dropoffs.
//
// Returns an InputError if the stage is not registered. An empty
// population yields a zero report, not an error.
func Dropoffs(d *Dataset, stage string) (journey.DropoffReport, error) {
	idx := d.Registry.Index(stage)
	if idx < 0 {
		return journey.DropoffReport{}, journey.NewUnknownStageError(stage)
	}
	report := journey.DropoffReport{
		Stage:     d.Registry.At(idx).Name,
		Reasons:   map[string]int{},
		ByChannel: map[string]int{},
	}
	if idx == d.Registry.Terminal() {
		return report, nil
	}
	d.build()
	for _, tl := range d.timelines {
		if !tl.seen[idx] || tl.converted(idx) {
			continue
		}
		last := tl.last()
		report.Total++
		report.Reasons[reasonOf(last)]++
		report.ByHour[journey.HourOf(last.OccurredAt)]++
		report.ByChannel[tl.session.Channel]++
	}
	return report, nil
}

func reasonOf(tp journey.Touchpoint) string {
	v, ok := tp.MetadataValue(ReasonKey)
	if !ok {
		return UnknownReason
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return UnknownReason
	}
	return v
}
