package analytics

import "github.com/roach88/journey/internal/journey"

// DefaultHeatmapHours is the heatmap window used when none is given: one week.
const DefaultHeatmapHours = 168

// BuildHeatmap counts touchpoints by UTC (weekday, hour).
// The cell total always equals len(touchpoints).
func BuildHeatmap(touchpoints []journey.Touchpoint) journey.Heatmap {
	var h journey.Heatmap
	for _, tp := range touchpoints {
		h.Matrix[journey.WeekdayOf(tp.OccurredAt)][journey.HourOf(tp.OccurredAt)]++
		h.Total++
	}
	return h
}
