package analytics

import (
	"time"

	"github.com/roach88/journey/internal/journey"
)

// Funnel computes one StageMetric per registered stage, ascending by order.
//
// For stage i:
//   - Entries: sessions whose first match of stage i is in the dataset
//   - Conversions: entries that also reached stage i+1 (terminal: all entries)
//   - AvgTimeInStage: mean gap from first stage i to first stage i+1 over
//     converted sessions; zero for the terminal stage
//
// Stages with no entries report zero rates.
func Funnel(d *Dataset) []journey.StageMetric {
	d.build()
	n := d.Registry.Len()
	out := make([]journey.StageMetric, 0, n)

	for i := 0; i < n; i++ {
		stage := d.Registry.At(i)
		m := journey.StageMetric{Stage: stage.Name, Order: stage.Order}

		var total time.Duration
		var timed int64
		for _, tl := range d.timelines {
			if !tl.seen[i] {
				continue
			}
			m.Entries++
			if !tl.converted(i) {
				continue
			}
			m.Conversions++
			if i < n-1 {
				total += tl.first[i+1].Sub(tl.first[i])
				timed++
			}
		}

		m.ConversionRate, m.DropoffRate = rates(m.Conversions, m.Entries)
		if timed > 0 {
			m.AvgTimeInStage = time.Duration(int64(total) / timed)
		}
		out = append(out, m)
	}
	return out
}

// rates returns conversion and dropoff rates; both are 0 when entries is 0.
func rates(conversions, entries int) (conversion, dropoff float64) {
	if entries == 0 {
		return 0, 0
	}
	conversion = float64(conversions) / float64(entries)
	return conversion, 1 - conversion
}
