package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/roach88/journey/internal/journey"
	"github.com/roach88/journey/internal/tracker"
)

// Each view is a named result type: it marshals to JSON like the value it
// wraps and renders as a table in text mode. The heatmap also lists its
// cells in JSON.

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func percent(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate*100)
}

type stageListView []journey.FunnelStage

func (v stageListView) RenderText(w io.Writer) error {
	if len(v) == 0 {
		_, err := fmt.Fprintln(w, "No stages registered.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ORDER\tSTAGE\tENTRY\tEXIT\tDESCRIPTION")
	for _, s := range v {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", s.Order, s.Name, s.EntryEvent, dash(s.ExitEvent), s.Description)
	}
	return tw.Flush()
}

type stageView journey.FunnelStage

func (v stageView) RenderText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Stage %s at order %d (entry %s)\n", v.Name, v.Order, v.EntryEvent)
	return err
}

type sessionView journey.Session

func (v sessionView) RenderText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Session started: %s\n", v.ID)
	return err
}

type recordedView tracker.Recorded

func (v recordedView) RenderText(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Touchpoint recorded: %s\n", v.Touchpoint.ID); err != nil {
		return err
	}
	if v.Stage != nil {
		_, err := fmt.Fprintf(w, "Stage entered: %s\n", v.Stage.Name)
		return err
	}
	return nil
}

type funnelView []journey.StageMetric

func (v funnelView) RenderText(w io.Writer) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "STAGE\tENTRIES\tCONVERSIONS\tCONVERSION\tDROPOFF\tAVG TIME")
	for _, m := range v {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%s\n",
			m.Stage, m.Entries, m.Conversions, percent(m.ConversionRate), percent(m.DropoffRate), m.AvgTimeInStage)
	}
	return tw.Flush()
}

type pathsView []journey.Path

func (v pathsView) RenderText(w io.Writer) error {
	if len(v) == 0 {
		_, err := fmt.Fprintln(w, "No paths recorded.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "RANK\tFREQUENCY\tCONVERSIONS\tRATE\tPATH")
	for i, p := range v {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%s\n",
			i+1, p.Frequency, p.Conversions, percent(p.ConversionRate), strings.Join(p.Sequence, " → "))
	}
	return tw.Flush()
}

type dropoffView journey.DropoffReport

func (v dropoffView) RenderText(w io.Writer) error {
	fmt.Fprintf(w, "Stage: %s\n", v.Stage)
	fmt.Fprintf(w, "Total dropoffs: %d\n", v.Total)
	if v.Total == 0 {
		return nil
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "\nREASON\tCOUNT")
	writeCounts(tw, v.Reasons)
	fmt.Fprintln(tw, "\nCHANNEL\tCOUNT")
	writeCounts(tw, v.ByChannel)
	fmt.Fprintln(tw, "\nHOUR\tCOUNT")
	for hour, n := range v.ByHour {
		if n > 0 {
			fmt.Fprintf(tw, "%02d:00\t%d\n", hour, n)
		}
	}
	return tw.Flush()
}

type channelsView []journey.ChannelAttribution

func (v channelsView) RenderText(w io.Writer) error {
	if len(v) == 0 {
		_, err := fmt.Fprintln(w, "No sessions in window.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "CHANNEL\tSESSIONS\tCONVERSIONS\tRATE\tVALUE")
	for _, ca := range v {
		rate := 0.0
		if ca.Sessions > 0 {
			rate = float64(ca.Conversions) / float64(ca.Sessions)
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%.2f\n", ca.Channel, ca.Sessions, ca.Conversions, percent(rate), ca.TotalValue)
	}
	return tw.Flush()
}

type segmentsView []journey.LTVSegment

func (v segmentsView) RenderText(w io.Writer) error {
	if len(v) == 0 {
		_, err := fmt.Fprintln(w, "No lifetime values recorded.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "SEGMENT\tMIN\tMAX\tCUSTOMERS\tVALUE")
	for _, s := range v {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%d\t%.2f\n", s.Label(), s.Min, s.Max, s.Customers, s.TotalValue)
	}
	return tw.Flush()
}

type heatmapView journey.Heatmap

func (v heatmapView) MarshalJSON() ([]byte, error) {
	h := journey.Heatmap(v)
	return json.Marshal(struct {
		Matrix [7][24]int            `json:"matrix"`
		Total  int                   `json:"total_touchpoints"`
		Cells  []journey.HeatmapCell `json:"cells"`
	}{h.Matrix, h.Total, h.Cells()})
}

func (v heatmapView) RenderText(w io.Writer) error {
	tw := newTable(w)
	var header strings.Builder
	header.WriteString("DAY")
	for hour := 0; hour < 24; hour++ {
		fmt.Fprintf(&header, "\t%02d", hour)
	}
	fmt.Fprintln(tw, header.String())

	for day, label := range journey.WeekdayLabels {
		var row strings.Builder
		row.WriteString(label)
		for hour := 0; hour < 24; hour++ {
			fmt.Fprintf(&row, "\t%d", v.Matrix[day][hour])
		}
		fmt.Fprintln(tw, row.String())
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Total touchpoints: %d\n", v.Total)
	return err
}

// writeCounts prints a count map as rows, largest first, then by key.
func writeCounts(w io.Writer, counts map[string]int) {
	keys := slices.Sorted(maps.Keys(counts))
	slices.SortStableFunc(keys, func(a, b string) int {
		return counts[b] - counts[a]
	})
	for _, k := range keys {
		fmt.Fprintf(w, "%s\t%d\n", k, counts[k])
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
