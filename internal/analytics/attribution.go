package analytics

import (
	"cmp"
	"slices"

	"github.com/roach88/journey/internal/journey"
)

// Attribution groups the dataset's sessions by channel.
//
// Sessions counts every session in d.Sessions; Conversions counts those
// whose touchpoints in the dataset reach the terminal stage; TotalValue
// sums session LTV with missing values as 0. No ratios are computed.
//
// Results are ordered by conversions desc, sessions desc, channel asc.
func Attribution(d *Dataset) []journey.ChannelAttribution {
	d.build()

	byChannel := make(map[string]*journey.ChannelAttribution)
	for _, s := range d.Sessions {
		ca, ok := byChannel[s.Channel]
		if !ok {
			ca = &journey.ChannelAttribution{Channel: s.Channel}
			byChannel[s.Channel] = ca
		}
		ca.Sessions++
		ca.TotalValue += s.Value()
		if tl, ok := d.timelineFor(s.ID); ok && tl.reachedTerminal() {
			ca.Conversions++
		}
	}

	out := make([]journey.ChannelAttribution, 0, len(byChannel))
	for _, ca := range byChannel {
		out = append(out, *ca)
	}
	slices.SortFunc(out, func(a, b journey.ChannelAttribution) int {
		if c := cmp.Compare(b.Conversions, a.Conversions); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Sessions, a.Sessions); c != 0 {
			return c
		}
		return cmp.Compare(a.Channel, b.Channel)
	})
	return out
}
