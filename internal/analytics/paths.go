package analytics

import (
	"cmp"
	"slices"
	"strings"

	"github.com/roach88/journey/internal/journey"
)

// TopPaths groups sessions by their deduplicated stage sequence and
// returns the top limit groups.
//
// A session's sequence lists each stage once, ordered by the instant it was
// first seen (stage order breaks ties at the same instant). Sessions that
// matched no stage have no path. Ranking uses the composite key
// (frequency desc, conversion rate desc, sequence asc).
//
// Returns an InputError if limit <= 0.
func TopPaths(d *Dataset, limit int) ([]journey.Path, error) {
	if err := journey.RequirePositive("limit", limit); err != nil {
		return nil, err
	}
	d.build()

	groups := make(map[string]*journey.Path)
	for _, tl := range d.timelines {
		if !tl.matched() {
			continue
		}
		seq := d.sequence(tl)
		key := strings.Join(seq, "\x1f")
		p, ok := groups[key]
		if !ok {
			p = &journey.Path{Sequence: seq}
			groups[key] = p
		}
		p.Frequency++
		if tl.reachedTerminal() {
			p.Conversions++
		}
	}

	paths := make([]journey.Path, 0, len(groups))
	for _, p := range groups {
		p.ConversionRate = float64(p.Conversions) / float64(p.Frequency)
		paths = append(paths, *p)
	}
	slices.SortFunc(paths, comparePaths)

	if len(paths) > limit {
		paths = paths[:limit]
	}
	return paths, nil
}

// comparePaths orders paths by frequency desc, conversion rate desc, then
// sequence ascending (element-wise, shorter first on a common prefix).
func comparePaths(a, b journey.Path) int {
	if c := cmp.Compare(b.Frequency, a.Frequency); c != 0 {
		return c
	}
	if c := cmp.Compare(b.ConversionRate, a.ConversionRate); c != 0 {
		return c
	}
	return slices.Compare(a.Sequence, b.Sequence)
}

// sequence returns the stage names of tl in first-seen order.
func (d *Dataset) sequence(tl *timeline) []string {
	idx := make([]int, 0, len(tl.seen))
	for i, s := range tl.seen {
		if s {
			idx = append(idx, i)
		}
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		if c := tl.first[a].Compare(tl.first[b]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	names := make([]string, len(idx))
	for i, stageIdx := range idx {
		names[i] = d.Registry.At(stageIdx).Name
	}
	return names
}
