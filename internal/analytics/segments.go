package analytics

import (
	"math"

	"github.com/roach88/journey/internal/journey"
)

// DefaultLTVBuckets is the bucket count used when none is configured.
const DefaultLTVBuckets = 5

// LTVSegments buckets customers by lifetime value into equal-width ranges
// over [min, max] of the observed customer LTVs.
//
// A customer's LTV is the sum of the LTV recorded on their sessions.
// Customers without any recorded LTV are excluded, and non-finite values
// are skipped. Negative values (refunds) bucket like any other. The last bucket is
// inclusive on the right. When every customer has the same LTV they all
// fall into bucket 1.
//
// Returns an InputError if buckets <= 0, and an empty slice when no
// customer has an LTV.
func LTVSegments(sessions []journey.Session, buckets int) ([]journey.LTVSegment, error) {
	if err := journey.RequirePositive("buckets", buckets); err != nil {
		return nil, err
	}

	ltv := make(map[string]float64)
	for _, s := range sessions {
		if s.LTV == nil || math.IsNaN(*s.LTV) || math.IsInf(*s.LTV, 0) {
			continue
		}
		ltv[s.CustomerID] += *s.LTV
	}
	if len(ltv) == 0 {
		return []journey.LTVSegment{}, nil
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range ltv {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	width := (hi - lo) / float64(buckets)

	out := make([]journey.LTVSegment, buckets)
	for i := range out {
		out[i] = journey.LTVSegment{
			Bucket: i + 1,
			Min:    lo + float64(i)*width,
			Max:    lo + float64(i+1)*width,
		}
	}
	out[buckets-1].Max = hi

	for _, v := range ltv {
		i := bucketOf(v, lo, width, buckets)
		out[i].Customers++
		out[i].TotalValue += v
	}
	return out, nil
}

// bucketOf returns the zero-based bucket for v, clamped to [0, n-1].
func bucketOf(v, lo, width float64, n int) int {
	if width == 0 {
		return 0
	}
	i := int(math.Floor((v - lo) / width))
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
