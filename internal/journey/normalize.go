package journey

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeEvent returns the canonical form of an event identifier or
// stage name: surrounding whitespace trimmed and NFC normalised.
//
// Stage matching is exact string equality, so "café" typed as
// e + combining acute must equal the precomposed form.
func NormalizeEvent(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// NormalizeMetadata returns a copy of m with NFC-normalised keys.
// Values are kept as recorded. A nil map becomes an empty map.
func NormalizeMetadata(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[NormalizeEvent(k)] = v
	}
	return out
}
