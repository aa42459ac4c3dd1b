package store

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// marshalMetadata converts touchpoint metadata to JSON TEXT.
// Map keys are sorted by encoding/json, so equal maps store equal text.
func marshalMetadata(m map[string]string) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalMetadata parses metadata JSON TEXT. Never returns a nil map.
func unmarshalMetadata(data string) (map[string]string, error) {
	m := map[string]string{}
	if data == "" || data == "{}" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return m, nil
}

// toNanos encodes t as UTC unix nanoseconds.
func toNanos(t time.Time) int64 {
	return t.UTC().UnixNano()
}

var (
	minNanosTime = time.Unix(0, math.MinInt64).UTC()
	maxNanosTime = time.Unix(0, math.MaxInt64).UTC()
)

// boundNanos is toNanos for query bounds: instants outside the int64
// nanosecond range saturate instead of wrapping.
func boundNanos(t time.Time) int64 {
	switch {
	case t.Before(minNanosTime):
		return math.MinInt64
	case t.After(maxNanosTime):
		return math.MaxInt64
	}
	return toNanos(t)
}

// fromNanos decodes UTC unix nanoseconds.
func fromNanos(ns int64) time.Time {
	return time.Unix(0, ns).UTC()
}

// nullLTV maps an optional lifetime value to a nullable column.
func nullLTV(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// ltvPtr is the inverse of nullLTV.
func ltvPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
