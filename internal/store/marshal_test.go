package store

import (
	"math"
	"testing"
	"time"
)

func TestMarshalMetadata_Deterministic(t *testing.T) {
	m := map[string]string{"utm": "spring<sale>", "reason": "price"}

	first, err := marshalMetadata(m)
	if err != nil {
		t.Fatalf("marshalMetadata() failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		got, err := marshalMetadata(m)
		if err != nil {
			t.Fatalf("marshalMetadata() failed: %v", err)
		}
		if got != first {
			t.Fatalf("non-deterministic output: %q vs %q", got, first)
		}
	}

	want := `{"reason":"price","utm":"spring<sale>"}`
	if first != want {
		t.Errorf("marshalMetadata() = %q, want %q", first, want)
	}
}

func TestMarshalMetadata_Empty(t *testing.T) {
	for _, m := range []map[string]string{nil, {}} {
		got, err := marshalMetadata(m)
		if err != nil {
			t.Fatalf("marshalMetadata() failed: %v", err)
		}
		if got != "{}" {
			t.Errorf("marshalMetadata(%v) = %q, want {}", m, got)
		}
	}
}

func TestUnmarshalMetadata(t *testing.T) {
	got, err := unmarshalMetadata(`{"reason":"price"}`)
	if err != nil {
		t.Fatalf("unmarshalMetadata() failed: %v", err)
	}
	if got["reason"] != "price" {
		t.Errorf("reason = %q, want price", got["reason"])
	}

	empty, err := unmarshalMetadata("")
	if err != nil {
		t.Fatalf("unmarshalMetadata(\"\") failed: %v", err)
	}
	if empty == nil {
		t.Error("unmarshalMetadata(\"\") returned nil map")
	}

	if _, err := unmarshalMetadata("{not json"); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestNanos_RoundTrip(t *testing.T) {
	tz := time.FixedZone("UTC+5", 5*3600)
	in := time.Date(2026, 3, 2, 14, 30, 0, 123456789, tz)

	out := fromNanos(toNanos(in))
	if !out.Equal(in) {
		t.Errorf("round trip = %v, want %v", out, in)
	}
	if out.Location() != time.UTC {
		t.Errorf("location = %v, want UTC", out.Location())
	}
}

func TestBoundNanos(t *testing.T) {
	in := time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		at   time.Time
		want int64
	}{
		{name: "in range", at: in, want: in.UnixNano()},
		{name: "before range", at: time.Date(1500, 1, 1, 0, 0, 0, 0, time.UTC), want: math.MinInt64},
		{name: "after range", at: time.Date(2500, 1, 1, 0, 0, 0, 0, time.UTC), want: math.MaxInt64},
		{name: "lower edge", at: minNanosTime, want: math.MinInt64},
		{name: "upper edge", at: maxNanosTime, want: math.MaxInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := boundNanos(tt.at); got != tt.want {
				t.Errorf("boundNanos(%v) = %d, want %d", tt.at, got, tt.want)
			}
		})
	}
}

func TestLTV_RoundTrip(t *testing.T) {
	if ltvPtr(nullLTV(nil)) != nil {
		t.Error("nil LTV should stay nil")
	}
	v := 42.5
	got := ltvPtr(nullLTV(&v))
	if got == nil || *got != 42.5 {
		t.Errorf("LTV round trip = %v, want 42.5", got)
	}
}
