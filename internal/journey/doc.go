// Package journey defines the event model shared by every layer of the
// journey analytics engine.
//
// The model is deliberately small:
//   - FunnelStage: an ordered funnel step identified by its entry event
//   - Session: one visit by a customer on a channel and device
//   - Touchpoint: an immutable timestamped event inside a session
//
// Derived entities (StageMetric, Path, ChannelAttribution, HeatmapCell,
// DropoffReport, LTVSegment) are produced by internal/analytics on demand
// and are never persisted.
//
// # Calendar policy
//
// All timestamps are normalised to UTC when recorded. Hour-of-day and
// weekday buckets are always derived from the UTC instant, never from a
// device or session local timezone. Weekdays are numbered Monday = 0
// through Sunday = 6.
//
// # Errors
//
// InputError reports invalid caller input (unknown stage or session,
// non-positive counts, duplicate stage order). StorageError wraps failures
// at the persistence boundary. Empty populations are not errors.
package journey
