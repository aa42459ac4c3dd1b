// Package store provides SQLite-backed durable storage for customer journeys.
//
// The store keeps three tables:
//   - funnel_stages: the stage registry keyed by name, unique by position
//   - sessions: one row per customer visit, with optional lifetime value
//   - touchpoints: the append-only event log, seq assigned by SQLite
//
// # Ordering
//
// Reads are deterministic. Sessions come back ordered by
// (started_at_ns, id COLLATE BINARY) and touchpoints by
// (occurred_at_ns, seq), which is the order analytics expects.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Touchpoints must reference a stored session
//
// Store implements journey.Store, so the tracker and the analytics engine
// work unchanged against it or against the in-memory eventlog.
package store
