// Package harness runs reproducible journey scenarios.
//
// A scenario is a YAML file declaring a funnel, a set of sessions with
// offset-timed touchpoints, and the analytics queries to run over them:
//
//	name: two_stage_funnel
//	description: One visitor converts ten minutes after landing
//	start: 2026-03-02T09:00:00Z
//	now: 2026-03-02T10:00:00Z
//	stages:
//	  - {name: Awareness, order: 1, entry_event: page_view}
//	  - {name: Purchase, order: 2, entry_event: checkout}
//	sessions:
//	  - customer_id: c1
//	    channel: organic
//	    touchpoints:
//	      - {event: page_view}
//	      - {event: checkout, at: 10m}
//	queries:
//	  - {query: funnel, days: 1}
//	assertions:
//	  - {type: funnel_stage, stage: Awareness, entries: 1, conversions: 1}
//
// Run records the sessions into a fresh in-memory SQLite store with a
// manual clock and sequential IDs, so the same scenario always yields
// byte-identical outputs. RunWithGolden compares those outputs with a
// goldie golden file under testdata/golden.
package harness
