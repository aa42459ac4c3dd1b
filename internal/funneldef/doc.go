// Package funneldef loads funnel stage definitions from files.
//
// Two formats are accepted. YAML files hold a top-level stages list:
//
//	stages:
//	  - name: Awareness
//	    order: 1
//	    entry_event: page_view
//	    exit_event: search
//
// CUE files (or directories of CUE files) declare one struct per stage
// under the stage label:
//
//	stage: Awareness: {
//		order:       1
//		entry_event: "page_view"
//		exit_event:  "search"
//	}
//
// Loaders check field presence and types only. Ordering and uniqueness
// rules are enforced when the stages are registered.
package funneldef
