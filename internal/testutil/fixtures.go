package testutil

import "github.com/roach88/journey/internal/journey"

// DefaultStages returns the five-stage e-commerce funnel used across tests.
// Each stage's exit event is the next stage's entry event.
func DefaultStages() []journey.FunnelStage {
	return []journey.FunnelStage{
		{Name: "Awareness", Order: 1, EntryEvent: "page_view", ExitEvent: "search", Description: "User discovers brand"},
		{Name: "Interest", Order: 2, EntryEvent: "search", ExitEvent: "product_view", Description: "User engages with content"},
		{Name: "Consideration", Order: 3, EntryEvent: "product_view", ExitEvent: "add_to_cart", Description: "User evaluates product"},
		{Name: "Intent", Order: 4, EntryEvent: "add_to_cart", ExitEvent: "checkout_start", Description: "User adds to cart"},
		{Name: "Purchase", Order: 5, EntryEvent: "checkout_start", ExitEvent: "purchase", Description: "User completes purchase"},
	}
}

// Float returns a pointer to v, for optional LTV fields.
func Float(v float64) *float64 {
	return &v
}
