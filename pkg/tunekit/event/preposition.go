package event

import "strings"

// Preposition identifies the phase of reaction relative to an event:
// before, on, or after. Values compose as a bitmask so dispatch calls can
// request a subset of phases, but handlers always register for exactly one.
//
// Phase order is fixed: Before precedes On precedes After, regardless of
// which subset a dispatch requests.
type Preposition uint8

const (
	// Before handlers run sequentially ahead of the On phase and are the
	// only handlers permitted to cancel a dispatch.
	Before Preposition = 1 << iota

	// On handlers produce the results of a dispatch.
	On

	// After handlers observe the On-phase results; their own results are
	// discarded.
	After
)

// All requests every phase. It is the default for dispatch calls.
const All = Before | On | After

// Has reports whether p includes the given phase.
func (p Preposition) Has(phase Preposition) bool {
	return p&phase != 0
}

// IsExact reports whether p names exactly one phase. Handler declarations
// require an exact preposition.
func (p Preposition) IsExact() bool {
	return p == Before || p == On || p == After
}

// String renders the preposition, joining combined phases with "|" in
// phase order (e.g. "before|on").
func (p Preposition) String() string {
	var parts []string
	if p.Has(Before) {
		parts = append(parts, "before")
	}
	if p.Has(On) {
		parts = append(parts, "on")
	}
	if p.Has(After) {
		parts = append(parts, "after")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}
