// Package event provides the event vocabulary for the tunekit runtime:
// interned event identities, dispatch prepositions, and the context value
// describing a handler invocation in progress.
//
// Events are interned in a process-wide catalog. Looking up the same name
// twice always yields the same *Event, so the dispatch engine and handler
// registries compare events by pointer identity rather than by name.
package event

import (
	"fmt"
	"sort"

	"github.com/tunekit/tunekit/pkg/tunekit/registry"
)

// Event is the identity of a named lifecycle event (e.g. "measure",
// "adjust", "describe"). Values are created through Get and are immutable.
type Event struct {
	name string
}

// Name returns the unique name of the event.
func (e *Event) Name() string {
	return e.name
}

// String implements fmt.Stringer.
func (e *Event) String() string {
	return e.name
}

// catalog interns events by name for the lifetime of the process.
var catalog = registry.New[string, *Event]()

// Get returns the interned Event for name, creating it on first use.
// Two calls with the same name return the same pointer.
//
// Get panics on an empty name: event names are fixed at program
// initialization and an empty name is a programming error.
func Get(name string) *Event {
	if name == "" {
		panic("event: name is required")
	}
	return catalog.GetOrCreate(name, func() *Event {
		return &Event{name: name}
	})
}

// Lookup resolves name to an interned Event without creating one.
func Lookup(name string) (*Event, bool) {
	return catalog.Get(name)
}

// Names returns the names of all interned events in lexical order.
func Names() []string {
	names := catalog.Keys()
	sort.Strings(names)
	return names
}

// Context describes a handler invocation in progress: which event is
// being dispatched and at which preposition. It exists only for the
// duration of a handler call and is immutable.
type Context struct {
	event       *Event
	preposition Preposition
}

// NewContext returns a Context for the given event and preposition.
func NewContext(ev *Event, preposition Preposition) Context {
	return Context{event: ev, preposition: preposition}
}

// Event returns the event being dispatched.
func (c Context) Event() *Event {
	return c.event
}

// Preposition returns the phase of the invocation.
func (c Context) Preposition() Preposition {
	return c.preposition
}

// String renders the context as "preposition:event" (e.g. "before:measure").
func (c Context) String() string {
	if c.event == nil {
		return ""
	}
	return fmt.Sprintf("%s:%s", c.preposition, c.event.name)
}

// Matches reports whether the context matches s, where s is either a bare
// event name ("measure") or a "preposition:event" compound ("on:measure").
// Bare names match regardless of preposition.
func (c Context) Matches(s string) bool {
	if c.event == nil {
		return false
	}
	if s == c.event.name {
		return true
	}
	return s == c.String()
}
