package tunekit

import (
	"context"

	"github.com/tunekit/tunekit/pkg/tunekit/event"
)

// Execution is the scope of one handler invocation: the connector under
// dispatch, the event context, the merged arguments, and, for After
// handlers, the On-phase results. It is established on the derived
// context.Context for the duration of a single RunEventHandlers call and
// is read-only to handlers.
//
// Because each concurrent dispatch branch derives its own context, every
// handler observes only its own connector's execution scope; scopes never
// leak between concurrently running handlers or nested dispatches.
type Execution struct {
	connector *Connector
	eventCtx  event.Context
	args      map[string]any
	results   []*EventResult
}

// Connector returns the connector currently executing handlers.
func (x *Execution) Connector() *Connector {
	return x.connector
}

// Event returns the event being dispatched.
func (x *Execution) Event() *event.Event {
	return x.eventCtx.Event()
}

// Preposition returns the phase of the current invocation.
func (x *Execution) Preposition() event.Preposition {
	return x.eventCtx.Preposition()
}

// EventContext returns the (event, preposition) pair for the invocation.
// It compares against bare event names or "preposition:event" strings via
// its Matches method.
func (x *Execution) EventContext() event.Context {
	return x.eventCtx
}

// Arg returns the named argument and whether it was supplied. Handler
// defaults are already merged under caller-supplied arguments.
func (x *Execution) Arg(key string) (any, bool) {
	v, ok := x.args[key]
	return v, ok
}

// Args returns a copy of the merged arguments.
func (x *Execution) Args() map[string]any {
	args := make(map[string]any, len(x.args))
	for k, v := range x.args {
		args[k] = v
	}
	return args
}

// Results returns the On-phase result list. It is non-nil only while an
// After handler runs.
func (x *Execution) Results() []*EventResult {
	return x.results
}

// executionKey is the context key the engine stores the scope under.
type executionKey struct{}

// withExecution derives a context carrying the execution scope.
func withExecution(ctx context.Context, x *Execution) context.Context {
	return context.WithValue(ctx, executionKey{}, x)
}

// CurrentExecution returns the execution scope of the calling handler, if
// the context originates from a handler invocation. Outside a handler it
// reports false.
func CurrentExecution(ctx context.Context) (*Execution, bool) {
	x, ok := ctx.Value(executionKey{}).(*Execution)
	return x, ok
}
