package tunekit

import (
	"fmt"

	"github.com/tunekit/tunekit/pkg/tunekit/event"
)

// EventResult is the outcome of one handler invocation. Value holds the
// handler's return value, or the captured error when the handler failed
// recoverably, or the CancelError when a Before handler cancelled the
// dispatch.
type EventResult struct {
	// Connector is the connector whose handler produced the result.
	Connector *Connector
	// Event is the dispatched event.
	Event *event.Event
	// Preposition is the phase the handler ran in.
	Preposition event.Preposition
	// Handler is the handler that was invoked.
	Handler *Handler
	// Value is the handler's return value or captured error.
	Value any
}

// Err returns the captured error if the result value is one, else nil.
// Use it to distinguish failed handler invocations from successful ones
// when walking a dispatch's results.
func (r *EventResult) Err() error {
	if err, ok := r.Value.(error); ok {
		return err
	}
	return nil
}

// Cancelled reports whether the result describes a dispatch cancellation.
func (r *EventResult) Cancelled() bool {
	_, ok := r.Value.(*CancelError)
	return ok
}

// String implements fmt.Stringer.
func (r *EventResult) String() string {
	return fmt.Sprintf("%s:%s %s", r.Preposition, r.Event, r.Connector.Name())
}
