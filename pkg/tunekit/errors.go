// Package tunekit is the runtime core of an extensible optimization
// agent. It coordinates pluggable connectors that observe and adjust a
// running workload on behalf of an external optimization service, by
// dispatching named lifecycle events (measure, adjust, describe, ...) to
// every connector that registered a handler for them.
package tunekit

import (
	"errors"
	"fmt"

	"github.com/tunekit/tunekit/pkg/tunekit/event"
)

// Sentinel errors for connector type definition and resolution.
// These indicate defects in connector authoring or configuration and are
// never recovered by the dispatch engine.
var (
	// ErrTypeFrozen indicates a handler was declared on a type after it
	// was registered.
	ErrTypeFrozen = errors.New("connector type is frozen")

	// ErrTypeRegistered indicates a type name was registered twice.
	ErrTypeRegistered = errors.New("connector type already registered")

	// ErrTypeNotFound indicates a connector symbol could not be resolved.
	ErrTypeNotFound = errors.New("connector type not found")

	// ErrNotConnectorType indicates a resolved symbol is not a connector type.
	ErrNotConnectorType = errors.New("not a connector type")
)

// Sentinel errors for dispatch.
var (
	// ErrCancelOutsideBefore indicates a handler attempted to cancel a
	// dispatch from an On or After handler. Cancellation is only legal
	// before commitments are made.
	ErrCancelOutsideBefore = errors.New("event can only be cancelled from a before handler")

	// ErrNilGroup indicates a dispatch was invoked without a target group.
	ErrNilGroup = errors.New("group cannot be nil")

	// ErrNoGroup indicates a connector-level dispatch on a connector that
	// belongs to no group.
	ErrNoGroup = errors.New("connector is not a member of any group")
)

// CancelError is the control signal a Before handler returns to abort the
// remaining dispatch for an event. The engine annotates it with the
// EventResult describing the cancellation before surfacing it.
type CancelError struct {
	// Reason explains why the dispatch was cancelled.
	Reason string
	// Result describes the cancellation itself. Populated by the engine;
	// nil while the error is in flight from the handler.
	Result *EventResult
}

// Cancel returns a CancelError with the given reason. Returning it from a
// Before handler halts the dispatch; returning it from any other handler
// is a fatal misuse surfaced to the dispatching caller.
func Cancel(reason string) *CancelError {
	return &CancelError{Reason: reason}
}

// Cancelf returns a CancelError with a formatted reason.
func Cancelf(format string, args ...any) *CancelError {
	return &CancelError{Reason: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *CancelError) Error() string {
	if e.Reason == "" {
		return "event cancelled"
	}
	return fmt.Sprintf("event cancelled: %s", e.Reason)
}

// MisuseError wraps a fatal dispatch protocol violation with context about
// the offending connector and handler. It always propagates to the
// top-level caller.
type MisuseError struct {
	// Connector is the name of the connector whose handler misbehaved.
	Connector string
	// Context is the event context the handler ran under.
	Context event.Context
	// Err is the underlying sentinel (e.g. ErrCancelOutsideBefore).
	Err error
}

// Error implements the error interface.
func (e *MisuseError) Error() string {
	return fmt.Sprintf("connector %s (%s): %v", e.Connector, e.Context, e.Err)
}

// Unwrap returns the underlying sentinel for errors.Is support.
func (e *MisuseError) Unwrap() error {
	return e.Err
}

// HandlerPanicError captures a panic raised by an event handler. Panics
// are treated as recoverable handler failures: the engine records them as
// the handler's result value and continues the dispatch.
type HandlerPanicError struct {
	// Connector is the name of the connector whose handler panicked.
	Connector string
	// Context is the event context the handler ran under.
	Context event.Context
	// Value is the value passed to panic().
	Value any
	// Stack is the stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *HandlerPanicError) Error() string {
	return fmt.Sprintf("connector %s (%s): handler panicked: %v", e.Connector, e.Context, e.Value)
}
