package tunekit

import (
	"context"

	"github.com/tunekit/tunekit/pkg/tunekit/event"
)

// HandlerFunc is the callable bound to an event handler. The execution
// scope carries the connector under dispatch, the event context, the
// merged arguments, and (for After handlers) the On-phase results.
//
// The returned value becomes the handler's EventResult value. A returned
// *CancelError from a Before handler cancels the dispatch; any other
// error is captured as the result value and dispatch continues.
type HandlerFunc func(ctx context.Context, exec *Execution) (any, error)

// Handler binds a callable to one (event, preposition) pair on a
// connector type. Handlers are immutable once their type is registered.
type Handler struct {
	event       *event.Event
	preposition event.Preposition
	fn          HandlerFunc
	defaults    map[string]any
	owner       *ConnectorType
}

// Event returns the event the handler reacts to.
func (h *Handler) Event() *event.Event {
	return h.event
}

// Preposition returns the phase the handler runs in.
func (h *Handler) Preposition() event.Preposition {
	return h.preposition
}

// Type returns the connector type the handler is declared on.
func (h *Handler) Type() *ConnectorType {
	return h.owner
}

// Defaults returns a copy of the handler's declared default arguments.
func (h *Handler) Defaults() map[string]any {
	if h.defaults == nil {
		return nil
	}
	defaults := make(map[string]any, len(h.defaults))
	for k, v := range h.defaults {
		defaults[k] = v
	}
	return defaults
}

// mergeArgs overlays caller-supplied args on the declared defaults.
// Caller args take precedence over a default of the same name.
func (h *Handler) mergeArgs(args map[string]any) map[string]any {
	merged := make(map[string]any, len(h.defaults)+len(args))
	for k, v := range h.defaults {
		merged[k] = v
	}
	for k, v := range args {
		merged[k] = v
	}
	return merged
}

// HandlerOption configures a handler declaration.
type HandlerOption func(*Handler)

// WithDefaults declares default arguments for the handler. Caller-supplied
// dispatch arguments of the same name override them.
func WithDefaults(defaults map[string]any) HandlerOption {
	return func(h *Handler) {
		if h.defaults == nil {
			h.defaults = make(map[string]any, len(defaults))
		}
		for k, v := range defaults {
			h.defaults[k] = v
		}
	}
}

// WithDefault declares a single default argument for the handler.
func WithDefault(key string, value any) HandlerOption {
	return func(h *Handler) {
		if h.defaults == nil {
			h.defaults = make(map[string]any)
		}
		h.defaults[key] = value
	}
}
