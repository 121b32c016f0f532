package tunekit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tunekit/tunekit/pkg/tunekit/event"
	"github.com/tunekit/tunekit/pkg/tunekit/history"
	"github.com/tunekit/tunekit/pkg/tunekit/observability"
)

// dispatchConfig carries the resolved options for one dispatch.
type dispatchConfig struct {
	include      []string
	exclude      map[string]struct{}
	prepositions event.Preposition
	args         map[string]any
	logger       *slog.Logger
	metrics      observability.MetricsRecorder
	spans        observability.SpanManager
	recorder     history.Recorder
}

func newDispatchConfig(opts []DispatchOption) *dispatchConfig {
	cfg := &dispatchConfig{
		prepositions: event.All,
		metrics:      observability.NoopMetrics{},
		spans:        observability.NoopSpanManager{},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// DispatchOption configures a single dispatch.
type DispatchOption func(*dispatchConfig)

// WithInclude restricts the dispatch to the named connectors. Order is
// irrelevant: participants always run in group order. Naming a connector
// that is not a group member fails the dispatch.
func WithInclude(names ...string) DispatchOption {
	return func(cfg *dispatchConfig) {
		cfg.include = append(cfg.include, names...)
	}
}

// WithExclude removes the named connectors from the dispatch. Unknown
// names are ignored.
func WithExclude(names ...string) DispatchOption {
	return func(cfg *dispatchConfig) {
		if cfg.exclude == nil {
			cfg.exclude = make(map[string]struct{}, len(names))
		}
		for _, name := range names {
			cfg.exclude[name] = struct{}{}
		}
	}
}

// WithPrepositions restricts the dispatch to the given phases. The
// default is all three; pass e.g. event.On, or event.Before|event.On, to
// skip phases.
func WithPrepositions(mask event.Preposition) DispatchOption {
	return func(cfg *dispatchConfig) {
		cfg.prepositions = mask
	}
}

// WithArgs supplies named arguments to every handler invoked by the
// dispatch. They override handler-declared defaults of the same name.
func WithArgs(args map[string]any) DispatchOption {
	return func(cfg *dispatchConfig) {
		if cfg.args == nil {
			cfg.args = make(map[string]any, len(args))
		}
		for k, v := range args {
			cfg.args[k] = v
		}
	}
}

// WithArg supplies a single named argument.
func WithArg(key string, value any) DispatchOption {
	return func(cfg *dispatchConfig) {
		if cfg.args == nil {
			cfg.args = make(map[string]any)
		}
		cfg.args[key] = value
	}
}

// WithLogger attaches a structured logger to the dispatch. Without one
// the dispatch is silent.
func WithLogger(logger *slog.Logger) DispatchOption {
	return func(cfg *dispatchConfig) {
		cfg.logger = logger
	}
}

// WithMetrics attaches a metrics recorder to the dispatch.
func WithMetrics(m observability.MetricsRecorder) DispatchOption {
	return func(cfg *dispatchConfig) {
		cfg.metrics = m
	}
}

// WithTracing attaches a span manager to the dispatch.
func WithTracing(s observability.SpanManager) DispatchOption {
	return func(cfg *dispatchConfig) {
		cfg.spans = s
	}
}

// WithRecorder attaches a history recorder. The completed dispatch is
// written through it; recording failures are logged, never surfaced.
func WithRecorder(r history.Recorder) DispatchOption {
	return func(cfg *dispatchConfig) {
		cfg.recorder = r
	}
}

// Dispatch delivers the named event to every responding member of the
// group. Before handlers run sequentially in group order and may cancel
// the dispatch; On handlers run concurrently across connectors with
// results assembled in group order; After handlers run concurrently and
// observe the On results. The returned slice holds the On-phase results,
// or the single cancellation result if a Before handler cancelled.
//
// A non-nil error indicates a protocol violation (see MisuseError), never
// an ordinary handler failure: failed handlers are captured as results
// and the dispatch continues.
func Dispatch(ctx context.Context, g *Group, eventName string, opts ...DispatchOption) ([]*EventResult, error) {
	return dispatch(ctx, g, eventName, false, opts...)
}

// DispatchFirst delivers the named event and stops the On phase at the
// first connector that responds, running connectors sequentially in group
// order. Before and After phases behave as in Dispatch; After handlers
// observe the single chosen result. Returns nil when no connector
// responded.
func DispatchFirst(ctx context.Context, g *Group, eventName string, opts ...DispatchOption) (*EventResult, error) {
	results, err := dispatch(ctx, g, eventName, true, opts...)
	if err != nil || len(results) == 0 {
		return nil, err
	}
	return results[0], nil
}

// Broadcast delivers the named event without waiting for completion.
// Dispatch errors are logged through the option-supplied logger (or
// dropped when none is attached).
func Broadcast(ctx context.Context, g *Group, eventName string, opts ...DispatchOption) {
	go func() {
		cfg := newDispatchConfig(opts)
		if _, err := dispatch(ctx, g, eventName, false, opts...); err != nil {
			observability.LogDispatchError(cfg.logger, "", eventName, err)
		}
	}()
}

func dispatch(ctx context.Context, g *Group, eventName string, first bool, opts ...DispatchOption) (results []*EventResult, err error) {
	if g == nil {
		return nil, ErrNilGroup
	}
	cfg := newDispatchConfig(opts)
	ev := event.Get(eventName)

	participants, err := cfg.participants(g)
	if err != nil {
		return nil, err
	}

	dispatchID := uuid.NewString()
	logger := observability.EnrichLogger(cfg.logger, dispatchID, ev.Name())
	startedAt := time.Now()
	elapsed := observability.TimedOperation()

	ctx, span := cfg.spans.StartDispatchSpan(ctx, ev.Name(), dispatchID)
	defer func() { cfg.spans.EndSpanWithError(span, err) }()

	observability.LogDispatchStart(logger, dispatchID, ev.Name(), len(participants))

	outcome := history.OutcomeCompleted
	cancelled := false
	recordedErr := ""
	defer func() {
		duration := time.Since(startedAt)
		if err != nil {
			outcome = history.OutcomeFailed
			recordedErr = err.Error()
			observability.LogDispatchError(logger, dispatchID, ev.Name(), err)
		} else if !cancelled {
			observability.LogDispatchComplete(logger, dispatchID, ev.Name(), elapsed(), len(results))
		}
		cfg.metrics.RecordDispatch(ctx, ev.Name(), duration, cancelled, err)
		cfg.record(ctx, logger, history.Record{
			ID:           dispatchID,
			Event:        ev.Name(),
			Prepositions: cfg.prepositions.String(),
			Outcome:      outcome,
			Results:      len(results),
			Error:        recordedErr,
			StartedAt:    startedAt,
			Duration:     duration,
		})
	}()

	// Before phase: sequential, in group order. A cancellation halts the
	// dispatch and becomes its sole result.
	if cfg.prepositions.Has(event.Before) {
		phaseCtx, phaseSpan := cfg.spans.StartPhaseSpan(ctx, "before")
		for _, c := range participants {
			if _, _, herr := c.runEventHandlers(phaseCtx, ev, event.Before, cfg, nil); herr != nil {
				var cancel *CancelError
				if errors.As(herr, &cancel) {
					cancelled = true
					outcome = history.OutcomeCancelled
					recordedErr = cancel.Error()
					observability.LogDispatchCancelled(logger, dispatchID, ev.Name(), c.Name(), cancel.Reason)
					cfg.spans.EndSpanWithError(phaseSpan, cancel)
					results = []*EventResult{cancel.Result}
					return results, nil
				}
				cfg.spans.EndSpanWithError(phaseSpan, herr)
				return nil, herr
			}
		}
		cfg.spans.EndSpanWithError(phaseSpan, nil)
	}

	// On phase: concurrent fan-out with results in group order, or
	// sequential first-responder resolution.
	if cfg.prepositions.Has(event.On) {
		phaseCtx, phaseSpan := cfg.spans.StartPhaseSpan(ctx, "on")
		if first {
			results, err = runFirstResponder(phaseCtx, participants, ev, cfg)
		} else {
			results, err = runConcurrent(phaseCtx, participants, ev, event.On, cfg, nil)
		}
		cfg.spans.EndSpanWithError(phaseSpan, err)
		if err != nil {
			return nil, err
		}
	}

	// After phase: concurrent, observing the On results. Return values
	// are discarded; protocol violations still surface.
	if cfg.prepositions.Has(event.After) {
		phaseCtx, phaseSpan := cfg.spans.StartPhaseSpan(ctx, "after")
		_, aerr := runConcurrent(phaseCtx, participants, ev, event.After, cfg, results)
		cfg.spans.EndSpanWithError(phaseSpan, aerr)
		if aerr != nil {
			return nil, aerr
		}
	}

	return results, nil
}

// participants resolves the include and exclude options against the
// group's member order.
func (cfg *dispatchConfig) participants(g *Group) ([]*Connector, error) {
	members := g.Members()
	if len(cfg.include) > 0 {
		wanted := make(map[string]struct{}, len(cfg.include))
		for _, name := range cfg.include {
			if _, ok := g.Member(name); !ok {
				return nil, fmt.Errorf("tunekit: included connector %q is not a group member", name)
			}
			wanted[name] = struct{}{}
		}
		included := make([]*Connector, 0, len(wanted))
		for _, c := range members {
			if _, ok := wanted[c.name]; ok {
				included = append(included, c)
			}
		}
		members = included
	}
	if len(cfg.exclude) == 0 {
		return members, nil
	}
	filtered := members[:0]
	for _, c := range members {
		if _, skip := cfg.exclude[c.name]; !skip {
			filtered = append(filtered, c)
		}
	}
	return filtered, nil
}

// record writes the dispatch record, logging a failure instead of
// surfacing it.
func (cfg *dispatchConfig) record(ctx context.Context, logger *slog.Logger, rec history.Record) {
	if cfg.recorder == nil {
		return
	}
	if err := cfg.recorder.Record(ctx, rec); err != nil && logger != nil {
		logger.Warn("failed to record dispatch", slog.Any("error", err))
	}
}

// runConcurrent fans the phase out across participants, one goroutine
// per connector, and assembles the results in group order. Every branch
// runs to completion before any error is surfaced.
func runConcurrent(ctx context.Context, participants []*Connector, ev *event.Event, prep event.Preposition, cfg *dispatchConfig, onResults []*EventResult) ([]*EventResult, error) {
	outcomes := make([][]*EventResult, len(participants))
	errs := make([]error, len(participants))

	var wg sync.WaitGroup
	for i, c := range participants {
		wg.Add(1)
		go func(i int, c *Connector) {
			defer wg.Done()
			outcomes[i], _, errs[i] = c.runEventHandlers(ctx, ev, prep, cfg, onResults)
		}(i, c)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	var results []*EventResult
	for _, out := range outcomes {
		results = append(results, out...)
	}
	return results, nil
}

// runFirstResponder walks participants sequentially in group order and
// stops at the first connector whose handler registry responded to the
// event, even when its handlers all failed. Non-responders (no handlers
// for the event) are passed over.
func runFirstResponder(ctx context.Context, participants []*Connector, ev *event.Event, cfg *dispatchConfig) ([]*EventResult, error) {
	for _, c := range participants {
		results, responded, err := c.runEventHandlers(ctx, ev, event.On, cfg, nil)
		if err != nil {
			return nil, err
		}
		if responded {
			return results, nil
		}
	}
	return nil, nil
}

// RunEventHandlers invokes the connector's handlers for the event at the
// given preposition with the supplied arguments, outside of any group
// dispatch. The boolean distinguishes a connector with no handlers for
// the event (false, no participation) from one whose handlers ran and
// produced zero or more results (true).
func (c *Connector) RunEventHandlers(ctx context.Context, ev *event.Event, prep event.Preposition, args map[string]any) ([]*EventResult, bool, error) {
	cfg := newDispatchConfig(nil)
	cfg.args = args
	return c.runEventHandlers(ctx, ev, prep, cfg, nil)
}

// runEventHandlers executes the connector's matching handlers in registry
// order. Each invocation gets its own execution scope on a derived
// context, so concurrent branches never observe each other's scope.
func (c *Connector) runEventHandlers(ctx context.Context, ev *event.Event, prep event.Preposition, cfg *dispatchConfig, onResults []*EventResult) ([]*EventResult, bool, error) {
	handlers := c.typ.EventHandlers(ev, prep)
	if len(handlers) == 0 {
		return nil, false, nil
	}

	eventCtx := event.NewContext(ev, prep)
	results := make([]*EventResult, 0, len(handlers))
	for _, h := range handlers {
		exec := &Execution{
			connector: c,
			eventCtx:  eventCtx,
			args:      h.mergeArgs(cfg.args),
			results:   onResults,
		}

		start := time.Now()
		value, err := invokeHandler(withExecution(ctx, exec), h, exec)
		cfg.metrics.RecordHandlerExecution(ctx, c.name, eventCtx.String(), time.Since(start), err)

		if err != nil {
			var cancel *CancelError
			if errors.As(err, &cancel) {
				if prep != event.Before {
					return nil, true, &MisuseError{
						Connector: c.name,
						Context:   eventCtx,
						Err:       ErrCancelOutsideBefore,
					}
				}
				cancel.Result = &EventResult{
					Connector:   c,
					Event:       ev,
					Preposition: prep,
					Handler:     h,
					Value:       cancel,
				}
				return nil, true, cancel
			}
			// Recoverable failure: captured as the result value.
			observability.LogHandlerError(cfg.logger, c.name, eventCtx.String(), err)
			value = err
		}

		results = append(results, &EventResult{
			Connector:   c,
			Event:       ev,
			Preposition: prep,
			Handler:     h,
			Value:       value,
		})
	}
	return results, true, nil
}

// invokeHandler calls the handler function, converting a panic into a
// HandlerPanicError result.
func invokeHandler(ctx context.Context, h *Handler, exec *Execution) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &HandlerPanicError{
				Connector: exec.connector.name,
				Context:   exec.eventCtx,
				Value:     r,
				Stack:     string(debug.Stack()),
			}
		}
	}()
	return h.fn(ctx, exec)
}

// Dispatch delivers the named event to the connector's group. Handlers
// commonly use it to trigger follow-on events; nested dispatches derive
// fresh execution scopes and never disturb the caller's.
func (c *Connector) Dispatch(ctx context.Context, eventName string, opts ...DispatchOption) ([]*EventResult, error) {
	g, ok := GroupOf(c)
	if !ok {
		return nil, fmt.Errorf("tunekit: %s: %w", c.name, ErrNoGroup)
	}
	return Dispatch(ctx, g, eventName, opts...)
}

// DispatchFirst delivers the named event to the connector's group,
// resolving to the first responder.
func (c *Connector) DispatchFirst(ctx context.Context, eventName string, opts ...DispatchOption) (*EventResult, error) {
	g, ok := GroupOf(c)
	if !ok {
		return nil, fmt.Errorf("tunekit: %s: %w", c.name, ErrNoGroup)
	}
	return DispatchFirst(ctx, g, eventName, opts...)
}
