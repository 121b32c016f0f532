// Package repeating runs named tasks at fixed intervals. Connectors use
// it for periodic work such as polling a metrics endpoint or triggering
// a recurring dispatch.
package repeating

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"
	"time"
)

// TaskFunc is one tick of a repeating task. The context is cancelled
// when the task is stopped.
type TaskFunc func(ctx context.Context)

// Repeater manages a set of named repeating tasks. Each task ticks on
// its own goroutine until stopped. Safe for concurrent use.
type Repeater struct {
	mu     sync.Mutex
	tasks  map[string]*task
	logger *slog.Logger
	closed bool
}

type task struct {
	cancel context.CancelFunc
	done   chan struct{}
	reset  chan time.Duration
}

// Option configures a Repeater.
type Option func(*Repeater)

// WithLogger attaches a structured logger. Task panics and lifecycle
// transitions are logged through it.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repeater) {
		r.logger = logger
	}
}

// New creates a Repeater with no tasks.
func New(opts ...Option) *Repeater {
	r := &Repeater{
		tasks:  make(map[string]*task),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start begins running fn every interval under the given name. The first
// tick fires after one interval, not immediately. The name must be
// unique among running tasks and the interval positive.
func (r *Repeater) Start(ctx context.Context, name string, every time.Duration, fn TaskFunc) error {
	if every <= 0 {
		return fmt.Errorf("repeating: task %q: interval must be positive, got %s", name, every)
	}
	if fn == nil {
		return fmt.Errorf("repeating: task %q: function cannot be nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("repeating: task %q: repeater is stopped", name)
	}
	if _, exists := r.tasks[name]; exists {
		return fmt.Errorf("repeating: task %q already running", name)
	}

	taskCtx, cancel := context.WithCancel(ctx)
	t := &task{cancel: cancel, done: make(chan struct{}), reset: make(chan time.Duration)}
	r.tasks[name] = t

	r.logger.Debug("starting repeating task",
		slog.String("task", name),
		slog.Duration("every", every))

	go r.run(taskCtx, name, every, fn, t)
	return nil
}

func (r *Repeater) run(ctx context.Context, name string, every time.Duration, fn TaskFunc, t *task) {
	defer close(t.done)
	defer func() {
		r.mu.Lock()
		if r.tasks[name] == t {
			delete(r.tasks, name)
		}
		r.mu.Unlock()
	}()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case every = <-t.reset:
			ticker.Reset(every)
		case <-ticker.C:
			r.tick(ctx, name, fn)
		}
	}
}

// Reset changes the interval of a running task. The next tick fires one
// new interval from now. Returns false if no such task is running.
func (r *Repeater) Reset(name string, every time.Duration) bool {
	if every <= 0 {
		return false
	}

	r.mu.Lock()
	t, ok := r.tasks[name]
	r.mu.Unlock()
	if !ok {
		return false
	}

	select {
	case t.reset <- every:
		return true
	case <-t.done:
		return false
	}
}

// tick runs one invocation, keeping a panicking task alive for its next
// interval.
func (r *Repeater) tick(ctx context.Context, name string, fn TaskFunc) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("repeating task panicked",
				slog.String("task", name),
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())))
		}
	}()
	fn(ctx)
}

// Stop cancels the named task and waits for its current tick to finish.
// Returns false if no such task is running.
func (r *Repeater) Stop(name string) bool {
	r.mu.Lock()
	t, ok := r.tasks[name]
	if ok {
		delete(r.tasks, name)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	t.cancel()
	<-t.done
	return true
}

// StopAll cancels every task, waits for them to finish, and rejects
// future Start calls.
func (r *Repeater) StopAll() {
	r.mu.Lock()
	r.closed = true
	stopped := make([]*task, 0, len(r.tasks))
	for name, t := range r.tasks {
		stopped = append(stopped, t)
		delete(r.tasks, name)
	}
	r.mu.Unlock()

	for _, t := range stopped {
		t.cancel()
		<-t.done
	}
}

// Names returns the names of running tasks in lexical order.
func (r *Repeater) Names() []string {
	r.mu.Lock()
	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	r.mu.Unlock()

	sort.Strings(names)
	return names
}

// Len returns the number of running tasks.
func (r *Repeater) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}
