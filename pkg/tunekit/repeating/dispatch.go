package repeating

import (
	"context"
	"log/slog"
	"time"

	"github.com/tunekit/tunekit/pkg/tunekit"
)

// DispatchEvery registers a task that dispatches the named event to the
// group at each interval. Dispatch errors are logged and the task keeps
// running; the task name doubles as the event name.
func (r *Repeater) DispatchEvery(ctx context.Context, g *tunekit.Group, eventName string, every time.Duration, opts ...tunekit.DispatchOption) error {
	return r.Start(ctx, eventName, every, func(ctx context.Context) {
		if _, err := tunekit.Dispatch(ctx, g, eventName, opts...); err != nil {
			r.logger.Error("scheduled dispatch failed",
				slog.String("event", eventName),
				slog.Any("error", err))
		}
	})
}
