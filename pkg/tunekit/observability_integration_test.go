package tunekit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/tunekit/tunekit/pkg/tunekit/observability"
)

// testLogHandler captures log records for testing.
type testLogHandler struct {
	buf   *bytes.Buffer
	level slog.Level
}

func newTestLogHandler() *testLogHandler {
	return &testLogHandler{
		buf:   &bytes.Buffer{},
		level: slog.LevelDebug,
	}
}

func (h *testLogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *testLogHandler) Handle(_ context.Context, r slog.Record) error {
	data := map[string]any{
		"level": r.Level.String(),
		"msg":   r.Message,
	}
	r.Attrs(func(a slog.Attr) bool {
		data[a.Key] = a.Value.Any()
		return true
	})
	enc := json.NewEncoder(h.buf)
	return enc.Encode(data)
}

func (h *testLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h
}

func (h *testLogHandler) WithGroup(name string) slog.Handler {
	return h
}

func (h *testLogHandler) getRecords() []map[string]any {
	var records []map[string]any
	lines := bytes.Split(h.buf.Bytes(), []byte("\n"))
	for _, line := range lines {
		if len(line) > 0 {
			var m map[string]any
			if err := json.Unmarshal(line, &m); err == nil {
				records = append(records, m)
			}
		}
	}
	return records
}

func TestDispatch_WithLogger(t *testing.T) {
	h := newTestLogHandler()
	logger := slog.New(h)

	errBoom := errors.New("scrape timeout")
	typ := MustRegisterType(NewConnectorType("LoggedProbeConnector").
		OnEvent("logged_event", func(_ context.Context, _ *Execution) (any, error) {
			return nil, errBoom
		}))

	g := MustNewGroup(typ.MustNew())
	_, err := Dispatch(context.Background(), g, "logged_event", WithLogger(logger))
	require.NoError(t, err)

	records := h.getRecords()
	require.NotEmpty(t, records, "Expected log records")

	var foundStart, foundComplete, foundHandlerError bool
	for _, r := range records {
		msg, _ := r["msg"].(string)
		switch msg {
		case "dispatch starting":
			foundStart = true
			assert.Equal(t, "logged_event", r["event"])
			assert.Equal(t, float64(1), r["connectors"])
		case "dispatch completed":
			foundComplete = true
			assert.Equal(t, "logged_event", r["event"])
			assert.NotEmpty(t, r["dispatch_id"])
		case "handler failed":
			foundHandlerError = true
			assert.Equal(t, "logged_probe", r["connector"])
			assert.Equal(t, "on:logged_event", r["context"])
			assert.Equal(t, "scrape timeout", r["error"])
		}
	}

	assert.True(t, foundStart, "Expected 'dispatch starting' log")
	assert.True(t, foundComplete, "Expected 'dispatch completed' log")
	assert.True(t, foundHandlerError, "Expected 'handler failed' log")
}

func TestDispatch_WithLogger_Cancelled(t *testing.T) {
	h := newTestLogHandler()
	logger := slog.New(h)

	typ := MustRegisterType(NewConnectorType("LoggedCancelConnector").
		BeforeEvent("logged_cancel_event", func(_ context.Context, _ *Execution) (any, error) {
			return nil, Cancel("budget exhausted")
		}))

	g := MustNewGroup(typ.MustNew())
	_, err := Dispatch(context.Background(), g, "logged_cancel_event", WithLogger(logger))
	require.NoError(t, err)

	var foundCancelled, foundComplete bool
	for _, r := range h.getRecords() {
		switch msg, _ := r["msg"].(string); msg {
		case "dispatch cancelled":
			foundCancelled = true
			assert.Equal(t, "logged_cancel", r["connector"])
			assert.Equal(t, "budget exhausted", r["reason"])
		case "dispatch completed":
			foundComplete = true
		}
	}
	assert.True(t, foundCancelled, "Expected 'dispatch cancelled' log")
	assert.False(t, foundComplete, "Cancelled dispatch must not log completion")
}

func TestDispatch_WithoutLogger_Silent(t *testing.T) {
	// No logger attached - must not panic.
	typ := MustRegisterType(NewConnectorType("SilentProbeConnector").
		OnEvent("silent_event", func(_ context.Context, _ *Execution) (any, error) {
			return nil, nil
		}))

	g := MustNewGroup(typ.MustNew())
	_, err := Dispatch(context.Background(), g, "silent_event")
	require.NoError(t, err)
}

// TestDispatch_WithMetrics_OTelSDK verifies dispatch and handler
// instruments reach a real meter provider.
func TestDispatch_WithMetrics_OTelSDK(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	recorder := observability.NewMetricsRecorder()

	typ := MustRegisterType(NewConnectorType("MeteredProbeConnector").
		OnEvent("metered_event", func(_ context.Context, _ *Execution) (any, error) {
			return "sample", nil
		}))

	g := MustNewGroup(typ.MustNew())
	_, err := Dispatch(context.Background(), g, "metered_event", WithMetrics(recorder))
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	names := map[string]bool{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			names[m.Name] = true
		}
	}

	assert.True(t, names["tunekit.dispatch.count"], "Expected dispatch counter")
	assert.True(t, names["tunekit.dispatch.latency_ms"], "Expected dispatch latency histogram")
	assert.True(t, names["tunekit.handler.executions"], "Expected handler execution counter")
}

// TestDispatch_WithTracing_OTelSDK verifies a dispatch span with one
// child span per phase reaches a real tracer provider.
func TestDispatch_WithTracing_OTelSDK(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	typ := MustRegisterType(NewConnectorType("TracedProbeConnector").
		BeforeEvent("traced_event", func(_ context.Context, _ *Execution) (any, error) {
			return nil, nil
		}).
		OnEvent("traced_event", func(_ context.Context, _ *Execution) (any, error) {
			return "sample", nil
		}).
		AfterEvent("traced_event", func(_ context.Context, _ *Execution) (any, error) {
			return nil, nil
		}))

	g := MustNewGroup(typ.MustNew())
	_, err := Dispatch(context.Background(), g, "traced_event",
		WithTracing(observability.NewSpanManager()))
	require.NoError(t, err)

	spans := exporter.GetSpans()
	names := map[string]int{}
	for _, span := range spans {
		names[span.Name]++
	}

	assert.Equal(t, 1, names["tunekit.dispatch"], "Expected one dispatch span")
	assert.Equal(t, 1, names["tunekit.phase.before"], "Expected one before phase span")
	assert.Equal(t, 1, names["tunekit.phase.on"], "Expected one on phase span")
	assert.Equal(t, 1, names["tunekit.phase.after"], "Expected one after phase span")
}

func TestDispatch_NoopObservability_DoesNotPanic(t *testing.T) {
	typ := MustRegisterType(NewConnectorType("NoopObsConnector").
		OnEvent("noop_obs_event", func(_ context.Context, _ *Execution) (any, error) {
			return nil, nil
		}))

	g := MustNewGroup(typ.MustNew())
	_, err := Dispatch(context.Background(), g, "noop_obs_event",
		WithMetrics(observability.NoopMetrics{}),
		WithTracing(observability.NoopSpanManager{}))
	require.NoError(t, err)
}
