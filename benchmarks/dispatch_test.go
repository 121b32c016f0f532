package benchmarks

import (
	"context"
	"fmt"
	"testing"

	"github.com/tunekit/tunekit/pkg/tunekit"
	"github.com/tunekit/tunekit/pkg/tunekit/event"
)

// benchGroup assembles n connectors of a freshly registered type with
// before/on/after handlers for the named event.
func benchGroup(b *testing.B, typeName, eventName string, n int) *tunekit.Group {
	b.Helper()

	noop := func(_ context.Context, _ *tunekit.Execution) (any, error) {
		return "sample", nil
	}
	typ := tunekit.MustRegisterType(tunekit.NewConnectorType(typeName).
		BeforeEvent(eventName, noop).
		OnEvent(eventName, noop).
		AfterEvent(eventName, noop))

	members := make([]*tunekit.Connector, n)
	for i := range members {
		members[i] = typ.MustNew(tunekit.WithName(fmt.Sprintf("bench_%s_%d", typ.DefaultName(), i)))
	}
	return tunekit.MustNewGroup(members...)
}

// BenchmarkDispatch_SingleConnector measures a full three-phase dispatch
// through one connector.
func BenchmarkDispatch_SingleConnector(b *testing.B) {
	g := benchGroup(b, "BenchSingleConnector", "bench_single_event", 1)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := tunekit.Dispatch(ctx, g, "bench_single_event"); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkDispatch_TenConnectors measures concurrent On fan-out across
// ten connectors.
func BenchmarkDispatch_TenConnectors(b *testing.B) {
	g := benchGroup(b, "BenchTenConnector", "bench_ten_event", 10)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := tunekit.Dispatch(ctx, g, "bench_ten_event"); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkDispatch_OnPhaseOnly measures dispatch with Before and After
// masked off.
func BenchmarkDispatch_OnPhaseOnly(b *testing.B) {
	g := benchGroup(b, "BenchOnOnlyConnector", "bench_on_only_event", 5)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := tunekit.Dispatch(ctx, g, "bench_on_only_event",
			tunekit.WithPrepositions(event.On)); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkDispatchFirst measures first-responder resolution through a
// group where only the last connector responds.
func BenchmarkDispatchFirst(b *testing.B) {
	silent := tunekit.MustRegisterType(tunekit.NewConnectorType("BenchSilentConnector"))
	responder := tunekit.MustRegisterType(tunekit.NewConnectorType("BenchResponderConnector").
		OnEvent("bench_first_event", func(_ context.Context, _ *tunekit.Execution) (any, error) {
			return "sample", nil
		}))

	members := make([]*tunekit.Connector, 0, 10)
	for i := 0; i < 9; i++ {
		members = append(members, silent.MustNew(tunekit.WithName(fmt.Sprintf("bench_silent_%d", i))))
	}
	members = append(members, responder.MustNew(tunekit.WithName("bench_responder")))
	g := tunekit.MustNewGroup(members...)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := tunekit.DispatchFirst(ctx, g, "bench_first_event"); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkEventHandlers_Lookup measures handler registry lookup on a
// type with handlers for many events.
func BenchmarkEventHandlers_Lookup(b *testing.B) {
	noop := func(_ context.Context, _ *tunekit.Execution) (any, error) {
		return nil, nil
	}
	typ := tunekit.NewConnectorType("BenchLookupConnector")
	for i := 0; i < 50; i++ {
		typ.OnEvent(fmt.Sprintf("bench_lookup_event_%d", i), noop)
	}
	tunekit.MustRegisterType(typ)

	ev := event.Get("bench_lookup_event_25")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if handlers := typ.EventHandlers(ev, event.On); len(handlers) != 1 {
			b.Fatal("unexpected handler count")
		}
	}
}
