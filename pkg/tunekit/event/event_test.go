package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestGet_InternsIdentity verifies that repeated lookups of the same name
// return the same pointer.
func TestGet_InternsIdentity(t *testing.T) {
	a := Get("interning_measure")
	b := Get("interning_measure")
	assert.Same(t, a, b)
	assert.Equal(t, "interning_measure", a.Name())
}

func TestGet_DistinctNames(t *testing.T) {
	a := Get("interning_adjust")
	b := Get("interning_describe")
	assert.NotSame(t, a, b)
}

func TestGet_EmptyName_Panics(t *testing.T) {
	assert.Panics(t, func() {
		Get("")
	})
}

func TestLookup(t *testing.T) {
	Get("lookup_known")

	ev, ok := Lookup("lookup_known")
	assert.True(t, ok)
	assert.Equal(t, "lookup_known", ev.Name())

	_, ok = Lookup("lookup_never_declared")
	assert.False(t, ok)
}

func TestNames_ContainsDeclared(t *testing.T) {
	Get("names_alpha")
	Get("names_beta")

	names := Names()
	assert.Contains(t, names, "names_alpha")
	assert.Contains(t, names, "names_beta")
}

func TestEvent_String(t *testing.T) {
	assert.Equal(t, "stringer_event", Get("stringer_event").String())
}

func TestContext_String(t *testing.T) {
	ev := Get("ctx_measure")

	testCases := []struct {
		preposition Preposition
		want        string
	}{
		{Before, "before:ctx_measure"},
		{On, "on:ctx_measure"},
		{After, "after:ctx_measure"},
	}

	for _, tc := range testCases {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, NewContext(ev, tc.preposition).String())
		})
	}
}

func TestContext_Matches(t *testing.T) {
	ctx := NewContext(Get("ctx_adjust"), Before)

	assert.True(t, ctx.Matches("ctx_adjust"), "bare event name matches any preposition")
	assert.True(t, ctx.Matches("before:ctx_adjust"))
	assert.False(t, ctx.Matches("on:ctx_adjust"))
	assert.False(t, ctx.Matches("ctx_other"))
}

func TestContext_Accessors(t *testing.T) {
	ev := Get("ctx_accessors")
	ctx := NewContext(ev, On)
	assert.Same(t, ev, ctx.Event())
	assert.Equal(t, On, ctx.Preposition())
}

func TestPreposition_Has(t *testing.T) {
	assert.True(t, All.Has(Before))
	assert.True(t, All.Has(On))
	assert.True(t, All.Has(After))
	assert.True(t, (Before | On).Has(On))
	assert.False(t, (Before | On).Has(After))
	assert.False(t, Before.Has(On))
}

func TestPreposition_IsExact(t *testing.T) {
	assert.True(t, Before.IsExact())
	assert.True(t, On.IsExact())
	assert.True(t, After.IsExact())
	assert.False(t, All.IsExact())
	assert.False(t, (Before | After).IsExact())
	assert.False(t, Preposition(0).IsExact())
}

func TestPreposition_String(t *testing.T) {
	testCases := []struct {
		preposition Preposition
		want        string
	}{
		{Before, "before"},
		{On, "on"},
		{After, "after"},
		{Before | On, "before|on"},
		{All, "before|on|after"},
	}

	for _, tc := range testCases {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.preposition.String())
		})
	}
}
