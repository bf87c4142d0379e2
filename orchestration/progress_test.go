package orchestration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/richinex/seekr/agent"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestProgressTransitions(t *testing.T) {
	p := newProgress(InitialSteps("en"))

	require.NoError(t, p.set(stepPlan, agent.StepLoading))
	assert.ErrorIs(t, p.set(stepSearch, agent.StepLoading), ErrInvalidTransition, "second loading step")
	assert.ErrorIs(t, p.set(stepPlan, agent.StepLoading), ErrInvalidTransition, "self transition")
	assert.ErrorIs(t, p.set(stepPlan, agent.StepPending), ErrInvalidTransition, "regression")
	assert.ErrorIs(t, p.set(42, agent.StepComplete), ErrInvalidTransition, "unknown step")

	require.NoError(t, p.advance(stepPlan, stepSearch))
	require.NoError(t, p.advance(stepSearch, stepConsolidate))
	require.NoError(t, p.set(stepConsolidate, agent.StepComplete))

	for _, s := range p.snapshot() {
		assert.Equal(t, agent.StepComplete, s.Status)
	}
}

func TestProgressSnapshotsAreCopies(t *testing.T) {
	p := newProgress(InitialSteps("en"))
	snap := p.snapshot()
	snap[0].Status = agent.StepComplete
	snap[1].RequiredTools[0] = "mutated"

	fresh := p.snapshot()
	assert.Equal(t, agent.StepPending, fresh[0].Status)
	assert.Equal(t, []string{"web_search"}, fresh[1].RequiredTools)
}

func TestInitialSteps(t *testing.T) {
	steps := InitialSteps("fr")
	require.Len(t, steps, 3)
	assert.Equal(t, "Planning response in French", steps[0].Description)
	assert.Equal(t, "Searching for relevant information in French", steps[1].Description)
	assert.True(t, steps[1].RequiresSearch)
	assert.Equal(t, "Consolidating information and generating response in French", steps[2].Description)
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestThrottleCoalesces(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	var got []int
	th := NewThrottle(50*time.Millisecond, func(v int) { got = append(got, v) })
	th.now = clock.now

	th.Update(1) // first value goes straight through
	clock.advance(10 * time.Millisecond)
	th.Update(2)
	clock.advance(10 * time.Millisecond)
	th.Update(3)
	assert.Equal(t, []int{1}, got)

	clock.advance(40 * time.Millisecond)
	th.Update(4)
	assert.Equal(t, []int{1, 4}, got)

	clock.advance(time.Millisecond)
	th.Update(5)
	th.Flush()
	th.Flush()
	assert.Equal(t, []int{1, 4, 5}, got)
}

func TestThrottleNilDeliver(t *testing.T) {
	th := NewThrottle[string](time.Second, nil)
	th.Update("x")
	th.Flush()
}

func TestRouter(t *testing.T) {
	r := NewRouter()
	assert.Equal(t, RouteWeather, r.Route("What's the WEATHER in Oslo?"))
	assert.Equal(t, RouteWeather, r.Route("will it rain tomorrow"))
	assert.Equal(t, RouteGeneral, r.Route("capital of France"))

	custom := NewRouter("Snow")
	assert.Equal(t, RouteWeather, custom.Route("snow depth"))
	assert.Equal(t, RouteGeneral, custom.Route("weather"))
}

func TestParseRoute(t *testing.T) {
	for in, want := range map[string]Route{"": RouteAuto, "AUTO": RouteAuto, "general": RouteGeneral, " weather ": RouteWeather} {
		got, err := ParseRoute(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseRoute("finance")
	assert.Error(t, err)
}
