package physics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualScheduler fires registered callbacks only when fire is called.
type manualScheduler struct {
	fns    map[int]func()
	nextID int
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{fns: make(map[int]func())}
}

func (m *manualScheduler) Every(_ time.Duration, fn func()) func() {
	m.nextID++
	id := m.nextID
	m.fns[id] = fn
	return func() { delete(m.fns, id) }
}

func (m *manualScheduler) fire() {
	for _, fn := range m.fns {
		fn()
	}
}

func newBodies(n int) []*Body {
	bodies := make([]*Body, n)
	for i := range bodies {
		bodies[i] = &Body{}
	}
	return bodies
}

func TestNewSimulationPlacesBodies(t *testing.T) {
	bodies := newBodies(3)
	bodies[1].Place(100, 200)
	pinned := &Body{}
	pinned.Pin(5, 6)
	bodies = append(bodies, pinned)

	NewSimulation(bodies)

	x0, y0 := phyllotaxis(0)
	assert.Equal(t, x0, bodies[0].X)
	assert.Equal(t, y0, bodies[0].Y)
	assert.Equal(t, 100.0, bodies[1].X)
	assert.Equal(t, 200.0, bodies[1].Y)
	assert.Equal(t, 5.0, pinned.X)
	assert.Equal(t, 6.0, pinned.Y)
	for i, b := range bodies {
		assert.Equal(t, i, b.Index)
		assert.True(t, b.Placed())
	}
}

func TestSimulationAlphaDecays(t *testing.T) {
	sim := NewSimulation(newBodies(4))

	prev := sim.Alpha()
	for i := 0; i < 50; i++ {
		sim.Tick()
		require.Less(t, sim.Alpha(), prev)
		prev = sim.Alpha()
	}

	n := sim.Settle(1000)
	assert.Less(t, sim.Alpha(), sim.AlphaMin())
	assert.LessOrEqual(t, n, 300)
}

func TestSimulationAlphaTargetHoldsEnergy(t *testing.T) {
	sim := NewSimulation(newBodies(2))
	sim.Settle(1000)
	sim.SetAlphaTarget(0.3)

	for i := 0; i < 2000; i++ {
		sim.Tick()
	}
	assert.InDelta(t, 0.3, sim.Alpha(), 1e-3)
}

func TestSimulationPinnedBodyStays(t *testing.T) {
	bodies := newBodies(5)
	sim := NewSimulation(bodies)
	springs := []Spring{{bodies[0], bodies[1]}, {bodies[1], bodies[2]}}
	sim.AddForce("link", NewLinkForce(springs))
	sim.AddForce("charge", NewManyBodyForce(-50))
	sim.AddForce("center", NewCenterForce(0, 0))

	bodies[2].Pin(42, -7)
	for i := 0; i < 20; i++ {
		sim.Tick()
		assert.Equal(t, 42.0, bodies[2].X)
		assert.Equal(t, -7.0, bodies[2].Y)
		assert.Zero(t, bodies[2].VX)
	}
}

func TestSimulationTimerEmitsTicksAndEnd(t *testing.T) {
	sched := newManualScheduler()
	sim := NewSimulation(newBodies(3), WithScheduler(sched))

	var ticks, ends int
	sim.On(EventTick, func() { ticks++ })
	sim.On(EventEnd, func() { ends++ })

	sim.Restart()
	require.True(t, sim.Running())
	sim.Restart()
	assert.Len(t, sched.fns, 1, "restart while running must not add a second timer")

	for i := 0; i < 1000 && sim.Running(); i++ {
		sched.fire()
	}

	assert.False(t, sim.Running())
	assert.Equal(t, 1, ends)
	assert.Equal(t, int(sim.Ticks()), ticks)
	assert.Empty(t, sched.fns)
}

func TestSimulationUnsubscribe(t *testing.T) {
	sched := newManualScheduler()
	sim := NewSimulation(newBodies(1), WithScheduler(sched))

	calls := 0
	unsubscribe := sim.On(EventTick, func() { calls++ })
	sim.Restart()
	sched.fire()
	unsubscribe()
	sched.fire()

	assert.Equal(t, 1, calls)
	assert.Zero(t, sim.Listeners(EventTick))
}

func TestLinkForcePullsTowardDistance(t *testing.T) {
	a, b := &Body{}, &Body{}
	a.Place(0, 0)
	b.Place(300, 0)
	sim := NewSimulation([]*Body{a, b})
	sim.AddForce("link", NewLinkForce([]Spring{{a, b}}))

	before := b.X - a.X
	sim.Settle(300)
	after := b.X - a.X

	assert.Less(t, after, before)
	assert.InDelta(t, 30, math.Abs(after), 5)
}

func TestManyBodyForceRepels(t *testing.T) {
	tests := map[string]int{
		"pair":    2,
		"cluster": 12,
	}

	for name, n := range tests {
		t.Run(name, func(t *testing.T) {
			bodies := newBodies(n)
			sim := NewSimulation(bodies)
			sim.AddForce("charge", NewManyBodyForce(-50))

			before := spread(bodies)
			for i := 0; i < 30; i++ {
				sim.Tick()
			}
			assert.Greater(t, spread(bodies), before)
		})
	}
}

func TestManyBodyForceSeparatesCoincidentBodies(t *testing.T) {
	tests := map[string][][2]float64{
		"pair":           {{100, 100}, {100, 100}},
		"pair and other": {{100, 100}, {100, 100}, {200, 200}},
		"vertical line":  {{50, 50}, {50, 50}, {50, 80}},
	}

	for name, positions := range tests {
		t.Run(name, func(t *testing.T) {
			bodies := newBodies(len(positions))
			for i, p := range positions {
				bodies[i].Place(p[0], p[1])
			}
			sim := NewSimulation(bodies, WithSeed(7))
			sim.AddForce("charge", NewManyBodyForce(-50))
			sim.AddForce("center", NewCenterForce(350, 350))
			sim.Settle(1000)

			d := math.Hypot(bodies[0].X-bodies[1].X, bodies[0].Y-bodies[1].Y)
			assert.Greater(t, d, 1.0)
		})
	}
}

func TestCenterForceMovesMean(t *testing.T) {
	bodies := newBodies(6)
	sim := NewSimulation(bodies)
	sim.AddForce("center", NewCenterForce(350, 350))
	sim.Tick()

	var sx, sy float64
	for _, b := range bodies {
		sx += b.X
		sy += b.Y
	}
	assert.InDelta(t, 350, sx/6, 1e-9)
	assert.InDelta(t, 350, sy/6, 1e-9)
}

func TestAddForceReplacesByName(t *testing.T) {
	sim := NewSimulation(newBodies(2))
	first := NewCenterForce(0, 0)
	second := NewCenterForce(10, 10)

	sim.AddForce("center", first)
	sim.AddForce("center", second)
	assert.Same(t, second, sim.Force("center"))

	sim.RemoveForce("center")
	assert.Nil(t, sim.Force("center"))
}

func spread(bodies []*Body) float64 {
	var sx, sy float64
	for _, b := range bodies {
		sx += b.X
		sy += b.Y
	}
	n := float64(len(bodies))
	mx, my := sx/n, sy/n
	var d float64
	for _, b := range bodies {
		d += math.Hypot(b.X-mx, b.Y-my)
	}
	return d / n
}
