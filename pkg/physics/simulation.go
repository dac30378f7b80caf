package physics

import (
	"math"
	"math/rand/v2"
	"time"
)

// Event names emitted by a Simulation.
const (
	EventTick = "tick"
	EventEnd  = "end"
)

const (
	DefaultAlphaMin      = 0.001
	DefaultVelocityDecay = 0.4
	DefaultInterval      = 16 * time.Millisecond
)

// DefaultAlphaDecay brings alpha from 1 to DefaultAlphaMin in 300 ticks.
var DefaultAlphaDecay = 1 - math.Pow(DefaultAlphaMin, 1.0/300)

// Force contributes velocity (or position) changes to bodies on every tick.
type Force interface {
	Initialize(bodies []*Body, rnd *rand.Rand)
	Apply(alpha float64)
}

// Scheduler runs fn periodically until the returned cancel func is called.
type Scheduler interface {
	Every(interval time.Duration, fn func()) (cancel func())
}

type namedForce struct {
	name  string
	force Force
}

type listener struct {
	id int
	fn func()
}

// Simulation integrates bodies under a set of named forces.
type Simulation struct {
	bodies []*Body
	forces []namedForce

	alpha         float64
	alphaMin      float64
	alphaDecay    float64
	alphaTarget   float64
	velocityDecay float64

	rnd       *rand.Rand
	scheduler Scheduler
	interval  time.Duration
	cancel    func()

	listeners map[string][]listener
	nextID    int
	ticks     uint64
}

// Option configures a Simulation.
type Option func(*Simulation)

// WithScheduler sets the scheduler that drives the simulation timer.
func WithScheduler(s Scheduler) Option {
	return func(sim *Simulation) { sim.scheduler = s }
}

// WithInterval sets the timer interval between steps.
func WithInterval(d time.Duration) Option {
	return func(sim *Simulation) { sim.interval = d }
}

// WithSeed makes the jiggle applied to coincident bodies deterministic.
func WithSeed(seed uint64) Option {
	return func(sim *Simulation) { sim.rnd = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// WithVelocityDecay sets the fraction of velocity lost per tick.
func WithVelocityDecay(decay float64) Option {
	return func(sim *Simulation) { sim.velocityDecay = 1 - decay }
}

// WithAlphaDecay sets the per-tick alpha decay rate.
func WithAlphaDecay(decay float64) Option {
	return func(sim *Simulation) { sim.alphaDecay = decay }
}

// NewSimulation creates a stopped simulation over bodies. Bodies without a
// position are laid out on a phyllotaxis spiral.
func NewSimulation(bodies []*Body, opts ...Option) *Simulation {
	sim := &Simulation{
		bodies:        bodies,
		alpha:         1,
		alphaMin:      DefaultAlphaMin,
		alphaDecay:    DefaultAlphaDecay,
		velocityDecay: 1 - DefaultVelocityDecay,
		interval:      DefaultInterval,
		listeners:     make(map[string][]listener),
	}
	for _, opt := range opts {
		opt(sim)
	}
	if sim.rnd == nil {
		sim.rnd = rand.New(rand.NewPCG(1, 2))
	}
	sim.initializeBodies()
	return sim
}

func (s *Simulation) initializeBodies() {
	for i, b := range s.bodies {
		b.Index = i
		if b.FX != nil {
			b.X = *b.FX
		}
		if b.FY != nil {
			b.Y = *b.FY
		}
		if !b.placed && !b.Pinned() {
			b.X, b.Y = phyllotaxis(i)
			b.VX, b.VY = 0, 0
		}
		b.placed = true
	}
}

// Bodies returns the simulated bodies.
func (s *Simulation) Bodies() []*Body {
	return s.bodies
}

// AddForce registers (or replaces) a named force and initializes it.
func (s *Simulation) AddForce(name string, f Force) *Simulation {
	f.Initialize(s.bodies, s.rnd)
	for i := range s.forces {
		if s.forces[i].name == name {
			s.forces[i].force = f
			return s
		}
	}
	s.forces = append(s.forces, namedForce{name: name, force: f})
	return s
}

// Force returns the force registered under name, or nil.
func (s *Simulation) Force(name string) Force {
	for _, nf := range s.forces {
		if nf.name == name {
			return nf.force
		}
	}
	return nil
}

// RemoveForce unregisters a named force.
func (s *Simulation) RemoveForce(name string) {
	for i := range s.forces {
		if s.forces[i].name == name {
			s.forces = append(s.forces[:i], s.forces[i+1:]...)
			return
		}
	}
}

// Alpha returns the current simulation energy.
func (s *Simulation) Alpha() float64 { return s.alpha }

// SetAlpha sets the current simulation energy.
func (s *Simulation) SetAlpha(a float64) { s.alpha = a }

// AlphaMin returns the energy below which the timer stops.
func (s *Simulation) AlphaMin() float64 { return s.alphaMin }

// AlphaTarget returns the energy alpha decays toward.
func (s *Simulation) AlphaTarget() float64 { return s.alphaTarget }

// SetAlphaTarget sets the energy alpha decays toward.
func (s *Simulation) SetAlphaTarget(t float64) { s.alphaTarget = t }

// Ticks returns the number of integration steps performed so far.
func (s *Simulation) Ticks() uint64 {
	return s.ticks
}

// Running reports whether the simulation timer is active.
func (s *Simulation) Running() bool {
	return s.cancel != nil
}

// Restart (re)starts the simulation timer. Without a scheduler the
// simulation only advances through Tick and Settle.
func (s *Simulation) Restart() *Simulation {
	if s.cancel != nil || s.scheduler == nil {
		return s
	}
	s.cancel = s.scheduler.Every(s.interval, s.step)
	return s
}

// Stop cancels the simulation timer.
func (s *Simulation) Stop() *Simulation {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return s
}

// On subscribes fn to an event and returns the matching unsubscribe func.
func (s *Simulation) On(event string, fn func()) (unsubscribe func()) {
	s.nextID++
	id := s.nextID
	s.listeners[event] = append(s.listeners[event], listener{id: id, fn: fn})
	return func() {
		ls := s.listeners[event]
		for i := range ls {
			if ls[i].id == id {
				s.listeners[event] = append(ls[:i], ls[i+1:]...)
				return
			}
		}
	}
}

// Listeners returns the number of subscribers for event.
func (s *Simulation) Listeners(event string) int {
	return len(s.listeners[event])
}

func (s *Simulation) emit(event string) {
	// Copy so listeners may unsubscribe while being notified.
	ls := append([]listener(nil), s.listeners[event]...)
	for _, l := range ls {
		l.fn()
	}
}

func (s *Simulation) step() {
	s.Tick()
	s.emit(EventTick)
	if s.alpha < s.alphaMin {
		s.Stop()
		s.emit(EventEnd)
	}
}

// Tick advances the simulation by one step without emitting events.
func (s *Simulation) Tick() {
	s.ticks++
	s.alpha += (s.alphaTarget - s.alpha) * s.alphaDecay

	for _, nf := range s.forces {
		nf.force.Apply(s.alpha)
	}

	for _, b := range s.bodies {
		if b.FX == nil {
			b.VX *= s.velocityDecay
			b.X += b.VX
		} else {
			b.X = *b.FX
			b.VX = 0
		}
		if b.FY == nil {
			b.VY *= s.velocityDecay
			b.Y += b.VY
		} else {
			b.Y = *b.FY
			b.VY = 0
		}
	}
}

// Settle ticks synchronously until alpha drops below alphaMin or maxTicks
// steps have run, and returns the number of steps taken.
func (s *Simulation) Settle(maxTicks int) int {
	n := 0
	for n < maxTicks && s.alpha >= s.alphaMin {
		s.Tick()
		n++
	}
	return n
}

func jiggle(rnd *rand.Rand) float64 {
	return (rnd.Float64() - 0.5) * 1e-6
}
