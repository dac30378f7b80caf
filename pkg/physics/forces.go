package physics

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/barneshut"
	"gonum.org/v1/gonum/spatial/r2"
)

// Spring connects two bodies for the link force.
type Spring struct {
	Source *Body
	Target *Body
}

// LinkForce pulls connected bodies toward a rest distance.
type LinkForce struct {
	springs    []Spring
	Distance   float64
	Iterations int

	strengths []float64
	biases    []float64
	rnd       *rand.Rand
}

// NewLinkForce creates a link force with d3 defaults (distance 30, one
// iteration). Spring strength is 1/min(degree(source), degree(target)).
func NewLinkForce(springs []Spring) *LinkForce {
	return &LinkForce{springs: springs, Distance: 30, Iterations: 1}
}

// Initialize computes per-spring strength and bias from body degrees.
func (f *LinkForce) Initialize(bodies []*Body, rnd *rand.Rand) {
	f.rnd = rnd
	count := make(map[*Body]int, len(bodies))
	for _, sp := range f.springs {
		count[sp.Source]++
		count[sp.Target]++
	}
	f.strengths = make([]float64, len(f.springs))
	f.biases = make([]float64, len(f.springs))
	for i, sp := range f.springs {
		cs, ct := count[sp.Source], count[sp.Target]
		f.strengths[i] = 1 / float64(min(cs, ct))
		f.biases[i] = float64(cs) / float64(cs+ct)
	}
}

// Apply nudges spring endpoints toward the rest distance.
func (f *LinkForce) Apply(alpha float64) {
	for k := 0; k < f.Iterations; k++ {
		for i, sp := range f.springs {
			s, t := sp.Source, sp.Target
			x := t.X + t.VX - s.X - s.VX
			if x == 0 {
				x = jiggle(f.rnd)
			}
			y := t.Y + t.VY - s.Y - s.VY
			if y == 0 {
				y = jiggle(f.rnd)
			}
			l := math.Sqrt(x*x + y*y)
			l = (l - f.Distance) / l * alpha * f.strengths[i]
			x *= l
			y *= l

			b := f.biases[i]
			t.VX -= x * b
			t.VY -= y * b
			s.VX += x * (1 - b)
			s.VY += y * (1 - b)
		}
	}
}

// particle adapts a Body to the Barnes-Hut plane.
type particle struct {
	b *Body
}

func (p particle) Coord2() r2.Vec { return r2.Vec{X: p.b.X, Y: p.b.Y} }
func (p particle) Mass() float64  { return 1 }

// ManyBodyForce applies pairwise repulsion (negative strength) or
// attraction (positive strength) between all bodies.
type ManyBodyForce struct {
	Strength    float64
	Theta       float64
	DistanceMin float64

	bodies    []*Body
	particles []barneshut.Particle2
	rnd       *rand.Rand
}

// NewManyBodyForce creates a many-body force with the given strength.
func NewManyBodyForce(strength float64) *ManyBodyForce {
	return &ManyBodyForce{Strength: strength, Theta: 0.9, DistanceMin: 1}
}

// Initialize binds the force to bodies.
func (f *ManyBodyForce) Initialize(bodies []*Body, rnd *rand.Rand) {
	f.bodies = bodies
	f.rnd = rnd
	f.particles = make([]barneshut.Particle2, len(bodies))
	for i, b := range bodies {
		f.particles[i] = particle{b: b}
	}
}

// Apply accumulates the many-body velocity change for every body. The
// Barnes-Hut approximation is used when a quadtree can be built; otherwise
// all pairs are summed directly.
func (f *ManyBodyForce) Apply(alpha float64) {
	if len(f.bodies) < 2 {
		return
	}
	dmin2 := f.DistanceMin * f.DistanceMin
	scale := f.Strength * alpha
	force := func(p1, p2 barneshut.Particle2, _, m2 float64, v r2.Vec) r2.Vec {
		if p1 == p2 {
			return r2.Vec{}
		}
		// Jiggle zero components so coincident bodies separate.
		if v.X == 0 {
			v.X = jiggle(f.rnd)
		}
		if v.Y == 0 {
			v.Y = jiggle(f.rnd)
		}
		l := v.X*v.X + v.Y*v.Y
		if l < dmin2 {
			l = math.Sqrt(dmin2 * l)
		}
		return r2.Scale(scale*m2/l, v)
	}

	plane, err := barneshut.NewPlane(f.particles)
	if err != nil {
		f.applyDirect(force)
		return
	}
	for i, b := range f.bodies {
		dv := plane.ForceOn(f.particles[i], f.Theta, force)
		b.VX += dv.X
		b.VY += dv.Y
	}
}

func (f *ManyBodyForce) applyDirect(force barneshut.Force2) {
	for i, b := range f.bodies {
		for j, o := range f.bodies {
			if i == j {
				continue
			}
			dv := force(f.particles[i], f.particles[j], 1, 1, r2.Vec{X: o.X - b.X, Y: o.Y - b.Y})
			b.VX += dv.X
			b.VY += dv.Y
		}
	}
}

// CenterForce translates all bodies so their mean position is the center.
type CenterForce struct {
	X, Y     float64
	Strength float64

	bodies []*Body
}

// NewCenterForce creates a centering force at (x, y).
func NewCenterForce(x, y float64) *CenterForce {
	return &CenterForce{X: x, Y: y, Strength: 1}
}

// Initialize binds the force to bodies.
func (f *CenterForce) Initialize(bodies []*Body, _ *rand.Rand) {
	f.bodies = bodies
}

// Apply shifts positions directly; velocities are untouched.
func (f *CenterForce) Apply(float64) {
	n := len(f.bodies)
	if n == 0 {
		return
	}
	var sx, sy float64
	for _, b := range f.bodies {
		sx += b.X
		sy += b.Y
	}
	sx = (sx/float64(n) - f.X) * f.Strength
	sy = (sy/float64(n) - f.Y) * f.Strength
	for _, b := range f.bodies {
		b.X -= sx
		b.Y -= sy
	}
}
