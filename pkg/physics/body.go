// Package physics provides a force-directed layout simulation.
//
// The integrator follows the velocity Verlet scheme used by d3-force: forces
// accumulate into body velocities, velocities decay, and positions advance by
// the remaining velocity. Bodies with a pin override are held in place.
package physics

import "math"

// Body is a point mass integrated by a Simulation.
type Body struct {
	Index  int
	X, Y   float64
	VX, VY float64
	FX, FY *float64

	placed bool
}

// Place sets the body position and marks it as placed, so the simulation does
// not assign an initial layout position to it.
func (b *Body) Place(x, y float64) {
	b.X, b.Y = x, y
	b.placed = true
}

// Placed reports whether the body has a position.
func (b *Body) Placed() bool {
	return b.placed
}

// Pin fixes the body at (x, y) until Unpin is called.
func (b *Body) Pin(x, y float64) {
	b.FX = &x
	b.FY = &y
}

// Unpin releases a pinned body back to the forces.
func (b *Body) Unpin() {
	b.FX = nil
	b.FY = nil
}

// Pinned reports whether the body currently has a pin override.
func (b *Body) Pinned() bool {
	return b.FX != nil || b.FY != nil
}

const (
	initialRadius = 10.0
)

var initialAngle = math.Pi * (3 - math.Sqrt(5))

// phyllotaxis places body i on a sunflower spiral around the origin.
func phyllotaxis(i int) (float64, float64) {
	radius := initialRadius * math.Sqrt(0.5+float64(i))
	angle := float64(i) * initialAngle
	return radius * math.Cos(angle), radius * math.Sin(angle)
}
