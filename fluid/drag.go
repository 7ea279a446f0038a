package fluid

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Viewport maps input-device coordinates (origin top-left, y down) onto the
// simulation domain (origin bottom-left, y up). The simulation is drawn into
// the central half of the window, so the active input region is the window's
// middle half on each axis.
type Viewport struct {
	Window   Size
	Domain   Size
	Boundary float64
}

// NewViewport builds the viewport for params.
func NewViewport(p Params) Viewport {
	return Viewport{Window: p.Window, Domain: p.Domain, Boundary: p.BoundaryEps()}
}

// ToSim maps a window coordinate into simulation space. Points outside the
// active region are clamped onto its edge first.
func (v Viewport) ToSim(screen r2.Vec) r2.Vec {
	w, h := v.Window.Width, v.Window.Height
	x := clamp(screen.X, w/4, 3*w/4) - w/4
	y := clamp(h-screen.Y, h/4, 3*h/4) - h/4

	b := v.Boundary
	return r2.Vec{
		X: b + x/(w/2)*(v.Domain.Width-2*b),
		Y: b + y/(h/2)*(v.Domain.Height-2*b),
	}
}

// ToScreen is the inverse of ToSim for points inside the walls.
func (v Viewport) ToScreen(sim r2.Vec) r2.Vec {
	w, h := v.Window.Width, v.Window.Height
	b := v.Boundary
	x := (sim.X-b)/(v.Domain.Width-2*b)*(w/2) + w/4
	y := (sim.Y-b)/(v.Domain.Height-2*b)*(h/2) + h/4
	return r2.Vec{X: x, Y: h - y}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// applyForceAt adds force to the accumulator of every particle strictly inside
// the drag radius of center. Returns the number of particles touched.
func (s *Solver) applyForceAt(center, force r2.Vec) int {
	radius := s.params.DragRadius()
	rSq := radius * radius
	touched := 0
	for i := range s.particles {
		p := &s.particles[i]
		if r2.Norm2(r2.Sub(p.pos, center)) < rSq {
			p.force = r2.Add(p.force, force)
			touched++
		}
	}
	s.stats.DragEvents++
	s.stats.DragParticles += touched
	return touched
}
