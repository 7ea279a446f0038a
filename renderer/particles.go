package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	colorful "github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/sphfluid/fluid"
)

// ParticleRenderer draws fluid particles as density-coloured points.
type ParticleRenderer struct {
	viewport fluid.Viewport
	ramp     DensityRamp
	radius   float32
}

// NewParticleRenderer creates a renderer that maps simulation space through viewport.
func NewParticleRenderer(viewport fluid.Viewport, ramp DensityRamp, radius float32) *ParticleRenderer {
	if radius <= 0 {
		radius = 2
	}
	return &ParticleRenderer{viewport: viewport, ramp: ramp, radius: radius}
}

// Draw renders all particles.
func (r *ParticleRenderer) Draw(particles []fluid.Particle) {
	for i := range particles {
		p := &particles[i]
		s := r.viewport.ToScreen(p.Position())
		cr, cg, cb := r.ramp.RGB255(p.Density())
		rl.DrawCircleV(rl.Vector2{X: float32(s.X), Y: float32(s.Y)}, r.radius, rl.Color{R: cr, G: cg, B: cb, A: 255})
	}
}

// DrawBounds outlines the region the particles can occupy.
func (r *ParticleRenderer) DrawBounds(color rl.Color) {
	b := r.viewport.Boundary
	d := r.viewport.Domain
	topLeft := r.viewport.ToScreen(r2.Vec{X: b, Y: d.Height - b})
	bottomRight := r.viewport.ToScreen(r2.Vec{X: d.Width - b, Y: b})
	rl.DrawRectangleLines(
		int32(topLeft.X), int32(topLeft.Y),
		int32(bottomRight.X-topLeft.X), int32(bottomRight.Y-topLeft.Y),
		color,
	)
}

// ToRL converts a colorful colour to an opaque raylib colour.
func ToRL(c colorful.Color) rl.Color {
	cr, cg, cb := c.Clamped().RGB255()
	return rl.Color{R: cr, G: cg, B: cb, A: 255}
}

// ParseColor parses a hex colour, falling back to fallback on error.
func ParseColor(hex string, fallback rl.Color) rl.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		return fallback
	}
	return ToRL(c)
}
