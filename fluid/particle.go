package fluid

import "gonum.org/v1/gonum/spatial/r2"

// Particle holds the state of a single fluid particle.
// All physics lives in the solver; this is plain storage and stays
// trivially copyable so the passes can work on it in parallel.
type Particle struct {
	pos   r2.Vec
	vel   r2.Vec
	force r2.Vec
	rho   float64
	p     float64
}

// NewParticle creates a particle at rest at pos.
func NewParticle(pos r2.Vec) Particle {
	return Particle{pos: pos}
}

func (p *Particle) Position() r2.Vec  { return p.pos }
func (p *Particle) Velocity() r2.Vec  { return p.vel }
func (p *Particle) Force() r2.Vec     { return p.force }
func (p *Particle) Density() float64  { return p.rho }
func (p *Particle) Pressure() float64 { return p.p }

func (p *Particle) SetPosition(v r2.Vec)         { p.pos = v }
func (p *Particle) SetVelocity(v r2.Vec)         { p.vel = v }
func (p *Particle) SetForce(v r2.Vec)            { p.force = v }
func (p *Particle) SetDensity(rho float64)       { p.rho = rho }
func (p *Particle) SetPressure(pressure float64) { p.p = pressure }
