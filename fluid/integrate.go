package fluid

import "gonum.org/v1/gonum/spatial/r2"

func (s *Solver) integrate() {
	s.pool.run(len(s.particles), s.integrateChunk)
}

// integrateChunk applies semi-implicit Euler (velocity first, then position
// with the new velocity) and clamps to the walls, damping the normal component.
func (s *Solver) integrateChunk(i0, i1 int, scratch *workerScratch) {
	dt := s.params.DT
	damp := s.params.BoundDamping
	minRho := s.params.MinDensity
	b := s.params.BoundaryEps()
	w, h := s.params.Domain.Width, s.params.Domain.Height

	for i := i0; i < i1; i++ {
		p := &s.particles[i]

		rho := p.rho
		if rho < minRho {
			rho = s.params.RestDensity
		}

		p.vel = r2.Add(p.vel, r2.Scale(dt/rho, p.force))
		p.pos = r2.Add(p.pos, r2.Scale(dt, p.vel))

		if p.pos.X-b < 0 {
			p.vel.X *= damp
			p.pos.X = b
			scratch.boundaryHits++
		}
		if p.pos.X+b > w {
			p.vel.X *= damp
			p.pos.X = w - b
			scratch.boundaryHits++
		}
		if p.pos.Y-b < 0 {
			p.vel.Y *= damp
			p.pos.Y = b
			scratch.boundaryHits++
		}
		if p.pos.Y+b > h {
			p.vel.Y *= damp
			p.pos.Y = h - b
			scratch.boundaryHits++
		}
	}
}
