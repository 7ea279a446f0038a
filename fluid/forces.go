package fluid

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

func (s *Solver) calculateForces() {
	s.pool.run(len(s.particles), s.forceChunk)
}

// forceChunk overwrites each particle's force with pressure + viscosity + gravity.
//
// With rij = xj - xi the pressure term is
//
//	-rij/|rij| * mass * (pi + pj) / (2 rhoj) * spiky * (H - r)^3
//
// and since spiky is negative, a pair with negative summed pressure pushes apart.
func (s *Solver) forceChunk(i0, i1 int, scratch *workerScratch) {
	k := s.kernels
	mass := s.params.Mass
	visc := s.params.Viscosity
	minRho := s.params.MinDensity

	for i := i0; i < i1; i++ {
		pi := &s.particles[i]
		var fPress, fVisc r2.Vec

		scratch.candidates = s.candidatesInto(scratch.candidates[:0], pi.pos)
		for _, j := range scratch.candidates {
			if j == i {
				continue
			}
			pj := &s.particles[j]

			rij := r2.Sub(pj.pos, pi.pos)
			r2sq := r2.Norm2(rij)
			if r2sq >= k.HSq {
				continue
			}
			if pj.rho < minRho {
				scratch.degenerate++
				continue
			}

			r := math.Sqrt(r2sq)
			h := k.H - r
			// Coincident particles have no direction to push along.
			if r > 0 {
				mag := mass * (pi.p + pj.p) / (2 * pj.rho) * k.Spiky * h * h * h
				fPress = r2.Add(fPress, r2.Scale(-mag/r, rij))
			}
			fVisc = r2.Add(fVisc, r2.Scale(visc*mass/pj.rho*k.Visc*h, r2.Sub(pj.vel, pi.vel)))
		}

		rho := pi.rho
		if rho < minRho {
			rho = s.params.RestDensity
			scratch.degenerate++
		}
		fGrav := r2.Scale(mass/rho, s.params.Gravity)

		pi.force = r2.Add(r2.Add(fPress, fVisc), fGrav)
	}
}
