package fluid

import "gonum.org/v1/gonum/spatial/r2"

func (s *Solver) calculateDensities() {
	s.pool.run(len(s.particles), s.densityChunk)
}

// densityChunk sums poly6 contributions over the neighborhood of each particle
// and derives pressure from the linear equation of state. The sum includes the
// particle itself, so a lone particle still has positive density.
func (s *Solver) densityChunk(i0, i1 int, scratch *workerScratch) {
	k := s.kernels
	mass := s.params.Mass
	for i := i0; i < i1; i++ {
		pi := &s.particles[i]
		rho := 0.0

		scratch.candidates = s.candidatesInto(scratch.candidates[:0], pi.pos)
		for _, j := range scratch.candidates {
			r2sq := r2.Norm2(r2.Sub(s.particles[j].pos, pi.pos))
			if r2sq < k.HSq {
				d := k.HSq - r2sq
				rho += mass * k.Poly6 * d * d * d
			}
		}

		pi.rho = rho
		// Below rest density this goes negative; it is intentionally left unclamped.
		pi.p = s.params.GasConstant * (rho - s.params.RestDensity)
	}
}
