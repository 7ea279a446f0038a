package fluid

import (
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r2"
)

// JitterFunc returns the horizontal offset for a particle seeded at (x, y).
type JitterFunc func(x, y float64) float64

// UniformJitter draws offsets uniformly from [0, amplitude).
// The result is stateful: two runs agree only if built from equally seeded sources.
func UniformJitter(rng *rand.Rand, amplitude float64) JitterFunc {
	return func(_, _ float64) float64 {
		return rng.Float64() * amplitude
	}
}

// NoiseJitter derives offsets in [0, amplitude) from 2D simplex noise sampled
// at the seed position scaled by frequency. It is a pure function of (x, y).
func NoiseJitter(seed int64, amplitude, frequency float64) JitterFunc {
	noise := opensimplex.NewNormalized(seed)
	return func(x, y float64) float64 {
		return noise.Eval2(x*frequency, y*frequency) * amplitude
	}
}

// DamBounds returns the seeding region of the dam-break scene: a column from
// a quarter to half of the domain width, resting on the bottom wall.
// X is scanned up to and including Max.X, Y up to but excluding Max.Y.
func DamBounds(p Params) r2.Box {
	b := p.BoundaryEps()
	return r2.Box{
		Min: r2.Vec{X: p.Domain.Width / 4, Y: b},
		Max: r2.Vec{X: p.Domain.Width / 2, Y: p.Domain.Height - 2*b},
	}
}

// Seed fills bounds with particles on a lattice of the given spacing, row by row
// from the bottom, stopping once the solver holds maxCount particles (maxCount <= 0
// means no cap). Each particle is offset horizontally by jitter if non-nil.
// Returns the number of particles added.
func (s *Solver) Seed(bounds r2.Box, spacing float64, jitter JitterFunc, maxCount int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !(spacing > 0) {
		return 0
	}

	added := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y += spacing {
		for x := bounds.Min.X; x <= bounds.Max.X; x += spacing {
			if maxCount > 0 && len(s.particles) >= maxCount {
				return added
			}
			dx := 0.0
			if jitter != nil {
				dx = jitter(x, y)
			}
			s.particles = append(s.particles, NewParticle(r2.Vec{X: x + dx, Y: y}))
			added++
		}
	}
	return added
}

// SeedDam resets the solver and seeds the dam-break column with at most
// Params.DamParticles particles spaced one kernel radius apart.
func (s *Solver) SeedDam(jitter JitterFunc) int {
	s.Reset()
	return s.Seed(DamBounds(s.params), s.params.KernelRadius, jitter, s.params.DamParticles)
}
