package game

import (
	"math/rand"

	"github.com/pthm-cable/sphfluid/config"
	"github.com/pthm-cable/sphfluid/fluid"
)

// newJitter builds the horizontal seeding jitter for the configured kind.
func newJitter(sc config.SeedConfig, seed int64) fluid.JitterFunc {
	switch sc.Jitter {
	case config.JitterNone:
		return nil
	case config.JitterNoise:
		return fluid.NoiseJitter(seed, sc.JitterAmplitude, sc.NoiseFrequency)
	default:
		return fluid.UniformJitter(rand.New(rand.NewSource(seed)), sc.JitterAmplitude)
	}
}
