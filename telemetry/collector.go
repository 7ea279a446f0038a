package telemetry

import "github.com/pthm-cable/sphfluid/fluid"

// Collector accumulates solver step counters within time windows and produces WindowStats.
type Collector struct {
	windowDurationTicks int64
	dt                  float64

	// Current window tracking
	windowStartTick int64

	// Event counters for current window
	steps         int
	boundaryHits  int
	dragEvents    int
	dragParticles int
	degenerate    int

	scratch []float64
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticksPerWindow := int64(1)
	if dt > 0 {
		ticksPerWindow = int64(windowDurationSec/dt + 0.5)
	}
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordStep adds the counters of one solver step to the window.
func (c *Collector) RecordStep(st fluid.StepStats) {
	c.steps++
	c.boundaryHits += st.BoundaryHits
	c.dragEvents += st.DragEvents
	c.dragParticles += st.DragParticles
	c.degenerate += st.Degenerate
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int64) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats from the window counters and a snapshot of the
// particles, then resets counters for the next window.
func (c *Collector) Flush(currentTick int64, particles []fluid.Particle, mass float64) WindowStats {
	var sum ParticleSummary
	sum, c.scratch = SummarizeParticles(particles, mass, c.scratch)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Particles:     sum.Count,
		DensityMean:   sum.DensityMean,
		DensityStd:    sum.DensityStd,
		DensityMin:    sum.DensityMin,
		DensityP10:    sum.DensityP10,
		DensityP50:    sum.DensityP50,
		DensityP90:    sum.DensityP90,
		DensityMax:    sum.DensityMax,
		PressureMean:  sum.PressureMean,
		MaxSpeed:      sum.MaxSpeed,
		KineticEnergy: sum.KineticEnergy,

		Steps:         c.steps,
		BoundaryHits:  c.boundaryHits,
		DragEvents:    c.dragEvents,
		DragParticles: c.dragParticles,
		Degenerate:    c.degenerate,
	}

	c.Reset(currentTick)
	return stats
}

// Reset drops the window counters and starts a new window at tick.
func (c *Collector) Reset(tick int64) {
	c.windowStartTick = tick
	c.steps = 0
	c.boundaryHits = 0
	c.dragEvents = 0
	c.dragParticles = 0
	c.degenerate = 0
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int64 {
	return c.windowDurationTicks
}
