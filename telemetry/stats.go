// Package telemetry provides window stats, step timing, bookmarks and snapshots.
package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"github.com/pthm-cable/sphfluid/fluid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int64   `csv:"-"`
	WindowEndTick   int64   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Particle state sampled at window end
	Particles     int     `csv:"particles"`
	DensityMean   float64 `csv:"density_mean"`
	DensityStd    float64 `csv:"density_std"`
	DensityMin    float64 `csv:"density_min"`
	DensityP10    float64 `csv:"density_p10"`
	DensityP50    float64 `csv:"density_p50"`
	DensityP90    float64 `csv:"density_p90"`
	DensityMax    float64 `csv:"density_max"`
	PressureMean  float64 `csv:"pressure_mean"`
	MaxSpeed      float64 `csv:"max_speed"`
	KineticEnergy float64 `csv:"kinetic_energy"`

	// Events during window
	Steps         int `csv:"steps"`
	BoundaryHits  int `csv:"boundary_hits"`
	DragEvents    int `csv:"drag_events"`
	DragParticles int `csv:"drag_particles"`
	Degenerate    int `csv:"degenerate"`
}

// ParticleSummary describes the distribution of particle state at one instant.
type ParticleSummary struct {
	Count         int
	DensityMean   float64
	DensityStd    float64
	DensityMin    float64
	DensityP10    float64
	DensityP50    float64
	DensityP90    float64
	DensityMax    float64
	PressureMean  float64
	MaxSpeed      float64
	KineticEnergy float64
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation between closest ranks
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// SummarizeParticles computes density, pressure and motion statistics.
// scratch is reused for the density and pressure columns when large enough.
func SummarizeParticles(ps []fluid.Particle, mass float64, scratch []float64) (ParticleSummary, []float64) {
	n := len(ps)
	if n == 0 {
		return ParticleSummary{}, scratch
	}

	if cap(scratch) < 2*n {
		scratch = make([]float64, 2*n)
	}
	scratch = scratch[:2*n]
	densities, pressures := scratch[:n], scratch[n:]

	var maxSpeedSq, ke float64
	for i := range ps {
		densities[i] = ps[i].Density()
		pressures[i] = ps[i].Pressure()
		v := ps[i].Velocity()
		s2 := v.X*v.X + v.Y*v.Y
		maxSpeedSq = math.Max(maxSpeedSq, s2)
		ke += 0.5 * mass * s2
	}

	mean, std := stat.PopMeanStdDev(densities, nil)
	sum := ParticleSummary{
		Count:         n,
		DensityMean:   mean,
		DensityStd:    std,
		PressureMean:  stat.Mean(pressures, nil),
		MaxSpeed:      math.Sqrt(maxSpeedSq),
		KineticEnergy: ke,
	}

	sort.Float64s(densities)
	sum.DensityMin = floats.Min(densities)
	sum.DensityMax = floats.Max(densities)
	sum.DensityP10 = Percentile(densities, 0.10)
	sum.DensityP50 = Percentile(densities, 0.50)
	sum.DensityP90 = Percentile(densities, 0.90)

	return sum, scratch
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_start", s.WindowStartTick),
		slog.Int64("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("particles", s.Particles),
		slog.Float64("density_mean", s.DensityMean),
		slog.Float64("density_std", s.DensityStd),
		slog.Float64("density_min", s.DensityMin),
		slog.Float64("density_p10", s.DensityP10),
		slog.Float64("density_p50", s.DensityP50),
		slog.Float64("density_p90", s.DensityP90),
		slog.Float64("density_max", s.DensityMax),
		slog.Float64("pressure_mean", s.PressureMean),
		slog.Float64("max_speed", s.MaxSpeed),
		slog.Float64("kinetic_energy", s.KineticEnergy),
		slog.Int("steps", s.Steps),
		slog.Int("boundary_hits", s.BoundaryHits),
		slog.Int("drag_events", s.DragEvents),
		slog.Int("drag_particles", s.DragParticles),
		slog.Int("degenerate", s.Degenerate),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"particles", s.Particles,
		"density_mean", s.DensityMean,
		"density_p10", s.DensityP10,
		"density_p50", s.DensityP50,
		"density_p90", s.DensityP90,
		"pressure_mean", s.PressureMean,
		"max_speed", s.MaxSpeed,
		"kinetic_energy", s.KineticEnergy,
		"boundary_hits", s.BoundaryHits,
		"drag_events", s.DragEvents,
		"degenerate", s.Degenerate,
	)
}
