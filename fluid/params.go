// Package fluid implements a 2D Smoothed Particle Hydrodynamics solver.
package fluid

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// ErrInvalidParams is returned when a Params value cannot drive a stable solver.
var ErrInvalidParams = errors.New("fluid: invalid params")

// Neighbor search strategies.
const (
	NeighborGrid     = "grid"
	NeighborAllPairs = "all_pairs"
)

// Size is a width/height pair in simulation or screen units.
type Size struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Params holds the physical constants of one simulation instance.
// A Params value is copied into the solver at construction and never mutated afterwards.
type Params struct {
	RestDensity       float64 `yaml:"rest_density"`       // REST_DENS
	GasConstant       float64 `yaml:"gas_constant"`       // equation of state stiffness
	KernelRadius      float64 `yaml:"kernel_radius"`      // H, also the grid cell size
	Mass              float64 `yaml:"mass"`               // per particle
	Viscosity         float64 `yaml:"viscosity"`          // VISC
	DT                float64 `yaml:"dt"`                 // fixed timestep
	Gravity           r2.Vec  `yaml:"gravity"`            // external acceleration
	BoundDamping      float64 `yaml:"bound_damping"`      // velocity scale on wall contact, negative
	Boundary          float64 `yaml:"boundary"`           // wall epsilon (0 = kernel radius)
	Domain            Size    `yaml:"domain"`             // simulation view size
	Window            Size    `yaml:"window"`             // input device coordinate space
	DamParticles      int     `yaml:"dam_particles"`      // max particles seeded by the dam
	InteractionRadius float64 `yaml:"interaction_radius"` // drag radius (0 = 2H)
	MinDensity        float64 `yaml:"min_density"`        // below this a density is degenerate
	NeighborSearch    string  `yaml:"neighbor_search"`    // grid | all_pairs
}

// DefaultParams returns the constants of the reference 2D dam-break setup.
func DefaultParams() Params {
	return Params{
		RestDensity:    300,
		GasConstant:    2000,
		KernelRadius:   16,
		Mass:           2.5,
		Viscosity:      200,
		DT:             0.0007,
		Gravity:        r2.Vec{X: 0, Y: -9.81},
		BoundDamping:   -0.5,
		Domain:         Size{Width: 1.5 * 800, Height: 1.5 * 600},
		Window:         Size{Width: 800, Height: 600},
		DamParticles:   200,
		MinDensity:     1e-6,
		NeighborSearch: NeighborGrid,
	}
}

// Validate reports whether the params describe a usable simulation.
func (p Params) Validate() error {
	switch {
	case !(p.KernelRadius > 0):
		return fmt.Errorf("%w: kernel_radius must be > 0, got %v", ErrInvalidParams, p.KernelRadius)
	case !(p.Mass > 0):
		return fmt.Errorf("%w: mass must be > 0, got %v", ErrInvalidParams, p.Mass)
	case !(p.DT > 0):
		return fmt.Errorf("%w: dt must be > 0, got %v", ErrInvalidParams, p.DT)
	case !(p.RestDensity > 0):
		return fmt.Errorf("%w: rest_density must be > 0, got %v", ErrInvalidParams, p.RestDensity)
	case p.Boundary < 0:
		return fmt.Errorf("%w: boundary must be >= 0, got %v", ErrInvalidParams, p.Boundary)
	case p.MinDensity < 0:
		return fmt.Errorf("%w: min_density must be >= 0, got %v", ErrInvalidParams, p.MinDensity)
	case !(p.Window.Width > 0) || !(p.Window.Height > 0):
		return fmt.Errorf("%w: window must be positive, got %vx%v", ErrInvalidParams, p.Window.Width, p.Window.Height)
	}

	b := p.BoundaryEps()
	if p.Domain.Width <= 2*b || p.Domain.Height <= 2*b {
		return fmt.Errorf("%w: domain %vx%v leaves no room inside boundary %v",
			ErrInvalidParams, p.Domain.Width, p.Domain.Height, b)
	}

	switch p.NeighborSearch {
	case "", NeighborGrid, NeighborAllPairs:
	default:
		return fmt.Errorf("%w: unknown neighbor_search %q", ErrInvalidParams, p.NeighborSearch)
	}
	return nil
}

// BoundaryEps returns the wall epsilon, defaulting to the kernel radius.
func (p Params) BoundaryEps() float64 {
	if p.Boundary > 0 {
		return p.Boundary
	}
	return p.KernelRadius
}

// DragRadius returns the external force interaction radius, defaulting to 2H.
func (p Params) DragRadius() float64 {
	if p.InteractionRadius > 0 {
		return p.InteractionRadius
	}
	return 2 * p.KernelRadius
}

// Kernels caches the powers of H and the normalisation constants of the
// three smoothing kernels so the hot loops never call math.Pow.
type Kernels struct {
	H     float64
	HSq   float64
	Poly6 float64 // 4 / (pi H^8)
	Spiky float64 // -10 / (pi H^5)
	Visc  float64 // 40 / (pi H^5)
}

// NewKernels precomputes kernel constants for radius h.
func NewKernels(h float64) Kernels {
	h2 := h * h
	h5 := h2 * h2 * h
	h8 := h5 * h2 * h
	return Kernels{
		H:     h,
		HSq:   h2,
		Poly6: 4 / (math.Pi * h8),
		Spiky: -10 / (math.Pi * h5),
		Visc:  40 / (math.Pi * h5),
	}
}

// SelfDensity is the density a lone particle contributes to itself.
func (p Params) SelfDensity() float64 {
	k := NewKernels(p.KernelRadius)
	return p.Mass * k.Poly6 * k.HSq * k.HSq * k.HSq
}
