// Package renderer provides density colouring and particle drawing.
package renderer

import (
	"fmt"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// DensityRamp maps particle density onto a two-colour gradient blended in Lab space.
type DensityRamp struct {
	low, high   colorful.Color
	dLow, dHigh float64
}

// NewDensityRamp parses the end colours as hex strings ("#rrggbb").
// Densities at or below dLow map to low, at or above dHigh to high.
func NewDensityRamp(lowHex, highHex string, dLow, dHigh float64) (DensityRamp, error) {
	low, err := colorful.Hex(lowHex)
	if err != nil {
		return DensityRamp{}, fmt.Errorf("parsing low colour: %w", err)
	}
	high, err := colorful.Hex(highHex)
	if err != nil {
		return DensityRamp{}, fmt.Errorf("parsing high colour: %w", err)
	}
	if dHigh <= dLow {
		dHigh = dLow + 1
	}
	return DensityRamp{low: low, high: high, dLow: dLow, dHigh: dHigh}, nil
}

// At returns the colour for density.
func (r DensityRamp) At(density float64) colorful.Color {
	t := (density - r.dLow) / (r.dHigh - r.dLow)
	if t < 0 || math.IsNaN(t) {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return r.low.BlendLab(r.high, t).Clamped()
}

// RGB255 returns the colour for density as 8-bit channels.
func (r DensityRamp) RGB255(density float64) (uint8, uint8, uint8) {
	return r.At(density).RGB255()
}
