package term

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/sphfluid/fluid"
)

// layout maps the simulation domain onto a grid of terminal cells.
// Row 0 is the top of the terminal and the top of the domain.
type layout struct {
	cols, rows int
	domain     fluid.Size
}

func newLayout(cols, rows int, domain fluid.Size) layout {
	return layout{cols: max(1, cols), rows: max(1, rows), domain: domain}
}

// cellOf returns the cell containing a simulation point, clamped to the grid.
func (l layout) cellOf(p r2.Vec) (col, row int) {
	col = int(math.Floor(p.X / l.domain.Width * float64(l.cols)))
	row = l.rows - 1 - int(math.Floor(p.Y/l.domain.Height*float64(l.rows)))
	return clampInt(col, 0, l.cols-1), clampInt(row, 0, l.rows-1)
}

// simOf returns the simulation point at the centre of a cell.
func (l layout) simOf(col, row int) r2.Vec {
	return r2.Vec{
		X: (float64(col) + 0.5) / float64(l.cols) * l.domain.Width,
		Y: (float64(l.rows-row) - 0.5) / float64(l.rows) * l.domain.Height,
	}
}

// cellSize returns the simulation extent of one cell.
func (l layout) cellSize() r2.Vec {
	return r2.Vec{
		X: l.domain.Width / float64(l.cols),
		Y: l.domain.Height / float64(l.rows),
	}
}

// cellStats accumulates particle counts and summed density per cell.
type cellStats struct {
	count   []int
	density []float64
}

func (c *cellStats) reset(n int) {
	if cap(c.count) < n {
		c.count = make([]int, n)
		c.density = make([]float64, n)
	}
	c.count = c.count[:n]
	c.density = c.density[:n]
	clear(c.count)
	clear(c.density)
}

// bin sorts particles into cells.
func (c *cellStats) bin(l layout, particles []fluid.Particle) {
	c.reset(l.cols * l.rows)
	for i := range particles {
		p := &particles[i]
		col, row := l.cellOf(p.Position())
		idx := row*l.cols + col
		c.count[idx]++
		c.density[idx] += p.Density()
	}
}

// meanDensity returns the mean density of a cell, or 0 when empty.
func (c *cellStats) meanDensity(idx int) float64 {
	if c.count[idx] == 0 {
		return 0
	}
	return c.density[idx] / float64(c.count[idx])
}

// glyphs by particle count per cell.
var glyphs = []rune{' ', '.', ':', 'o', 'O', '@'}

func glyphFor(count int) rune {
	if count >= len(glyphs) {
		return glyphs[len(glyphs)-1]
	}
	return glyphs[count]
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
