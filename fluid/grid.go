package fluid

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Hash primes for cell keys.
const (
	hashPrimeX int64 = 73856093
	hashPrimeY int64 = 19349663
)

// SpatialGrid buckets particle indices by cell for neighbor lookups.
// The grid is rebuilt every frame; distinct cells may share a key, so
// callers must re-check distances on everything a bucket returns.
type SpatialGrid struct {
	cellSize float64
	cells    map[int64][]int
	count    int
}

// NewSpatialGrid creates an empty grid with the given cell size.
func NewSpatialGrid(cellSize float64) *SpatialGrid {
	return &SpatialGrid{
		cellSize: cellSize,
		cells:    make(map[int64][]int, 64),
	}
}

// Clear removes all indices from the grid, keeping bucket storage for reuse.
func (g *SpatialGrid) Clear() {
	for k, b := range g.cells {
		g.cells[k] = b[:0]
	}
	g.count = 0
}

// Insert adds a particle index to the bucket of the cell containing pos.
func (g *SpatialGrid) Insert(index int, pos r2.Vec) {
	key := g.KeyOf(pos)
	g.cells[key] = append(g.cells[key], index)
	g.count++
}

// CellOf returns the integer cell coordinates containing pos.
func (g *SpatialGrid) CellOf(pos r2.Vec) (cx, cy int64) {
	return int64(math.Floor(pos.X / g.cellSize)), int64(math.Floor(pos.Y / g.cellSize))
}

// Key hashes integer cell coordinates.
func Key(cx, cy int64) int64 {
	return cx*hashPrimeX + cy*hashPrimeY
}

// KeyOf returns the key of the cell containing pos.
func (g *SpatialGrid) KeyOf(pos r2.Vec) int64 {
	return Key(g.CellOf(pos))
}

// NeighborKeys returns the keys of the 3x3 block of cells centred on the
// cell containing pos. Keys are derived from cell coordinates so they agree
// exactly with Insert.
func (g *SpatialGrid) NeighborKeys(pos r2.Vec) [9]int64 {
	var keys [9]int64
	cx, cy := g.CellOf(pos)
	n := 0
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			keys[n] = Key(cx+dx, cy+dy)
			n++
		}
	}
	return keys
}

// Bucket returns the indices stored under key. Absent keys yield nil.
// The returned slice is owned by the grid and valid until the next Clear.
func (g *SpatialGrid) Bucket(key int64) []int {
	return g.cells[key]
}

// Len returns the number of indices stored since the last Clear.
func (g *SpatialGrid) Len() int {
	return g.count
}

// Cells returns the number of non-empty buckets.
func (g *SpatialGrid) Cells() int {
	n := 0
	for _, b := range g.cells {
		if len(b) > 0 {
			n++
		}
	}
	return n
}

// CandidatesInto appends every index in the 3x3 block around pos to dst and
// returns the extended slice. Reuse dst across calls to avoid allocations.
// A bucket shared by two colliding keys of the block is appended once.
func (g *SpatialGrid) CandidatesInto(dst []int, pos r2.Vec) []int {
	keys := g.NeighborKeys(pos)
	for k, key := range keys {
		if seenBefore(keys[:k], key) {
			continue
		}
		dst = append(dst, g.cells[key]...)
	}
	return dst
}

func seenBefore(keys []int64, key int64) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
