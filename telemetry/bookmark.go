package telemetry

import (
	"fmt"
	"log/slog"
	"math"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkSplash       BookmarkType = "splash"        // max speed far above the rolling average
	BookmarkDensitySpike BookmarkType = "density_spike" // max density far above the rolling average
	BookmarkDegenerate   BookmarkType = "degenerate"    // first degenerate densities after a clean stretch
	BookmarkSettled      BookmarkType = "settled"       // kinetic energy flat over several windows
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `json:"type" csv:"type"`
	Tick        int64        `json:"tick" csv:"tick"`
	Description string       `json:"description" csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// Detection thresholds.
const (
	spikeFactor       = 2.0  // current / rolling average that counts as a spike
	minSplashSpeed    = 50.0 // ignore splashes slower than this
	settledWindows    = 5    // consecutive flat windows for a settled bookmark
	settledTolerance  = 0.05 // relative kinetic energy change that still counts as flat
	minHistoryWindows = 3
)

// BookmarkDetector detects notable moments in a fluid run from window stats.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	flatWindows int  // consecutive windows with flat kinetic energy
	settled     bool // settled bookmark already emitted for this stretch
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < settledWindows {
		historySize = settledWindows
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Reset forgets all history, e.g. after the fluid was re-seeded.
func (bd *BookmarkDetector) Reset() {
	bd.historyIdx = 0
	bd.historyFull = false
	bd.flatWindows = 0
	bd.settled = false
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if len(bd.getHistory()) >= minHistoryWindows {
		if b := bd.checkSplash(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkDensitySpike(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkDegenerate(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}
	if b := bd.checkSettled(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

// last returns the most recently added window.
func (bd *BookmarkDetector) last() WindowStats {
	idx := (bd.historyIdx - 1 + bd.historySize) % bd.historySize
	return bd.history[idx]
}

func (bd *BookmarkDetector) checkSplash(stats WindowStats) *Bookmark {
	var total float64
	history := bd.getHistory()
	for _, h := range history {
		total += h.MaxSpeed
	}
	avg := total / float64(len(history))
	if avg == 0 || stats.MaxSpeed < minSplashSpeed {
		return nil
	}

	if stats.MaxSpeed > avg*spikeFactor {
		return &Bookmark{
			Type:        BookmarkSplash,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Max speed %.1f is %.1fx average (%.1f)", stats.MaxSpeed, stats.MaxSpeed/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkDensitySpike(stats WindowStats) *Bookmark {
	var total float64
	history := bd.getHistory()
	for _, h := range history {
		total += h.DensityMax
	}
	avg := total / float64(len(history))
	if avg == 0 {
		return nil
	}

	if stats.DensityMax > avg*spikeFactor {
		return &Bookmark{
			Type:        BookmarkDensitySpike,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Max density %.4g is %.1fx average (%.4g)", stats.DensityMax, stats.DensityMax/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkDegenerate(stats WindowStats) *Bookmark {
	if stats.Degenerate == 0 {
		return nil
	}
	for _, h := range bd.getHistory() {
		if h.Degenerate > 0 {
			return nil
		}
	}
	return &Bookmark{
		Type:        BookmarkDegenerate,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("%d degenerate densities after %d clean windows", stats.Degenerate, len(bd.getHistory())),
	}
}

func (bd *BookmarkDetector) checkSettled(stats WindowStats) *Bookmark {
	if len(bd.getHistory()) == 0 {
		return nil
	}

	prev := bd.last().KineticEnergy
	scale := max(prev, stats.KineticEnergy)
	flat := scale == 0 || math.Abs(stats.KineticEnergy-prev)/scale < settledTolerance
	if !flat {
		bd.flatWindows = 0
		bd.settled = false
		return nil
	}

	bd.flatWindows++
	if bd.flatWindows < settledWindows || bd.settled {
		return nil
	}
	bd.settled = true
	return &Bookmark{
		Type:        BookmarkSettled,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Kinetic energy flat at %.4g for %d windows", stats.KineticEnergy, bd.flatWindows),
	}
}
