package game

import (
	"log/slog"

	"github.com/pthm-cable/sphfluid/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and publishes it.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	g.particles = g.solver.ParticlesInto(g.particles)
	stats := g.collector.Flush(g.tick, g.particles, g.cfg.Fluid.Mass)
	perfStats := g.perfCollector.Stats()

	g.lastStats = stats
	g.haveStats = true

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	for _, bm := range g.bookmarks.Check(stats) {
		g.recordBookmark(bm)
	}

	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}
}

// recordBookmark logs a bookmark, appends it to bookmarks.csv and saves a snapshot.
func (g *Game) recordBookmark(bm telemetry.Bookmark) {
	if g.logStats {
		bm.LogBookmark()
	}
	if err := g.outputManager.WriteBookmark(bm); err != nil {
		slog.Error("failed to write bookmark", "error", err)
	}
	if g.snapshotDir == "" {
		return
	}
	if _, err := g.SaveSnapshot(&bm); err != nil {
		slog.Error("failed to save bookmark snapshot", "type", string(bm.Type), "error", err)
	}
}
