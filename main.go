package main

import (
	"flag"
	"log/slog"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sphfluid/config"
	"github.com/pthm-cable/sphfluid/game"
	"github.com/pthm-cable/sphfluid/term"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	terminal := flag.Bool("term", false, "Render into the terminal instead of a window")
	logFile := flag.String("log-file", "sphfluid.log", "Log destination in terminal mode")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in sim seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "Jitter seed (0 = use config)")
	maxTicks := flag.Int64("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 0, "Solver steps per update call (0 = use config)")
	workers := flag.Int("workers", 0, "Solver worker goroutines (0 = use config)")
	snapshotDir := flag.String("snapshot-dir", "", "Save a snapshot at every bookmark into this directory")
	snapshotPath := flag.String("snapshot", "", "Start from a saved snapshot instead of the seeded dam")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging, text to a file under the TUI)
	if *terminal {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			slog.Error("failed to open log file", "error", err)
			os.Exit(1)
		}
		defer f.Close()
		slog.SetDefault(slog.New(slog.NewTextHandler(f, nil)))
	} else {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	opts := game.Options{
		Seed:           *seed,
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		OutputDir:      *outputDir,
		Headless:       *headless || *terminal,
		StepsPerUpdate: *stepsPerUpdate,
		Workers:        *workers,
		SnapshotDir:    *snapshotDir,
		SnapshotPath:   *snapshotPath,
	}

	switch {
	case *headless:
		runHeadless(opts, *maxTicks)
	case *terminal:
		runTerminal(opts, *maxTicks)
	default:
		rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), cfg.Screen.Title)
		defer rl.CloseWindow()
		rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

		g, err := game.NewGameWithOptions(opts)
		if err != nil {
			slog.Error("failed to start simulation", "error", err)
			return
		}
		defer g.Unload()

		for !rl.WindowShouldClose() {
			g.Update()
			g.Draw()

			if *maxTicks > 0 && g.Tick() >= *maxTicks {
				break
			}
		}
	}
}

// runHeadless steps the solver without graphics until max ticks or a halt.
func runHeadless(opts game.Options, maxTicks int64) {
	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		slog.Error("failed to start simulation", "error", err)
		os.Exit(1)
	}
	defer g.Unload()

	slog.Info("starting headless simulation",
		"particles", g.Solver().Count(),
		"max_ticks", maxTicks,
		"steps_per_update", g.StepsPerUpdate(),
	)

	for {
		g.UpdateHeadless()

		if err := g.Err(); err != nil {
			slog.Error("simulation halted", "tick", g.Tick(), "error", err)
			return
		}
		if maxTicks > 0 && g.Tick() >= maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick())
			return
		}
	}
}

// runTerminal renders the simulation into the terminal with tcell.
func runTerminal(opts game.Options, maxTicks int64) {
	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		slog.Error("failed to start simulation", "error", err)
		os.Exit(1)
	}
	defer g.Unload()

	fe, err := term.New(g)
	if err != nil {
		slog.Error("failed to open terminal", "error", err)
		return
	}
	defer fe.Close()

	fe.Run(maxTicks)
}
