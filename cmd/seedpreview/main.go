// Seed layout preview tool - interactive dam seeding with sliders.
// Particles are coloured by the density of the freshly seeded layout.
//
// Usage: go run ./cmd/seedpreview [-config config.yaml]
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/sphfluid/config"
	"github.com/pthm-cable/sphfluid/fluid"
	"github.com/pthm-cable/sphfluid/renderer"
)

const (
	windowWidth  = 1000
	windowHeight = 720
	previewW     = 620
	previewH     = 465
	panelWidth   = windowWidth - previewW - 30
)

// SeedParams holds the adjustable seeding parameters.
type SeedParams struct {
	Spacing   float32
	Noise     bool
	Amplitude float32
	Frequency float32
	MaxCount  int
	Seed      int64
}

func defaultSeedParams(cfg *config.Config) SeedParams {
	return SeedParams{
		Spacing:   float32(cfg.Derived.SeedSpacing),
		Noise:     cfg.Seed.Jitter == config.JitterNoise,
		Amplitude: float32(cfg.Seed.JitterAmplitude),
		Frequency: float32(cfg.Seed.NoiseFrequency),
		MaxCount:  cfg.Derived.SeedMaxCount,
		Seed:      cfg.Seed.RNGSeed,
	}
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	solver, err := fluid.NewSolver(cfg.SolverParams())
	if err != nil {
		slog.Error("failed to create solver", "error", err)
		os.Exit(1)
	}
	defer solver.Close()

	ramp, err := renderer.NewDensityRamp(cfg.Render.ColorLow, cfg.Render.ColorHigh, cfg.Derived.DensityLow, cfg.Derived.DensityHigh)
	if err != nil {
		slog.Error("failed to build colour ramp", "error", err)
		os.Exit(1)
	}

	rl.InitWindow(windowWidth, windowHeight, "Seed Layout Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	params := defaultSeedParams(cfg)
	domain := cfg.Fluid.Domain
	scale := float32(previewW) / float32(domain.Width)

	var particles []fluid.Particle
	var densities []float64
	needsRegen := true

	for !rl.WindowShouldClose() {
		if needsRegen {
			particles = reseed(solver, params, particles)
			densities = densities[:0]
			for i := range particles {
				densities = append(densities, particles[i].Density())
			}
			needsRegen = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		// Preview, y up
		rl.DrawRectangle(10, 10, previewW, previewH, rl.Black)
		for i := range particles {
			p := particles[i].Position()
			cr, cg, cb := ramp.RGB255(particles[i].Density())
			rl.DrawCircleV(
				rl.Vector2{X: 10 + float32(p.X)*scale, Y: 10 + previewH - float32(p.Y)*scale},
				max(1, float32(cfg.Fluid.KernelRadius)*scale/3),
				rl.Color{R: cr, G: cg, B: cb, A: 255},
			)
		}
		rl.DrawRectangleLines(10, 10, previewW, previewH, rl.DarkGray)

		statsY := int32(previewH + 25)
		rl.DrawText(fmt.Sprintf("Particles: %d", len(particles)), 15, statsY, 16, rl.DarkGray)
		if len(densities) > 0 {
			rl.DrawText(fmt.Sprintf("Density min: %.4g  max: %.4g  rest: %.4g",
				floats.Min(densities), floats.Max(densities), cfg.Fluid.RestDensity), 15, statsY+20, 16, rl.DarkGray)
		}

		// Control panel
		panelX := float32(previewW + 20)
		panelY := float32(10)

		rl.DrawText("Seed Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		slider := func(label, format string, value, lo, hi float32) float32 {
			rl.DrawText(label, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 18
			v := gui.SliderBar(
				rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
				"", "",
				value, lo, hi,
			)
			rl.DrawText(fmt.Sprintf(format, value), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
			panelY += 35
			return v
		}

		h := float32(cfg.Fluid.KernelRadius)
		if v := slider("Spacing (lattice step)", "%.1f", params.Spacing, h/2, 2*h); v != params.Spacing {
			params.Spacing = v
			needsRegen = true
		}
		if v := slider("Jitter amplitude", "%.2f", params.Amplitude, 0, h); v != params.Amplitude {
			params.Amplitude = v
			needsRegen = true
		}
		if v := slider("Noise frequency", "%.3f", params.Frequency, 0.001, 0.2); v != params.Frequency {
			params.Frequency = v
			needsRegen = true
		}
		if v := int(slider("Max count", "%.0f", float32(params.MaxCount), 10, 2000)); v != params.MaxCount {
			params.MaxCount = v
			needsRegen = true
		}

		noise := gui.CheckBox(rl.Rectangle{X: panelX, Y: panelY, Width: 20, Height: 20}, "Simplex noise jitter", params.Noise)
		if noise != params.Noise {
			params.Noise = noise
			needsRegen = true
		}
		panelY += 35

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Random Seed") {
			params.Seed = int64(rl.GetRandomValue(0, 99999))
			needsRegen = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			params = defaultSeedParams(cfg)
			needsRegen = true
		}
		panelY += 55

		yaml := seedYAML(params)
		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		rl.DrawText(yaml, int32(panelX), int32(panelY), 14, rl.Gray)

		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(yaml)
		}

		rl.EndDrawing()
	}
}

// reseed refills the dam and runs one density pass so the preview shows initial densities.
func reseed(solver *fluid.Solver, params SeedParams, dst []fluid.Particle) []fluid.Particle {
	var jitter fluid.JitterFunc
	if params.Noise {
		jitter = fluid.NoiseJitter(params.Seed, float64(params.Amplitude), float64(params.Frequency))
	} else {
		jitter = fluid.UniformJitter(rand.New(rand.NewSource(params.Seed)), float64(params.Amplitude))
	}

	solver.Reset()
	solver.Seed(fluid.DamBounds(solver.Params()), float64(params.Spacing), jitter, params.MaxCount)
	solver.BuildGrid()
	solver.CalculateDensities()
	return solver.ParticlesInto(dst)
}

func seedYAML(params SeedParams) string {
	kind := config.JitterUniform
	if params.Noise {
		kind = config.JitterNoise
	}
	return fmt.Sprintf("seed:\n  spacing: %.1f\n  jitter: %s\n  jitter_amplitude: %.2f\n  noise_frequency: %.3f\n  rng_seed: %d\n  max_count: %d",
		params.Spacing, kind, params.Amplitude, params.Frequency, params.Seed, params.MaxCount)
}
