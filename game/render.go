package game

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sphfluid/renderer"
	"github.com/pthm-cable/sphfluid/ui"
)

const (
	controlsHint = "Drag: stir | R: reset | Space: pause | < >: speed | Tab: panel"
	panelWidth   = 220
)

// initRendering creates the raylib-side renderers. The window must already be open.
func (g *Game) initRendering() error {
	cfg := g.cfg
	ramp, err := renderer.NewDensityRamp(
		cfg.Render.ColorLow, cfg.Render.ColorHigh,
		cfg.Derived.DensityLow, cfg.Derived.DensityHigh,
	)
	if err != nil {
		return fmt.Errorf("building density ramp: %w", err)
	}

	g.particleRenderer = renderer.NewParticleRenderer(g.solver.Viewport(), ramp, cfg.Render.PointRadius)
	g.background = renderer.ParseColor(cfg.Render.Background, rl.Black)
	g.boundsColor = rl.Color{R: 120, G: 120, B: 120, A: 255}

	w := int32(cfg.Screen.Width)
	g.hud = ui.NewHUD()
	g.controlsPanel = ui.NewControlsPanel(w-panelWidth-10, 10, panelWidth)
	g.statsPanel = ui.NewStatsPanel(w-panelWidth-10, 280, panelWidth, cfg.Derived.DensityLow, cfg.Derived.DensityHigh)
	g.perfPanel = ui.NewPerfPanel(10, 110)
	g.showStats = true
	return nil
}

// Update handles input and advances the simulation for one frame.
func (g *Game) Update() {
	g.perfCollector.RecordFrame()
	g.handleInput()
	g.stepBatch()
}

// Draw renders the fluid and the UI.
func (g *Game) Draw() {
	rl.BeginDrawing()
	defer rl.EndDrawing()

	rl.ClearBackground(g.background)

	g.particles = g.solver.ParticlesInto(g.particles)
	g.particleRenderer.DrawBounds(g.boundsColor)
	g.particleRenderer.Draw(g.particles)

	g.hud.Draw(ui.HUDData{
		Title:     g.cfg.Screen.Title,
		Particles: len(g.particles),
		Tick:      g.tick,
		SimTime:   g.SimTime(),
		Speed:     g.stepsPerUpdate,
		FPS:       rl.GetFPS(),
		Paused:    g.paused,
		Halted:    g.err != nil,
		Dragging:  g.dragging,
	})
	g.hud.DrawControls(int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight()), controlsHint)

	g.drawPanels()
}

// drawPanels renders the controls panel and the optional stats and perf panels.
func (g *Game) drawPanels() {
	state := ui.ControlsState{
		Paused:         g.paused,
		StepsPerUpdate: g.stepsPerUpdate,
		DragForceScale: g.dragScale,
		ShowStats:      g.showStats,
		ShowPerf:       g.showPerf,
	}
	if g.controlsPanel.Draw(&state) {
		g.Reset()
		state.Paused = false
	}
	if g.err == nil {
		g.paused = state.Paused
	}
	g.SetStepsPerUpdate(state.StepsPerUpdate)
	g.dragScale = state.DragForceScale
	g.showStats = state.ShowStats
	g.showPerf = state.ShowPerf

	if g.showStats && g.haveStats {
		g.statsPanel.Draw(g.lastStats)
	}
	if g.showPerf {
		g.perfPanel.Draw(g.perfCollector.Stats())
	}
}
