package game

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/sphfluid/ui"
)

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	if rl.IsKeyPressed(rl.KeyR) {
		g.Reset()
		g.paused = false
	}

	if rl.IsKeyPressed(rl.KeySpace) && g.err == nil {
		g.paused = !g.paused
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) {
		g.SetStepsPerUpdate(g.stepsPerUpdate - 1)
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && g.stepsPerUpdate < ui.MaxStepsPerUpdate {
		g.SetStepsPerUpdate(g.stepsPerUpdate + 1)
	}

	if rl.IsKeyPressed(rl.KeyS) {
		if _, err := g.SaveSnapshot(nil); err != nil {
			slog.Error("failed to save snapshot", "error", err)
		}
	}

	if rl.IsKeyPressed(rl.KeyTab) {
		g.controlsPanel.Toggle()
	}

	g.handleDrag()
}

// handleDrag forwards left-button mouse movement to the solver.
func (g *Game) handleDrag() {
	mouse := rl.GetMousePosition()
	if !rl.IsMouseButtonDown(rl.MouseButtonLeft) {
		g.dragging = false
		return
	}
	// A drag that starts on the panel belongs to the widgets
	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) && g.controlsPanel.Contains(mouse.X, mouse.Y) {
		g.dragging = false
		return
	}
	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		g.dragging = true
	}
	if !g.dragging {
		return
	}

	delta := rl.GetMouseDelta()
	g.Drag(
		r2.Vec{X: float64(mouse.X), Y: float64(mouse.Y)},
		r2.Vec{X: float64(delta.X), Y: float64(delta.Y)},
	)
}
