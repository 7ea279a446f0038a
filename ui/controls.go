package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// MaxStepsPerUpdate bounds the speed slider.
const MaxStepsPerUpdate = 50

// ControlsState is the part of the driver state the panel can edit.
type ControlsState struct {
	Paused         bool
	StepsPerUpdate int
	DragForceScale float64
	ShowStats      bool
	ShowPerf       bool
}

// ControlsPanel renders the right-side raygui panel.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	height   int32
	visible  bool
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		height:   250,
		visible:  true,
	}
}

// SetPosition updates the panel position.
func (c *ControlsPanel) SetPosition(x, y int32) {
	c.x = x
	c.y = y
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Contains reports whether a screen point lies on the panel, so mouse drags
// over the widgets are not forwarded to the fluid.
func (c *ControlsPanel) Contains(x, y float32) bool {
	if !c.visible {
		return false
	}
	return x >= float32(c.x) && x < float32(c.x+c.width) &&
		y >= float32(c.y) && y < float32(c.y+c.height)
}

// Draw renders the panel, applies widget edits to state and reports whether
// the reset button was pressed.
func (c *ControlsPanel) Draw(state *ControlsState) (reset bool) {
	if !c.visible {
		return false
	}

	r := c.renderer
	pad := float32(r.Theme.Padding)
	r.DrawPanel(c.x, c.y, c.width, c.height)

	x := float32(c.x) + pad
	y := float32(c.y) + pad
	w := float32(c.width) - 2*pad

	rl.DrawText("Controls", int32(x), int32(y), 16, rl.White)
	y += 24

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: w/2 - 4, Height: 24}, "Reset [R]") {
		reset = true
	}
	pauseText := "Pause"
	if state.Paused {
		pauseText = "Resume"
	}
	if gui.Button(rl.Rectangle{X: x + w/2 + 4, Y: y, Width: w/2 - 4, Height: 24}, pauseText) {
		state.Paused = !state.Paused
	}
	y += 34

	r.DrawLabelValue(int32(x), int32(y), "Steps/frame", fmt.Sprintf("%d", state.StepsPerUpdate))
	y += 16
	steps := gui.SliderBar(
		rl.Rectangle{X: x, Y: y, Width: w, Height: 16},
		"", "",
		float32(state.StepsPerUpdate), 1, MaxStepsPerUpdate,
	)
	state.StepsPerUpdate = max(1, min(MaxStepsPerUpdate, int(steps+0.5)))
	y += 26

	r.DrawLabelValue(int32(x), int32(y), "Drag force", fmt.Sprintf("%.0f", state.DragForceScale))
	y += 16
	state.DragForceScale = float64(gui.SliderBar(
		rl.Rectangle{X: x, Y: y, Width: w, Height: 16},
		"", "",
		float32(state.DragForceScale), 0, 20000,
	))
	y += 26

	state.ShowStats = gui.CheckBox(rl.Rectangle{X: x, Y: y, Width: 16, Height: 16}, "Fluid stats", state.ShowStats)
	y += 24
	state.ShowPerf = gui.CheckBox(rl.Rectangle{X: x, Y: y, Width: 16, Height: 16}, "Step timing", state.ShowPerf)
	y += 24

	c.height = int32(y-float32(c.y)) + r.Theme.Padding
	return reset
}
