// Package term renders the fluid into a terminal with tcell.
package term

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/sphfluid/fluid"
	"github.com/pthm-cable/sphfluid/game"
	"github.com/pthm-cable/sphfluid/renderer"
)

const frameInterval = 16 * time.Millisecond // ~60 FPS

// Frontend drives a headless game and draws it into a tcell screen.
type Frontend struct {
	screen tcell.Screen
	game   *game.Game
	ramp   renderer.DensityRamp

	width, height int
	layout        layout
	cells         cellStats
	particles     []fluid.Particle

	// Mouse drag state
	mouseDown  bool
	lastCol    int
	lastRow    int
	pxPerSim   r2.Vec // screen pixels per simulation unit, for drag force scaling
	background tcell.Color
}

// New initialises the terminal screen. Call Close to restore the terminal.
func New(g *game.Game) (*Frontend, error) {
	cfg := g.Config()
	ramp, err := renderer.NewDensityRamp(
		cfg.Render.ColorLow, cfg.Render.ColorHigh,
		cfg.Derived.DensityLow, cfg.Derived.DensityHigh,
	)
	if err != nil {
		return nil, fmt.Errorf("building density ramp: %w", err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("creating terminal screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("initialising terminal screen: %w", err)
	}
	screen.EnableMouse()
	screen.HideCursor()

	vp := g.Solver().Viewport()
	f := &Frontend{
		screen:     screen,
		game:       g,
		ramp:       ramp,
		background: tcell.ColorBlack,
		pxPerSim: r2.Vec{
			X: (vp.Window.Width / 2) / (vp.Domain.Width - 2*vp.Boundary),
			Y: (vp.Window.Height / 2) / (vp.Domain.Height - 2*vp.Boundary),
		},
	}
	f.resize()
	return f, nil
}

// Close restores the terminal.
func (f *Frontend) Close() {
	f.screen.Fini()
}

// Run steps and draws until the user quits or maxTicks (> 0) is reached.
func (f *Frontend) Run(maxTicks int64) {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	done := make(chan struct{})
	defer close(done)
	go pollEvents(f.screen, eventChan, done)

	for {
		select {
		case ev := <-eventChan:
			if !f.handleEvent(ev) {
				return
			}

		case <-ticker.C:
			f.game.UpdateHeadless()
			f.draw()
			if maxTicks > 0 && f.game.Tick() >= maxTicks {
				slog.Info("max ticks reached", "tick", f.game.Tick())
				return
			}
		}
	}
}

// pollEvents forwards screen events to out until the screen is finalised or
// done is closed.
func pollEvents(screen tcell.Screen, out chan<- tcell.Event, done <-chan struct{}) {
	for {
		ev := screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case out <- ev:
		case <-done:
			return
		}
	}
}

// resize recomputes the layout after a terminal size change.
// The bottom row is reserved for the status line.
func (f *Frontend) resize() {
	f.width, f.height = f.screen.Size()
	f.layout = newLayout(f.width, f.height-1, f.game.Config().Fluid.Domain)
}

// handleEvent processes one terminal event. Returns false to quit.
func (f *Frontend) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return false
			case 'r', 'R':
				f.game.Reset()
				f.game.SetPaused(false)
			case ' ':
				if f.game.Err() == nil {
					f.game.SetPaused(!f.game.Paused())
				}
			case ',':
				f.game.SetStepsPerUpdate(f.game.StepsPerUpdate() - 1)
			case '.':
				f.game.SetStepsPerUpdate(f.game.StepsPerUpdate() + 1)
			}
		}

	case *tcell.EventMouse:
		f.handleMouse(ev)

	case *tcell.EventResize:
		f.resize()
		f.screen.Sync()
	}
	return true
}

// handleMouse turns left-button motion into a drag force at the cell under the cursor.
func (f *Frontend) handleMouse(ev *tcell.EventMouse) {
	col, row := ev.Position()
	if ev.Buttons()&tcell.Button1 == 0 {
		f.mouseDown = false
		return
	}
	if !f.mouseDown {
		f.mouseDown = true
		f.lastCol, f.lastRow = col, row
		return
	}

	dc, dr := col-f.lastCol, row-f.lastRow
	f.lastCol, f.lastRow = col, row
	if dc == 0 && dr == 0 {
		return
	}

	cell := f.layout.cellSize()
	scale := f.game.Config().Interaction.DragForceScale
	force := r2.Vec{
		X: scale * float64(dc) * cell.X * f.pxPerSim.X,
		Y: -scale * float64(dr) * cell.Y * f.pxPerSim.Y,
	}
	f.game.DragAt(f.layout.simOf(col, row), force)
}

// draw renders particles binned per cell plus the status line.
func (f *Frontend) draw() {
	f.screen.Clear()

	f.particles = f.game.Solver().ParticlesInto(f.particles)
	f.cells.bin(f.layout, f.particles)

	for row := range f.layout.rows {
		for col := range f.layout.cols {
			idx := row*f.layout.cols + col
			n := f.cells.count[idx]
			if n == 0 {
				continue
			}
			r, g, b := f.ramp.RGB255(f.cells.meanDensity(idx))
			style := tcell.StyleDefault.
				Foreground(tcell.NewRGBColor(int32(r), int32(g), int32(b))).
				Background(f.background)
			f.screen.SetContent(col, row, glyphFor(n), nil, style)
		}
	}

	f.drawStatus()
	f.screen.Show()
}

// drawStatus writes the bottom status line.
func (f *Frontend) drawStatus() {
	status := "running"
	style := tcell.StyleDefault.Foreground(tcell.ColorGreen)
	switch {
	case f.game.Err() != nil:
		status = "HALTED"
		style = tcell.StyleDefault.Foreground(tcell.ColorRed)
	case f.game.Paused():
		status = "paused"
		style = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	}

	line := fmt.Sprintf(" %s | particles %d | tick %d | t=%.3fs | x%d | drag: stir  r: reset  space: pause  q: quit",
		status, len(f.particles), f.game.Tick(), f.game.SimTime(), f.game.StepsPerUpdate())
	row := f.height - 1
	for i, ch := range line {
		if i >= f.width {
			break
		}
		f.screen.SetContent(i, row, ch, nil, style)
	}
}
