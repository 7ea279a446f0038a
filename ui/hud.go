package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sphfluid/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title     string
	Particles int
	Tick      int64
	SimTime   float64
	Speed     int
	FPS       int32
	Paused    bool
	Halted    bool
	Dragging  bool
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Particles: %d | Tick: %d | t=%.3fs", data.Particles, data.Tick, data.SimTime),
		10, 35, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Speed: %dx | FPS: %d", data.Speed, data.FPS),
		10, 55, 16, rl.LightGray,
	)

	status, color := "Running", rl.Green
	switch {
	case data.Halted:
		status, color = "HALTED (non-finite state)", rl.Red
	case data.Paused:
		status, color = "PAUSED", rl.Yellow
	case data.Dragging:
		status = "Dragging"
	}
	rl.DrawText(status, 10, 75, 16, color)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenWidth, screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders the per-phase step timing.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x, y := p.x, p.y

	rl.DrawText("Step Performance", x, y, 16, rl.White)
	y += 20
	rl.DrawText(fmt.Sprintf("Avg tick: %dus (%.0f/s)", stats.AvgTickDuration.Microseconds(), stats.TicksPerSecond), x, y, 14, rl.Yellow)
	y += 16

	for _, phase := range telemetry.Phases {
		pct, ok := stats.PhasePct[phase]
		if !ok {
			continue
		}
		color := rl.LightGray
		if pct > 50 {
			color = rl.Red
		} else if pct > 25 {
			color = rl.Orange
		}
		rl.DrawText(
			fmt.Sprintf("%-16s %6dus %5.1f%%", phase, stats.PhaseAvg[phase].Microseconds(), pct),
			x, y, 12, color,
		)
		y += 14
	}
}

// StatsPanel renders the most recent telemetry window as row sections.
type StatsPanel struct {
	renderer *Renderer
	sections []Section
	x, y     int32
	width    int32
}

// NewStatsPanel creates a stats panel. Density bars span [densityLow, densityHigh].
func NewStatsPanel(x, y, width int32, densityLow, densityHigh float64) *StatsPanel {
	return &StatsPanel{
		renderer: NewRenderer(),
		sections: windowStatsSections(BarRange{Min: densityLow, Max: densityHigh}),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (s *StatsPanel) SetPosition(x, y int32) {
	s.x = x
	s.y = y
}

// Draw renders the panel for stats.
func (s *StatsPanel) Draw(stats telemetry.WindowStats) {
	r := s.renderer
	height := r.Theme.Padding * 2
	for _, sec := range s.sections {
		height += r.SectionHeight(sec, stats)
	}
	r.DrawPanel(s.x, s.y, s.width, height)

	y := s.y + r.Theme.Padding
	inner := s.width - r.Theme.Padding*2
	for _, sec := range s.sections {
		y = r.DrawSection(s.x+r.Theme.Padding, y, sec, stats, inner)
	}
}

func ws(data any) telemetry.WindowStats {
	return data.(telemetry.WindowStats)
}

func windowStatsSections(density BarRange) []Section {
	return []Section{
		{
			Title: "Density",
			Rows: []Row{
				{Label: "mean", Widget: WidgetBar, Range: density, Getter: func(d any) float64 { return ws(d).DensityMean }},
				{Label: "p10", Widget: WidgetBar, Range: density, Getter: func(d any) float64 { return ws(d).DensityP10 }},
				{Label: "p90", Widget: WidgetBar, Range: density, Getter: func(d any) float64 { return ws(d).DensityP90 }},
				{Label: "pressure", Widget: WidgetText, Format: "%.1f", Getter: func(d any) float64 { return ws(d).PressureMean }},
			},
		},
		{
			Title: "Motion",
			Rows: []Row{
				{Label: "max speed", Widget: WidgetText, Format: "%.1f", Getter: func(d any) float64 { return ws(d).MaxSpeed }},
				{Label: "kinetic", Widget: WidgetText, Format: "%.4g", Getter: func(d any) float64 { return ws(d).KineticEnergy }},
				{Label: "wall hits", Widget: WidgetText, Format: "%.0f", Getter: func(d any) float64 { return float64(ws(d).BoundaryHits) }},
			},
		},
		{
			Title: "Events",
			Rows: []Row{
				{Label: "drags", Widget: WidgetText, Format: "%.0f", Getter: func(d any) float64 { return float64(ws(d).DragEvents) }},
				{
					Label: "degenerate", Widget: WidgetText, Format: "%.0f",
					Getter:  func(d any) float64 { return float64(ws(d).Degenerate) },
					Visible: func(d any) bool { return ws(d).Degenerate > 0 },
				},
			},
		},
	}
}
