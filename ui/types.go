// Package ui draws the raylib overlay: HUD, stats and perf panels, and the
// raygui controls. Panels are built from row tables so the stats shown can
// change without touching layout code.
package ui

import rl "github.com/gen2brain/raylib-go/raylib"

// WidgetType selects how a row is drawn.
type WidgetType int

const (
	WidgetText    WidgetType = iota // Plain text with format string
	WidgetBar                       // Progress bar over Range
	WidgetSection                   // Section header
	WidgetSpacer                    // Vertical spacing
)

// BarRange is the value span a bar covers; values outside are clamped.
type BarRange struct {
	Min float64
	Max float64
}

// Row describes one line of a panel.
type Row struct {
	Label      string              // Display label
	Widget     WidgetType          // How to render
	Format     string              // Printf format for text (e.g., "%.2f")
	Range      BarRange          // Value range for bars
	Getter     func(any) float64   // Value extractor (numeric rows)
	TextGetter func(any) string    // Value extractor (text rows)
	Visible    func(any) bool      // Optional visibility check (nil = always visible)
}

// Section is a titled group of rows.
type Section struct {
	Title string
	Rows  []Row
}

// Theme holds colours and metrics shared by every panel.
type Theme struct {
	PanelBg        rl.Color
	PanelBorder    rl.Color
	SectionHeader  rl.Color
	LabelColor     rl.Color
	ValueColor     rl.Color
	BarBg          rl.Color
	BarFill        rl.Color
	Padding        int32
	LineHeight     int32
	LabelWidth     int32
	BarHeight      int32
	FontSize       int32
	HeaderFontSize int32
}

// DefaultTheme returns a dark blue theme matching the water palette.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:        rl.Color{R: 12, G: 20, B: 32, A: 215},
		PanelBorder:    rl.Color{R: 45, G: 80, B: 115, A: 255},
		SectionHeader:  rl.Color{R: 120, G: 200, B: 255, A: 255},
		LabelColor:     rl.Color{R: 170, G: 185, B: 200, A: 255},
		ValueColor:     rl.RayWhite,
		BarBg:          rl.Color{R: 30, G: 38, B: 48, A: 255},
		BarFill:        rl.Color{R: 60, G: 140, B: 220, A: 255},
		Padding:        10,
		LineHeight:     16,
		LabelWidth:     90,
		BarHeight:      12,
		FontSize:       12,
		HeaderFontSize: 14,
	}
}
