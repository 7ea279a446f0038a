package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Renderer handles all UI drawing with consistent styling.
type Renderer struct {
	Theme Theme
}

// NewRenderer creates a renderer with the default theme.
func NewRenderer() *Renderer {
	return &Renderer{Theme: DefaultTheme()}
}

// DrawPanel draws a panel background with border.
func (r *Renderer) DrawPanel(x, y, width, height int32) {
	rl.DrawRectangle(x, y, width, height, r.Theme.PanelBg)
	rl.DrawRectangleLines(x, y, width, height, r.Theme.PanelBorder)
}

// DrawSectionHeader draws a section header and returns the new Y position.
func (r *Renderer) DrawSectionHeader(x, y int32, title string) int32 {
	rl.DrawText(title, x, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
	return y + r.Theme.LineHeight
}

// DrawLabelValue draws a label and value on the same line.
func (r *Renderer) DrawLabelValue(x, y int32, label, value string) int32 {
	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawText(value, x+r.Theme.LabelWidth, y, r.Theme.FontSize, r.Theme.ValueColor)
	return y + r.Theme.LineHeight
}

// DrawBar draws a bar filled in proportion to value within rng.
func (r *Renderer) DrawBar(x, y int32, label string, value float64, rng BarRange, width int32) int32 {
	ratio := 0.0
	if rng.Max > rng.Min {
		ratio = (value - rng.Min) / (rng.Max - rng.Min)
	}
	ratio = max(0, min(1, ratio))

	barX := x + r.Theme.LabelWidth
	barWidth := width - r.Theme.LabelWidth - 60

	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawRectangle(barX, y+2, barWidth, r.Theme.BarHeight, r.Theme.BarBg)
	rl.DrawRectangle(barX, y+2, int32(float64(barWidth)*ratio), r.Theme.BarHeight, r.Theme.BarFill)
	rl.DrawText(fmt.Sprintf("%.3g", value), barX+barWidth+5, y, r.Theme.FontSize, r.Theme.ValueColor)

	return y + r.Theme.LineHeight + 2
}

// DrawRow draws one row and returns the next Y position.
func (r *Renderer) DrawRow(x, y int32, row Row, data any, width int32) int32 {
	if row.Visible != nil && !row.Visible(data) {
		return y
	}

	switch row.Widget {
	case WidgetText:
		return r.DrawLabelValue(x, y, row.Label, rowText(row, data))
	case WidgetBar:
		value := 0.0
		if row.Getter != nil {
			value = row.Getter(data)
		}
		return r.DrawBar(x, y, row.Label, value, row.Range, width)
	case WidgetSection:
		return r.DrawSectionHeader(x, y, row.Label)
	case WidgetSpacer:
		return y + 6
	}
	return y
}

// DrawSection draws a titled group of rows.
func (r *Renderer) DrawSection(x, y int32, sec Section, data any, width int32) int32 {
	if sec.Title != "" {
		y = r.DrawSectionHeader(x, y, sec.Title)
	}
	for _, row := range sec.Rows {
		y = r.DrawRow(x, y, row, data, width)
	}
	return y + 4
}

// SectionHeight returns the height DrawSection will use for data.
func (r *Renderer) SectionHeight(sec Section, data any) int32 {
	h := int32(4)
	if sec.Title != "" {
		h += r.Theme.LineHeight
	}
	for _, row := range sec.Rows {
		if row.Visible != nil && !row.Visible(data) {
			continue
		}
		switch row.Widget {
		case WidgetBar:
			h += r.Theme.LineHeight + 2
		case WidgetSpacer:
			h += 6
		default:
			h += r.Theme.LineHeight
		}
	}
	return h
}

// rowText formats a text row, falling back to Getter with Format.
func rowText(row Row, data any) string {
	if row.TextGetter != nil {
		return row.TextGetter(data)
	}
	if row.Getter != nil {
		format := row.Format
		if format == "" {
			format = "%.3g"
		}
		return fmt.Sprintf(format, row.Getter(data))
	}
	return ""
}
