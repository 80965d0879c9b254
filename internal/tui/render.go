package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"codeberg.org/portfolio/presence/internal/presence"
	"codeberg.org/portfolio/presence/internal/ripple"
)

// one terminal cell of the canvas
type glyph struct {
	ch    string
	style lipgloss.Style
}

var background = colorful.Color{}

// draws the grid, cursors and bursts
func (m *RoomModel) View(now time.Time) string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}

	canvas := make([][]glyph, m.height)
	for row := range canvas {
		canvas[row] = make([]glyph, m.width)
		for col := range canvas[row] {
			canvas[row][col] = glyph{ch: " ", style: lipgloss.NewStyle()}
		}
	}

	for _, c := range m.field.Frame(now) {
		if c.Row >= m.height || c.Col >= m.width {
			continue
		}

		canvas[c.Row][c.Col] = cellGlyph(c)
	}

	if restored := m.restoredCursor(); restored != nil {
		put(canvas, restored[0], restored[1], "◇", lipgloss.NewStyle().Foreground(colorGray))
	}

	for _, v := range m.views {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(cursorColor(v.Color)))
		if v.Opacity < 0.5 {
			style = style.Faint(true)
		}

		if v.Opacity <= 0 {
			continue
		}

		col, row := toCell(v.X), toCell(v.Y)

		arrow := "▲"
		if v.Clicking {
			arrow = "●"
		}

		put(canvas, col, row, arrow, style)

		for i, r := range []rune(v.Name) {
			put(canvas, col+2+i, row, string(r), style)
		}
	}

	for _, b := range m.bursts {
		col, row := toCell(b.x), toCell(b.y)

		for _, d := range [][2]int{{0, 0}, {-2, -1}, {2, -1}, {-3, 0}, {3, 0}, {-2, 1}, {2, 1}, {0, -2}, {0, 2}} {
			put(canvas, col+d[0], row+d[1], "✦", burstStyle)
		}
	}

	var b strings.Builder
	for row, line := range canvas {
		for _, g := range line {
			b.WriteString(g.style.Render(g.ch))
		}

		if row < len(canvas)-1 {
			b.WriteString("\n")
		}
	}

	return b.String()
}

// room, counter and connection status
func (m *RoomModel) Header() string {
	_, label := presence.Count(m.others)

	status := connectedStyle.Render(m.status)
	if !m.connected {
		status = offlineStyle.Render(m.status)
	}

	scroll := ""
	if m.scrollY > 0 {
		scroll = infoStyle.Render(fmt.Sprintf(" · scrolled %.0fpx", m.scrollY))
	}

	return headerStyle.Render(m.roomID) +
		infoStyle.Render(" · "+label+" · ") +
		status +
		scroll
}

func (m *RoomModel) restoredCursor() *[2]int {
	if m.engine == nil {
		return nil
	}

	pos := m.engine.Restored()
	if pos == nil {
		return nil
	}

	return &[2]int{toCell(pos.X), toCell(pos.Y)}
}

func cellGlyph(c ripple.Cell) glyph {
	if c.A < 0.04 {
		return glyph{ch: " ", style: lipgloss.NewStyle()}
	}

	color := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
	shade := background.BlendRgb(color, c.A).Clamped()

	ch := "·"
	if c.A > 0.35 {
		ch = "■"
	} else if c.A > 0.15 {
		ch = "▪"
	}

	return glyph{ch: ch, style: lipgloss.NewStyle().Foreground(lipgloss.Color(shade.Hex()))}
}

func cursorColor(c string) string {
	if c == "" {
		return presence.Palette[0]
	}

	return c
}

func toCell(px float64) int {
	if px < 0 {
		return -1
	}

	return int(px / cellPx)
}

func put(canvas [][]glyph, col, row int, ch string, style lipgloss.Style) {
	if row < 0 || row >= len(canvas) || col < 0 || col >= len(canvas[row]) {
		return
	}

	canvas[row][col] = glyph{ch: ch, style: style}
}
