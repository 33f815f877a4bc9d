// SPDX-License-Identifier: MIT
package tui

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

func TestCanvasSet(t *testing.T) {
	c := NewCanvas(2, 1)

	tests := []struct {
		x, y int
		want rune
	}{
		{0, 0, '⠁'},
		{1, 0, '⠉'},
		{0, 3, '⡉'},
		{1, 3, '⣉'},
	}
	for _, tt := range tests {
		c.Set(tt.x, tt.y, 0)
		if got, _ := c.Rune(0, 0); got != tt.want {
			t.Errorf("after Set(%d, %d) cell = %q, want %q", tt.x, tt.y, got, tt.want)
		}
	}

	// Out of range dots are ignored.
	c.Set(-1, 0, 0)
	c.Set(4, 0, 0)
	c.Set(0, 4, 0)
	if got, s := c.Rune(1, 0); got != brailleBase || s != -1 {
		t.Errorf("second cell = %q (series %d), want empty", got, s)
	}
}

func TestCanvasLine(t *testing.T) {
	c := NewCanvas(4, 1) // 8 x 4 dots
	c.Line(0, 3, 7, 3, 1)

	for col := range 4 {
		r, s := c.Rune(col, 0)
		if r != '⣀' || s != 1 {
			t.Errorf("cell %d = %q (series %d), want bottom row of series 1", col, r, s)
		}
	}
}

func TestCanvasPlotMapsRanges(t *testing.T) {
	c := NewCanvas(10, 5) // 20 x 20 dots
	xs := []float64{0, 10}
	ys := []float64{0, 1}
	c.Plot(0, 2, func(i int) (float64, float64) { return xs[i], ys[i] }, Range{0, 10}, Range{0, 1})

	if r, _ := c.Rune(0, 4); r&0x40 == 0 {
		t.Errorf("bottom-left dot not set: %q", r)
	}
	if r, _ := c.Rune(9, 0); r&0x08 == 0 {
		t.Errorf("top-right dot not set: %q", r)
	}
}

func TestCanvasPlotClampsY(t *testing.T) {
	c := NewCanvas(1, 1)
	c.Plot(0, 1, func(int) (float64, float64) { return 0, 5 }, Range{0, 1}, Range{0, 0.3})

	if r, _ := c.Rune(0, 0); r != '⠁' {
		t.Errorf("clamped point = %q, want top-left dot", r)
	}
}

func TestCanvasPlotDegenerateRanges(t *testing.T) {
	c := NewCanvas(4, 2)
	point := func(int) (float64, float64) { return 1, 1 }
	c.Plot(0, 3, point, Range{1, 1}, Range{0, 1})
	c.Plot(0, 3, point, Range{0, 2}, Range{0, 0})
	c.Plot(0, 0, point, Range{0, 2}, Range{0, 1})

	for _, line := range c.Render(nil) {
		if strings.TrimSpace(line) != "" {
			t.Fatalf("degenerate plot drew %q", line)
		}
	}
}

func TestCanvasLastSeriesOwnsCell(t *testing.T) {
	c := NewCanvas(1, 1)
	c.Set(0, 0, 0)
	c.Set(1, 1, 1)
	if _, s := c.Rune(0, 0); s != 1 {
		t.Errorf("cell series = %d, want 1", s)
	}
}

func TestCanvasRender(t *testing.T) {
	c := NewCanvas(6, 2)
	c.Set(0, 0, 0)
	c.Set(11, 7, 1)

	lines := c.Render([]lipgloss.Style{lipgloss.NewStyle(), lipgloss.NewStyle()})
	if len(lines) != 2 {
		t.Fatalf("Render returned %d lines, want 2", len(lines))
	}
	for i, line := range lines {
		if w := lipgloss.Width(line); w != 6 {
			t.Errorf("line %d width = %d, want 6", i, w)
		}
	}
	if !strings.HasPrefix(lines[0], "⠁") || !strings.HasSuffix(lines[1], "⢀") {
		t.Errorf("rendered %q", lines)
	}
	if n := utf8.RuneCountInString(lines[0]); n != 6 {
		t.Errorf("unstyled line has %d runes, want 6", n)
	}
}

func TestCanvasResize(t *testing.T) {
	c := NewCanvas(2, 2)
	c.Set(0, 0, 0)
	c.Resize(3, 1)

	if c.Width() != 6 || c.Height() != 4 {
		t.Errorf("size = %dx%d dots, want 6x4", c.Width(), c.Height())
	}
	if r, s := c.Rune(0, 0); r != brailleBase || s != -1 {
		t.Error("Resize did not clear the canvas")
	}

	c.Resize(0, -3)
	if c.Width() != 2 || c.Height() != 4 {
		t.Errorf("minimum size = %dx%d dots, want 2x4", c.Width(), c.Height())
	}
}
