// SPDX-License-Identifier: MIT
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Each terminal cell is a 2x4 grid of braille dots.
const (
	cellWidth   = 2
	cellHeight  = 4
	brailleBase = 0x2800
)

// brailleDots maps (x, y) within a cell to its dot bit.
var brailleDots = [cellWidth][cellHeight]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

// Range is a closed interval on one plot axis.
type Range struct {
	Min, Max float64
}

func (r Range) span() float64 { return r.Max - r.Min }

// Canvas is a fixed-size braille dot matrix. Every series is drawn against
// its own axis ranges, so curves with different x units can share the plot.
// Where series overlap, the one drawn last owns the cell color.
type Canvas struct {
	cols, rows int
	dots       []uint8
	series     []int8
}

// NewCanvas creates a canvas of cols x rows terminal cells.
func NewCanvas(cols, rows int) *Canvas {
	c := &Canvas{}
	c.Resize(cols, rows)
	return c
}

// Resize changes the canvas size and clears it.
func (c *Canvas) Resize(cols, rows int) {
	c.cols, c.rows = max(cols, 1), max(rows, 1)
	n := c.cols * c.rows
	if cap(c.dots) < n {
		c.dots = make([]uint8, n)
		c.series = make([]int8, n)
	}
	c.dots = c.dots[:n]
	c.series = c.series[:n]
	c.Clear()
}

// Clear removes every dot.
func (c *Canvas) Clear() {
	clear(c.dots)
	for i := range c.series {
		c.series[i] = -1
	}
}

// Width and Height return the dot resolution.
func (c *Canvas) Width() int  { return c.cols * cellWidth }
func (c *Canvas) Height() int { return c.rows * cellHeight }

// Set lights the dot at (x, y), with y = 0 at the top. Dots outside the
// canvas are ignored.
func (c *Canvas) Set(x, y, series int) {
	if x < 0 || y < 0 || x >= c.Width() || y >= c.Height() {
		return
	}
	i := (y/cellHeight)*c.cols + x/cellWidth
	c.dots[i] |= brailleDots[x%cellWidth][y%cellHeight]
	c.series[i] = int8(series)
}

// Line draws a straight segment between two dots.
func (c *Canvas) Line(x0, y0, x1, y1, series int) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		c.Set(x0, y0, series)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// Plot draws n points as a connected line. Values are mapped linearly from
// the x and y ranges onto the canvas; y values beyond the range are clamped
// to the edge.
func (c *Canvas) Plot(series, n int, point func(i int) (x, y float64), xr, yr Range) {
	if n == 0 || xr.span() <= 0 || yr.span() <= 0 {
		return
	}
	w, h := float64(c.Width()-1), float64(c.Height()-1)
	toDot := func(x, y float64) (int, int) {
		y = min(max(y, yr.Min), yr.Max)
		px := (x - xr.Min) / xr.span() * w
		py := h - (y-yr.Min)/yr.span()*h
		return int(px + 0.5), int(py + 0.5)
	}

	px, py := toDot(point(0))
	if n == 1 {
		c.Set(px, py, series)
		return
	}
	for i := 1; i < n; i++ {
		qx, qy := toDot(point(i))
		c.Line(px, py, qx, qy, series)
		px, py = qx, qy
	}
}

// Rune returns the braille character of the cell at (col, row) and the
// series that owns it, -1 for an empty cell.
func (c *Canvas) Rune(col, row int) (rune, int) {
	i := row*c.cols + col
	return rune(brailleBase + int(c.dots[i])), int(c.series[i])
}

// Render returns the canvas as rows of text, coloring each cell with the
// style of its series. Empty cells are spaces.
func (c *Canvas) Render(styles []lipgloss.Style) []string {
	lines := make([]string, c.rows)
	var line, run strings.Builder
	for row := range c.rows {
		line.Reset()
		runSeries := -1
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if runSeries >= 0 && runSeries < len(styles) {
				line.WriteString(styles[runSeries].Render(run.String()))
			} else {
				line.WriteString(run.String())
			}
			run.Reset()
		}
		for col := range c.cols {
			r, s := c.Rune(col, row)
			if s != runSeries {
				flush()
				runSeries = s
			}
			if s < 0 {
				run.WriteByte(' ')
			} else {
				run.WriteRune(r)
			}
		}
		flush()
		lines[row] = line.String()
	}
	return lines
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
