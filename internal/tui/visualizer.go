// SPDX-License-Identifier: MIT
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"micviz/internal/analysis"
	"micviz/internal/viz"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Series indices on the canvas.
const (
	seriesRMS = iota
	seriesSpectrum
)

var (
	rmsStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6"))
	spectrumStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	axisStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	quitKey = key.NewBinding(key.WithKeys("q", "ctrl+c"))
)

// Lines used by the header and footer around the plot.
const chromeLines = 4

type tickMsg time.Time

// VisualizerModel is the Bubble Tea model of the live plot. It refreshes the
// presentation loop on every tick whether or not new results arrived.
type VisualizerModel struct {
	loop     *viz.Loop
	cancel   context.CancelFunc
	interval time.Duration
	format   analysis.Format
	source   string

	canvas *Canvas
	frame  viz.Frame
	width  int
	height int
}

// NewVisualizerModel creates the model. cancel is called when the user quits.
func NewVisualizerModel(loop *viz.Loop, format analysis.Format, source string, interval time.Duration, cancel context.CancelFunc) *VisualizerModel {
	return &VisualizerModel{
		loop:     loop,
		cancel:   cancel,
		interval: interval,
		format:   format,
		source:   source,
		canvas:   NewCanvas(80, 20),
		width:    80,
		height:   20 + chromeLines,
	}
}

func (m *VisualizerModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init starts the refresh ticker.
func (m *VisualizerModel) Init() tea.Cmd {
	return m.tick()
}

// Update handles ticks, resizes and key presses.
func (m *VisualizerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.frame = m.loop.Refresh()
		return m, m.tick()

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.canvas.Resize(msg.Width, max(msg.Height-chromeLines, 1))

	case tea.KeyMsg:
		if key.Matches(msg, quitKey) {
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	}
	return m, nil
}

// View draws the header, the overlaid series and the axis footer.
func (m *VisualizerModel) View() string {
	f := m.frame
	m.canvas.Clear()

	levels := f.Levels
	m.canvas.Plot(seriesRMS, len(levels), func(i int) (float64, float64) {
		return float64(levels[i].Time), float64(levels[i].RMS)
	}, Range{float64(f.TMin), float64(f.TMax)}, Range{float64(f.YMin), float64(f.YMax)})

	bins := f.Spectrum
	m.canvas.Plot(seriesSpectrum, len(bins), func(i int) (float64, float64) {
		return float64(bins[i].Frequency), float64(bins[i].Magnitude)
	}, Range{0, float64(f.FreqMax)}, Range{float64(f.YMin), float64(f.YMax)})

	var sb strings.Builder
	sb.WriteString(m.header())
	sb.WriteString("\n\n")
	sb.WriteString(strings.Join(m.canvas.Render([]lipgloss.Style{rmsStyle, spectrumStyle}), "\n"))
	sb.WriteString("\n")
	sb.WriteString(m.axes())
	sb.WriteString("\n")
	sb.WriteString(infoStyle.Render("q: Quit"))
	return sb.String()
}

func (m *VisualizerModel) header() string {
	title := titleStyle.Render("micviz")
	latest := m.loop.Latest()
	peak, ok := latest.Peak()
	if !ok {
		return fmt.Sprintf("%s %s  waiting for audio...", title, infoStyle.Render(m.source))
	}
	return fmt.Sprintf("%s %s  %s  %s  dropped %d",
		title,
		infoStyle.Render(fmt.Sprintf("%s (%s)", m.source, m.format)),
		rmsStyle.Render(fmt.Sprintf("RMS %.4f", latest.RMS)),
		spectrumStyle.Render(fmt.Sprintf("peak %.0f Hz (%.4f)", peak.Frequency, peak.Magnitude)),
		m.loop.Dropped())
}

// axes labels both x ranges under the plot: time for the RMS curve and
// frequency for the spectrum.
func (m *VisualizerModel) axes() string {
	f := m.frame
	left := rmsStyle.Render(fmt.Sprintf("%.2fs", f.TMin)) + axisStyle.Render(" / ") + spectrumStyle.Render("0 Hz")
	right := rmsStyle.Render(fmt.Sprintf("%.2fs", f.TMax)) + axisStyle.Render(" / ") + spectrumStyle.Render(fmt.Sprintf("%.0f Hz", f.FreqMax))
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return left + strings.Repeat(" ", gap) + right
}

// RunVisualizer runs the plot until the user quits or ctx is done.
func RunVisualizer(ctx context.Context, m *VisualizerModel) error {
	p := tea.NewProgram(m, tea.WithAltScreen())

	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	_, err := p.Run()
	return err
}
