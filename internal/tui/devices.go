// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"strings"

	"micviz/internal/audio"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))
)

var (
	upKey    = key.NewBinding(key.WithKeys("up", "k"))
	downKey  = key.NewBinding(key.WithKeys("down", "j"))
	enterKey = key.NewBinding(key.WithKeys("enter"))
	backKey  = key.NewBinding(key.WithKeys("esc"))
)

// ScreenType defines which screen is currently active
type ScreenType int

const (
	ListScreen ScreenType = iota
	ConfigScreen
)

// Sample rates offered on the configuration screen besides the device default.
var commonSampleRates = []float64{8000, 16000, 22050, 44100, 48000, 96000}

type devicesMsg struct {
	devices []audio.Device
}

type errMsg struct {
	err error
}

// DeviceListModel browses host audio devices and builds the flags to capture
// from the selected one.
type DeviceListModel struct {
	devices       []audio.Device
	selectedIndex int
	viewport      viewport.Model
	ready         bool
	err           error
	activeScreen  ScreenType
	binary        string

	sampleRates     []float64
	sampleRateIndex int
}

// NewDeviceListModel creates a device browser. binary is the command name
// shown in the suggested command line.
func NewDeviceListModel(binary string) DeviceListModel {
	return DeviceListModel{
		activeScreen: ListScreen,
		binary:       binary,
	}
}

// Init loads the device list.
func (m DeviceListModel) Init() tea.Cmd {
	return fetchDevices
}

func fetchDevices() tea.Msg {
	devices, err := audio.HostDevices()
	if err != nil {
		return errMsg{err}
	}
	return devicesMsg{devices}
}

// Update handles input and updates the model
func (m DeviceListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}
		m.refresh()

	case devicesMsg:
		m.devices = msg.devices
		m.refresh()

	case errMsg:
		m.err = msg.err

	case tea.KeyMsg:
		if key.Matches(msg, quitKey) {
			return m, tea.Quit
		}
		switch m.activeScreen {
		case ListScreen:
			m.updateList(msg)
		case ConfigScreen:
			m.updateConfig(msg)
		}
		m.refresh()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *DeviceListModel) updateList(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, upKey):
		if m.selectedIndex > 0 {
			m.selectedIndex--
		}
	case key.Matches(msg, downKey):
		if m.selectedIndex < len(m.devices)-1 {
			m.selectedIndex++
		}
	case key.Matches(msg, enterKey):
		if len(m.devices) == 0 || !m.devices[m.selectedIndex].CanCapture() {
			return
		}
		m.activeScreen = ConfigScreen
		m.sampleRates, m.sampleRateIndex = sampleRateChoices(m.devices[m.selectedIndex].DefaultSampleRate)
	}
}

func (m *DeviceListModel) updateConfig(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, backKey):
		m.activeScreen = ListScreen
	case key.Matches(msg, upKey):
		if m.sampleRateIndex > 0 {
			m.sampleRateIndex--
		}
	case key.Matches(msg, downKey):
		if m.sampleRateIndex < len(m.sampleRates)-1 {
			m.sampleRateIndex++
		}
	}
}

// sampleRateChoices returns the common rates with def merged in order, and
// the index of def.
func sampleRateChoices(def float64) ([]float64, int) {
	rates := make([]float64, 0, len(commonSampleRates)+1)
	index := -1
	for _, r := range commonSampleRates {
		if index < 0 && def <= r {
			index = len(rates)
			if def < r {
				rates = append(rates, def)
			}
		}
		rates = append(rates, r)
	}
	if index < 0 {
		index = len(rates)
		rates = append(rates, def)
	}
	return rates, index
}

func (m *DeviceListModel) refresh() {
	if !m.ready {
		return
	}
	if m.activeScreen == ConfigScreen {
		m.viewport.SetContent(m.renderDeviceConfig())
		return
	}
	m.viewport.SetContent(m.renderDevices())
}

// View renders the UI
func (m DeviceListModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress q to exit.", m.err)
	}

	var title, help string
	if m.activeScreen == ListScreen {
		title = titleStyle.Render("Audio Device List")
		help = infoStyle.Render("↑/↓: Navigate • Enter: Configure input • q: Quit")
	} else {
		title = titleStyle.Render("Capture Settings")
		help = infoStyle.Render("↑/↓: Sample rate • Esc: Back • q: Quit")
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), help)
}

func (m DeviceListModel) renderDevices() string {
	if len(m.devices) == 0 {
		return "No audio devices found."
	}

	var sb strings.Builder
	for i, d := range m.devices {
		info := fmt.Sprintf("[%d] %s (%s)\n", d.ID, d.Name, d.Type())
		if d.HostAPI != "" {
			info += fmt.Sprintf("    Host API: %s\n", d.HostAPI)
		}
		info += fmt.Sprintf("    Input channels: %d, Output channels: %d\n", d.MaxInputChannels, d.MaxOutputChannels)
		info += fmt.Sprintf("    Default sample rate: %.0f Hz\n", d.DefaultSampleRate)

		switch {
		case i == m.selectedIndex:
			info = highlightStyle.Render(info)
		case !d.CanCapture():
			info = mutedStyle.Render(info)
		}
		sb.WriteString(info)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m DeviceListModel) renderDeviceConfig() string {
	d := m.devices[m.selectedIndex]

	var sb strings.Builder
	fmt.Fprintf(&sb, "Device: %s\n", d.Name)
	fmt.Fprintf(&sb, "Latency: low %.1fms, high %.1fms\n\n",
		d.LowInputLatency.Seconds()*1000, d.HighInputLatency.Seconds()*1000)
	sb.WriteString("Sample Rate:\n")

	for i, rate := range m.sampleRates {
		marker := " "
		if i == m.sampleRateIndex {
			marker = "▶"
		}
		line := fmt.Sprintf("  %s %.0f Hz", marker, rate)
		if rate == d.DefaultSampleRate {
			line += " (default)"
		}
		if i == m.sampleRateIndex {
			line = highlightStyle.Render(line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	sb.WriteString("\nRun with:\n  ")
	sb.WriteString(m.CommandLine())
	sb.WriteString("\n")
	return sb.String()
}

// CommandLine returns the visualizer invocation for the current selection.
func (m DeviceListModel) CommandLine() string {
	if len(m.devices) == 0 {
		return m.binary
	}
	d := m.devices[m.selectedIndex]
	cmd := fmt.Sprintf("%s --device %d --channels %d", m.binary, d.ID, min(d.MaxInputChannels, 2))
	if m.activeScreen == ConfigScreen && m.sampleRateIndex < len(m.sampleRates) {
		cmd += fmt.Sprintf(" --sample-rate %.0f", m.sampleRates[m.sampleRateIndex])
	}
	return cmd
}

// StartDeviceListUI launches the Bubble Tea TUI for listing devices.
// PortAudio must already be initialized.
func StartDeviceListUI(binary string) error {
	p := tea.NewProgram(
		NewDeviceListModel(binary),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
