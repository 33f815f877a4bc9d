// SPDX-License-Identifier: MIT
package tui

import (
	"strings"
	"testing"
	"time"

	"micviz/internal/analysis"
	"micviz/internal/transport"
	"micviz/internal/viz"

	tea "github.com/charmbracelet/bubbletea"
)

func newTestVisualizer(t *testing.T) (*VisualizerModel, *transport.Queue[analysis.Result], *bool) {
	t.Helper()
	q, err := transport.NewQueue[analysis.Result](16, transport.DropNewest)
	if err != nil {
		t.Fatal(err)
	}
	cancelled := false
	format := analysis.Format{SampleRate: 44100, Channels: 1, Sample: analysis.F32}
	m := NewVisualizerModel(viz.NewLoop(q), format, "mic", 16*time.Millisecond, func() { cancelled = true })
	return m, q, &cancelled
}

func TestVisualizerTickRefreshes(t *testing.T) {
	m, q, _ := newTestVisualizer(t)
	q.TrySend(analysis.Result{Timestamp: 0.1, RMS: 0.1, Spectrum: []analysis.Bin{{Frequency: 440, Magnitude: 0.2}}})
	q.TrySend(analysis.Result{Timestamp: 0.2, RMS: 0.2, Spectrum: []analysis.Bin{{Frequency: 880, Magnitude: 0.1}}})

	_, cmd := m.Update(tickMsg(time.Now()))
	if cmd == nil {
		t.Fatal("tick did not schedule the next tick")
	}
	if m.frame.Drained != 2 || len(m.frame.Levels) != 2 {
		t.Errorf("frame drained %d with %d levels, want 2 and 2", m.frame.Drained, len(m.frame.Levels))
	}

	// Ticks keep coming with no new data.
	_, cmd = m.Update(tickMsg(time.Now()))
	if cmd == nil || m.frame.Drained != 0 || len(m.frame.Levels) != 2 {
		t.Errorf("idle tick: cmd %v, frame %+v", cmd != nil, m.frame)
	}
}

func TestVisualizerView(t *testing.T) {
	m, q, _ := newTestVisualizer(t)
	m.Update(tea.WindowSizeMsg{Width: 60, Height: 20})

	if view := m.View(); !strings.Contains(view, "waiting for audio") {
		t.Errorf("view before data:\n%s", view)
	}

	q.TrySend(analysis.Result{Timestamp: 1, RMS: 0.05, Spectrum: []analysis.Bin{
		{Frequency: 0, Magnitude: 0.01},
		{Frequency: 1000, Magnitude: 0.25},
		{Frequency: 9000, Magnitude: 0.01},
	}})
	m.Update(tickMsg(time.Now()))
	view := m.View()

	for _, want := range []string{"RMS 0.0500", "peak 1000 Hz", "9000 Hz", "1.00s"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if lines := strings.Count(view, "\n") + 1; lines != 20 {
		t.Errorf("view has %d lines, want the window height 20", lines)
	}
}

func TestVisualizerQuitCancelsCapture(t *testing.T) {
	m, _, cancelled := newTestVisualizer(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q did not return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
	if !*cancelled {
		t.Error("quit did not cancel the capture context")
	}
}

func TestVisualizerIgnoresOtherKeys(t *testing.T) {
	m, _, cancelled := newTestVisualizer(t)
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}}); cmd != nil {
		t.Error("unexpected command for an unbound key")
	}
	if *cancelled {
		t.Error("unbound key cancelled capture")
	}
}
