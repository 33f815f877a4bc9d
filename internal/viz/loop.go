// SPDX-License-Identifier: MIT
package viz

import (
	"micviz/internal/analysis"
	"micviz/internal/config"
	applog "micviz/internal/log"
	"micviz/internal/transport"
)

// Frame is everything a host needs to draw one refresh: the RMS series over
// [TMin, TMax] and the latest spectrum over [0, FreqMax], both against the
// fixed [YMin, YMax] vertical range.
type Frame struct {
	Levels   []analysis.Level
	Spectrum []analysis.Bin
	TMin     float32
	TMax     float32
	YMin     float32
	YMax     float32
	FreqMax  float32
	Drained  int // Results taken from the queue by this refresh
}

// Loop is the consumer side of the capture hand-off. Each Refresh drains the
// queue, updates the scrolling envelope and the latest spectrum, and forwards
// the drained results to any sinks.
type Loop struct {
	queue    *transport.Queue[analysis.Result]
	sinks    []transport.Sink
	buffer   *DisplayBuffer
	spectrum []analysis.Bin
	latest   analysis.Result
	rejected uint64
}

// NewLoop creates a presentation loop reading from queue.
func NewLoop(queue *transport.Queue[analysis.Result], sinks ...transport.Sink) *Loop {
	return &Loop{
		queue:  queue,
		sinks:  sinks,
		buffer: NewDisplayBuffer(queue.Cap()),
	}
}

// Refresh runs one presentation step. It never waits for new data; an empty
// queue yields a frame built from the state of the previous refresh.
func (l *Loop) Refresh() Frame {
	drained := l.queue.Drain(l.accept)

	var tMax float32
	if latest, ok := l.buffer.Latest(); ok {
		tMax = latest.Time
	}
	tMin := tMax - config.WindowDuration
	l.buffer.Evict(tMin)

	return Frame{
		Levels:   l.buffer.Points(),
		Spectrum: l.spectrum,
		TMin:     tMin,
		TMax:     tMax,
		YMin:     0,
		YMax:     config.YMax,
		FreqMax:  config.MaxFreq,
		Drained:  drained,
	}
}

func (l *Loop) accept(r analysis.Result) {
	if !l.buffer.Append(r.Level()) {
		l.rejected++
		applog.Debugf("Presentation: Ignoring out-of-order result at t=%.4f", r.Timestamp)
	}
	// Spectra are never accumulated; only the newest one is drawn.
	l.spectrum = r.Spectrum
	l.latest = r

	for _, s := range l.sinks {
		if err := s.Publish(r); err != nil {
			applog.Warnf("Presentation: Sink publish failed: %v", err)
		}
	}
}

// Latest returns the most recent result drained from the queue.
func (l *Loop) Latest() analysis.Result { return l.latest }

// Buffer returns the display buffer owned by the loop.
func (l *Loop) Buffer() *DisplayBuffer { return l.buffer }

// Rejected returns how many drained results were not appended because their
// timestamp did not advance.
func (l *Loop) Rejected() uint64 { return l.rejected }

// Dropped returns how many results the queue discarded on overflow.
func (l *Loop) Dropped() uint64 { return l.queue.Dropped() }

// Close closes every sink, logging failures.
func (l *Loop) Close() {
	for _, s := range l.sinks {
		if err := s.Close(); err != nil {
			applog.Warnf("Presentation: Sink close failed: %v", err)
		}
	}
}
