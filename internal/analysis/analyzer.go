// SPDX-License-Identifier: MIT
/*
Package analysis implements the streaming signal-processing core:
- Downmix of interleaved frames to mono
- A fixed-length sliding window of the most recent samples
- RMS and a bounded-bandwidth magnitude spectrum of the full window,
  recomputed as every new sample arrives

Thread Safety:
- An Analyzer is driven by exactly one audio callback goroutine
- Window, FFT plan and scratch buffers are pre-allocated and reused
- Only immutable Result values leave the callback, through a non-blocking Emitter
*/
package analysis

import (
	"fmt"
	"math"
	"math/cmplx"
	"sync/atomic"

	"micviz/internal/config"
	"micviz/pkg/bitint"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

// Emitter receives results from the capture callback. TrySend must never
// block; it reports whether the result was accepted.
type Emitter interface {
	TrySend(r Result) bool
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(r Result) bool

// TrySend implements Emitter.
func (f EmitterFunc) TrySend(r Result) bool { return f(r) }

// Options tune an Analyzer. Zero values select the package defaults.
type Options struct {
	Size    int             // Window and FFT length, config.FFTSize if 0
	MaxFreq float64         // Spectrum cutoff in Hz, config.MaxFreq if 0
	Hop     int             // Analyse every Hop-th sample once full, 1 if 0
	Clock   Clock           // Timestamp source, a WallClock started now if nil
	Done    <-chan struct{} // Closed to stop processing between frames
}

// Analyzer turns interleaved audio frames into analysis Results.
type Analyzer struct {
	format   Format
	size     int
	hop      int
	skip     int
	binWidth float32
	binCount int // bins at or below the cutoff, fixed per format

	window *SampleWindow
	fft    *fourier.FFT
	linear []float64    // oldest-first copy of the window
	coeffs []complex128 // size/2 + 1 FFT coefficients

	clock Clock
	out   Emitter
	done  <-chan struct{}

	frames  atomic.Uint64
	emitted atomic.Uint64
}

// NewAnalyzer validates format and pre-allocates everything the callback
// path needs. out receives every computed Result.
func NewAnalyzer(format Format, out Emitter, opts Options) (*Analyzer, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("analysis: emitter cannot be nil")
	}

	size := opts.Size
	if size == 0 {
		size = config.FFTSize
	}
	if !bitint.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("analysis: window size must be a power of 2, got %d", size)
	}
	maxFreq := opts.MaxFreq
	if maxFreq == 0 {
		maxFreq = config.MaxFreq
	}
	hop := max(opts.Hop, 1)
	clock := opts.Clock
	if clock == nil {
		clock = NewWallClock()
	}

	binWidth := float32(format.SampleRate) / float32(size)
	binCount := 0
	for binCount < size && float32(binCount)*binWidth <= float32(maxFreq) {
		binCount++
	}

	return &Analyzer{
		format:   format,
		size:     size,
		hop:      hop,
		binWidth: binWidth,
		binCount: binCount,
		window:   NewSampleWindow(size),
		fft:      fourier.NewFFT(size),
		linear:   make([]float64, size),
		coeffs:   make([]complex128, size/2+1),
		clock:    clock,
		out:      out,
		done:     opts.Done,
	}, nil
}

// Format returns the stream format the analyzer was built for.
func (a *Analyzer) Format() Format { return a.format }

// BinWidth returns the spacing between spectrum bins in Hz.
func (a *Analyzer) BinWidth() float32 { return a.binWidth }

// Hop returns how many frames separate consecutive analyses once the
// window is full.
func (a *Analyzer) Hop() int { return a.hop }

// Frames returns the number of mono frames consumed so far.
func (a *Analyzer) Frames() uint64 { return a.frames.Load() }

// Emitted returns the number of results accepted by the emitter.
func (a *Analyzer) Emitted() uint64 { return a.emitted.Load() }

// Window exposes the sliding window for inspection. It must only be read
// from the goroutine that drives the analyzer.
func (a *Analyzer) Window() *SampleWindow { return a.window }

// ProcessF32 consumes interleaved 32-bit float frames. A trailing partial
// frame is ignored.
func (a *Analyzer) ProcessF32(in []float32) {
	ch := a.format.Channels
	for off := 0; off+ch <= len(in); off += ch {
		if a.stopped() {
			return
		}
		var sum float64
		for _, v := range in[off : off+ch] {
			sum += F32ToFloat(v)
		}
		a.push(sum / float64(ch))
	}
}

// ProcessI16 consumes interleaved signed 16-bit frames.
func (a *Analyzer) ProcessI16(in []int16) {
	ch := a.format.Channels
	for off := 0; off+ch <= len(in); off += ch {
		if a.stopped() {
			return
		}
		var sum float64
		for _, v := range in[off : off+ch] {
			sum += I16ToFloat(v)
		}
		a.push(sum / float64(ch))
	}
}

// ProcessU16 consumes interleaved unsigned 16-bit frames.
func (a *Analyzer) ProcessU16(in []uint16) {
	ch := a.format.Channels
	for off := 0; off+ch <= len(in); off += ch {
		if a.stopped() {
			return
		}
		var sum float64
		for _, v := range in[off : off+ch] {
			sum += U16ToFloat(v)
		}
		a.push(sum / float64(ch))
	}
}

func (a *Analyzer) stopped() bool {
	select {
	case <-a.done:
		return true
	default:
		return false
	}
}

// push adds one mono sample and, once the window is full, emits a Result
// every hop samples.
func (a *Analyzer) push(v float64) {
	a.window.Push(v)
	frames := a.frames.Add(1)
	if !a.window.Full() {
		return
	}
	if a.skip > 0 {
		a.skip--
		return
	}
	a.skip = a.hop - 1

	r := a.analyze(a.clock.Elapsed(frames))
	if a.out.TrySend(r) {
		a.emitted.Add(1)
	}
}

// analyze computes RMS and the bounded spectrum of the current window.
func (a *Analyzer) analyze(timestamp float32) Result {
	n := a.window.CopyTo(a.linear)
	rms := math.Sqrt(floats.Dot(a.linear, a.linear) / float64(n))

	a.fft.Coefficients(a.coeffs, a.linear)

	// Real input: bins past N/2 are conjugates of their mirror, so the full
	// complex spectrum is reproduced from the half spectrum.
	half := a.size / 2
	norm := float64(a.size)
	spectrum := make([]Bin, a.binCount)
	for i := range spectrum {
		k := i
		if k > half {
			k = a.size - i
		}
		spectrum[i] = Bin{
			Frequency: float32(i) * a.binWidth,
			Magnitude: float32(cmplx.Abs(a.coeffs[k]) / norm),
		}
	}

	return Result{
		Timestamp: timestamp,
		RMS:       float32(rms),
		Spectrum:  spectrum,
	}
}
