// SPDX-License-Identifier: MIT
/*
Package audio feeds interleaved samples into an analysis.Analyzer.

Sources:
  - MicSource captures live input through PortAudio
  - WAVSource replays a 16-bit PCM WAV file
  - PCMSource reads raw little-endian PCM from any reader

Every source reports its negotiated Format before Run so the analyzer can
be built for it, then pushes buffers until the input ends or ctx is done.
*/
package audio

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"micviz/internal/analysis"
	"micviz/internal/config"
)

// Source produces audio for one Analyzer.
type Source interface {
	// Format returns the sample rate, channel count and sample type Run
	// delivers.
	Format() analysis.Format
	// Run blocks until the input is exhausted or ctx is done. Cancellation
	// is a normal stop and returns nil.
	Run(ctx context.Context, a *analysis.Analyzer) error
	// Close releases the underlying input. It is safe to call before Run,
	// after Run, or more than once.
	io.Closer
}

// NewSource opens the input selected by cfg.
func NewSource(cfg config.AudioConfig) (Source, error) {
	switch cfg.Input {
	case config.InputMic, "":
		return NewMicSource(cfg)
	case config.InputWAV:
		return OpenWAV(cfg.Path, cfg.FramesPerBuffer, cfg.Realtime)
	case config.InputPCM:
		return openPCM(cfg)
	default:
		return nil, fmt.Errorf("unknown input %q", cfg.Input)
	}
}

func openPCM(cfg config.AudioConfig) (Source, error) {
	var format analysis.Format
	if cfg.MIMEType != "" {
		f, err := ParseMIME(cfg.MIMEType)
		if err != nil {
			return nil, err
		}
		format = f
	} else {
		sample, err := analysis.ParseSampleFormat(cfg.SampleFormat)
		if err != nil {
			return nil, err
		}
		format = analysis.Format{
			SampleRate: cfg.SampleRate,
			Channels:   cfg.Channels,
			Sample:     sample,
		}
	}

	var r io.ReadCloser = os.Stdin
	if cfg.Path != "" && cfg.Path != "-" {
		f, err := os.Open(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open PCM input: %w", err)
		}
		r = f
	}
	src, err := NewPCMSource(r, format, cfg.FramesPerBuffer, cfg.Realtime)
	if err != nil {
		r.Close()
		return nil, err
	}
	return src, nil
}

// pacer sleeps so that frames are delivered no faster than real time.
type pacer struct {
	start      time.Time
	sampleRate float64
	enabled    bool
}

func newPacer(sampleRate float64, enabled bool) *pacer {
	return &pacer{start: time.Now(), sampleRate: sampleRate, enabled: enabled}
}

// wait blocks until frames worth of audio would have been captured, or ctx
// is done. It reports false when ctx ended the wait.
func (p *pacer) wait(ctx context.Context, frames uint64) bool {
	if !p.enabled {
		return ctx.Err() == nil
	}
	due := p.start.Add(time.Duration(float64(frames) / p.sampleRate * float64(time.Second)))
	d := time.Until(due)
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
