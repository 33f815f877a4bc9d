// SPDX-License-Identifier: MIT
package audio

import (
	"context"
	"fmt"
	"os"
	"sync"

	"micviz/internal/analysis"
	applog "micviz/internal/log"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavFormatPCM = 1

// WAVSource replays a 16-bit PCM WAV file, optionally paced at its own
// sample rate so the display scrolls as if it were live.
type WAVSource struct {
	file     *os.File
	decoder  *wav.Decoder
	format   analysis.Format
	realtime bool

	buf     *audio.IntBuffer // Reusable decode buffer
	samples []int16

	closeOnce sync.Once
	closeErr  error
}

// OpenWAV opens path and reads its header.
func OpenWAV(path string, framesPerBuffer int, realtime bool) (*WAVSource, error) {
	if framesPerBuffer <= 0 {
		return nil, fmt.Errorf("frames per buffer must be positive, got %d", framesPerBuffer)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAV file: %w", err)
	}

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("%w: %s is not a valid WAV file", analysis.ErrUnsupportedFormat, path)
	}
	if d.WavAudioFormat != wavFormatPCM || d.BitDepth != 16 {
		f.Close()
		return nil, fmt.Errorf("%w: WAV format %d with %d-bit samples, want 16-bit PCM",
			analysis.ErrUnsupportedFormat, d.WavAudioFormat, d.BitDepth)
	}

	format := analysis.Format{
		SampleRate: float64(d.SampleRate),
		Channels:   int(d.NumChans),
		Sample:     analysis.I16,
	}
	if err := format.Validate(); err != nil {
		f.Close()
		return nil, err
	}

	samples := framesPerBuffer * format.Channels
	return &WAVSource{
		file:     f,
		decoder:  d,
		format:   format,
		realtime: realtime,
		buf: &audio.IntBuffer{
			Data: make([]int, samples),
			Format: &audio.Format{
				NumChannels: format.Channels,
				SampleRate:  int(d.SampleRate),
			},
			SourceBitDepth: 16,
		},
		samples: make([]int16, samples),
	}, nil
}

// Format implements Source.
func (s *WAVSource) Format() analysis.Format { return s.format }

// Close implements Source.
func (s *WAVSource) Close() error {
	s.closeOnce.Do(func() { s.closeErr = s.file.Close() })
	return s.closeErr
}

// Run implements Source.
func (s *WAVSource) Run(ctx context.Context, a *analysis.Analyzer) error {
	defer s.Close()

	applog.Infof("WAVSource: Replaying %s (%s)", s.file.Name(), s.format)
	pace := newPacer(s.format.SampleRate, s.realtime)
	var frames uint64

	for {
		n, err := s.decoder.PCMBuffer(s.buf)
		if err != nil {
			return fmt.Errorf("failed to decode WAV data: %w", err)
		}
		if n == 0 {
			applog.Infof("WAVSource: End of file after %d frames", frames)
			return nil
		}

		for i, v := range s.buf.Data[:n] {
			s.samples[i] = int16(v)
		}
		a.ProcessI16(s.samples[:n])
		frames += uint64(n / s.format.Channels)

		if !pace.wait(ctx, frames) {
			return nil
		}
	}
}
