// SPDX-License-Identifier: MIT
package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"

	"micviz/internal/analysis"
	applog "micviz/internal/log"
)

// PCMSource reads raw interleaved little-endian samples from a reader.
type PCMSource struct {
	r        io.ReadCloser
	format   analysis.Format
	frames   int // Frames per read
	realtime bool

	raw []byte
	f32 []float32
	i16 []int16
	u16 []uint16

	closeOnce sync.Once
	closeErr  error
}

// NewPCMSource wraps r. r is closed when Run returns or on Close.
func NewPCMSource(r io.ReadCloser, format analysis.Format, framesPerBuffer int, realtime bool) (*PCMSource, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if framesPerBuffer <= 0 {
		return nil, fmt.Errorf("frames per buffer must be positive, got %d", framesPerBuffer)
	}

	samples := framesPerBuffer * format.Channels
	s := &PCMSource{
		r:        r,
		format:   format,
		frames:   framesPerBuffer,
		realtime: realtime,
		raw:      make([]byte, samples*bytesPerSample(format.Sample)),
	}
	switch format.Sample {
	case analysis.F32:
		s.f32 = make([]float32, samples)
	case analysis.I16:
		s.i16 = make([]int16, samples)
	case analysis.U16:
		s.u16 = make([]uint16, samples)
	}
	return s, nil
}

func bytesPerSample(f analysis.SampleFormat) int {
	if f == analysis.F32 {
		return 4
	}
	return 2
}

// Format implements Source.
func (s *PCMSource) Format() analysis.Format { return s.format }

// Close implements Source.
func (s *PCMSource) Close() error {
	s.closeOnce.Do(func() { s.closeErr = s.r.Close() })
	return s.closeErr
}

// Run implements Source. A trailing partial frame at end of input is dropped.
func (s *PCMSource) Run(ctx context.Context, a *analysis.Analyzer) error {
	defer s.Close()

	frameBytes := s.format.Channels * bytesPerSample(s.format.Sample)
	pace := newPacer(s.format.SampleRate, s.realtime)
	var frames uint64

	for {
		n, err := io.ReadFull(s.r, s.raw)
		if n >= frameBytes {
			whole := n - n%frameBytes
			s.process(a, s.raw[:whole])
			frames += uint64(whole / frameBytes)
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			applog.Infof("PCMSource: End of input after %d frames", frames)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read PCM input: %w", err)
		}
		if !pace.wait(ctx, frames) {
			return nil
		}
	}
}

func (s *PCMSource) process(a *analysis.Analyzer, raw []byte) {
	switch s.format.Sample {
	case analysis.F32:
		n := len(raw) / 4
		for i := range n {
			s.f32[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
		}
		a.ProcessF32(s.f32[:n])
	case analysis.I16:
		n := len(raw) / 2
		for i := range n {
			s.i16[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
		}
		a.ProcessI16(s.i16[:n])
	case analysis.U16:
		n := len(raw) / 2
		for i := range n {
			s.u16[i] = binary.LittleEndian.Uint16(raw[i*2:])
		}
		a.ProcessU16(s.u16[:n])
	}
}

// ParseMIME reads the rate and channel parameters of an "audio/L16" media
// type, e.g. "audio/L16; rate=44100; channels=2". Samples are taken to be
// signed 16-bit little-endian.
func ParseMIME(hdr string) (analysis.Format, error) {
	var rate, channels int64
	for i, part := range strings.Split(hdr, ";") {
		part = strings.TrimSpace(part)
		if i == 0 {
			if !strings.EqualFold(part, "audio/L16") {
				return analysis.Format{}, fmt.Errorf("%w: unrecognized MIME type %q", analysis.ErrUnsupportedFormat, part)
			}
			continue
		}
		key, value, ok := strings.Cut(strings.ToLower(part), "=")
		if !ok {
			continue
		}
		var dst *int64
		switch strings.TrimSpace(key) {
		case "rate":
			dst = &rate
		case "channels":
			dst = &channels
		default:
			continue
		}
		v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil || v < 1 {
			return analysis.Format{}, fmt.Errorf("%w: invalid %s %q", analysis.ErrInvalidFormat, key, value)
		}
		*dst = v
	}
	if rate == 0 || channels == 0 {
		return analysis.Format{}, fmt.Errorf("%w: incomplete MIME type (need rate and channels): %q", analysis.ErrInvalidFormat, hdr)
	}
	return analysis.Format{
		SampleRate: float64(rate),
		Channels:   int(channels),
		Sample:     analysis.I16,
	}, nil
}
