// SPDX-License-Identifier: MIT
package audio

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"micviz/internal/analysis"
	"micviz/internal/config"
	applog "micviz/internal/log"

	"github.com/gordonklaus/portaudio"
)

// suggestedHop is offered when per-sample analysis overflows the input.
// 64 samples is still under 1.5 ms at 44.1 kHz.
const suggestedHop = 64

// MicSource captures from a PortAudio input device. PortAudio must be
// initialized for the lifetime of the source.
type MicSource struct {
	device          *portaudio.DeviceInfo
	format          analysis.Format
	latency         time.Duration
	framesPerBuffer int

	// Transient stream conditions flagged by the callback, reported from Run.
	overflows  atomic.Uint64
	underflows atomic.Uint64
}

// NewMicSource resolves the input device and negotiates the stream format:
// the configured sample rate or the device default, the configured channel
// count capped to what the device offers, and a float32 or int16 sample type.
func NewMicSource(cfg config.AudioConfig) (*MicSource, error) {
	sample, err := analysis.ParseSampleFormat(cfg.SampleFormat)
	if err != nil {
		return nil, err
	}
	if sample == analysis.U16 {
		return nil, fmt.Errorf("%w: PortAudio does not capture unsigned 16-bit samples", analysis.ErrUnsupportedFormat)
	}

	device, err := InputDevice(cfg.InputDevice)
	if err != nil {
		return nil, err
	}

	format := negotiateFormat(cfg, device, sample)
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("device %q: %w", device.Name, err)
	}

	latency := device.DefaultHighInputLatency
	if cfg.LowLatency {
		latency = device.DefaultLowInputLatency
	}

	return &MicSource{
		device:          device,
		format:          format,
		latency:         latency,
		framesPerBuffer: cfg.FramesPerBuffer,
	}, nil
}

func negotiateFormat(cfg config.AudioConfig, device *portaudio.DeviceInfo, sample analysis.SampleFormat) analysis.Format {
	rate := cfg.SampleRate
	if rate == 0 {
		rate = device.DefaultSampleRate
	}
	channels := cfg.Channels
	if channels == 0 {
		channels = 2
	}
	channels = min(channels, device.MaxInputChannels)
	return analysis.Format{SampleRate: rate, Channels: channels, Sample: sample}
}

// Format implements Source.
func (m *MicSource) Format() analysis.Format { return m.format }

// Close implements Source. The stream itself is owned by Run.
func (m *MicSource) Close() error { return nil }

// Run implements Source. The stream callback feeds a directly; this
// goroutine only waits for ctx and reports stream conditions.
func (m *MicSource) Run(ctx context.Context, a *analysis.Analyzer) error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   m.device,
			Channels: m.format.Channels,
			Latency:  m.latency,
		},
		SampleRate:      m.format.SampleRate,
		FramesPerBuffer: m.framesPerBuffer,
	}

	var callback any
	switch m.format.Sample {
	case analysis.F32:
		callback = func(in []float32, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
			m.noteFlags(flags)
			a.ProcessF32(in)
		}
	case analysis.I16:
		callback = func(in []int16, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
			m.noteFlags(flags)
			a.ProcessI16(in)
		}
	default:
		return fmt.Errorf("%w: %s", analysis.ErrUnsupportedFormat, m.format.Sample)
	}

	stream, err := portaudio.OpenStream(params, callback)
	if err != nil {
		return fmt.Errorf("failed to open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to start input stream: %w", err)
	}
	applog.Infof("MicSource: Capturing from %q (%s, latency %s)", m.device.Name, m.format, m.latency)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	var lastOver, lastUnder uint64
	for {
		select {
		case <-ticker.C:
			over, under := m.overflows.Load(), m.underflows.Load()
			if over != lastOver || under != lastUnder {
				applog.Warnf("MicSource: %s", streamWarning(over-lastOver, under-lastUnder, a.Hop()))
				lastOver, lastUnder = over, under
			}
		case <-ctx.Done():
			applog.Infof("MicSource: Stopping capture after %d frames", a.Frames())
			if err := stream.Stop(); err != nil {
				stream.Close()
				return fmt.Errorf("failed to stop input stream: %w", err)
			}
			if err := stream.Close(); err != nil {
				return fmt.Errorf("failed to close input stream: %w", err)
			}
			return nil
		}
	}
}

// streamWarning describes one tick of stream trouble. Overflows at a hop
// of 1 usually mean per-sample analysis cannot keep up with the device.
func streamWarning(over, under uint64, hop int) string {
	msg := fmt.Sprintf("Stream reported %d input overflows, %d input underflows", over, under)
	if over > 0 && hop <= 1 {
		msg += fmt.Sprintf(" (analysing every sample; try --hop %d)", suggestedHop)
	}
	return msg
}

// noteFlags runs on the audio callback and must not block.
func (m *MicSource) noteFlags(flags portaudio.StreamCallbackFlags) {
	if flags&portaudio.InputOverflow != 0 {
		m.overflows.Add(1)
	}
	if flags&portaudio.InputUnderflow != 0 {
		m.underflows.Add(1)
	}
}
