// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for native sample formats other than
	// 32-bit float and 16-bit signed or unsigned integers.
	ErrUnsupportedFormat = errors.New("unsupported sample format")
	// ErrInvalidFormat is returned when a device reports zero channels or a
	// non-positive sample rate.
	ErrInvalidFormat = errors.New("invalid stream format")
)

// SampleFormat is the native representation of samples delivered by an input.
type SampleFormat int

const (
	SampleFormatUnknown SampleFormat = iota
	F32
	I16
	U16
)

// String returns the short name used in configuration.
func (f SampleFormat) String() string {
	switch f {
	case F32:
		return "f32"
	case I16:
		return "i16"
	case U16:
		return "u16"
	default:
		return "unknown"
	}
}

// ParseSampleFormat converts a configuration name (case-insensitive) to a
// SampleFormat. Little-endian aliases such as "s16le" are accepted.
func ParseSampleFormat(name string) (SampleFormat, error) {
	switch strings.ToLower(name) {
	case "f32", "f32le", "float32":
		return F32, nil
	case "i16", "s16", "s16le", "int16":
		return I16, nil
	case "u16", "u16le", "uint16":
		return U16, nil
	default:
		return SampleFormatUnknown, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// Format is the negotiated stream format of an audio input.
type Format struct {
	SampleRate float64
	Channels   int
	Sample     SampleFormat
}

// Validate rejects formats the engine cannot analyse. A zero channel count or
// sample rate would otherwise divide by zero in the downmix and bin labelling.
func (f Format) Validate() error {
	if f.Channels <= 0 {
		return fmt.Errorf("%w: channel count %d", ErrInvalidFormat, f.Channels)
	}
	if !(f.SampleRate > 0) || math.IsInf(f.SampleRate, 0) {
		return fmt.Errorf("%w: sample rate %v", ErrInvalidFormat, f.SampleRate)
	}
	switch f.Sample {
	case F32, I16, U16:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, f.Sample)
	}
}

func (f Format) String() string {
	return fmt.Sprintf("%.0f Hz, %d ch, %s", f.SampleRate, f.Channels, f.Sample)
}

// F32ToFloat widens a float sample, which is already in [-1, 1].
func F32ToFloat(v float32) float64 {
	return float64(v)
}

// I16ToFloat normalises a signed 16-bit sample to [-1, 1).
func I16ToFloat(v int16) float64 {
	return float64(v) / 32768
}

// U16ToFloat normalises an unsigned 16-bit sample (midpoint 32768) to [-1, 1).
func U16ToFloat(v uint16) float64 {
	return (float64(v) - 32768) / 32768
}
