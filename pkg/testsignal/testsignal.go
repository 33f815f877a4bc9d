// Package testsignal generates deterministic signals for analysis tests.
package testsignal

import "math"

// Sine returns n samples of amplitude*sin(2*pi*frequency*t) at sampleRate.
func Sine(n int, sampleRate, frequency, amplitude float64) []float32 {
	buffer := make([]float32, n)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = float32(amplitude * math.Sin(2*math.Pi*frequency*t))
	}
	return buffer
}

// Complex returns a 440 Hz fundamental with two harmonics, peak below 1.
func Complex(n int, sampleRate float64) []float32 {
	buffer := make([]float32, n)
	for i := range buffer {
		tm := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2
		buffer[i] = float32(signal * 0.9)
	}
	return buffer
}

// Constant returns n copies of v.
func Constant(n int, v float32) []float32 {
	buffer := make([]float32, n)
	for i := range buffer {
		buffer[i] = v
	}
	return buffer
}

// Interleave zips per-channel signals of equal length into one frame-major
// buffer.
func Interleave(channels ...[]float32) []float32 {
	if len(channels) == 0 {
		return nil
	}
	frames := len(channels[0])
	out := make([]float32, 0, frames*len(channels))
	for i := range frames {
		for _, ch := range channels {
			out = append(out, ch[i])
		}
	}
	return out
}

// ToI16 scales float samples in [-1, 1] to signed 16-bit.
func ToI16(in []float32) []int16 {
	out := make([]int16, len(in))
	for i, v := range in {
		out[i] = int16(math.Round(math.Max(-1, math.Min(float64(v), 32767.0/32768)) * 32768))
	}
	return out
}

// ToU16 scales float samples in [-1, 1] to unsigned 16-bit around 32768.
func ToU16(in []float32) []uint16 {
	out := make([]uint16, len(in))
	for i, v := range in {
		out[i] = uint16(int32(ToI16([]float32{v})[0]) + 32768)
	}
	return out
}

// RMS is the reference root-mean-square of x.
func RMS(x []float32) float64 {
	if len(x) == 0 {
		return 0
	}
	var ss float64
	for _, v := range x {
		ss += float64(v) * float64(v)
	}
	return math.Sqrt(ss / float64(len(x)))
}
