// SPDX-License-Identifier: MIT
package analysis

import "time"

// Clock stamps analysis results with seconds since capture start. frames is
// the number of frames the analyzer has consumed, including the current one.
type Clock interface {
	Elapsed(frames uint64) float32
}

// WallClock measures elapsed monotonic time from an explicit start instant.
type WallClock struct {
	Start time.Time
}

// NewWallClock starts a clock at the current instant.
func NewWallClock() *WallClock {
	return &WallClock{Start: time.Now()}
}

// Elapsed implements Clock.
func (c *WallClock) Elapsed(uint64) float32 {
	return float32(time.Since(c.Start).Seconds())
}

// SampleClock derives time from the frame count, so replayed input yields the
// same timestamps no matter how fast it is processed.
type SampleClock struct {
	SampleRate float64
}

// Elapsed implements Clock.
func (c SampleClock) Elapsed(frames uint64) float32 {
	return float32(float64(frames) / c.SampleRate)
}
