// SPDX-License-Identifier: MIT
package viz

import "micviz/internal/analysis"

// DisplayBuffer holds the RMS envelope points currently on screen, strictly
// ascending in time. It is owned by the presentation goroutine.
type DisplayBuffer struct {
	points []analysis.Level
}

// NewDisplayBuffer returns an empty buffer with room for capacity points.
func NewDisplayBuffer(capacity int) *DisplayBuffer {
	return &DisplayBuffer{points: make([]analysis.Level, 0, capacity)}
}

// Append adds p and reports whether it was kept. Points whose time does not
// advance past the latest point are rejected.
func (b *DisplayBuffer) Append(p analysis.Level) bool {
	if n := len(b.points); n > 0 && p.Time <= b.points[n-1].Time {
		return false
	}
	b.points = append(b.points, p)
	return true
}

// Evict drops every point older than tMin and returns how many were dropped.
func (b *DisplayBuffer) Evict(tMin float32) int {
	i := 0
	for i < len(b.points) && b.points[i].Time < tMin {
		i++
	}
	if i == 0 {
		return 0
	}
	// Shift in place so the backing array is reused.
	n := copy(b.points, b.points[i:])
	b.points = b.points[:n]
	return i
}

// Latest returns the newest point and false when the buffer is empty.
func (b *DisplayBuffer) Latest() (analysis.Level, bool) {
	if len(b.points) == 0 {
		return analysis.Level{}, false
	}
	return b.points[len(b.points)-1], true
}

// Points returns the buffered points oldest first. The slice is only valid
// until the next Append or Evict.
func (b *DisplayBuffer) Points() []analysis.Level { return b.points }

// Len returns the number of buffered points.
func (b *DisplayBuffer) Len() int { return len(b.points) }
