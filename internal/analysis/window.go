// SPDX-License-Identifier: MIT
package analysis

// SampleWindow is a fixed-capacity FIFO of mono samples. Once full, every
// push evicts the oldest sample. It is owned by the capture callback and is
// not safe for concurrent use.
type SampleWindow struct {
	data  []float64
	head  int // next write position
	count int // number of valid samples
}

// NewSampleWindow creates a window holding at most capacity samples.
func NewSampleWindow(capacity int) *SampleWindow {
	if capacity <= 0 {
		capacity = 1
	}
	return &SampleWindow{data: make([]float64, capacity)}
}

// Push appends v, evicting the oldest sample when the window is full.
func (w *SampleWindow) Push(v float64) {
	w.data[w.head] = v
	w.head++
	if w.head == len(w.data) {
		w.head = 0
	}
	if w.count < len(w.data) {
		w.count++
	}
}

// Len returns the number of samples currently held.
func (w *SampleWindow) Len() int { return w.count }

// Cap returns the window capacity.
func (w *SampleWindow) Cap() int { return len(w.data) }

// Full reports whether the window holds Cap samples.
func (w *SampleWindow) Full() bool { return w.count == len(w.data) }

// CopyTo writes the held samples oldest-first into dst and returns the number
// written. It does not allocate; dst shorter than Len receives the oldest
// len(dst) samples.
func (w *SampleWindow) CopyTo(dst []float64) int {
	start := w.head - w.count
	if start < 0 {
		start += len(w.data)
	}
	n := min(w.count, len(dst))
	first := min(n, len(w.data)-start)
	copy(dst[:first], w.data[start:start+first])
	copy(dst[first:n], w.data[:n-first])
	return n
}

// Values returns a copy of the held samples, oldest first.
func (w *SampleWindow) Values() []float64 {
	out := make([]float64, w.count)
	w.CopyTo(out)
	return out
}

// Reset empties the window without releasing its storage.
func (w *SampleWindow) Reset() {
	w.head = 0
	w.count = 0
}
