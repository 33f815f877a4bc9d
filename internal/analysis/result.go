// SPDX-License-Identifier: MIT
package analysis

// Bin is one spectrum point.
type Bin struct {
	Frequency float32 `json:"f"` // Hz
	Magnitude float32 `json:"m"` // |X_k| / N
}

// Level is one RMS envelope point.
type Level struct {
	Time float32 `json:"t"` // Seconds since capture start
	RMS  float32 `json:"rms"`
}

// Result is the output of one analysis step. It is created on the capture
// callback and never mutated afterwards, so it can cross goroutines freely.
type Result struct {
	Timestamp float32 `json:"t"`
	RMS       float32 `json:"rms"`
	Spectrum  []Bin   `json:"spectrum"` // Ascending frequency, bounded to [0, MaxFreq]
}

// Level returns the (timestamp, rms) point of r.
func (r Result) Level() Level {
	return Level{Time: r.Timestamp, RMS: r.RMS}
}

// Peak returns the spectrum bin with the largest magnitude and false when the
// spectrum is empty. Ties resolve to the lowest frequency.
func (r Result) Peak() (Bin, bool) {
	if len(r.Spectrum) == 0 {
		return Bin{}, false
	}
	peak := r.Spectrum[0]
	for _, b := range r.Spectrum[1:] {
		if b.Magnitude > peak.Magnitude {
			peak = b
		}
	}
	return peak, true
}
