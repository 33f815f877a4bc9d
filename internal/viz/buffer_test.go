// SPDX-License-Identifier: MIT
package viz

import (
	"testing"

	"micviz/internal/analysis"
)

func TestDisplayBufferAppend(t *testing.T) {
	b := NewDisplayBuffer(4)

	tests := []struct {
		time float32
		want bool
	}{
		{0.1, true},
		{0.2, true},
		{0.2, false},  // equal timestamp
		{0.15, false}, // goes backwards
		{0.3, true},
	}
	for _, tt := range tests {
		if got := b.Append(analysis.Level{Time: tt.time}); got != tt.want {
			t.Errorf("Append(t=%v) = %v, want %v", tt.time, got, tt.want)
		}
	}

	if b.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", b.Len())
	}
	assertAscending(t, b.Points())
}

func TestDisplayBufferEvict(t *testing.T) {
	b := NewDisplayBuffer(8)
	for i := 1; i <= 6; i++ {
		b.Append(analysis.Level{Time: float32(i) * 0.1, RMS: float32(i)})
	}

	if n := b.Evict(0.35); n != 3 {
		t.Errorf("Evict returned %d, want 3", n)
	}
	points := b.Points()
	if len(points) != 3 || points[0].RMS != 4 {
		t.Fatalf("after Evict points = %+v", points)
	}

	if n := b.Evict(0); n != 0 {
		t.Errorf("Evict below the oldest point dropped %d", n)
	}
	if n := b.Evict(10); n != 3 || b.Len() != 0 {
		t.Errorf("Evict past the newest point: dropped %d, Len %d", n, b.Len())
	}
	if _, ok := b.Latest(); ok {
		t.Error("Latest reported a point on an empty buffer")
	}
}

func TestDisplayBufferLatest(t *testing.T) {
	b := NewDisplayBuffer(2)
	b.Append(analysis.Level{Time: 1, RMS: 0.1})
	b.Append(analysis.Level{Time: 2, RMS: 0.2})

	latest, ok := b.Latest()
	if !ok || latest.Time != 2 || latest.RMS != 0.2 {
		t.Errorf("Latest() = %+v, %v", latest, ok)
	}
}

func TestDisplayBufferEvictReusesStorage(t *testing.T) {
	b := NewDisplayBuffer(64)
	var now float32

	allocs := testing.AllocsPerRun(100, func() {
		for range 16 {
			now += 0.01
			b.Append(analysis.Level{Time: now})
		}
		b.Evict(now - 0.1)
	})

	if allocs > 0 {
		t.Errorf("Expected zero allocations in steady state, got %.1f", allocs)
	}
}

func assertAscending(t *testing.T, points []analysis.Level) {
	t.Helper()
	for i := 1; i < len(points); i++ {
		if points[i].Time <= points[i-1].Time {
			t.Fatalf("points not strictly ascending at %d: %v after %v", i, points[i].Time, points[i-1].Time)
		}
	}
}
