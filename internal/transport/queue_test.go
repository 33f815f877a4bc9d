// SPDX-License-Identifier: MIT
package transport

import (
	"sync"
	"testing"
	"time"
)

func TestNewQueueRejectsZeroCapacity(t *testing.T) {
	if _, err := NewQueue[int](0, DropNewest); err == nil {
		t.Error("expected error for zero capacity")
	}
}

func TestDropNewestKeepsFirstItems(t *testing.T) {
	q, err := NewQueue[int](4, DropNewest)
	if err != nil {
		t.Fatal(err)
	}

	accepted := 0
	for i := range 10 {
		if q.TrySend(i) {
			accepted++
		}
	}

	if accepted != 4 || q.Sent() != 4 {
		t.Errorf("accepted %d (Sent %d), want 4", accepted, q.Sent())
	}
	if q.Dropped() != 6 {
		t.Errorf("Dropped() = %d, want 6", q.Dropped())
	}

	var got []int
	if n := q.Drain(func(v int) { got = append(got, v) }); n != 4 {
		t.Fatalf("Drain returned %d, want 4", n)
	}
	for i, v := range got {
		if v != i {
			t.Errorf("drained[%d] = %d, want %d (FIFO prefix)", i, v, i)
		}
	}
}

func TestDropOldestKeepsLastItems(t *testing.T) {
	q, err := NewQueue[int](4, DropOldest)
	if err != nil {
		t.Fatal(err)
	}
	for i := range 10 {
		if !q.TrySend(i) {
			t.Fatalf("TrySend(%d) rejected with a single producer", i)
		}
	}

	var got []int
	q.Drain(func(v int) { got = append(got, v) })
	want := []int{6, 7, 8, 9}
	if len(got) != len(want) {
		t.Fatalf("drained %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("drained[%d] = %d, want %d (FIFO suffix)", i, got[i], want[i])
		}
	}
	if q.Dropped() != 6 {
		t.Errorf("Dropped() = %d, want 6", q.Dropped())
	}
}

func TestDrainEmptyQueue(t *testing.T) {
	q, _ := NewQueue[int](8, DropNewest)
	if n := q.Drain(func(int) { t.Fatal("fn called on empty queue") }); n != 0 {
		t.Errorf("Drain on empty queue returned %d", n)
	}
	if _, ok := q.TryRecv(); ok {
		t.Error("TryRecv on empty queue reported an item")
	}
}

func TestParseOverflowPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    OverflowPolicy
		wantErr bool
	}{
		{"drop_newest", DropNewest, false},
		{"DROP_OLDEST", DropOldest, false},
		{"", DropNewest, false},
		{"block", DropNewest, true},
	}
	for _, tt := range tests {
		got, err := ParseOverflowPolicy(tt.in)
		if got != tt.want || (err != nil) != tt.wantErr {
			t.Errorf("ParseOverflowPolicy(%q) = %s, %v", tt.in, got, err)
		}
	}
}

// TestProducerNeverBlocks floods a small queue far faster than it is drained
// and checks the producer finishes promptly with every item accounted for.
func TestProducerNeverBlocks(t *testing.T) {
	for _, policy := range []OverflowPolicy{DropNewest, DropOldest} {
		t.Run(policy.String(), func(t *testing.T) {
			const total = 200000
			q, _ := NewQueue[int](16, policy)

			var wg sync.WaitGroup
			stop := make(chan struct{})
			received := make([]int, 0, total)
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					select {
					case <-stop:
						q.Drain(func(v int) { received = append(received, v) })
						return
					default:
						q.Drain(func(v int) { received = append(received, v) })
						time.Sleep(time.Millisecond)
					}
				}
			}()

			done := make(chan struct{})
			go func() {
				for i := range total {
					q.TrySend(i)
				}
				close(done)
			}()

			select {
			case <-done:
			case <-time.After(5 * time.Second):
				t.Fatal("producer stalled")
			}
			close(stop)
			wg.Wait()

			if q.Sent()+q.Dropped() < total {
				t.Errorf("Sent %d + Dropped %d < %d", q.Sent(), q.Dropped(), total)
			}
			for i := 1; i < len(received); i++ {
				if received[i] <= received[i-1] {
					t.Fatalf("out of order delivery: %d after %d", received[i], received[i-1])
				}
			}
		})
	}
}

func TestTrySendHotPath(t *testing.T) {
	q, _ := NewQueue[int](4, DropNewest)
	for i := range 4 {
		q.TrySend(i)
	}

	allocs := testing.AllocsPerRun(100, func() {
		q.TrySend(1) // full, dropped
	})

	if allocs > 0 {
		t.Errorf("Expected zero allocations when dropping, got %.1f", allocs)
	}
}

func BenchmarkTrySendDrain(b *testing.B) {
	q, _ := NewQueue[int](2048, DropNewest)
	b.ReportAllocs()

	for b.Loop() {
		for i := range 64 {
			q.TrySend(i)
		}
		q.Drain(func(int) {})
	}
}
