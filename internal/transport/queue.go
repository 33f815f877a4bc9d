// SPDX-License-Identifier: MIT
package transport

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// OverflowPolicy selects what TrySend does when the queue is full. No policy
// ever blocks the producer.
type OverflowPolicy int

const (
	// DropNewest discards the item being sent and keeps the queued ones.
	DropNewest OverflowPolicy = iota
	// DropOldest evicts the head of the queue to make room for the new item.
	DropOldest
)

func (p OverflowPolicy) String() string {
	switch p {
	case DropNewest:
		return "drop_newest"
	case DropOldest:
		return "drop_oldest"
	default:
		return "unknown"
	}
}

// ParseOverflowPolicy converts a configuration name to a policy.
func ParseOverflowPolicy(name string) (OverflowPolicy, error) {
	switch strings.ToLower(name) {
	case "drop_newest", "newest", "":
		return DropNewest, nil
	case "drop_oldest", "oldest":
		return DropOldest, nil
	default:
		return DropNewest, fmt.Errorf("unknown overflow policy: '%s'", name)
	}
}

// Queue is a bounded FIFO between one producer on the audio callback and one
// consumer on the presentation loop. Sends and receives never block; items
// that do not fit are dropped according to the policy and counted.
type Queue[T any] struct {
	ch     chan T
	policy OverflowPolicy

	sent    atomic.Uint64
	dropped atomic.Uint64
}

// NewQueue creates a queue with room for capacity items.
func NewQueue[T any](capacity int, policy OverflowPolicy) (*Queue[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("queue capacity must be positive, got %d", capacity)
	}
	return &Queue[T]{
		ch:     make(chan T, capacity),
		policy: policy,
	}, nil
}

// TrySend enqueues v without blocking and reports whether v was accepted.
func (q *Queue[T]) TrySend(v T) bool {
	select {
	case q.ch <- v:
		q.sent.Add(1)
		return true
	default:
	}

	if q.policy == DropOldest {
		// Evict one queued item, then retry once. A concurrent consumer may
		// have taken it already, which also frees a slot.
		select {
		case <-q.ch:
			q.dropped.Add(1)
		default:
		}
		select {
		case q.ch <- v:
			q.sent.Add(1)
			return true
		default:
		}
	}

	q.dropped.Add(1)
	return false
}

// TryRecv dequeues the oldest item if one is available.
func (q *Queue[T]) TryRecv() (T, bool) {
	select {
	case v := <-q.ch:
		return v, true
	default:
		var zero T
		return zero, false
	}
}

// Drain passes every item available right now to fn, oldest first, and
// returns how many were drained. It never waits for new items.
func (q *Queue[T]) Drain(fn func(T)) int {
	n := 0
	for {
		select {
		case v := <-q.ch:
			fn(v)
			n++
		default:
			return n
		}
	}
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int { return len(q.ch) }

// Cap returns the queue capacity.
func (q *Queue[T]) Cap() int { return cap(q.ch) }

// Policy returns the overflow policy.
func (q *Queue[T]) Policy() OverflowPolicy { return q.policy }

// Sent returns the number of accepted items.
func (q *Queue[T]) Sent() uint64 { return q.sent.Load() }

// Dropped returns the number of items discarded by the overflow policy.
func (q *Queue[T]) Dropped() uint64 { return q.dropped.Load() }
