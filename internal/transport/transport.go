// Package transport carries analysis results between goroutines and out of
// the process. Queue is the bounded hand-off from the capture callback to the
// presentation loop; Sinks fan drained results out to network clients.
package transport

import "micviz/internal/analysis"

// Sink receives results drained by the presentation loop. Implementations
// must not block the caller for longer than a network write and should be
// safe for use from one goroutine at a time.
type Sink interface {
	Publish(r analysis.Result) error
	Close() error
}
