package transport

import (
	"micviz/internal/analysis"
	applog "micviz/internal/log"
)

// LoggingSink implements the Sink interface by logging results at debug level.
type LoggingSink struct{}

// NewLoggingSink creates a new LoggingSink instance.
func NewLoggingSink() *LoggingSink {
	applog.Infof("Transport: Using LoggingSink")
	return &LoggingSink{}
}

// Publish logs a one-line summary of r.
func (ls *LoggingSink) Publish(r analysis.Result) error {
	if !applog.Enabled(applog.LevelDebug) {
		return nil
	}
	peak, _ := r.Peak()
	applog.Debugf("LOG_SINK: t=%.3fs rms=%.4f bins=%d peak=%.1fHz", r.Timestamp, r.RMS, len(r.Spectrum), peak.Frequency)
	return nil // Logging sink never fails to "send"
}

// Close is a no-op for LoggingSink.
func (ls *LoggingSink) Close() error {
	applog.Debugf("LOG_SINK: Close called.")
	return nil
}

// Ensure LoggingSink satisfies the interface at compile time.
var _ Sink = (*LoggingSink)(nil)
