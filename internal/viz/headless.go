// SPDX-License-Identifier: MIT
package viz

import (
	"context"
	"time"

	applog "micviz/internal/log"
)

// RunHeadless refreshes loop every refresh interval without drawing and logs
// a summary every report interval. It returns when ctx is done.
func RunHeadless(ctx context.Context, loop *Loop, refresh, report time.Duration) error {
	if refresh <= 0 {
		refresh = 16 * time.Millisecond
	}
	refreshTicker := time.NewTicker(refresh)
	defer refreshTicker.Stop()

	var reportC <-chan time.Time
	if report > 0 {
		reportTicker := time.NewTicker(report)
		defer reportTicker.Stop()
		reportC = reportTicker.C
	}

	applog.Infof("Presentation: Headless loop started (refresh %s, report %s)", refresh, report)
	var last Frame
	for {
		select {
		case <-ctx.Done():
			applog.Infof("Presentation: Headless loop stopped")
			return nil
		case <-refreshTicker.C:
			last = loop.Refresh()
		case <-reportC:
			logReport(loop, last)
		}
	}
}

func logReport(loop *Loop, f Frame) {
	latest := loop.Latest()
	peak, ok := latest.Peak()
	if !ok {
		applog.Infof("Presentation: Waiting for audio (dropped=%d)", loop.Dropped())
		return
	}
	applog.Infof("Presentation: t=%.2fs rms=%.4f peak=%.0fHz (%.4f) points=%d dropped=%d rejected=%d",
		f.TMax, latest.RMS, peak.Frequency, peak.Magnitude, len(f.Levels), loop.Dropped(), loop.Rejected())
}
