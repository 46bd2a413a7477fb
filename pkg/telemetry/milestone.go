package telemetry

import (
	"fmt"
	"time"
)

// MilestoneTracker emits a "Processed N blocks (height A-B) with K items
// in Ts" progress line every time the configured block interval is
// crossed. It holds no locks: one tracker lives inside one consumer's
// single-threaded loop.
type MilestoneTracker struct {
	interval      uint32
	lastMilestone uint32 // highest height at which a milestone last fired
	windowStart   uint32
	windowStarted bool
	windowItems   int64
	windowBegan   time.Time
}

// NewMilestoneTracker builds a tracker for the given milestone_interval.
func NewMilestoneTracker(interval uint32) *MilestoneTracker {
	if interval == 0 {
		interval = 1
	}
	return &MilestoneTracker{interval: interval, windowBegan: time.Now()}
}

// Record accounts for one processed batch spanning [fromHeight, toHeight]
// with itemCount projection rows/nodes/edges written, and reports a
// milestone message whenever toHeight crosses the next interval boundary
// since the last one fired.
func (t *MilestoneTracker) Record(fromHeight, toHeight uint32, itemCount int64) (msg string, crossed bool) {
	if !t.windowStarted {
		t.windowStart = fromHeight
		t.windowStarted = true
	}
	t.windowItems += itemCount

	nextBoundary := t.lastMilestone + t.interval
	if toHeight < nextBoundary {
		return "", false
	}

	elapsed := time.Since(t.windowBegan)
	msg = fmt.Sprintf("Processed %d blocks (height %d-%d) with %d items in %s",
		toHeight-t.windowStart+1, t.windowStart, toHeight, t.windowItems, elapsed.Round(time.Millisecond))

	t.lastMilestone = (toHeight / t.interval) * t.interval
	t.windowStart = toHeight + 1
	t.windowItems = 0
	t.windowBegan = time.Now()
	return msg, true
}
