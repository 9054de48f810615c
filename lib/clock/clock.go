// Copyright 2026 The Nodeward Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock is the time surface nodeward components depend on. It covers
// exactly the operations the unit performs: reading the current time,
// one-shot waits (secret retry backoff, restart delay, shutdown
// grace), periodic ticks (certificate polling), and plain sleeps.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the then-current time
	// once d has elapsed. A non-positive d delivers immediately.
	After(d time.Duration) <-chan time.Time

	// NewTicker returns a Ticker delivering ticks every d on C.
	// Panics if d <= 0, matching time.NewTicker.
	NewTicker(d time.Duration) *Ticker

	// Sleep blocks the calling goroutine for at least d.
	Sleep(d time.Duration)
}

// Ticker delivers periodic ticks on C. C is buffered with capacity 1;
// a consumer that falls behind loses ticks rather than queueing them,
// matching time.Ticker. Stop releases the ticker; it does not close C.
type Ticker struct {
	C <-chan time.Time

	stop func()
}

// Stop turns the ticker off. No tick is delivered after Stop returns.
func (t *Ticker) Stop() { t.stop() }
