// Copyright 2026 The Nodeward Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync"
	"time"
)

// FakeClock is a deterministic Clock for tests. Time stands still
// until Advance moves it; pending timers fire in deadline order as the
// clock passes them. Safe for concurrent use.
type FakeClock struct {
	mu         sync.Mutex
	registered *sync.Cond
	now        time.Time
	timers     []*fakeTimer
}

// fakeTimer is one pending wait. interval == 0 means one-shot (After,
// Sleep); interval > 0 means periodic (Ticker), rescheduled after each
// fire instead of removed.
type fakeTimer struct {
	deadline time.Time
	interval time.Duration
	ch       chan time.Time
	stopped  bool
}

// Fake returns a FakeClock whose Now starts at start.
func Fake(start time.Time) *FakeClock {
	c := &FakeClock{now: start}
	c.registered = sync.NewCond(&c.mu)
	return c
}

// Now returns the fake's current time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// After registers a one-shot timer. A non-positive duration delivers
// the current time immediately without registering anything.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.now
		return ch
	}
	c.addTimer(&fakeTimer{deadline: c.now.Add(d), ch: ch})
	return ch
}

// NewTicker registers a periodic timer. Panics if d <= 0.
func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive ticker interval")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	timer := &fakeTimer{deadline: c.now.Add(d), interval: d, ch: make(chan time.Time, 1)}
	c.addTimer(timer)
	return &Ticker{
		C: timer.ch,
		stop: func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			timer.stopped = true
		},
	}
}

// Sleep blocks until Advance moves the clock past the deadline. A
// non-positive duration returns immediately.
func (c *FakeClock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	<-c.After(d)
}

// Advance moves the clock forward by d, firing every pending timer
// whose deadline falls within the window, in deadline order. Ticker
// sends are non-blocking: if a tick is already buffered the new one is
// dropped, matching the real ticker's behavior.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	target := c.now.Add(d)
	for {
		timer := c.earliest(target)
		if timer == nil {
			break
		}
		c.now = timer.deadline
		select {
		case timer.ch <- c.now:
		default:
		}
		if timer.interval > 0 {
			timer.deadline = timer.deadline.Add(timer.interval)
		} else {
			timer.stopped = true
		}
	}
	c.now = target
	c.compact()
}

// WaitForTimers blocks until at least n timers are pending. Use it to
// let a goroutine under test reach its wait point before Advance.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.pendingLocked() < n {
		c.registered.Wait()
	}
}

// PendingCount returns the number of registered, un-fired timers.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingLocked()
}

// addTimer registers a timer and wakes WaitForTimers callers. Caller
// holds mu.
func (c *FakeClock) addTimer(t *fakeTimer) {
	c.timers = append(c.timers, t)
	c.registered.Broadcast()
}

// earliest returns the pending timer with the smallest deadline not
// after target, preferring registration order on ties. Caller holds mu.
func (c *FakeClock) earliest(target time.Time) *fakeTimer {
	var found *fakeTimer
	for _, timer := range c.timers {
		if timer.stopped || timer.deadline.After(target) {
			continue
		}
		if found == nil || timer.deadline.Before(found.deadline) {
			found = timer
		}
	}
	return found
}

// compact drops stopped timers. Caller holds mu.
func (c *FakeClock) compact() {
	live := c.timers[:0]
	for _, timer := range c.timers {
		if !timer.stopped {
			live = append(live, timer)
		}
	}
	c.timers = live
}

// pendingLocked counts live timers. Caller holds mu.
func (c *FakeClock) pendingLocked() int {
	count := 0
	for _, timer := range c.timers {
		if !timer.stopped {
			count++
		}
	}
	return count
}
