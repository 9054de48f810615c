// Copyright 2026 The Nodeward Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time so that retry intervals, poll ticks,
// and grace periods are testable without real sleeps.
//
// Production code takes a Clock parameter (or carries one in a struct
// field) instead of calling the time package directly. Real() is the
// standard library; Fake(start) is a deterministic clock that only
// moves when a test calls Advance.
//
// A goroutine blocked on After, Sleep, or a Ticker registers a pending
// timer with the fake. Tests call WaitForTimers(n) to block until n
// timers are registered, then Advance to fire them in deadline order.
// This removes the registration/advance race without time.Sleep
// synchronization hacks.
package clock
