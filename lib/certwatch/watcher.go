// Copyright 2026 The Nodeward Authors
// SPDX-License-Identifier: Apache-2.0

package certwatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nodeward/nodeward/lib/clock"
	"github.com/nodeward/nodeward/lib/fingerprint"
)

// Watcher polls a certificate/key pair and triggers a proxy reload
// when the pair changes. All state is owned by the goroutine running
// [Watcher.Run]; the struct is not safe for concurrent use.
type Watcher struct {
	// CertificatePath and KeyPath locate the PEM pair. They are
	// fingerprinted together so the proxy never reloads on a
	// mismatched half-rotated pair.
	CertificatePath string
	KeyPath         string

	// Interval is the polling period.
	Interval time.Duration

	// Reload triggers the proxy's zero-downtime configuration
	// reload. A failed reload is retried on the next tick.
	Reload func() error

	// Clock drives the polling ticker.
	Clock clock.Clock

	// Logger receives state transitions.
	Logger *slog.Logger

	// lastApplied is the fingerprint the proxy is known to serve.
	// Valid only once baselineSet is true.
	lastApplied fingerprint.Digest
	baselineSet bool

	// pending is a changed fingerprint seen once and awaiting a
	// confirming second observation. Valid only while pendingSet.
	pending    fingerprint.Digest
	pendingSet bool
}

// Run polls until ctx is canceled. The first check happens one
// interval after start; the proxy serves the initial pair it loaded
// itself, so there is nothing to apply before then.
func (w *Watcher) Run(ctx context.Context) error {
	if w.Interval <= 0 {
		return fmt.Errorf("certificate poll interval must be positive, got %v", w.Interval)
	}

	ticker := w.Clock.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.check()
		}
	}
}

// check performs one fingerprint observation and advances the
// rotation state machine.
func (w *Watcher) check() {
	current, err := fingerprint.HashFiles(w.CertificatePath, w.KeyPath)
	if err != nil {
		// Reads race the external provisioner swapping files in;
		// a failure here is expected mid-rotation. Any pending
		// change cannot be confirmed stable across this gap.
		w.pendingSet = false
		w.Logger.Warn("certificate fingerprint unavailable, will retry",
			"error", err)
		return
	}

	if !w.baselineSet {
		w.lastApplied = current
		w.baselineSet = true
		w.Logger.Info("certificate baseline established",
			"fingerprint", fingerprint.Format(current))
		return
	}

	if current == w.lastApplied {
		w.pendingSet = false
		return
	}

	if !w.pendingSet || w.pending != current {
		w.pending = current
		w.pendingSet = true
		w.Logger.Info("certificate change observed, awaiting stable pair",
			"fingerprint", fingerprint.Format(current))
		return
	}

	// The new pair held across two consecutive checks.
	if err := w.Reload(); err != nil {
		w.Logger.Warn("proxy reload failed, will retry",
			"error", err)
		return
	}

	w.lastApplied = current
	w.pendingSet = false
	w.Logger.Info("proxy reloaded for rotated certificate",
		"fingerprint", fingerprint.Format(current))
}
