// Copyright 2026 The Nodeward Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"log/slog"
	"os"

	"golang.org/x/term"
)

// newLogger creates the process-wide structured logger. When stderr is
// a terminal, uses slog.TextHandler for human-readable output. When
// stderr is piped or redirected (systemd, container runtimes, CI),
// uses slog.JSONHandler so log collectors get machine-parseable
// records.
func newLogger() *slog.Logger {
	var handler slog.Handler
	options := &slog.HandlerOptions{Level: slog.LevelInfo}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}
