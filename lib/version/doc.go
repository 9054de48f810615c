// Copyright 2026 The Nodeward Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for Nodeward
// binaries.
//
// Four package-level variables are injected at build time via
// -ldflags -X:
//
//   - [GitCommit] -- short git SHA of the build
//   - [GitDirty] -- "true" if there were uncommitted changes
//   - [BuildTime] -- UTC timestamp of the build
//   - [Version] -- semantic version string (set manually for releases)
//
// These default to "unknown" / "0.1.0-dev" when not injected, which
// occurs during development builds and test runs.
//
// Formatting functions produce human-readable version strings:
//
//   - [Info] -- "0.1.0-dev (abc1234, 2026-02-10T...)" one-line summary
//   - [Full] -- Info plus Go version and GOOS/GOARCH (--version output)
//   - [Short] -- just the version number
//
// Version information is injected at build time, for example:
//
//	go build -ldflags "-X github.com/nodeward/nodeward/lib/version.GitCommit=$(git rev-parse --short HEAD)"
package version
