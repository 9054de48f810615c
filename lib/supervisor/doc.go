// Copyright 2026 The Nodeward Authors
// SPDX-License-Identifier: Apache-2.0

// Package supervisor runs and restarts the child processes that make up
// a nodeward deployment.
//
// A Supervisor owns a set of named children (the node, the proxy), each
// spawned in its own process group with stdout and stderr forwarded
// line-by-line to a shared sink, tagged with the child's name. Children
// with the always restart policy are respawned with an equivalent
// command line whenever they exit, after a short delay.
//
// Besides OS processes the supervisor runs background tasks: functions
// of a context that are restarted if they return an unexpected error
// (the certificate watcher runs this way). Wait blocks until the caller
// cancels its context or a fatal error is reported via Fail, then tears
// everything down: SIGTERM to every child's process group, a bounded
// grace period, SIGKILL for whatever remains.
package supervisor
