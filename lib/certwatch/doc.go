// Copyright 2026 The Nodeward Authors
// SPDX-License-Identifier: Apache-2.0

// Package certwatch detects TLS certificate rotation and hot-applies
// it to the running proxy.
//
// The watcher polls a certificate/key pair on a fixed interval and
// compares a combined content fingerprint against the last applied
// state. A change triggers the proxy's reload mechanism (a signal the
// proxy interprets as "re-read configuration without dropping
// connections") rather than a process restart, so in-flight client
// traffic survives rotation.
//
// The certificate files are written by an external provisioning step
// the watcher has no control over. Two rules keep a half-written pair
// from ever reaching the proxy: a read error (file temporarily missing
// during replacement) is transient — logged, never fatal — and a new
// fingerprint must hold across two consecutive checks before the
// reload fires. The first successful read after startup establishes
// the baseline without a reload; the proxy already loaded those files
// itself when it started.
package certwatch
