// Copyright 2026 The Nodeward Authors
// SPDX-License-Identifier: Apache-2.0

// Nodeward is the PID-1 style entrypoint for a gatewayed Ethereum
// node. It resolves the configured network to a host profile, fetches
// the engine-API JWT secret before the node's first start, assembles
// the node command line, and supervises both the node and the
// TLS-terminating reverse proxy in front of it: tagged log forwarding,
// restart on exit, certificate-rotation reloads, and a graceful
// SIGTERM shutdown with a bounded grace period.
package main
