// Copyright 2026 The Nodeward Authors
// SPDX-License-Identifier: Apache-2.0

// Package jwtsecret provisions the node's authenticated-RPC credential.
//
// The node must not start without the shared JWT secret its
// control-plane callers hold, so [Provisioner.Provision] blocks until
// the secret has been fetched from the remote source and persisted, or
// the surrounding unit shuts down. Every fetch failure is treated as
// transient and retried on a fixed interval without limit: the
// provisioning source is expected to eventually become available, and
// starting the node without its credential would be worse than
// waiting. This is a deliberate availability-over-liveness tradeoff.
//
// The secret file is written exactly once per run, atomically (temp
// file + rename) and never empty, so the node can never observe a
// partial credential.
package jwtsecret
