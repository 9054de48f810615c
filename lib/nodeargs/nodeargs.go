// Copyright 2026 The Nodeward Authors
// SPDX-License-Identifier: Apache-2.0

// Package nodeargs builds the node process's argument vector.
//
// The package is a deterministic string/argument assembler: it splits
// the operator's raw pass-through option string, rewrites deprecated
// option tokens to their current equivalents, and assembles the full
// command line from the resolved network profile and the provisioned
// credential path. It implements no command-line parser of its own —
// pass-through options are appended verbatim, and later options may
// override earlier flags per the node's own flag-parsing rules (no
// deduplication here).
package nodeargs

import (
	"strconv"
	"strings"

	"github.com/nodeward/nodeward/lib/netprofile"
)

// Split breaks a raw operator option string into individual tokens on
// whitespace. An empty or all-whitespace string yields no tokens.
func Split(raw string) []string {
	return strings.Fields(raw)
}

// Normalize rewrites every occurrence of a deprecated option token to
// its current equivalent, preserving its argument. One rename rule
// exists: the legacy --rpcapi selector becomes --http.api. Unknown
// tokens pass through unchanged, and the transform is idempotent, so
// applying it twice yields the same result as applying it once.
func Normalize(options []string) []string {
	if len(options) == 0 {
		return nil
	}
	normalized := make([]string, len(options))
	for i, option := range options {
		switch {
		case option == "--rpcapi":
			normalized[i] = "--http.api"
		case strings.HasPrefix(option, "--rpcapi="):
			normalized[i] = "--http.api=" + strings.TrimPrefix(option, "--rpcapi=")
		default:
			normalized[i] = option
		}
	}
	return normalized
}

// Assemble builds the node argument vector: data directory, network
// flag, P2P port, HTTP API on all interfaces with wildcard
// CORS/virtual-host, WebSocket API on all interfaces with wildcard
// origins, authenticated RPC on all interfaces with the credential
// file path, followed by the already-normalized pass-through options
// verbatim.
func Assemble(profile netprofile.Profile, authRPCPort int, secretPath string, extra []string) []string {
	args := []string{
		"--datadir", profile.DataDir,
		profile.NetworkFlag,
		"--port", strconv.Itoa(profile.P2PPort),
		"--http",
		"--http.addr", "0.0.0.0",
		"--http.corsdomain", "*",
		"--http.vhosts", "*",
		"--ws",
		"--ws.addr", "0.0.0.0",
		"--ws.origins", "*",
		"--authrpc.addr", "0.0.0.0",
		"--authrpc.port", strconv.Itoa(authRPCPort),
		"--authrpc.jwtsecret", secretPath,
	}
	return append(args, extra...)
}
