// Copyright 2026 The Nodeward Authors
// SPDX-License-Identifier: Apache-2.0

// Package netprofile resolves a network selector to the per-network
// launch parameters for the node process.
//
// Resolution is a total function: the two recognized selectors map to
// their dedicated profiles, and every other value (including the empty
// string) falls through to the mainnet default. No selector is ever
// rejected, so a misconfigured unit comes up on mainnet rather than
// refusing to start.
package netprofile

import "path/filepath"

// Profile describes the launch parameters derived from a network
// selector. Exactly one profile is active per process lifetime; it is
// constructed once at startup and passed around by value.
type Profile struct {
	// Network is the canonical network name, for logs and the
	// runtime state file.
	Network string

	// DataDir is the node's chain data directory.
	DataDir string

	// P2PPort is the peer-to-peer listening port.
	P2PPort int

	// NetworkFlag is the node command-line flag selecting the
	// network.
	NetworkFlag string
}

// Resolve maps a network selector to its Profile. The selectors
// "goerli" and "holesky" (exact match) select their dedicated
// profiles; any other value selects mainnet with defaultDataDir as
// the chain data directory. Side-effect-free.
func Resolve(selector, defaultDataDir string) Profile {
	switch selector {
	case "goerli":
		return Profile{
			Network:     "goerli",
			DataDir:     "/goerli",
			P2PPort:     39303,
			NetworkFlag: "--goerli",
		}
	case "holesky":
		return Profile{
			Network:     "holesky",
			DataDir:     "/data",
			P2PPort:     39393,
			NetworkFlag: "--holesky",
		}
	default:
		return Profile{
			Network:     "mainnet",
			DataDir:     defaultDataDir,
			P2PPort:     30303,
			NetworkFlag: "--mainnet",
		}
	}
}

// JWTSecretPath returns the path where the node expects its
// authenticated-RPC credential. The "geth" path segment is part of
// the node's on-disk contract, independent of the binary name the
// operator configures.
func (p Profile) JWTSecretPath() string {
	return filepath.Join(p.DataDir, "geth", "jwttoken")
}
