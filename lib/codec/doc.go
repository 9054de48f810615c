// Copyright 2026 The Nodeward Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides Nodeward's standard CBOR encoding
// configuration.
//
// Nodeward uses CBOR for on-disk state files (the supervisor's runtime
// state record). This package provides the shared encoding and
// decoding modes so that every consumer encodes identically without
// duplicating configuration. The encoder uses Core Deterministic
// Encoding (RFC 8949 §4.2): sorted map keys, smallest integer
// encoding, no indefinite-length items. Same logical data always
// produces identical bytes.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// Types serialized with this package carry `cbor` struct tags; they
// never participate in JSON serialization.
package codec
