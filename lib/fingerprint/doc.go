// Copyright 2026 The Nodeward Authors
// SPDX-License-Identifier: Apache-2.0

// Package fingerprint provides BLAKE3 content fingerprints for files.
//
// Nodeward uses content fingerprints to detect certificate rotation:
// the certificate watcher periodically fingerprints the certificate
// and key files and compares against the last observed value. Content
// hashing (rather than modification times) makes the comparison immune
// to tools that rewrite files without advancing the clock, and lets a
// half-written file settle before it is treated as a change.
//
// The API surface:
//
//   - [HashFile] -- streams one file through BLAKE3, returning a
//     [Digest] with constant memory usage regardless of file size
//   - [HashFiles] -- combines the digests of an ordered list of files
//     into one digest, so a certificate/key pair fingerprints as a unit
//   - [Format] -- converts a [Digest] to its canonical hex-encoded
//     string representation for log output
//
// This package has no dependencies on other Nodeward packages.
package fingerprint
