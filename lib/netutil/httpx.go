// Copyright 2026 The Nodeward Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides HTTP I/O utilities for Nodeward.
//
// Response helpers (ReadResponse, ErrorBody) bound all response body
// reads at MaxResponseSize to prevent unbounded memory allocation from
// a misbehaving or malicious server. These are for small API responses
// (the secret endpoint) — not for streaming responses or large binary
// downloads.
package netutil

import (
	"io"
)

// MaxResponseSize is the bound on API response body reads: 1 MB. This
// exists solely to prevent a pathological response from exhausting
// system memory. Legitimate responses (a JWT secret is tens of bytes)
// are orders of magnitude smaller; the limit is intentionally generous
// so that it never interferes with normal operation.
const MaxResponseSize int64 = 1 << 20

// ReadResponse reads an API response body up to MaxResponseSize bytes.
// Use instead of io.ReadAll when reading HTTP response bodies.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// ErrorBody reads an HTTP error response body and returns it as a
// string for diagnostic error messages. Read errors are silently
// ignored — a partial or empty body is still useful in an error
// message.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, MaxResponseSize))
	return string(data)
}
