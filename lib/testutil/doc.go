// Copyright 2026 The Nodeward Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for Nodeward packages.
//
// [RequireReceive] and [RequireClosed] encapsulate the timeout safety
// valve pattern (select with time.After fallback) so that individual
// tests do not need direct time.After calls. These are the only places
// in the test suite that wait on the real wall clock; everything else
// drives a fake clock.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no Nodeward-internal dependencies.
package testutil
