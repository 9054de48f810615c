// Copyright 2026 The Nodeward Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret provides a memory-safe buffer for credential material
// such as the engine-API JWT secret.
//
// [Buffer] allocates memory outside the Go heap via mmap(MAP_ANONYMOUS),
// locks it into physical RAM via mlock (preventing swap), and marks it
// excluded from core dumps via madvise(MADV_DONTDUMP). On Close, the
// memory is zeroed, unlocked, and unmapped. Because the memory lives
// outside the Go heap, the garbage collector cannot copy or relocate
// it, so secret material does not persist after release.
//
// Constructors:
//
//   - [New] -- allocates a zero-filled buffer of a given size
//   - [NewFromBytes] -- copies into protected memory, zeros the source
//
// Access via [Buffer.Bytes], a slice into the mmap region. [Zero]
// wipes ordinary heap slices at API boundaries. After Close, any
// access panics. Close is idempotent.
//
// Depends on golang.org/x/sys/unix. No Nodeward-internal dependencies.
// Imported by lib/jwtsecret to hold the fetched secret between the
// HTTP response and the credential file write.
package secret
