// Copyright 2026 The Nodeward Authors
// SPDX-License-Identifier: Apache-2.0

package fingerprint

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// Digest is a 32-byte BLAKE3 digest.
type Digest [32]byte

// HashFile computes the BLAKE3 digest of the file at path. The file is
// streamed through the hash function in chunks (via io.Copy) to keep
// memory usage constant regardless of file size.
func HashFile(path string) (Digest, error) {
	file, err := os.Open(path)
	if err != nil {
		return Digest{}, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return Digest{}, fmt.Errorf("hashing %s: %w", path, err)
	}

	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest, nil
}

// HashFiles computes a combined digest over an ordered list of files:
// each file is hashed individually, and the concatenation of the
// per-file digests is hashed again. The fixed 32-byte blocks make the
// combination unambiguous (no content can shift across a file
// boundary), and the order of paths is significant.
func HashFiles(paths ...string) (Digest, error) {
	hasher := blake3.New()
	for _, path := range paths {
		digest, err := HashFile(path)
		if err != nil {
			return Digest{}, err
		}
		hasher.Write(digest[:])
	}

	var combined Digest
	copy(combined[:], hasher.Sum(nil))
	return combined, nil
}

// Format returns the hex-encoded string representation of a digest.
// This is the canonical format used in log output.
func Format(digest Digest) string {
	return hex.EncodeToString(digest[:])
}
