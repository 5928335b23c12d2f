// fingerprint.go: key fingerprinting and directory fan-out addressing
//
// Copyright (c) 2025 loonghao
// SPDX-License-Identifier: MPL-2.0

package diskcache

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Fingerprint is a 128-bit truncated BLAKE3 digest of a key. It is the
// address used for index keying, filename derivation, and write-intent
// locking. A disk read compares the full key stored inside the entry file
// with the requested key and reports a miss when they differ; a value
// served from the hot tier is not re-checked against the key.
type Fingerprint [16]byte

// fingerprintKey hashes key with BLAKE3 and truncates to 128 bits.
func fingerprintKey(key []byte) Fingerprint {
	digest := blake3.Sum256(key)
	var fp Fingerprint
	copy(fp[:], digest[:16])
	return fp
}

// contentHash computes the full 256-bit BLAKE3 digest of keyBytes followed
// by the logical (pre-compression) value bytes, as verified by the entry
// codec on read.
func contentHash(keyBytes, valueBytes []byte) [32]byte {
	h := blake3.New()
	_, _ = h.Write(keyBytes)
	_, _ = h.Write(valueBytes)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// String renders the fingerprint as lowercase hex, e.g. for logging.
func (fp Fingerprint) String() string {
	return hex.EncodeToString(fp[:])
}

// relPath returns the 2-level fan-out relative path for this fingerprint
// under data/, e.g. "ab/cd/abcd...ef.bin".
func (fp Fingerprint) relPath() string {
	h := hex.EncodeToString(fp[:])
	return h[0:2] + "/" + h[2:4] + "/" + h + ".bin"
}
