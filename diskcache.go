// Package diskcache provides a persistent, thread-safe key-value cache that
// stays correct on network filesystems (NFS, SMB/CIFS, synced cloud drives)
// where embedded databases relying on advisory locks and random-access
// writes routinely corrupt.
//
// Every durable write goes through atomic temp-file-then-rename; no partial
// entry is ever observable. A sharded in-memory index keeps lookups O(1)
// without caching full keys or values in memory.
//
// Copyright (c) 2025 loonghao
// SPDX-License-Identifier: MPL-2.0
package diskcache

const (
	// Version of the diskcache module.
	Version = "v0.1.0-dev"

	// MaxKeySize is the hard cap on a key's length, enforced by Get, Set and
	// Delete. Unlike MaxValueSize it is not configurable. File paths and
	// journal records use the fixed-size fingerprint, not the key itself.
	MaxKeySize = 64 << 10 // 64 KiB

	// DefaultMaxValueSize is the default cap on a single value's logical size.
	DefaultMaxValueSize = 256 << 20 // 256 MiB

	// DefaultMmapThreshold is the file size at which reads memory-map instead
	// of copying into a buffer.
	DefaultMmapThreshold = 64 << 10 // 64 KiB

	// DefaultHotMaxBytes is the default byte cap of the hot tier.
	DefaultHotMaxBytes = 64 << 20 // 64 MiB

	// DefaultHotItemCap is the largest value size always admitted into the
	// hot tier on write; larger values are admitted only on a hit.
	DefaultHotItemCap = 4 << 10 // 4 KiB

	// DefaultIndexShards is the number of independent index shards.
	DefaultIndexShards = 64

	// DefaultEvictionSampleSize is the number of entries sampled per shard
	// during a policy-driven trim pass.
	DefaultEvictionSampleSize = 64

	// DefaultJournalCompactSegments is the segment count that triggers
	// index-journal compaction.
	DefaultJournalCompactSegments = 4

	// evictionSlack is the fraction below max_size/max_entries that a trim
	// pass evicts down to once a cap is exceeded, trading a few extra
	// evictions for fewer trim passes.
	evictionSlack = 0.05
)
