// config.go: configuration for diskcache
//
// Copyright (c) 2025 loonghao
// SPDX-License-Identifier: MPL-2.0

package diskcache

import (
	"time"

	"github.com/agilira/go-timecache"
)

// EvictionPolicy selects the key function used to pick trim victims.
type EvictionPolicy string

const (
	EvictionLRU    EvictionPolicy = "lru"
	EvictionLFU    EvictionPolicy = "lfu"
	EvictionTTL    EvictionPolicy = "ttl"
	EvictionLRUTTL EvictionPolicy = "lru_ttl"
	EvictionLFUTTL EvictionPolicy = "lfu_ttl"
)

// CompressionKind selects the value-payload compression codec.
type CompressionKind string

const (
	CompressionNone CompressionKind = "none"
	CompressionLZ4  CompressionKind = "lz4"
)

// Config holds configuration parameters for a Cache.
type Config struct {
	// Directory is the cache root; created if absent. Required.
	Directory string

	// MaxSize is the byte cap across the disk tier. 0 means unbounded.
	MaxSize int64

	// MaxEntries is the entry count cap. 0 means unbounded.
	MaxEntries int64

	// MaxValueSize rejects oversized writes with ErrTooLarge.
	// Default: DefaultMaxValueSize.
	MaxValueSize int

	// EvictionPolicy selects the trim victim key function.
	// Default: EvictionLRUTTL.
	EvictionPolicy EvictionPolicy

	// Compression selects the value payload codec. Default: CompressionLZ4.
	Compression CompressionKind

	// MmapThreshold is the byte size at which reads memory-map.
	// Default: DefaultMmapThreshold.
	MmapThreshold int64

	// HotMaxBytes is the hot tier byte cap. Default: DefaultHotMaxBytes.
	HotMaxBytes int64

	// HotMaxEntries is the hot tier entry cap. 0 means no entry cap (byte
	// cap only).
	HotMaxEntries int

	// HotItemCap is the largest value always admitted to the hot tier on
	// write. Default: DefaultHotItemCap.
	HotItemCap int

	// VacuumInterval is the period between background sweeps.
	// Default: 1 hour.
	VacuumInterval time.Duration

	// JournalCompactSegments is the segment count triggering journal
	// compaction. Default: DefaultJournalCompactSegments.
	JournalCompactSegments int

	// EvictionSampleSize is the number of entries sampled per shard during
	// a policy trim pass. Default: DefaultEvictionSampleSize.
	EvictionSampleSize int

	// FsyncOnWrite, if false, omits the fsync call on durable writes. Not
	// recommended: disables the crash-safety contract of §4.1.
	FsyncOnWrite bool

	// Logger receives diagnostic events. Default: NoOpLogger{}.
	Logger Logger

	// TimeProvider supplies the current time. Default: system time via
	// go-timecache.
	TimeProvider TimeProvider

	// MetricsCollector receives operation events. Default:
	// NoOpMetricsCollector{}.
	MetricsCollector MetricsCollector

	// OnEvict is called after an entry is evicted by the trim pass. Must be
	// fast and non-blocking.
	OnEvict func(fingerprint [16]byte)

	// OnExpire is called after an entry is removed for TTL expiry. Must be
	// fast and non-blocking.
	OnExpire func(fingerprint [16]byte)
}

// Validate normalizes Config in place, applying defaults for unset fields.
// It is called automatically by NewCache, so callers usually don't need to call
// it directly. Returns a ConfigError if Directory is empty.
func (c *Config) Validate() error {
	if c.Directory == "" {
		return NewErrInvalidDirectory("", nil)
	}

	if c.MaxValueSize <= 0 {
		c.MaxValueSize = DefaultMaxValueSize
	}

	switch c.EvictionPolicy {
	case EvictionLRU, EvictionLFU, EvictionTTL, EvictionLRUTTL, EvictionLFUTTL:
	case "":
		c.EvictionPolicy = EvictionLRUTTL
	default:
		return NewErrInvalidEviction(string(c.EvictionPolicy))
	}

	switch c.Compression {
	case CompressionNone, CompressionLZ4:
	case "":
		c.Compression = CompressionLZ4
	default:
		return NewErrInvalidCompression(string(c.Compression))
	}

	if c.MmapThreshold <= 0 {
		c.MmapThreshold = DefaultMmapThreshold
	}
	if c.HotMaxBytes <= 0 {
		c.HotMaxBytes = DefaultHotMaxBytes
	}
	if c.HotItemCap <= 0 {
		c.HotItemCap = DefaultHotItemCap
	}
	if c.VacuumInterval <= 0 {
		c.VacuumInterval = time.Hour
	}
	if c.JournalCompactSegments <= 0 {
		c.JournalCompactSegments = DefaultJournalCompactSegments
	}
	if c.EvictionSampleSize <= 0 {
		c.EvictionSampleSize = DefaultEvictionSampleSize
	}

	if c.Logger == nil {
		c.Logger = NoOpLogger{}
	}
	if c.TimeProvider == nil {
		c.TimeProvider = &systemTimeProvider{}
	}
	if c.MetricsCollector == nil {
		c.MetricsCollector = NoOpMetricsCollector{}
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults for the given
// directory. Directory is still required to be non-empty before NewCache.
func DefaultConfig(directory string) Config {
	return Config{
		Directory:              directory,
		MaxValueSize:           DefaultMaxValueSize,
		EvictionPolicy:         EvictionLRUTTL,
		Compression:            CompressionLZ4,
		MmapThreshold:          DefaultMmapThreshold,
		HotMaxBytes:            DefaultHotMaxBytes,
		HotItemCap:             DefaultHotItemCap,
		VacuumInterval:         time.Hour,
		JournalCompactSegments: DefaultJournalCompactSegments,
		EvictionSampleSize:     DefaultEvictionSampleSize,
		FsyncOnWrite:           true,
		Logger:                 NoOpLogger{},
		TimeProvider:           &systemTimeProvider{},
		MetricsCollector:       NoOpMetricsCollector{},
	}
}

// systemTimeProvider is the default time provider, backed by go-timecache
// for cheap repeated reads on the hot path.
type systemTimeProvider struct{}

func (systemTimeProvider) Now() int64 {
	return timecache.CachedTimeNano()
}
