// interfaces.go: public interfaces for diskcache
//
// Copyright (c) 2025 loonghao
// SPDX-License-Identifier: MPL-2.0

package diskcache

import "context"

// Cache represents a persistent key-value cache. All methods are safe for
// concurrent use. Implementations durably commit Set before returning.
type Cache interface {
	// Get retrieves the current value for key.
	// Returns the value and true if present and unexpired, nil and false
	// otherwise (miss, expired, or corrupt entry).
	Get(key []byte) (value []byte, found bool)

	// GetContext is Get with a deadline: if ctx is already done when the
	// value has to be read from disk, the read is skipped and the call
	// reports a miss.
	GetContext(ctx context.Context, key []byte) (value []byte, found bool)

	// Set stores key/value, replacing any prior value. ttl of zero means no
	// expiration. Returns ErrTooLarge if value exceeds MaxValueSize.
	Set(key, value []byte, ttl int64) error

	// SetContext is Set with a deadline.
	SetContext(ctx context.Context, key, value []byte, ttl int64) error

	// Delete removes key. Idempotent: deleting an absent key is not an error.
	Delete(key []byte) error

	// Exists reports whether a non-expired entry for key is present, without
	// updating access statistics.
	Exists(key []byte) bool

	// Clear empties the cache: index, hot tier, and on-disk entries.
	Clear() error

	// Stats returns a snapshot of cache counters.
	Stats() CacheStats

	// Close stops background workers and releases resources. Calls after
	// the first are no-ops; a closed Cache is no longer usable.
	Close() error
}

// CacheStats is a point-in-time snapshot of cache counters. Individual
// counters are updated atomically but the tuple is not a consistent
// snapshot (§5 of the design: stats are eventually consistent).
type CacheStats struct {
	Hits         uint64
	Misses       uint64
	Evictions    uint64
	Expired      uint64
	CorruptReads uint64
	TotalBytes   int64
	Count        int64
	HotHits      uint64
	HotBytes     int64
	UptimeNs     int64
}

// HitRatio returns the cache hit ratio as a fraction in [0, 1].
func (s CacheStats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Logger defines a minimal logging interface with zero overhead when unused.
// Implementations should use structured logging and avoid allocating on
// disabled levels.
type Logger interface {
	Debug(msg string, keyvals ...interface{})
	Info(msg string, keyvals ...interface{})
	Warn(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})
}

// NoOpLogger discards everything. Used as the default to avoid nil checks.
type NoOpLogger struct{}

func (NoOpLogger) Debug(msg string, keyvals ...interface{}) {}
func (NoOpLogger) Info(msg string, keyvals ...interface{})  {}
func (NoOpLogger) Warn(msg string, keyvals ...interface{})  {}
func (NoOpLogger) Error(msg string, keyvals ...interface{}) {}

// TimeProvider supplies the current time. Injectable so tests can control
// TTL expiry and vacuum timing deterministically.
type TimeProvider interface {
	// Now returns the current time in nanoseconds since the Unix epoch.
	Now() int64
}

// MetricsCollector receives cache operation events for observability
// backends (Prometheus, OTEL, DataDog, ...). All methods must be cheap and
// non-blocking; a slow collector must not slow down cache operations.
type MetricsCollector interface {
	RecordGet(latencyNs int64, hit bool)
	RecordSet(latencyNs int64)
	RecordDelete(latencyNs int64)
	RecordEviction()
	RecordExpiration()
	RecordCorruptRead()
	RecordVacuum(removed int, durationNs int64)
}

// NoOpMetricsCollector discards everything. Used as the default: zero
// overhead when no observability backend is configured.
type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) RecordGet(latencyNs int64, hit bool) {}
func (NoOpMetricsCollector) RecordSet(latencyNs int64)           {}
func (NoOpMetricsCollector) RecordDelete(latencyNs int64)        {}
func (NoOpMetricsCollector) RecordEviction()                     {}
func (NoOpMetricsCollector) RecordExpiration()                   {}
func (NoOpMetricsCollector) RecordCorruptRead()                  {}
func (NoOpMetricsCollector) RecordVacuum(removed int, durationNs int64) {}
