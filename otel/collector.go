// Package otel provides OpenTelemetry integration for diskcache metrics.
//
// This package implements the diskcache.MetricsCollector interface using
// OpenTelemetry, enabling observability with automatic percentile
// calculation (p50, p95, p99) and multi-backend support (Prometheus,
// Jaeger, DataDog, Grafana).
//
// # Features
//
//   - Automatic percentile calculation via OTEL Histograms (p50, p95, p99, p99.9)
//   - Hit/miss ratio tracking with counters
//   - Eviction, expiration, corrupt-read, and vacuum monitoring
//   - Thread-safe, lock-free implementation
//   - Compatible with any OTEL backend (Prometheus, Jaeger, DataDog, etc.)
//   - Optional: separate module, no impact on core diskcache performance
//
// # Usage
//
//	import (
//	    "github.com/loonghao/diskcache-go"
//	    diskcacheotel "github.com/loonghao/diskcache-go/otel"
//	    "go.opentelemetry.io/otel/exporters/prometheus"
//	    "go.opentelemetry.io/otel/sdk/metric"
//	)
//
//	exporter, _ := prometheus.New()
//	provider := metric.NewMeterProvider(metric.WithReader(exporter))
//
//	collector, _ := diskcacheotel.NewOTelMetricsCollector(provider)
//
//	cfg := diskcache.DefaultConfig("/var/cache/myapp")
//	cfg.MetricsCollector = collector
//	cache, _ := diskcache.NewCache(cfg)
//
// # Metrics Exposed
//
//   - diskcache_get_latency_ns: Histogram of Get() operation latencies
//   - diskcache_set_latency_ns: Histogram of Set() operation latencies
//   - diskcache_delete_latency_ns: Histogram of Delete() operation latencies
//   - diskcache_get_hits_total / diskcache_get_misses_total: Get outcome counters
//   - diskcache_evictions_total: Counter of capacity-driven evictions
//   - diskcache_expirations_total: Counter of TTL-based expirations
//   - diskcache_corrupt_reads_total: Counter of entries failing codec verification
//   - diskcache_vacuum_duration_ns: Histogram of background vacuum pass durations
//   - diskcache_vacuum_removed_total: Counter of entries removed by vacuum
//
// Copyright (c) 2025 loonghao
// SPDX-License-Identifier: MPL-2.0
package otel

import (
	"context"
	"errors"

	diskcache "github.com/loonghao/diskcache-go"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetricsCollector implements diskcache.MetricsCollector using
// OpenTelemetry.
//
// Thread-safety: safe for concurrent use; the underlying OTEL instruments
// are lock-free.
type OTelMetricsCollector struct {
	getLatency    metric.Int64Histogram
	setLatency    metric.Int64Histogram
	deleteLatency metric.Int64Histogram
	vacuumLatency metric.Int64Histogram

	hits         metric.Int64Counter
	misses       metric.Int64Counter
	evictions    metric.Int64Counter
	expirations  metric.Int64Counter
	corruptReads metric.Int64Counter
	vacuumRemoved metric.Int64Counter
}

// Options configures OTelMetricsCollector.
type Options struct {
	// MeterName is the name of the OpenTelemetry meter.
	// Default: "github.com/loonghao/diskcache-go"
	MeterName string
}

// Option is a functional option for configuring OTelMetricsCollector.
type Option func(*Options)

// WithMeterName sets a custom meter name, useful for distinguishing metrics
// from multiple cache instances.
func WithMeterName(name string) Option {
	return func(o *Options) {
		o.MeterName = name
	}
}

// NewOTelMetricsCollector creates a new OpenTelemetry metrics collector.
// provider must not be nil.
func NewOTelMetricsCollector(provider metric.MeterProvider, opts ...Option) (*OTelMetricsCollector, error) {
	if provider == nil {
		return nil, errors.New("meter provider cannot be nil")
	}

	options := Options{MeterName: "github.com/loonghao/diskcache-go"}
	for _, opt := range opts {
		opt(&options)
	}

	meter := provider.Meter(options.MeterName)
	c := &OTelMetricsCollector{}

	var err error
	if c.getLatency, err = meter.Int64Histogram(
		"diskcache_get_latency_ns",
		metric.WithDescription("Latency of Get operations in nanoseconds"),
		metric.WithUnit("ns"),
	); err != nil {
		return nil, err
	}

	if c.setLatency, err = meter.Int64Histogram(
		"diskcache_set_latency_ns",
		metric.WithDescription("Latency of Set operations in nanoseconds"),
		metric.WithUnit("ns"),
	); err != nil {
		return nil, err
	}

	if c.deleteLatency, err = meter.Int64Histogram(
		"diskcache_delete_latency_ns",
		metric.WithDescription("Latency of Delete operations in nanoseconds"),
		metric.WithUnit("ns"),
	); err != nil {
		return nil, err
	}

	if c.vacuumLatency, err = meter.Int64Histogram(
		"diskcache_vacuum_duration_ns",
		metric.WithDescription("Duration of background vacuum passes in nanoseconds"),
		metric.WithUnit("ns"),
	); err != nil {
		return nil, err
	}

	if c.hits, err = meter.Int64Counter(
		"diskcache_get_hits_total",
		metric.WithDescription("Total number of cache hits"),
	); err != nil {
		return nil, err
	}

	if c.misses, err = meter.Int64Counter(
		"diskcache_get_misses_total",
		metric.WithDescription("Total number of cache misses"),
	); err != nil {
		return nil, err
	}

	if c.evictions, err = meter.Int64Counter(
		"diskcache_evictions_total",
		metric.WithDescription("Total number of capacity-driven evictions"),
	); err != nil {
		return nil, err
	}

	if c.expirations, err = meter.Int64Counter(
		"diskcache_expirations_total",
		metric.WithDescription("Total number of TTL-based expirations"),
	); err != nil {
		return nil, err
	}

	if c.corruptReads, err = meter.Int64Counter(
		"diskcache_corrupt_reads_total",
		metric.WithDescription("Total number of entries that failed codec verification"),
	); err != nil {
		return nil, err
	}

	if c.vacuumRemoved, err = meter.Int64Counter(
		"diskcache_vacuum_removed_total",
		metric.WithDescription("Total number of entries removed by background vacuum"),
	); err != nil {
		return nil, err
	}

	return c, nil
}

// RecordGet records a Get operation's latency and hit/miss outcome.
func (c *OTelMetricsCollector) RecordGet(latencyNs int64, hit bool) {
	ctx := context.Background()
	c.getLatency.Record(ctx, latencyNs)
	if hit {
		c.hits.Add(ctx, 1)
	} else {
		c.misses.Add(ctx, 1)
	}
}

// RecordSet records a Set operation's latency.
func (c *OTelMetricsCollector) RecordSet(latencyNs int64) {
	c.setLatency.Record(context.Background(), latencyNs)
}

// RecordDelete records a Delete operation's latency.
func (c *OTelMetricsCollector) RecordDelete(latencyNs int64) {
	c.deleteLatency.Record(context.Background(), latencyNs)
}

// RecordEviction records a capacity-driven eviction event.
func (c *OTelMetricsCollector) RecordEviction() {
	c.evictions.Add(context.Background(), 1)
}

// RecordExpiration records a TTL-based expiration event.
func (c *OTelMetricsCollector) RecordExpiration() {
	c.expirations.Add(context.Background(), 1)
}

// RecordCorruptRead records an entry that failed codec verification.
func (c *OTelMetricsCollector) RecordCorruptRead() {
	c.corruptReads.Add(context.Background(), 1)
}

// RecordVacuum records one background vacuum pass: how many entries it
// removed and how long it took.
func (c *OTelMetricsCollector) RecordVacuum(removed int, durationNs int64) {
	ctx := context.Background()
	c.vacuumLatency.Record(ctx, durationNs)
	c.vacuumRemoved.Add(ctx, int64(removed))
}

// Compile-time interface check.
var _ diskcache.MetricsCollector = (*OTelMetricsCollector)(nil)
