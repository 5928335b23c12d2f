// Package otel provides OpenTelemetry integration for diskcache metrics.
//
// # Overview
//
// This package implements the diskcache.MetricsCollector interface using
// OpenTelemetry, enabling observability with automatic percentile
// calculation and multi-backend support (Prometheus, Jaeger, DataDog,
// Grafana).
//
// The package is a separate module to keep the diskcache core lightweight.
// Applications that don't need metrics collection don't pay for the OTEL
// dependencies.
//
// # Features
//
//   - Automatic Percentiles: OTEL Histograms calculate p50, p95, p99, p99.9 latencies
//   - Multi-Backend Support: Works with Prometheus, Jaeger, DataDog, any OTEL-compatible backend
//   - Hit Ratio Tracking: Real-time cache hit/miss monitoring
//   - Eviction and Vacuum Monitoring: Track capacity pressure and background sweeps
//   - Corrupt Read Tracking: Surface codec verification failures as a metric
//   - Thread-Safe: Lock-free, safe for concurrent use
//
// # Installation
//
//	go get github.com/loonghao/diskcache-go/otel
//
// # Quick Start
//
// Basic setup with Prometheus exporter:
//
//	import (
//	    "github.com/loonghao/diskcache-go"
//	    diskcacheotel "github.com/loonghao/diskcache-go/otel"
//	    "go.opentelemetry.io/otel/exporters/prometheus"
//	    "go.opentelemetry.io/otel/sdk/metric"
//	)
//
//	exporter, err := prometheus.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	provider := metric.NewMeterProvider(metric.WithReader(exporter))
//	defer provider.Shutdown(context.Background())
//
//	collector, err := diskcacheotel.NewOTelMetricsCollector(provider)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cfg := diskcache.DefaultConfig("/var/cache/myapp")
//	cfg.MetricsCollector = collector
//	cache, _ := diskcache.NewCache(cfg)
//
//	cache.Set([]byte("key"), []byte("value"), 0)
//	cache.Get([]byte("key"))
//
//	http.Handle("/metrics", promhttp.Handler())
//	log.Fatal(http.ListenAndServe(":2112", nil))
//
// # Metrics Exposed
//
// Histograms (with automatic percentiles):
//   - diskcache_get_latency_ns
//   - diskcache_set_latency_ns
//   - diskcache_delete_latency_ns
//   - diskcache_vacuum_duration_ns
//
// Counters:
//   - diskcache_get_hits_total / diskcache_get_misses_total
//   - diskcache_evictions_total
//   - diskcache_expirations_total
//   - diskcache_corrupt_reads_total
//   - diskcache_vacuum_removed_total
//
// All metrics are thread-safe and use lock-free OTEL instruments.
//
// # Configuration
//
// Custom meter name (useful for multiple cache instances):
//
//	collector, err := diskcacheotel.NewOTelMetricsCollector(
//	    provider,
//	    diskcacheotel.WithMeterName("myapp_manifest_cache"),
//	)
//
// Custom histogram buckets for better percentile accuracy:
//
//	provider := metric.NewMeterProvider(
//	    metric.WithReader(exporter),
//	    metric.WithView(metric.NewView(
//	        metric.Instrument{Name: "diskcache_get_latency_ns"},
//	        metric.Stream{
//	            Aggregation: metric.AggregationExplicitBucketHistogram{
//	                Boundaries: []float64{1000, 5000, 10000, 50000, 100000, 500000, 1000000},
//	            },
//	        },
//	    )),
//	)
//
// # Prometheus Queries
//
// Calculate P95 latency (last 5 minutes):
//
//	histogram_quantile(0.95, rate(diskcache_get_latency_ns_bucket[5m]))
//
// Calculate hit ratio:
//
//	rate(diskcache_get_hits_total[5m]) /
//	(rate(diskcache_get_hits_total[5m]) + rate(diskcache_get_misses_total[5m]))
//
// Calculate evictions per minute:
//
//	rate(diskcache_evictions_total[1m]) * 60
//
// Calculate corrupt-read rate (should be ~zero outside of disk failure):
//
//	rate(diskcache_corrupt_reads_total[5m])
//
// # Architecture
//
// Separation of concerns:
//
//	┌─────────────────────────────────────┐
//	│   diskcache Cache (Core Module)     │
//	│  • No OTEL dependencies             │
//	│  • MetricsCollector interface       │
//	│  • NoOpMetricsCollector (default)   │
//	└──────────────┬──────────────────────┘
//	               │ implements
//	               ▼
//	┌─────────────────────────────────────┐
//	│   diskcache/otel (This Package)     │
//	│  • OTelMetricsCollector             │
//	│  • OTEL SDK dependencies            │
//	│  • Histograms + Counters            │
//	└──────────────┬──────────────────────┘
//	               │ exports to
//	               ▼
//	┌─────────────────────────────────────┐
//	│      OTEL MeterProvider             │
//	└──────────────┬──────────────────────┘
//	     ┌─────────┴──────┬────────┐
//	     ▼                ▼        ▼
//	Prometheus        Jaeger   DataDog
//
// This architecture keeps the core lightweight while enabling observability
// as an optional add-on.
//
// # Thread Safety
//
// All methods are thread-safe and use lock-free OTEL instruments:
//
//	collector, _ := diskcacheotel.NewOTelMetricsCollector(provider)
//
//	go func() { collector.RecordGet(1000, true) }()
//	go func() { collector.RecordSet(2000) }()
//	go func() { collector.RecordDelete(500) }()
//	go func() { collector.RecordEviction() }()
//	go func() { collector.RecordVacuum(12, 4_000_000) }()
//
// # Best Practices
//
//  1. Reuse MeterProvider across cache instances.
//  2. Always shut down the MeterProvider on exit.
//  3. Configure histogram buckets based on your storage latency profile —
//     disk-backed entries run in microseconds to low milliseconds, not the
//     sub-microsecond range of a pure in-memory cache.
//  4. Monitor corrupt-read rate: anything above zero usually means
//     underlying storage is degrading.
//  5. Set up alerts on low hit ratio, high P99 latency, and high eviction
//     or corrupt-read rate.
//
// # Examples
//
// The Usage section above shows the complete Prometheus wiring; no separate
// example program or dashboard ships with this module.
//
// # License
//
// Same as diskcache core (see LICENSE in main repository).
package otel
