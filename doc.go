// Package diskcache provides a persistent, thread-safe key-value cache
// designed to stay correct on network filesystems (NFS, SMB/CIFS, synced
// cloud drives) where embedded databases relying on advisory locks and
// random-access writes routinely corrupt.
//
// # Overview
//
// diskcache is designed for production use with focus on:
//   - Crash safety: every durable write is atomic (temp file + fsync + rename)
//   - Network filesystem correctness: no advisory locks, no mmap'd writes
//   - Concurrency: sharded index with per-shard locking, per-key write intent
//   - Observability: OpenTelemetry integration (optional separate package)
//
// # Features
//
//   - Atomic Writes: temp-file-then-rename, never a torn entry on disk
//   - Sharded Index: O(1) lookups without holding full keys/values in memory
//   - Hot Tier: bounded in-memory LRU in front of the disk tier
//   - Pluggable Eviction: LRU, LFU, TTL, and composite LRU+TTL / LFU+TTL policies
//   - Content Verification: BLAKE3 hash check on every read, LZ4 value compression
//   - Crash Recovery: journal replay plus directory reconciliation at open
//   - Structured Errors: rich error context with error codes
//   - Metrics Collection: MetricsCollector interface for observability
//
// # Quick Start
//
//	import "github.com/loonghao/diskcache-go"
//
//	func main() {
//	    cache, err := diskcache.NewCache(diskcache.DefaultConfig("/var/cache/myapp"))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer cache.Close()
//
//	    cache.Set([]byte("user:123"), []byte(`{"name":"Alice"}`), int64(time.Hour))
//
//	    if value, found := cache.Get([]byte("user:123")); found {
//	        fmt.Printf("value: %s\n", value)
//	    }
//
//	    stats := cache.Stats()
//	    fmt.Printf("hit ratio: %.2f%%\n", stats.HitRatio()*100)
//	}
//
// # Why Not an Embedded Database
//
// SQLite and similar embedded databases assume the filesystem honors
// advisory locks (flock/fcntl) and that random-access writes are atomic at
// the page level. Network filesystems violate both assumptions: locks are
// frequently unenforced or unreliable across clients, and a partial write
// can leave a page half-written with no way to detect it from the reader
// side. diskcache avoids both failure modes: there is no locking protocol
// to fail, and every entry file is written once, atomically, in full.
//
// # Entry Layout
//
// Each cache entry is one file on disk, addressed by a 2-level fan-out
// directory derived from a truncated BLAKE3 hash of the key:
//
//	data/ab/cd/abcd...ef.bin
//
// The file itself carries a fixed header (magic, format version, codec
// flags, timestamps, lengths, content hash), the raw key bytes, the
// (optionally LZ4-compressed) value bytes, and an 8-byte trailer sentinel.
// decodeEntry verifies all of it before returning a value; any mismatch is
// treated as corruption rather than trusted data.
//
// # Tiers
//
// Every operation passes through up to three tiers:
//
//	Hot Tier    bounded in-memory LRU of decoded values (optional fast path)
//	Index       sharded fingerprint -> EntryMeta map, the source of truth
//	            for presence, expiry, and size
//	Disk Tier   the durable entry files themselves
//
// A write commits to the disk tier, then publishes to the Index, then
// admits to the hot tier — in that order, so a crash between steps never
// leaves the Index pointing at a file that doesn't exist.
//
// # Eviction
//
// When MaxSize or MaxEntries is configured, a sampling-based trim pass (not
// a heap) runs after writes that push the cache over a cap: it samples a
// bounded number of entries per shard and evicts the worst-scoring sample
// member under the configured EvictionPolicy (LRU, LFU, TTL, or a
// TTL-aware composite of LRU/LFU).
//
// # Concurrency Model
//
// diskcache uses a sharded design with fine-grained locking:
//
//	Index:      per-shard sync.RWMutex, 64 shards by default
//	Hot Tier:   single RWMutex over a bounded LRU list
//	Writes:     per-fingerprint write intent serializes concurrent Set/Delete
//	            calls for the same key without blocking unrelated keys
//
// # TTL (Time To Live)
//
// Automatic expiration with nanosecond-precision timestamps:
//
//	cache.Set(key, value, int64(5*time.Minute)) // expires in 5 minutes
//	cache.Set(key, value, 0)                    // never expires
//
// Expired entries are removed lazily on access and proactively by the
// background vacuum loop. The vacuum loop does not scan the directory for
// orphaned entry files; those are reconciled only by recovery in NewCache.
//
// # Observability
//
// Built-in stats tracking:
//
//	stats := cache.Stats()
//	fmt.Printf("Hits: %d, Misses: %d, Hit Ratio: %.2f%%\n",
//	    stats.Hits, stats.Misses, stats.HitRatio()*100)
//	fmt.Printf("Entries: %d, Bytes: %d, Evictions: %d\n",
//	    stats.Count, stats.TotalBytes, stats.Evictions)
//
// Enterprise observability with OpenTelemetry (optional):
//
//	import diskcacheotel "github.com/loonghao/diskcache-go/otel"
//
//	exporter, _ := prometheus.New()
//	provider := metric.NewMeterProvider(metric.WithReader(exporter))
//	collector, _ := diskcacheotel.NewOTelMetricsCollector(provider)
//
//	cfg := diskcache.DefaultConfig("/var/cache/myapp")
//	cfg.MetricsCollector = collector
//	cache, _ := diskcache.NewCache(cfg)
//
// The core diskcache package has zero OTEL dependencies. The otel package
// is a separate module.
//
// # Configuration
//
// Complete configuration options:
//
//	cfg := diskcache.Config{
//	    Directory:      "/var/cache/myapp", // Required
//	    MaxSize:        1 << 30,            // Optional: byte cap, 0 = unbounded
//	    MaxEntries:     100_000,            // Optional: entry cap, 0 = unbounded
//	    EvictionPolicy: diskcache.EvictionLRUTTL,
//	    Compression:    diskcache.CompressionLZ4,
//	    VacuumInterval: time.Hour,
//	    Logger:         myLogger,
//	    MetricsCollector: metricsCollector,
//	    TimeProvider:   myTimeProvider, // for deterministic tests
//	}
//	cache, err := diskcache.NewCache(cfg)
//
// # Error Handling
//
// diskcache uses structured errors with error codes:
//
//	value, found := cache.Get(key)
//	if !found {
//	    // miss, expired, or corrupt — not distinguishable from Get alone
//	}
//
//	err := cache.Set(key, value, 0)
//	if diskcache.IsTooLarge(err) {
//	    log.Printf("value exceeds MaxValueSize: %v", err)
//	} else if diskcache.IsIoError(err) {
//	    log.Printf("durable write failed: %v", err)
//	}
//
// Available error code families:
//   - DISKCACHE_INVALID_* / DISKCACHE_SCHEMA_MISMATCH: configuration errors
//   - DISKCACHE_NOT_FOUND / DISKCACHE_EMPTY_KEY / DISKCACHE_*_TOO_LARGE: operation errors
//   - DISKCACHE_CORRUPT_ENTRY / DISKCACHE_HASH_MISMATCH: codec verification failures
//   - DISKCACHE_IO_*: durable I/O failures, some retryable
//
// All errors implement the error interface and can be unwrapped.
//
// # Thread Safety
//
// All cache operations are safe for concurrent use:
//
//	cache, _ := diskcache.NewCache(diskcache.DefaultConfig(dir))
//
//	go func() { cache.Set([]byte("k"), []byte("v"), 0) }()
//	go func() { cache.Get([]byte("k")) }()
//	go func() { cache.Delete([]byte("k")) }()
//	go func() { _ = cache.Stats() }()
//
// # Examples
//
// The module ships no examples directory; the snippets above and the
// benchmarks/ module exercise the public API end to end.
//
// # Packages
//
//   - github.com/loonghao/diskcache-go: core cache implementation
//   - github.com/loonghao/diskcache-go/otel: OpenTelemetry integration (separate module)
//
// # License
//
// See LICENSE file in the repository.
package diskcache
