// cache.go: the public Cache controller
//
// Cache sequences the three tiers on every operation: a read checks the
// Index for presence and expiry first, then the hot tier, then the disk
// tier; a write populates the hot tier last. The Index is the single source
// of truth for presence/expiry/size; the disk tier is the durable store. The write ordering that matters for crash safety is "disk
// rename precedes Index publish": a crash between those two steps leaves an
// orphan entry file that recovery.go reconciles away rather than a dangling
// Index entry pointing at nothing.
//
// Copyright (c) 2025 loonghao
// SPDX-License-Identifier: MPL-2.0
package diskcache

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// DiskCache is a persistent, thread-safe, disk-backed key-value cache safe
// to use from multiple goroutines and safe against process crashes
// mid-write. The zero value is not usable; construct one with NewCache.
type DiskCache struct {
	cfg     Config
	disk    *diskTier
	idx     *Index
	hot     *hotTier
	wi      *writeIntentTable
	evictor *evictionEngine

	startNs int64
	closed  atomic.Bool

	curBytes   atomic.Int64
	curEntries atomic.Int64

	// maxSize/maxEntries mirror cfg.MaxSize/cfg.MaxEntries but live in
	// atomics so hot-reload.go can adjust them without touching the rest
	// of Config, which the running tiers already closed over by value.
	maxSize    atomic.Int64
	maxEntries atomic.Int64

	hits, misses, evictions, expired, corrupt, hotHits atomic.Uint64

	pool *workerPool

	vacuumStop     chan struct{}
	vacuumDone     chan struct{}
	vacuumInterval atomic.Int64 // time.Duration, nanoseconds
	vacuumReset    chan struct{}
}

var _ Cache = (*DiskCache)(nil)

// NewCache opens (creating if absent) a disk-backed cache rooted at
// cfg.Directory, replaying its journal and reconciling it against the
// on-disk entry files before returning.
func NewCache(cfg Config) (*DiskCache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	disk := newDiskTier(cfg)
	meta, err := disk.open(cfg)
	if err != nil {
		return nil, err
	}

	idx := newIndex(DefaultIndexShards, disk.idxDir)
	idx.configureCompaction(cfg.JournalCompactSegments)

	report, err := recoverCache(disk, idx, cfg, meta)
	if err != nil {
		return nil, NewErrRecoveryFailed(cfg.Directory, err)
	}

	c := &DiskCache{
		cfg:        cfg,
		disk:       disk,
		idx:        idx,
		hot:        newHotTier(cfg.HotMaxBytes, cfg.HotMaxEntries, cfg.HotItemCap),
		wi:         newWriteIntentTable(),
		evictor:    newEvictionEngine(idx, cfg.EvictionPolicy, cfg.EvictionSampleSize),
		pool:       newWorkerPool(workerPoolSize, workerPoolQueueSize),
		startNs:    cfg.TimeProvider.Now(),
		vacuumStop: make(chan struct{}),
		vacuumDone: make(chan struct{}),
		vacuumReset: make(chan struct{}, 1),
	}
	c.curBytes.Store(report.TotalBytes)
	c.curEntries.Store(report.TotalEntries)
	c.maxSize.Store(cfg.MaxSize)
	c.maxEntries.Store(cfg.MaxEntries)
	c.vacuumInterval.Store(int64(cfg.VacuumInterval))

	idx.onCompactNeeded = func() bool {
		return c.pool.dispatch(idx.compactIfDue)
	}

	cfg.Logger.Info("diskcache opened",
		"directory", cfg.Directory,
		"entries", report.TotalEntries,
		"bytes", report.TotalBytes,
		"orphans_removed", report.OrphansRemoved,
		"dangling_removed", report.DanglingRemoved,
		"metadata_corrected", report.MetadataCorrected,
		"journal_replay", report.JournalReplayed,
	)

	go c.vacuumLoop()
	return c, nil
}

// Get returns the value for key, or (nil, false) on miss or expiry.
func (c *DiskCache) Get(key []byte) ([]byte, bool) {
	v, err := c.getContext(context.Background(), key)
	return v, err == nil
}

// GetContext is Get with cancellation support for the disk read path.
func (c *DiskCache) GetContext(ctx context.Context, key []byte) ([]byte, bool) {
	v, err := c.getContext(ctx, key)
	return v, err == nil
}

func (c *DiskCache) getContext(ctx context.Context, key []byte) (value []byte, err error) {
	if c.closed.Load() {
		return nil, NewErrClosed("get")
	}
	start := time.Now()
	defer func() {
		c.cfg.MetricsCollector.RecordGet(time.Since(start).Nanoseconds(), err == nil)
	}()

	if len(key) == 0 {
		return nil, NewErrEmptyKey("get")
	}
	if len(key) > MaxKeySize {
		return nil, NewErrKeyTooLarge(len(key), MaxKeySize)
	}

	fp := fingerprintKey(key)
	now := c.cfg.TimeProvider.Now()

	meta, ok := c.idx.Get(fp)
	if !ok {
		c.misses.Add(1)
		return nil, NewErrNotFound(key)
	}
	if meta.Expired(now) {
		c.expired.Add(1)
		c.removeEntry(fp, meta)
		c.cfg.MetricsCollector.RecordExpiration()
		if c.cfg.OnExpire != nil {
			c.cfg.OnExpire(fp)
		}
		return nil, NewErrNotFound(key)
	}

	if v, ok := c.hot.Get(fp); ok {
		c.hits.Add(1)
		c.hotHits.Add(1)
		c.idx.Touch(fp, now)
		return v, nil
	}

	if ctx != nil {
		if cerr := ctx.Err(); cerr != nil {
			c.misses.Add(1)
			return nil, NewErrIo(ErrCodeIoTransient, "get", cerr)
		}
	}

	entry, err := c.disk.read(fp)
	if err != nil {
		if IsCorrupt(err) {
			c.corrupt.Add(1)
			c.cfg.MetricsCollector.RecordCorruptRead()
			c.removeEntry(fp, meta)
		}
		c.misses.Add(1)
		return nil, err
	}
	if !bytes.Equal(entry.Key, key) {
		c.misses.Add(1)
		return nil, NewErrNotFound(key)
	}

	c.hits.Add(1)
	c.idx.Touch(fp, now)
	c.hot.PutOnHit(fp, entry.Value)
	return entry.Value, nil
}

// Set stores value under key with the given TTL in nanoseconds (0 means no
// expiry).
func (c *DiskCache) Set(key, value []byte, ttl int64) error {
	return c.SetContext(context.Background(), key, value, ttl)
}

// SetContext is Set with cancellation support for the disk write path.
func (c *DiskCache) SetContext(ctx context.Context, key, value []byte, ttl int64) error {
	if c.closed.Load() {
		return NewErrClosed("set")
	}
	start := time.Now()
	defer func() {
		c.cfg.MetricsCollector.RecordSet(time.Since(start).Nanoseconds())
	}()

	if len(key) == 0 {
		return NewErrEmptyKey("set")
	}
	if len(key) > MaxKeySize {
		return NewErrKeyTooLarge(len(key), MaxKeySize)
	}

	fp := fingerprintKey(key)
	release := c.wi.acquire(fp)
	defer release()

	now := c.cfg.TimeProvider.Now()
	var expiresAt int64
	if ttl > 0 {
		expiresAt = now + ttl
	}

	size, err := c.disk.write(ctx, fp, key, value, now, expiresAt, c.cfg.Compression == CompressionLZ4, c.cfg.MaxValueSize)
	if err != nil {
		return err
	}

	prev, had := c.idx.Put(fp, EntryMeta{
		Fingerprint:  fp,
		SizeOnDisk:   size,
		ExpiresAtNs:  expiresAt,
		LastAccessNs: now,
		AccessCount:  1,
	})
	if had {
		c.curBytes.Add(size - prev.SizeOnDisk)
	} else {
		c.curBytes.Add(size)
		c.curEntries.Add(1)
	}

	c.hot.Put(fp, value)

	c.pool.dispatch(func() { c.maybeTrim(now) })
	return nil
}

// Delete removes key from the cache. Deleting an absent key is not an
// error.
func (c *DiskCache) Delete(key []byte) error {
	if c.closed.Load() {
		return NewErrClosed("delete")
	}
	start := time.Now()
	defer func() {
		c.cfg.MetricsCollector.RecordDelete(time.Since(start).Nanoseconds())
	}()

	if len(key) == 0 {
		return NewErrEmptyKey("delete")
	}
	if len(key) > MaxKeySize {
		return NewErrKeyTooLarge(len(key), MaxKeySize)
	}

	fp := fingerprintKey(key)
	release := c.wi.acquire(fp)
	defer release()

	meta, had := c.idx.Get(fp)
	if !had {
		return nil
	}
	c.removeEntry(fp, meta)
	return nil
}

// Exists reports whether key is present and unexpired, without reading its
// value from disk.
func (c *DiskCache) Exists(key []byte) bool {
	if c.closed.Load() || len(key) == 0 {
		return false
	}
	fp := fingerprintKey(key)
	meta, ok := c.idx.Get(fp)
	if !ok {
		return false
	}
	if meta.Expired(c.cfg.TimeProvider.Now()) {
		return false
	}
	return true
}

// Clear removes every entry from every tier.
func (c *DiskCache) Clear() error {
	if c.closed.Load() {
		return NewErrClosed("clear")
	}
	if err := c.disk.clear(); err != nil {
		return err
	}
	idx := newIndex(c.idx.ShardCount(), c.disk.idxDir)
	idx.configureCompaction(c.cfg.JournalCompactSegments)
	idx.onCompactNeeded = func() bool {
		return c.pool.dispatch(idx.compactIfDue)
	}
	c.idx = idx
	c.hot.Clear()
	c.curBytes.Store(0)
	c.curEntries.Store(0)
	return nil
}

// Stats returns a point-in-time snapshot of cache counters.
func (c *DiskCache) Stats() CacheStats {
	return CacheStats{
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
		Evictions:    c.evictions.Load(),
		Expired:      c.expired.Load(),
		CorruptReads: c.corrupt.Load(),
		TotalBytes:   c.curBytes.Load(),
		Count:        c.curEntries.Load(),
		HotHits:      c.hotHits.Load(),
		HotBytes:     c.hot.Bytes(),
		UptimeNs:     c.cfg.TimeProvider.Now() - c.startNs,
	}
}

// Close stops the background vacuum loop and flushes the index journal.
func (c *DiskCache) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(c.vacuumStop)
	<-c.vacuumDone
	c.pool.close()
	return c.idx.Close()
}

// removeEntry deletes fp from disk and index and adjusts byte/entry
// counters. Callers must already know meta (from a prior idx.Get) so the
// byte accounting subtracts the right size even if a concurrent writer is
// mid-flight on a different fingerprint.
func (c *DiskCache) removeEntry(fp Fingerprint, meta EntryMeta) {
	_ = c.disk.remove(fp)
	if _, had := c.idx.Remove(fp); had {
		c.curBytes.Add(-meta.SizeOnDisk)
		c.curEntries.Add(-1)
	}
	c.hot.Remove(fp)
}

// maybeTrim runs a bounded eviction pass if the cache is over its
// configured byte or entry budget. Dispatched onto the worker pool after
// every Set so capacity limits are enforced promptly without the caller
// blocking on a disk-scanning trim pass.
func (c *DiskCache) maybeTrim(nowNs int64) {
	maxSize, maxEntries := c.maxSize.Load(), c.maxEntries.Load()
	if maxSize <= 0 && maxEntries <= 0 {
		return
	}
	result := trimToFit(c.evictor, nowNs, c.curBytes.Load(), c.curEntries.Load(), maxSize, maxEntries,
		func(fp Fingerprint, meta EntryMeta) int64 {
			_ = c.disk.remove(fp)
			if _, had := c.idx.Remove(fp); !had {
				return 0
			}
			c.hot.Remove(fp)
			if c.cfg.OnEvict != nil {
				c.cfg.OnEvict(fp)
			}
			return meta.SizeOnDisk
		})
	if result.Evicted > 0 {
		c.curBytes.Add(-result.Freed)
		c.curEntries.Add(-int64(result.Evicted))
		c.evictions.Add(uint64(result.Evicted))
		for i := 0; i < result.Evicted; i++ {
			c.cfg.MetricsCollector.RecordEviction()
		}
	}
}

func (c *DiskCache) vacuumLoop() {
	defer close(c.vacuumDone)
	ticker := time.NewTicker(c.currentVacuumInterval())
	defer ticker.Stop()
	for {
		select {
		case <-c.vacuumStop:
			return
		case <-c.vacuumReset:
			ticker.Stop()
			ticker = time.NewTicker(c.currentVacuumInterval())
		case <-ticker.C:
			c.pool.dispatch(c.runVacuum)
		}
	}
}

func (c *DiskCache) currentVacuumInterval() time.Duration {
	d := time.Duration(c.vacuumInterval.Load())
	if d <= 0 {
		d = time.Hour
	}
	return d
}

// SetLimits adjusts the running byte/entry capacity caps. Used by
// hot-reload.go; safe to call concurrently with cache operations.
func (c *DiskCache) SetLimits(maxSize, maxEntries int64) {
	c.maxSize.Store(maxSize)
	c.maxEntries.Store(maxEntries)
}

// SetVacuumInterval changes the background vacuum cadence, taking effect on
// the next tick. Used by hot-reload.go.
func (c *DiskCache) SetVacuumInterval(d time.Duration) {
	c.vacuumInterval.Store(int64(d))
	select {
	case c.vacuumReset <- struct{}{}:
	default:
	}
}

func (c *DiskCache) runVacuum() {
	defer func() {
		if r := recover(); r != nil {
			c.cfg.Logger.Error("vacuum panic recovered", "panic", r)
		}
	}()

	start := time.Now()
	now := c.cfg.TimeProvider.Now()
	expired := sweepExpired(c.idx, now)

	var wg sync.WaitGroup
	removed := 0
	var mu sync.Mutex
	for _, fp := range expired {
		wg.Add(1)
		go func(fp Fingerprint) {
			defer wg.Done()
			release := c.wi.acquire(fp)
			defer release()
			meta, ok := c.idx.Get(fp)
			if !ok || !meta.Expired(now) {
				return
			}
			c.removeEntry(fp, meta)
			if c.cfg.OnExpire != nil {
				c.cfg.OnExpire(fp)
			}
			mu.Lock()
			removed++
			mu.Unlock()
		}(fp)
	}
	wg.Wait()

	if removed > 0 {
		c.expired.Add(uint64(removed))
		c.cfg.MetricsCollector.RecordVacuum(removed, time.Since(start).Nanoseconds())
	}
}
