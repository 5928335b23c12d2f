// hot-reload.go: dynamic configuration with Argus integration
//
// Copyright (c) 2025 loonghao
// SPDX-License-Identifier: MPL-2.0

package diskcache

import (
	"fmt"
	"sync"
	"time"

	"github.com/agilira/argus"
)

// HotConfig watches a configuration file with Argus and applies runtime
// adjustable settings to a running DiskCache as they change.
//
// Only MaxSize, MaxEntries, and VacuumInterval are hot-reloadable: they are
// plain capacity/cadence knobs the cache reads on every trim pass and
// vacuum tick. Everything else (EvictionPolicy, Compression, directory
// layout, shard count) is fixed at construction, the same way the fixed
// shard table of a sharded cache cannot be resized without a full rebuild.
type HotConfig struct {
	cache   *DiskCache
	watcher *argus.Watcher
	mu      sync.RWMutex
	limits  dynamicLimits

	// OnReload is called after configuration is successfully reloaded.
	// Must be fast and non-blocking.
	OnReload func(old, new dynamicLimits)
}

// dynamicLimits is the subset of Config that can change after NewCache.
type dynamicLimits struct {
	MaxSize        int64
	MaxEntries     int64
	VacuumInterval time.Duration
}

// HotConfigOptions configures hot reload behavior.
type HotConfigOptions struct {
	// ConfigPath is the path to the configuration file to watch.
	// Supports JSON, YAML, TOML, HCL, INI, Properties formats.
	ConfigPath string

	// PollInterval is how often to check for configuration changes.
	// Default: 1 second. Minimum: 100ms.
	PollInterval time.Duration

	// OnReload is called after configuration is successfully reloaded.
	OnReload func(old, new dynamicLimits)

	// Logger for hot reload operations. NewHotConfig substitutes NoOpLogger
	// when it is nil; HotConfig itself writes no log output.
	Logger Logger
}

// NewHotConfig starts watching opts.ConfigPath and applies MaxSize/MaxEntries/
// VacuumInterval changes to cache as they're detected.
//
// Example configuration file (YAML):
//
//	cache:
//	  max_size: 1073741824
//	  max_entries: 100000
//	  vacuum_interval: "30m"
func NewHotConfig(cache *DiskCache, opts HotConfigOptions) (*HotConfig, error) {
	if opts.ConfigPath == "" {
		return nil, fmt.Errorf("config_path is required")
	}
	if cache == nil {
		return nil, fmt.Errorf("cache is required")
	}

	if opts.PollInterval == 0 {
		opts.PollInterval = 1 * time.Second
	} else if opts.PollInterval < 100*time.Millisecond {
		opts.PollInterval = 100 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = NoOpLogger{}
	}

	hc := &HotConfig{
		cache:    cache,
		OnReload: opts.OnReload,
		limits: dynamicLimits{
			MaxSize:        cache.maxSize.Load(),
			MaxEntries:     cache.maxEntries.Load(),
			VacuumInterval: cache.currentVacuumInterval(),
		},
	}

	argusConfig := argus.Config{PollInterval: opts.PollInterval}
	watcher, err := argus.UniversalConfigWatcherWithConfig(opts.ConfigPath, hc.handleConfigChange, argusConfig)
	if err != nil {
		return nil, err
	}
	hc.watcher = watcher

	return hc, nil
}

// Start begins watching the configuration file for changes.
func (hc *HotConfig) Start() error {
	if hc.watcher.IsRunning() {
		return nil
	}
	return hc.watcher.Start()
}

// Stop stops watching the configuration file.
func (hc *HotConfig) Stop() error {
	return hc.watcher.Stop()
}

// Limits returns the last-applied dynamic limits (thread-safe).
func (hc *HotConfig) Limits() dynamicLimits {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return hc.limits
}

func (hc *HotConfig) handleConfigChange(configData map[string]interface{}) {
	hc.mu.Lock()
	old := hc.limits
	updated := hc.parseLimits(configData, old)
	hc.limits = updated
	hc.mu.Unlock()

	hc.cache.SetLimits(updated.MaxSize, updated.MaxEntries)
	if updated.VacuumInterval != old.VacuumInterval {
		hc.cache.SetVacuumInterval(updated.VacuumInterval)
	}

	if hc.OnReload != nil {
		hc.OnReload(old, updated)
	}
}

func parsePositiveInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int:
		if v > 0 {
			return int64(v), true
		}
	case int64:
		if v > 0 {
			return v, true
		}
	case float64:
		if v > 0 {
			return int64(v), true
		}
	}
	return 0, false
}

func parseDuration(value interface{}) (time.Duration, bool) {
	if str, ok := value.(string); ok {
		if d, err := time.ParseDuration(str); err == nil {
			return d, true
		}
	}
	return 0, false
}

// parseLimits extracts dynamic limits from Argus config data, falling back
// to the previous value for any key that's absent or malformed.
func (hc *HotConfig) parseLimits(data map[string]interface{}, prev dynamicLimits) dynamicLimits {
	next := prev

	section, ok := data["cache"].(map[string]interface{})
	if !ok {
		if _, hasMaxSize := data["max_size"]; hasMaxSize {
			section = data
		} else {
			return next
		}
	}

	if v, ok := parsePositiveInt64(section["max_size"]); ok {
		next.MaxSize = v
	}
	if v, ok := parsePositiveInt64(section["max_entries"]); ok {
		next.MaxEntries = v
	}
	if d, ok := parseDuration(section["vacuum_interval"]); ok {
		next.VacuumInterval = d
	}

	return next
}
