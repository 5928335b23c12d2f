// eviction_test.go: tests for sampling-based eviction scoring and trimming
//
// Copyright (c) 2025 loonghao
// SPDX-License-Identifier: MPL-2.0
package diskcache

import "testing"

func TestEvictionScoreLRU(t *testing.T) {
	m := EntryMeta{LastAccessNs: 42}
	if got := evictionScore(EvictionLRU, m, 1000); got != 42 {
		t.Errorf("evictionScore(LRU) = %d, want 42", got)
	}
}

func TestEvictionScoreLFU(t *testing.T) {
	m := EntryMeta{AccessCount: 7}
	if got := evictionScore(EvictionLFU, m, 1000); got != 7 {
		t.Errorf("evictionScore(LFU) = %d, want 7", got)
	}
}

func TestEvictionScoreTTLNeverExpiresLast(t *testing.T) {
	never := EntryMeta{ExpiresAtNs: 0}
	soon := EntryMeta{ExpiresAtNs: 100}
	if evictionScore(EvictionTTL, never, 1) <= evictionScore(EvictionTTL, soon, 1) {
		t.Error("an entry with no expiry should score higher (evict later) than one with a near expiry")
	}
}

func TestEvictionScoreTTLSoonerExpiryScoresLower(t *testing.T) {
	a := EntryMeta{ExpiresAtNs: 100}
	b := EntryMeta{ExpiresAtNs: 200}
	if evictionScore(EvictionTTL, a, 0) >= evictionScore(EvictionTTL, b, 0) {
		t.Error("sooner-expiring entries should score lower (evict first)")
	}
}

func TestEvictionScoreLRUTTLPrioritizesNearExpiry(t *testing.T) {
	nowNs := int64(1000)
	nearExpiry := EntryMeta{ExpiresAtNs: nowNs + 1, LastAccessNs: 999_999_999} // expires within the horizon
	recentlyUsed := EntryMeta{ExpiresAtNs: 0, LastAccessNs: 999_999_999}

	if evictionScore(EvictionLRUTTL, nearExpiry, nowNs) >= evictionScore(EvictionLRUTTL, recentlyUsed, nowNs) {
		t.Error("an entry expiring within the horizon should score lower than a non-expiring recently-used entry")
	}
}

func TestEvictionScoreLFUTTLPrioritizesNearExpiry(t *testing.T) {
	nowNs := int64(1000)
	nearExpiry := EntryMeta{ExpiresAtNs: nowNs + 1, AccessCount: 1000}
	frequentlyUsed := EntryMeta{ExpiresAtNs: 0, AccessCount: 1000}

	if evictionScore(EvictionLFUTTL, nearExpiry, nowNs) >= evictionScore(EvictionLFUTTL, frequentlyUsed, nowNs) {
		t.Error("an entry expiring within the horizon should score lower regardless of access count")
	}
}

func TestEvictionScoreUnknownPolicyFallsBackToLRU(t *testing.T) {
	m := EntryMeta{LastAccessNs: 55}
	if got := evictionScore(EvictionPolicy("bogus"), m, 0); got != 55 {
		t.Errorf("unknown policy should fall back to LastAccessNs, got %d", got)
	}
}

func TestPickVictimEmptyIndex(t *testing.T) {
	idx := newIndex(8, "")
	e := newEvictionEngine(idx, EvictionLRU, 64)
	_, _, ok := e.pickVictim(0)
	if ok {
		t.Fatal("expected pickVictim on an empty index to report ok=false")
	}
}

func TestPickVictimPicksOldestLRU(t *testing.T) {
	idx := newIndex(1, "") // single shard so sampling sees every entry
	for i := 0; i < 10; i++ {
		fp := fingerprintKey([]byte{byte(i)})
		idx.Put(fp, EntryMeta{LastAccessNs: int64(i)})
	}
	oldest := fingerprintKey([]byte{0})

	e := newEvictionEngine(idx, EvictionLRU, 64)
	fp, _, ok := e.pickVictim(1000)
	if !ok {
		t.Fatal("expected a victim")
	}
	if fp != oldest {
		t.Errorf("pickVictim chose %v, want the oldest entry %v", fp, oldest)
	}
}

func TestTrimToFitStopsWhenUnderBudget(t *testing.T) {
	idx := newIndex(8, "")
	e := newEvictionEngine(idx, EvictionLRU, 64)

	removeCalls := 0
	result := trimToFit(e, 0, 5, 1, 100, 100, func(fp Fingerprint, m EntryMeta) int64 {
		removeCalls++
		return m.SizeOnDisk
	})
	if removeCalls != 0 || result.Evicted != 0 {
		t.Errorf("expected no evictions when already under budget, got %+v (removeCalls=%d)", result, removeCalls)
	}
}

func TestTrimToFitEvictsUntilUnderBudget(t *testing.T) {
	idx := newIndex(1, "")
	for i := 0; i < 10; i++ {
		fp := fingerprintKey([]byte{byte(i)})
		idx.Put(fp, EntryMeta{SizeOnDisk: 10, LastAccessNs: int64(i)})
	}
	e := newEvictionEngine(idx, EvictionLRU, 64)

	removed := map[Fingerprint]bool{}
	result := trimToFit(e, 1000, 100, 10, 50, 100, func(fp Fingerprint, m EntryMeta) int64 {
		removed[fp] = true
		idx.Remove(fp)
		return m.SizeOnDisk
	})

	if result.Evicted == 0 {
		t.Fatal("expected at least one eviction to bring bytes under budget")
	}
	if result.Freed != int64(result.Evicted)*10 {
		t.Errorf("Freed = %d, want %d", result.Freed, int64(result.Evicted)*10)
	}
}

func TestTrimToFitHonorsSlack(t *testing.T) {
	idx := newIndex(1, "")
	idx.Put(fingerprintKey([]byte("a")), EntryMeta{SizeOnDisk: 96})
	e := newEvictionEngine(idx, EvictionLRU, 64)

	// 96 is within evictionSlack (5%) of maxBytes=100, so no eviction should
	// fire even though curBytes < maxBytes would otherwise look "fine" at a
	// tighter threshold.
	result := trimToFit(e, 0, 96, 1, 100, 0, func(fp Fingerprint, m EntryMeta) int64 {
		t.Fatal("should not evict within slack tolerance")
		return 0
	})
	if result.Evicted != 0 {
		t.Errorf("expected 0 evictions within slack tolerance, got %d", result.Evicted)
	}
}

func TestSweepExpiredFindsOnlyExpired(t *testing.T) {
	idx := newIndex(8, "")
	fpExpired := fingerprintKey([]byte("expired"))
	fpLive := fingerprintKey([]byte("live"))
	idx.Put(fpExpired, EntryMeta{ExpiresAtNs: 100})
	idx.Put(fpLive, EntryMeta{ExpiresAtNs: 0})

	expired := sweepExpired(idx, 200)
	if len(expired) != 1 || expired[0] != fpExpired {
		t.Errorf("sweepExpired = %v, want exactly [%v]", expired, fpExpired)
	}
}

func TestFastRandIntnBounds(t *testing.T) {
	r := newFastRand()
	if r.intn(0) != 0 {
		t.Error("intn(0) should be 0")
	}
	for i := 0; i < 100; i++ {
		if v := r.intn(10); v < 0 || v >= 10 {
			t.Fatalf("intn(10) = %d, out of range", v)
		}
	}
}
