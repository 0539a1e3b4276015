package respawn

import (
	"math/rand"
	"testing"
	"time"
)

func testScheduler(seed int64) *Scheduler {
	return NewScheduler(DefaultConfig(), rand.New(rand.NewSource(seed)))
}

func TestCanSpawnBeforeAnyDeath(t *testing.T) {
	t.Parallel()

	s := testScheduler(1)
	key := Key{Species: "zombie", Tier: 1}
	if !s.CanSpawn(key, time.UnixMilli(1_700_000_000)) {
		t.Fatalf("expected a fresh key to be spawnable")
	}
}

func TestRecordDeathGatesUntilDelayElapses(t *testing.T) {
	t.Parallel()

	s := testScheduler(1)
	key := Key{Species: "zombie", Tier: 2}
	now := time.UnixMilli(1_700_000_000)

	next := s.RecordDeath(key, now)
	if !next.After(now) {
		t.Fatalf("expected next spawn after death time")
	}
	if s.CanSpawn(key, now) {
		t.Fatalf("expected spawn blocked immediately after death")
	}
	if s.CanSpawn(key, next.Add(-time.Millisecond)) {
		t.Fatalf("expected spawn blocked just before next-spawn time")
	}
	if !s.CanSpawn(key, next) {
		t.Fatalf("expected spawn allowed at next-spawn time")
	}

	recorded, ok := s.NextSpawnAt(key)
	if !ok || !recorded.Equal(next) {
		t.Fatalf("expected NextSpawnAt to match RecordDeath result")
	}
}

func TestCooldownKeysAreIndependent(t *testing.T) {
	t.Parallel()

	s := testScheduler(1)
	now := time.UnixMilli(1_700_000_000)
	s.RecordDeath(Key{Species: "zombie", Tier: 3}, now)

	others := []Key{
		{Species: "zombie", Tier: 4},
		{Species: "zombie", Tier: 3, Elite: true},
		{Species: "skeleton", Tier: 3},
	}
	for _, key := range others {
		if !s.CanSpawn(key, now) {
			t.Fatalf("expected key %+v unaffected by sibling cooldown", key)
		}
	}
}

func TestDelayStaysWithinClampForAllCombinations(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	s := NewScheduler(cfg, rand.New(rand.NewSource(42)))

	for tier := 1; tier <= 6; tier++ {
		for _, elite := range []bool{false, true} {
			for _, jitter := range []float64{0.9, 1.0, 1.1} {
				key := Key{Species: "zombie", Tier: tier, Elite: elite}
				delay := s.Delay(key, jitter)
				if delay < cfg.MinDelay || delay > cfg.MaxDelay {
					t.Fatalf("tier %d elite %v jitter %v: delay %v outside [%v, %v]",
						tier, elite, jitter, delay, cfg.MinDelay, cfg.MaxDelay)
				}
			}
		}
	}
}

func TestDelayGrowsWithTierAndEliteness(t *testing.T) {
	t.Parallel()

	s := testScheduler(1)
	t1 := s.Delay(Key{Tier: 1}, 1.0)
	t3 := s.Delay(Key{Tier: 3}, 1.0)
	if t3 <= t1 {
		t.Fatalf("expected tier 3 delay %v above tier 1 delay %v", t3, t1)
	}

	plain := s.Delay(Key{Tier: 2}, 1.0)
	elite := s.Delay(Key{Tier: 2, Elite: true}, 1.0)
	if elite <= plain {
		t.Fatalf("expected elite delay %v above plain delay %v", elite, plain)
	}

	// Tier 1 at base: 60s exactly.
	if t1 != 60*time.Second {
		t.Fatalf("expected tier 1 base delay 60s, got %v", t1)
	}
	// Tier 3: 60s x 1.4.
	if t3 != 84*time.Second {
		t.Fatalf("expected tier 3 delay 84s, got %v", t3)
	}
	// Tier 2 elite: 60s x 1.2 x 1.5.
	if elite != 108*time.Second {
		t.Fatalf("expected tier 2 elite delay 108s, got %v", elite)
	}
}

func TestDelayClampsAtMaximum(t *testing.T) {
	t.Parallel()

	cfg := Config{BaseDelay: 4 * time.Minute, MinDelay: 30 * time.Second, MaxDelay: 5 * time.Minute}
	s := NewScheduler(cfg, rand.New(rand.NewSource(1)))
	delay := s.Delay(Key{Tier: 6, Elite: true}, 1.1)
	if delay != cfg.MaxDelay {
		t.Fatalf("expected clamp at max %v, got %v", cfg.MaxDelay, delay)
	}
}

func TestResetAllClearsEveryCooldown(t *testing.T) {
	t.Parallel()

	s := testScheduler(1)
	now := time.UnixMilli(1_700_000_000)
	key := Key{Species: "zombie", Tier: 1}
	s.RecordDeath(key, now)
	if s.CanSpawn(key, now) {
		t.Fatalf("expected cooldown active before reset")
	}
	s.ResetAll()
	if !s.CanSpawn(key, now) {
		t.Fatalf("expected cooldown cleared after reset")
	}
}

func TestNormalizedFillsZeroValues(t *testing.T) {
	t.Parallel()

	cfg := Config{}.Normalized()
	defaults := DefaultConfig()
	if cfg.BaseDelay != defaults.BaseDelay || cfg.MinDelay != defaults.MinDelay || cfg.MaxDelay != defaults.MaxDelay {
		t.Fatalf("expected defaults applied, got %+v", cfg)
	}
}
