package respawn

import (
	"math/rand"
	"sync"
	"time"

	"duskfall/server/internal/state"
)

// Key identifies a cooldown bucket: one per species/tier/eliteness combination.
type Key struct {
	Species state.Species
	Tier    int
	Elite   bool
}

// Config carries the delay constants. The canonical values vary between
// deployments, so everything is configuration, nothing is hard-coded.
type Config struct {
	BaseDelay time.Duration
	MinDelay  time.Duration
	MaxDelay  time.Duration
}

func DefaultConfig() Config {
	return Config{
		BaseDelay: 60 * time.Second,
		MinDelay:  30 * time.Second,
		MaxDelay:  5 * time.Minute,
	}
}

func (c Config) Normalized() Config {
	normalized := c
	if normalized.BaseDelay <= 0 {
		normalized.BaseDelay = DefaultConfig().BaseDelay
	}
	if normalized.MinDelay <= 0 {
		normalized.MinDelay = DefaultConfig().MinDelay
	}
	if normalized.MaxDelay < normalized.MinDelay {
		normalized.MaxDelay = DefaultConfig().MaxDelay
	}
	if normalized.MaxDelay < normalized.MinDelay {
		normalized.MaxDelay = normalized.MinDelay
	}
	return normalized
}

type cooldown struct {
	diedAt time.Time
	nextAt time.Time
}

// Scheduler gates spawn attempts per key. Reads never mutate; only
// RecordDeath and ResetAll write, so spawn checks stay side-effect free.
type Scheduler struct {
	mu        sync.Mutex
	cfg       Config
	rng       *rand.Rand
	cooldowns map[Key]cooldown
}

func NewScheduler(cfg Config, rng *rand.Rand) *Scheduler {
	return &Scheduler{
		cfg:       cfg.Normalized(),
		rng:       rng,
		cooldowns: make(map[Key]cooldown),
	}
}

// Delay computes the cooldown for a key without jitter bounds applied yet:
// base × tierFactor × eliteFactor × jitter(0.9..1.1), clamped to [min, max].
func (s *Scheduler) Delay(key Key, jitter float64) time.Duration {
	tierFactor := 1 + float64(key.Tier-1)*0.2
	if tierFactor < 1 {
		tierFactor = 1
	}
	eliteFactor := 1.0
	if key.Elite {
		eliteFactor = 1.5
	}
	delay := time.Duration(float64(s.cfg.BaseDelay) * tierFactor * eliteFactor * jitter)
	if delay < s.cfg.MinDelay {
		delay = s.cfg.MinDelay
	}
	if delay > s.cfg.MaxDelay {
		delay = s.cfg.MaxDelay
	}
	return delay
}

// RecordDeath stamps the key's earliest-next-spawn time.
func (s *Scheduler) RecordDeath(key Key, now time.Time) time.Time {
	if s == nil {
		return time.Time{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	jitter := 0.9 + 0.2*randFloat(s.rng)
	next := now.Add(s.Delay(key, jitter))
	s.cooldowns[key] = cooldown{diedAt: now, nextAt: next}
	return next
}

// CanSpawn reports whether the key is clear: no recorded cooldown, or the
// earliest-next-spawn time has passed.
func (s *Scheduler) CanSpawn(key Key, now time.Time) bool {
	if s == nil {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cd, ok := s.cooldowns[key]
	if !ok {
		return true
	}
	return !now.Before(cd.nextAt)
}

// NextSpawnAt reports the recorded earliest-next-spawn time for the key.
func (s *Scheduler) NextSpawnAt(key Key) (time.Time, bool) {
	if s == nil {
		return time.Time{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cd, ok := s.cooldowns[key]
	if !ok {
		return time.Time{}, false
	}
	return cd.nextAt, true
}

// ResetAll clears every cooldown; administrative use only.
func (s *Scheduler) ResetAll() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cooldowns = make(map[Key]cooldown)
}

func randFloat(rng *rand.Rand) float64 {
	if rng == nil {
		return 0.5
	}
	return rng.Float64()
}
