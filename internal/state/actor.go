package state

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ActorID uniquely identifies a managed mob for its lifetime.
type ActorID string

// NewActorID mints an opaque identity for a freshly spawned mob.
func NewActorID() ActorID {
	return ActorID("mob-" + uuid.NewString())
}

// Species identifies a bestiary entry.
type Species string

const (
	// MinTier and MaxTier bound the accepted power tiers.
	MinTier = 1
	MaxTier = 6
	// StandardTierCap is the ceiling applied when extended tiers are disabled.
	StandardTierCap = 5
)

// ClampTier normalizes a requested tier. Tiers above the standard cap are
// pulled down to it unless extended tiers are enabled.
func ClampTier(tier int, extended bool) int {
	if tier < MinTier {
		return MinTier
	}
	if !extended && tier > StandardTierCap {
		return StandardTierCap
	}
	if tier > MaxTier {
		return MaxTier
	}
	return tier
}

// Anchor is the point an actor must remain near: its spawn origin and the
// center of wander enforcement.
type Anchor struct {
	Region string
	Pos    Vec2
}

// Weapon carries the damage range of the mob's equipped weapon; zero values
// mean the mob spawned bare-handed.
type Weapon struct {
	MinDamage float64
	MaxDamage float64
}

// Actor is the behavioral record for one live mob. The registry owns it; the
// host world owns the native entity it shadows.
type Actor struct {
	ID      ActorID
	Species Species
	Tier    int
	Elite   bool
	Boss    bool

	// mu guards the health pair and the cooldown map. Combat events, the tick
	// jobs, and the visibility sweep touch them from different goroutines;
	// everything else on the record is written before registration or by a
	// single owner.
	mu        sync.Mutex
	Health    float64
	MaxHealth float64

	Pos    Vec2
	Region string
	Anchor Anchor

	// Label is the persistent identity label captured at spawn; TaggedName is
	// an externally applied override. Restoration precedence lives in the
	// visibility controller.
	Label      string
	TaggedName string

	Weapon    Weapon
	Cooldowns map[string]time.Time
	SpawnedAt time.Time

	LastDamagedAt time.Time
}

// HealthEpsilon defines the tolerance used when comparing health values.
const HealthEpsilon = 1e-6

// SetHealth normalizes and applies a health/max-health pair, reporting whether
// either value changed.
func (a *Actor) SetHealth(computedMax, health float64) bool {
	if a == nil {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.setHealthLocked(computedMax, health)
}

func (a *Actor) setHealthLocked(computedMax, health float64) bool {
	if math.IsNaN(health) || math.IsInf(health, 0) {
		return false
	}

	max := computedMax
	if max <= 0 {
		max = a.MaxHealth
	}
	if max <= 0 {
		max = health
	}

	if health < 0 {
		health = 0
	}
	if max > 0 && health > max {
		health = max
	}

	if math.Abs(a.MaxHealth-max) < HealthEpsilon && math.Abs(a.Health-health) < HealthEpsilon {
		return false
	}
	a.Health = health
	a.MaxHealth = max
	return true
}

// ApplyDamage subtracts up to amount from health and returns the portion
// actually applied. Overkill past zero is not attributed.
func (a *Actor) ApplyDamage(amount float64) float64 {
	if a == nil || amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	applied := amount
	if applied > a.Health {
		applied = a.Health
	}
	a.setHealthLocked(a.MaxHealth, a.Health-applied)
	return applied
}

// Heal restores up to amount, capped at max health, and returns the portion
// actually applied.
func (a *Actor) Heal(amount float64) float64 {
	if a == nil || amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	applied := amount
	if a.Health+applied > a.MaxHealth {
		applied = a.MaxHealth - a.Health
	}
	if applied <= 0 {
		return 0
	}
	a.setHealthLocked(a.MaxHealth, a.Health+applied)
	return applied
}

// HealthSnapshot reads the health pair atomically for display and telemetry.
func (a *Actor) HealthSnapshot() (health, max float64) {
	if a == nil {
		return 0, 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Health, a.MaxHealth
}

// HealthPercent reports current health as a fraction of max in [0,1].
func (a *Actor) HealthPercent() float64 {
	if a == nil {
		return 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.MaxHealth <= 0 {
		return 0
	}
	return a.Health / a.MaxHealth
}

// Alive reports whether the actor still has health remaining.
func (a *Actor) Alive() bool {
	if a == nil {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Health > HealthEpsilon
}

// DefaultLabel derives an identity label from species and tier, the last
// fallback when no stored or tagged name exists.
func (a *Actor) DefaultLabel() string {
	if a == nil {
		return ""
	}
	name := strings.ReplaceAll(string(a.Species), "_", " ")
	if name == "" {
		name = "mob"
	}
	if a.Elite {
		name = "Elite " + name
	}
	return fmt.Sprintf("%s [T%d]", name, a.Tier)
}

// ReadyCooldown reports whether the named cooldown has elapsed and, when it
// has, stamps the new trigger time. The map is lazily allocated.
func (a *Actor) ReadyCooldown(name string, cooldown time.Duration, now time.Time) bool {
	if a == nil || name == "" {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Cooldowns == nil {
		a.Cooldowns = make(map[string]time.Time)
	}
	if last, ok := a.Cooldowns[name]; ok && now.Sub(last) < cooldown {
		return false
	}
	a.Cooldowns[name] = now
	return true
}

// CooldownAt reports the last trigger time of the named cooldown.
func (a *Actor) CooldownAt(name string) (time.Time, bool) {
	if a == nil {
		return time.Time{}, false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	last, ok := a.Cooldowns[name]
	return last, ok
}

// StampCooldown records the named cooldown's trigger time.
func (a *Actor) StampCooldown(name string, now time.Time) {
	if a == nil || name == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Cooldowns == nil {
		a.Cooldowns = make(map[string]time.Time)
	}
	a.Cooldowns[name] = now
}
