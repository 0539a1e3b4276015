package registry

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"duskfall/server/bestiary"
	"duskfall/server/internal/boss"
	"duskfall/server/internal/crit"
	"duskfall/server/internal/ledger"
	"duskfall/server/internal/respawn"
	"duskfall/server/internal/state"
	"duskfall/server/internal/visibility"
	"duskfall/server/internal/world"
	"duskfall/server/logging"
	logginglifecycle "duskfall/server/logging/lifecycle"
)

// Config tunes the registry and the subsystems it owns.
type Config struct {
	MaxPerAnchor     int
	DetectionRadius  float64
	WanderRadius     float64
	CritAreaRadius   float64
	ExtendedTiers    bool
	Debug            bool
	VisibilityWindow time.Duration
	LedgerIdleWindow time.Duration
	Respawn          respawn.Config
	Seed             string
}

func DefaultConfig() Config {
	return Config{
		MaxPerAnchor:     8,
		DetectionRadius:  24,
		WanderRadius:     32,
		CritAreaRadius:   6,
		VisibilityWindow: visibility.DefaultWindow,
		LedgerIdleWindow: ledger.DefaultIdleWindow,
		Respawn:          respawn.DefaultConfig(),
		Seed:             world.DefaultSeed,
	}
}

func (c Config) Normalized() Config {
	normalized := c
	defaults := DefaultConfig()
	if normalized.MaxPerAnchor <= 0 {
		normalized.MaxPerAnchor = defaults.MaxPerAnchor
	}
	if normalized.DetectionRadius <= 0 {
		normalized.DetectionRadius = defaults.DetectionRadius
	}
	if normalized.WanderRadius <= 0 {
		normalized.WanderRadius = defaults.WanderRadius
	}
	if normalized.CritAreaRadius <= 0 {
		normalized.CritAreaRadius = defaults.CritAreaRadius
	}
	if normalized.VisibilityWindow <= 0 {
		normalized.VisibilityWindow = defaults.VisibilityWindow
	}
	if normalized.LedgerIdleWindow <= 0 {
		normalized.LedgerIdleWindow = defaults.LedgerIdleWindow
	}
	normalized.Respawn = normalized.Respawn.Normalized()
	if normalized.Seed == "" {
		normalized.Seed = defaults.Seed
	}
	return normalized
}

// Registry is the explicitly constructed lifecycle service: it owns the
// live-actor table, the subsystems driving combat state, and the singleton
// world-boss slot. Callers receive a reference; there is no process global.
type Registry struct {
	cfg     Config
	catalog *bestiary.Catalog
	host    world.Host
	svcs    Services
	pub     logging.Publisher
	clock   logging.Clock

	damage   *ledger.Ledger
	critical *crit.Machine
	vis      *visibility.Controller
	cooldown *respawn.Scheduler
	spawnRNG *rand.Rand
	rollRNG  *rand.Rand

	mu           sync.RWMutex
	actors       map[state.ActorID]*state.Actor
	anchorCounts map[state.Anchor]int
	boss         *boss.Controller
	tick         uint64
}

func New(cfg Config, catalog *bestiary.Catalog, host world.Host, svcs Services, clock logging.Clock, pub logging.Publisher) *Registry {
	cfg = cfg.Normalized()
	if catalog == nil {
		catalog = bestiary.Default()
	}
	if clock == nil {
		clock = logging.SystemClock{}
	}
	if pub == nil {
		pub = logging.NopPublisher
	}
	svcs = svcs.normalized()

	r := &Registry{
		cfg:          cfg,
		catalog:      catalog,
		host:         host,
		svcs:         svcs,
		pub:          pub,
		clock:        clock,
		damage:       ledger.New(cfg.LedgerIdleWindow),
		cooldown:     respawn.NewScheduler(cfg.Respawn, world.NewDeterministicRNG(cfg.Seed, "respawn")),
		spawnRNG:     world.NewDeterministicRNG(cfg.Seed, "spawn"),
		rollRNG:      world.NewDeterministicRNG(cfg.Seed, "combat"),
		actors:       make(map[state.ActorID]*state.Actor),
		anchorCounts: make(map[state.Anchor]int),
	}

	critRNG := world.NewDeterministicRNG(cfg.Seed, "critical")
	r.critical = crit.NewMachine(critRNG, crit.Hooks{
		DisplayDirty: func(id state.ActorID) {
			if r.vis != nil {
				r.vis.MarkDirty(id)
			}
		},
		EliteExecute: func(id state.ActorID, multiplier int) {
			r.eliteExecute(id, multiplier)
		},
		ChargeStarted: func(id state.ActorID) {
			if actor, ok := r.Lookup(id); ok {
				r.svcs.Presentation.CriticalCharge(actor)
			}
		},
	}, pub)

	r.vis = visibility.NewController(cfg.VisibilityWindow, svcs.Display, r.critical.Snapshot)
	return r
}

// Ledger exposes the damage ledger for maintenance jobs and queries.
func (r *Registry) Ledger() *ledger.Ledger { return r.damage }

// Critical exposes the critical state machine.
func (r *Registry) Critical() *crit.Machine { return r.critical }

// Respawn exposes the respawn cooldown scheduler.
func (r *Registry) Respawn() *respawn.Scheduler { return r.cooldown }

// Tick reports the current combat tick counter.
func (r *Registry) Tick() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tick
}

// CombatTick advances the combat-critical step: critical countdowns and, when
// a world boss is live, its controller.
func (r *Registry) CombatTick(now time.Time) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.tick++
	tick := r.tick
	bossCtl := r.boss
	r.mu.Unlock()

	r.critical.Tick(tick, func(id state.ActorID) bool {
		_, ok := r.Lookup(id)
		return ok
	})
	if bossCtl != nil {
		bossCtl.Update(tick, now)
	}
}

// VisibilityTick re-evaluates status displays versus identity labels.
func (r *Registry) VisibilityTick(now time.Time) {
	if r == nil {
		return
	}
	r.vis.Tick(r.ManagedActors(), now)
}

// LedgerSweep expires idle or orphaned damage ledger entries.
func (r *Registry) LedgerSweep(now time.Time) int {
	if r == nil {
		return 0
	}
	return r.damage.Expire(now, func(id state.ActorID) bool {
		_, ok := r.Lookup(id)
		return ok
	})
}

// ManagedActors snapshots the live table for batch jobs.
func (r *Registry) ManagedActors() []*state.Actor {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	actors := make([]*state.Actor, 0, len(r.actors))
	for _, actor := range r.actors {
		actors = append(actors, actor)
	}
	return actors
}

// Population reports the number of live managed actors.
func (r *Registry) Population() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.actors)
}

// LeashRadiusFor resolves the per-species wander override for the guardian.
func (r *Registry) LeashRadiusFor(actor *state.Actor) float64 {
	if r == nil || actor == nil {
		return 0
	}
	if entry, ok := r.catalog.Lookup(actor.Species); ok && entry.LeashRadius > 0 {
		return entry.LeashRadius
	}
	return 0
}

// Unregister removes the actor and every per-actor record attached to it.
// Discarding a mid-charge critical state or ledger entries needs no rollback;
// damage and credit already applied stay applied.
func (r *Registry) Unregister(id state.ActorID, reason string) bool {
	if r == nil {
		return false
	}
	r.mu.Lock()
	actor, ok := r.actors[id]
	if !ok {
		r.mu.Unlock()
		return false
	}
	delete(r.actors, id)
	if count := r.anchorCounts[actor.Anchor]; count <= 1 {
		delete(r.anchorCounts, actor.Anchor)
	} else {
		r.anchorCounts[actor.Anchor] = count - 1
	}
	if r.boss != nil && r.boss.Actor() != nil && r.boss.Actor().ID == id {
		r.boss = nil
	}
	tick := r.tick
	r.mu.Unlock()

	r.critical.Remove(id)
	r.vis.Forget(id)
	r.damage.Forget(id)

	logginglifecycle.Despawned(context.Background(), r.pub, tick,
		logging.EntityRef{ID: string(id), Kind: entityKind(actor)}, reason)
	return true
}

// ResetAllRespawnCooldowns clears every cooldown; administrative surface.
func (r *Registry) ResetAllRespawnCooldowns() {
	r.cooldown.ResetAll()
}

// CanSpawn reports whether the species/tier/eliteness key is off cooldown.
func (r *Registry) CanSpawn(species state.Species, tier int, elite bool) bool {
	return r.cooldown.CanSpawn(respawn.Key{Species: species, Tier: tier, Elite: elite}, r.clock.Now())
}

func entityKind(actor *state.Actor) logging.EntityKind {
	if actor != nil && actor.Boss {
		return logging.EntityKindBoss
	}
	return logging.EntityKindMob
}
