package registry

import (
	"context"
	"errors"
	"fmt"
	"math"

	"duskfall/server/bestiary"
	"duskfall/server/internal/boss"
	"duskfall/server/internal/respawn"
	"duskfall/server/internal/state"
	"duskfall/server/internal/world"
	"duskfall/server/logging"
	logginglifecycle "duskfall/server/logging/lifecycle"
)

// Spawn failure taxonomy. Cooldown blocks and validation failures are
// expected outcomes, reported as typed errors without side effects.
var (
	ErrBadAnchor       = errors.New("registry: anchor not in a loaded region")
	ErrUnknownSpecies  = errors.New("registry: species not in bestiary")
	ErrCooldownBlocked = errors.New("registry: respawn cooldown active")
	ErrBossAlive       = errors.New("registry: a world boss is already live")
	ErrAnchorSaturated = errors.New("registry: anchor population cap reached")
)

const (
	// spawnProbes bounds how many randomized placement candidates are checked.
	spawnProbes = 8
	// spawnSpread is the candidate offset radius around the anchor.
	spawnSpread = 4.0
	// spawnFallbackOffset displaces the fallback point when every probe fails.
	spawnFallbackOffset = 1.0
)

// SpawnRequest describes one spawn attempt.
type SpawnRequest struct {
	Anchor  state.Anchor
	Species state.Species
	Tier    int
	Elite   bool
}

// Spawn runs the full pipeline: validate, gate, place, materialize,
// initialize, register. It never propagates a panic; initialization faults
// tear the partial actor down and surface as a failed result.
func (r *Registry) Spawn(req SpawnRequest) (actor *state.Actor, err error) {
	if r == nil {
		return nil, errors.New("registry: nil registry")
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("registry: spawn %s: %v", req.Species, recovered)
			if actor != nil {
				r.teardownPartial(actor)
				actor = nil
			}
			logginglifecycle.SpawnFailed(context.Background(), r.pub, r.Tick(),
				logginglifecycle.FailedPayload{Species: string(req.Species), Tier: req.Tier, Error: err.Error()})
		}
	}()

	now := r.clock.Now()
	tick := r.Tick()

	entry, ok := r.catalog.Lookup(req.Species)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSpecies, req.Species)
	}
	if r.host == nil || !r.host.RegionLoaded(req.Anchor.Region, req.Anchor.Pos) {
		return nil, ErrBadAnchor
	}
	tier := state.ClampTier(req.Tier, r.cfg.ExtendedTiers)

	key := respawn.Key{Species: req.Species, Tier: tier, Elite: req.Elite}
	if !r.cooldown.CanSpawn(key, now) {
		logginglifecycle.SpawnBlocked(context.Background(), r.pub, tick, logginglifecycle.BlockedPayload{
			Species: string(req.Species), Tier: tier, Elite: req.Elite, Reason: "cooldown",
		})
		return nil, ErrCooldownBlocked
	}

	r.mu.RLock()
	bossLive := r.boss != nil
	anchorCount := r.anchorCounts[req.Anchor]
	r.mu.RUnlock()

	if entry.Boss && bossLive {
		logginglifecycle.SpawnBlocked(context.Background(), r.pub, tick, logginglifecycle.BlockedPayload{
			Species: string(req.Species), Tier: tier, Elite: req.Elite, Reason: "boss_alive",
		})
		return nil, ErrBossAlive
	}
	if anchorCount >= r.cfg.MaxPerAnchor {
		logginglifecycle.SpawnBlocked(context.Background(), r.pub, tick, logginglifecycle.BlockedPayload{
			Species: string(req.Species), Tier: tier, Elite: req.Elite, Reason: "anchor_saturated",
		})
		return nil, ErrAnchorSaturated
	}

	pos := r.pickSpawnPoint(req.Anchor)
	actor = r.materialize(entry, req, tier, pos)
	r.initialize(actor, entry, tier)
	r.register(actor, entry, tick)
	return actor, nil
}

// pickSpawnPoint probes randomized offsets around the anchor for non-solid
// headroom, falling back to a fixed offset above the anchor when none qualify.
func (r *Registry) pickSpawnPoint(anchor state.Anchor) state.Vec2 {
	for i := 0; i < spawnProbes; i++ {
		angle := world.RandomAngle(r.spawnRNG)
		dist := world.RandomDistance(r.spawnRNG, 0, spawnSpread)
		candidate := state.Vec2{
			X: anchor.Pos.X + math.Cos(angle)*dist,
			Y: anchor.Pos.Y + math.Sin(angle)*dist,
		}
		if r.host.Standable(anchor.Region, candidate) {
			return candidate
		}
	}
	return state.Vec2{X: anchor.Pos.X, Y: anchor.Pos.Y + spawnFallbackOffset}
}

func (r *Registry) materialize(entry *bestiary.Entry, req SpawnRequest, tier int, pos state.Vec2) *state.Actor {
	maxHealth := entry.MaxHealthForTier(tier)
	actor := &state.Actor{
		ID:      state.NewActorID(),
		Species: req.Species,
		Tier:    tier,
		Elite:   req.Elite,
		Boss:    entry.Boss,
		Pos:     pos,
		Region:  req.Anchor.Region,
		Anchor:  req.Anchor,
	}
	actor.SetHealth(maxHealth, maxHealth)
	return actor
}

// initialize applies identity, equipment, and health setup. Equipment content
// comes from the external collaborator; its failures are tolerated.
func (r *Registry) initialize(actor *state.Actor, entry *bestiary.Entry, tier int) {
	label := entry.DisplayName
	if actor.Elite {
		label = "Elite " + label
	}
	actor.Label = fmt.Sprintf("%s [T%d]", label, tier)
	actor.SpawnedAt = r.clock.Now()

	if weapon, ok := r.svcs.Equipment.CreateWeapon(tier, entry.WeaponType); ok {
		actor.Weapon = weapon
	} else {
		// Bare-handed fallback keeps the species' innate range.
		min, max := entry.DamageRange()
		actor.Weapon = state.Weapon{MinDamage: min, MaxDamage: max}
	}
	for _, slot := range []string{"head", "chest", "legs", "feet"} {
		r.svcs.Equipment.CreateEquipment(tier, slot)
	}
}

func (r *Registry) register(actor *state.Actor, entry *bestiary.Entry, tick uint64) {
	r.mu.Lock()
	r.actors[actor.ID] = actor
	r.anchorCounts[actor.Anchor]++
	if entry.Boss {
		r.boss = boss.NewController(actor, boss.DefaultAbilities(), r.bossExecutor(), r.rollRNG, r.pub)
	}
	r.mu.Unlock()

	logginglifecycle.Spawned(context.Background(), r.pub, tick,
		logging.EntityRef{ID: string(actor.ID), Kind: entityKind(actor)},
		logginglifecycle.SpawnPayload{
			Species: string(actor.Species),
			Tier:    actor.Tier,
			Elite:   actor.Elite,
			Boss:    actor.Boss,
			X:       actor.Pos.X,
			Y:       actor.Pos.Y,
		})
}

func (r *Registry) teardownPartial(actor *state.Actor) {
	r.mu.Lock()
	if _, ok := r.actors[actor.ID]; ok {
		delete(r.actors, actor.ID)
		if count := r.anchorCounts[actor.Anchor]; count <= 1 {
			delete(r.anchorCounts, actor.Anchor)
		} else {
			r.anchorCounts[actor.Anchor] = count - 1
		}
	}
	if r.boss != nil && r.boss.Actor() != nil && r.boss.Actor().ID == actor.ID {
		r.boss = nil
	}
	r.mu.Unlock()
	r.critical.Remove(actor.ID)
	r.vis.Forget(actor.ID)
	r.damage.Forget(actor.ID)
}
