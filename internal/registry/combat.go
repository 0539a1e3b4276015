package registry

import (
	"context"

	"duskfall/server/internal/boss"
	"duskfall/server/internal/crit"
	"duskfall/server/internal/respawn"
	"duskfall/server/internal/state"
	"duskfall/server/internal/visibility"
	"duskfall/server/internal/world"
	"duskfall/server/logging"
	loggingcombat "duskfall/server/logging/combat"
)

// knockbackStrength is the impulse applied alongside critical hits.
const knockbackStrength = 1.2

// DamageBy applies attributed damage from a contributor. Recording happens
// before the critical roll for the same event, so a lethal hit can never
// also start a new charge on an actor already dead in that event.
func (r *Registry) DamageBy(id state.ActorID, contributor string, amount float64) float64 {
	if r == nil {
		return 0
	}
	actor, ok := r.Lookup(id)
	if !ok {
		return 0
	}
	now := r.clock.Now()
	tick := r.Tick()

	r.damage.Record(id, contributor, amount, now)
	applied := actor.ApplyDamage(amount)
	actor.LastDamagedAt = now

	health, _ := actor.HealthSnapshot()
	loggingcombat.Damage(context.Background(), r.pub, tick,
		logging.EntityRef{ID: contributor, Kind: logging.EntityKindPlayer},
		logging.EntityRef{ID: string(id), Kind: entityKind(actor)},
		loggingcombat.DamagePayload{Amount: applied, TargetHealth: health, Contributor: contributor})

	if !actor.Alive() {
		r.handleDefeat(actor, contributor, tick)
		return applied
	}

	r.rollForCritical(actor, tick)
	r.vis.MarkDamaged(id, now)
	r.notifyBossDamaged(actor, tick)
	return applied
}

// Damage applies unattributed damage (environment, scripts) and returns the
// portion actually applied.
func (r *Registry) Damage(id state.ActorID, amount float64) float64 {
	if r == nil {
		return 0
	}
	actor, ok := r.Lookup(id)
	if !ok {
		return 0
	}
	now := r.clock.Now()
	tick := r.Tick()
	applied := actor.ApplyDamage(amount)
	actor.LastDamagedAt = now
	if !actor.Alive() {
		r.handleDefeat(actor, "", tick)
		return applied
	}
	r.vis.MarkDamaged(id, now)
	r.notifyBossDamaged(actor, tick)
	return applied
}

// Touch records a non-damage interaction for experience sharing.
func (r *Registry) Touch(id state.ActorID, contributor string) {
	if r == nil {
		return
	}
	r.damage.Touch(id, contributor, r.clock.Now())
}

// TopDamager resolves the eligible reward recipient for the actor.
func (r *Registry) TopDamager(id state.ActorID) (string, bool) {
	if r == nil {
		return "", false
	}
	return r.damage.TopContributor(id, r.playerReachable)
}

func (r *Registry) playerReachable(playerID string) bool {
	if r.host == nil {
		return true
	}
	return r.host.PlayerReachable(playerID)
}

func (r *Registry) rollForCritical(actor *state.Actor, tick uint64) {
	entry, ok := r.catalog.Lookup(actor.Species)
	if !ok {
		return
	}
	immune := entry.CritImmuneFinalStage && r.inFinalStage(actor)
	r.critical.Roll(actor, crit.RollConfig{
		ChargeTicks: entry.ChargeTicks(actor.Elite),
		Immune:      immune,
	}, tick)
}

// inFinalStage reports whether the boss actor has escalated to its last phase.
func (r *Registry) inFinalStage(actor *state.Actor) bool {
	if !actor.Boss {
		return false
	}
	r.mu.RLock()
	ctl := r.boss
	r.mu.RUnlock()
	if ctl == nil || ctl.Actor() == nil || ctl.Actor().ID != actor.ID {
		return false
	}
	return ctl.Snapshot().Phase >= boss.MaxPhase
}

func (r *Registry) notifyBossDamaged(actor *state.Actor, tick uint64) {
	if !actor.Boss {
		return
	}
	r.mu.RLock()
	ctl := r.boss
	r.mu.RUnlock()
	if ctl != nil && ctl.Actor() != nil && ctl.Actor().ID == actor.ID {
		ctl.OnDamaged(tick, r.clock.Now())
	}
}

// MobAttack resolves a mob dealing damage to a player. A Ready ordinary mob
// consumes its charge and triples the hit; an elite still mid-charge resolves
// through the live-attack path at the higher multiplier.
func (r *Registry) MobAttack(id state.ActorID, playerID string, baseDamage float64) float64 {
	if r == nil {
		return 0
	}
	actor, ok := r.Lookup(id)
	if !ok {
		return 0
	}
	tick := r.Tick()

	if r.critical.ConsumeReady(id) {
		damage := baseDamage * crit.OrdinaryMultiplier
		r.svcs.Strikes.DamagePlayer(playerID, damage)
		r.svcs.Presentation.CriticalStrike(actor, damage)
		r.svcs.Presentation.Knockback(playerID, actor.Pos, knockbackStrength)
		r.restoreLabel(actor)
		loggingcombat.CriticalExecuted(context.Background(), r.pub, tick,
			logging.EntityRef{ID: string(id), Kind: entityKind(actor)},
			loggingcombat.CriticalPayload{Elite: false, Damage: damage, TargetsHit: 1})
		return damage
	}

	if actor.Elite && r.critical.ConsumeCharging(id) {
		return r.executeEliteArea(actor, crit.EliteAttackMultiplier, tick)
	}

	r.svcs.Strikes.DamagePlayer(playerID, baseDamage)
	return baseDamage
}

// eliteExecute is the charge-expiry path invoked by the machine's hook.
func (r *Registry) eliteExecute(id state.ActorID, multiplier int) {
	actor, ok := r.Lookup(id)
	if !ok {
		return
	}
	r.executeEliteArea(actor, multiplier, r.Tick())
}

// executeEliteArea applies the weapon-range area hit with knockback to every
// player inside the configured radius, then restores the identity label.
func (r *Registry) executeEliteArea(actor *state.Actor, multiplier int, tick uint64) float64 {
	min, max := actor.Weapon.MinDamage, actor.Weapon.MaxDamage
	damage := world.RandomDistance(r.rollRNG, min, max) * float64(multiplier)

	var targets []world.PlayerRef
	if r.host != nil {
		targets = r.host.PlayersWithin(actor.Region, actor.Pos, r.cfg.CritAreaRadius)
	}
	ids := make([]string, 0, len(targets))
	for _, target := range targets {
		r.svcs.Strikes.DamagePlayer(target.ID, damage)
		r.svcs.Presentation.Knockback(target.ID, actor.Pos, knockbackStrength)
		ids = append(ids, target.ID)
	}
	r.svcs.Presentation.AreaHit(actor, ids, damage)
	r.restoreLabel(actor)

	loggingcombat.CriticalExecuted(context.Background(), r.pub, tick,
		logging.EntityRef{ID: string(actor.ID), Kind: entityKind(actor)},
		loggingcombat.CriticalPayload{Elite: true, Damage: damage, TargetsHit: len(ids)})

	r.maybeRearmFrozen(actor, tick)
	return damage
}

// maybeRearmFrozen sustains the frozen boss variant's enrage loop: it slides
// straight back into Charging while below half health.
func (r *Registry) maybeRearmFrozen(actor *state.Actor, tick uint64) {
	entry, ok := r.catalog.Lookup(actor.Species)
	if !ok || !entry.Frozen {
		return
	}
	if actor.HealthPercent() >= 0.5 {
		return
	}
	r.critical.Arm(actor.ID, actor.Elite, entry.ChargeTicks(actor.Elite), tick)
}

func (r *Registry) restoreLabel(actor *state.Actor) {
	r.vis.MarkDirty(actor.ID)
	r.svcs.Display.ShowLabel(actor, visibility.ResolveLabel(actor))
}

// handleDefeat fans a death out to drops, persistence, and the respawn
// scheduler, then deregisters the actor.
func (r *Registry) handleDefeat(actor *state.Actor, lastHit string, tick uint64) {
	ranked := r.damage.Ranked(actor.ID)
	top, _ := r.damage.TopContributor(actor.ID, r.playerReachable)

	r.svcs.Drops.NotifyDeath(actor.Species, actor.Tier, actor.Elite, ranked)
	for _, share := range ranked {
		r.svcs.Kills.RecordKill(share.Contributor, actor.Species, actor.Tier, actor.Elite)
	}

	key := respawn.Key{Species: actor.Species, Tier: actor.Tier, Elite: actor.Elite}
	r.cooldown.RecordDeath(key, r.clock.Now())

	loggingcombat.Defeat(context.Background(), r.pub, tick,
		logging.EntityRef{ID: lastHit, Kind: logging.EntityKindPlayer},
		logging.EntityRef{ID: string(actor.ID), Kind: entityKind(actor)},
		loggingcombat.DefeatPayload{
			Species:     string(actor.Species),
			Tier:        actor.Tier,
			Elite:       actor.Elite,
			TopDamager:  top,
			Contributor: lastHit,
		})

	r.Unregister(actor.ID, "defeated")
}

// bossExecutor wires each kit ability to its world-visible effect: heal and
// summon change registry state, teleport and the knockback abilities go
// through the host seam.
func (r *Registry) bossExecutor() boss.Executor {
	return boss.ExecutorFunc(func(actor *state.Actor, ability boss.Ability, phase int) {
		switch ability.Name {
		case "heal":
			_, maxHealth := actor.HealthSnapshot()
			actor.Heal(maxHealth * 0.05)
		case "stomp", "roar":
			var targets []world.PlayerRef
			if r.host != nil {
				targets = r.host.PlayersWithin(actor.Region, actor.Pos, r.cfg.DetectionRadius)
			}
			for _, target := range targets {
				r.svcs.Presentation.Knockback(target.ID, actor.Pos, knockbackStrength)
			}
		case "teleport":
			r.teleportToAnchor(actor)
		case "summon":
			r.summonMinions(actor)
		}
	})
}

// teleportToAnchor blinks the boss back to a standable point near its anchor
// and drops its target so it re-engages from there.
func (r *Registry) teleportToAnchor(actor *state.Actor) {
	if r.host == nil || actor.Anchor.Region == "" {
		return
	}
	target := r.pickSpawnPoint(actor.Anchor)
	actor.Region = actor.Anchor.Region
	actor.Pos = target
	r.host.Relocate(actor.ID, actor.Region, target)
	r.host.ClearAggro(actor.ID)
}

// summonMinions spawns the species' configured adds at the boss's anchor. The
// requests run the normal pipeline, so cooldowns and the anchor cap still
// apply and blocked spawns log themselves.
func (r *Registry) summonMinions(actor *state.Actor) {
	entry, ok := r.catalog.Lookup(actor.Species)
	if !ok || entry.SummonCount <= 0 {
		return
	}
	for i := 0; i < entry.SummonCount; i++ {
		_, _ = r.Spawn(SpawnRequest{
			Anchor:  actor.Anchor,
			Species: entry.SummonSpecies,
			Tier:    actor.Tier,
		})
	}
}
