package boss

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"duskfall/server/internal/state"
	"duskfall/server/logging"
	loggingboss "duskfall/server/logging/boss"
)

const (
	MinPhase = 1
	MaxPhase = 4

	// PhaseTransitionCooldown prevents flapping near a health boundary.
	PhaseTransitionCooldown = 5 * time.Second
	// GlobalAbilityCooldown gates any ability use.
	GlobalAbilityCooldown = 3 * time.Second
	// DefensiveCooldown gates the damage-reaction ability separately.
	DefensiveCooldown = 8 * time.Second
	// defensiveChance triggers a defensive ability on damage at phase >= 3.
	defensiveChance = 0.25

	// BerserkHealthFloor forces berserk below this health fraction.
	BerserkHealthFloor = 0.20
	// BerserkRecoverThreshold clears berserk once health climbs back above it,
	// unless phase 4 keeps it forced.
	BerserkRecoverThreshold = 0.35

	globalCooldownKey    = "boss.global"
	defensiveCooldownKey = "boss.defensive"
)

// phaseThresholds maps a health fraction to the phase it unlocks; the highest
// crossed threshold wins.
var phaseThresholds = []struct {
	healthBelow float64
	phase       int
}{
	{0.25, 4},
	{0.50, 3},
	{0.75, 2},
}

// Profile is the cumulative buff set a phase applies.
type Profile struct {
	SpeedMult  float64
	DamageMult float64
}

var phaseProfiles = map[int]Profile{
	1: {SpeedMult: 1.0, DamageMult: 1.0},
	2: {SpeedMult: 1.1, DamageMult: 1.15},
	3: {SpeedMult: 1.2, DamageMult: 1.3},
	4: {SpeedMult: 1.35, DamageMult: 1.5},
}

// berserkProfile stacks on top of the phase profile while berserk is active.
var berserkProfile = Profile{SpeedMult: 1.25, DamageMult: 1.4}

// Ability is one scheduled boss action.
type Ability struct {
	Name      string
	Cooldown  time.Duration
	MinPhase  int
	Defensive bool
}

// DefaultAbilities is the stock kit; cooldowns per ability, unlocks by phase.
func DefaultAbilities() []Ability {
	return []Ability{
		{Name: "roar", Cooldown: 15 * time.Second, MinPhase: 1},
		{Name: "stomp", Cooldown: 12 * time.Second, MinPhase: 1, Defensive: true},
		{Name: "teleport", Cooldown: 20 * time.Second, MinPhase: 2, Defensive: true},
		{Name: "summon", Cooldown: 30 * time.Second, MinPhase: 3},
		{Name: "heal", Cooldown: 45 * time.Second, MinPhase: 3},
	}
}

// Executor performs the ability's world-visible work; fire-and-forget.
type Executor interface {
	ExecuteAbility(actor *state.Actor, ability Ability, phase int)
}

// ExecutorFunc adapts a function into Executor.
type ExecutorFunc func(actor *state.Actor, ability Ability, phase int)

func (f ExecutorFunc) ExecuteAbility(actor *state.Actor, ability Ability, phase int) {
	if f == nil {
		return
	}
	f(actor, ability, phase)
}

// State is the singleton world-boss record; the registry enforces that at
// most one exists server-wide.
type State struct {
	Phase           int
	Berserk         bool
	LastPhaseChange time.Time
	Anchor          state.Anchor
}

// Controller drives one distinguished actor's escalation. Phase is monotonic
// except through AdminSetPhase. Update runs on the combat job while OnDamaged
// arrives from combat events, so the state is guarded; the executor always
// fires outside the lock.
type Controller struct {
	actor     *state.Actor
	abilities []Ability
	executor  Executor
	pub       logging.Publisher

	mu  sync.Mutex
	st  State
	rng *rand.Rand
}

func NewController(actor *state.Actor, abilities []Ability, executor Executor, rng *rand.Rand, pub logging.Publisher) *Controller {
	if len(abilities) == 0 {
		abilities = DefaultAbilities()
	}
	var anchor state.Anchor
	if actor != nil {
		anchor = actor.Anchor
	}
	return &Controller{
		actor:     actor,
		st:        State{Phase: MinPhase, Anchor: anchor},
		abilities: abilities,
		executor:  executor,
		rng:       rng,
		pub:       pub,
	}
}

// Actor returns the boss's behavioral record. The pointer never changes after
// construction, so no lock is needed.
func (c *Controller) Actor() *state.Actor {
	if c == nil {
		return nil
	}
	return c.actor
}

// Snapshot returns a copy of the boss state.
func (c *Controller) Snapshot() State {
	if c == nil {
		return State{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st
}

// CurrentProfile reports the buff profile for the current phase, with the
// berserk profile stacked when active.
func (c *Controller) CurrentProfile() Profile {
	if c == nil {
		return Profile{SpeedMult: 1, DamageMult: 1}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	profile := phaseProfiles[c.st.Phase]
	if profile.SpeedMult == 0 {
		profile = phaseProfiles[MinPhase]
	}
	if c.st.Berserk {
		profile.SpeedMult *= berserkProfile.SpeedMult
		profile.DamageMult *= berserkProfile.DamageMult
	}
	return profile
}

// Update runs one controller step: phase transitions, berserk bookkeeping,
// then the ability scheduler.
func (c *Controller) Update(tick uint64, now time.Time) {
	if c == nil || c.actor == nil || !c.actor.Alive() {
		return
	}
	pct := c.actor.HealthPercent()
	c.mu.Lock()
	c.processPhaseTransitions(pct, tick, now)
	c.updateBerserk(pct, tick)
	ability, phase, fired := c.pickScheduled(now)
	c.mu.Unlock()
	if fired {
		c.execute(ability, phase, false, tick)
	}
}

// processPhaseTransitions escalates to the highest phase whose health
// threshold is crossed, a single transition per update gated by the
// inter-transition cooldown. Phase never decreases here.
func (c *Controller) processPhaseTransitions(pct float64, tick uint64, now time.Time) {
	target := MinPhase
	for _, threshold := range phaseThresholds {
		if pct <= threshold.healthBelow {
			target = threshold.phase
			break
		}
	}
	if target <= c.st.Phase {
		return
	}
	if !c.st.LastPhaseChange.IsZero() && now.Sub(c.st.LastPhaseChange) < PhaseTransitionCooldown {
		return
	}
	from := c.st.Phase
	c.st.Phase = target
	c.st.LastPhaseChange = now
	loggingboss.PhaseChanged(context.Background(), c.pub, tick, c.ref(),
		loggingboss.PhasePayload{From: from, To: target, HealthPercent: pct})
}

func (c *Controller) updateBerserk(pct float64, tick uint64) {
	forced := c.st.Phase >= MaxPhase || pct < BerserkHealthFloor
	switch {
	case forced && !c.st.Berserk:
		c.setBerserk(true, pct, tick)
	case c.st.Berserk && !forced && pct > BerserkRecoverThreshold:
		c.setBerserk(false, pct, tick)
	}
}

func (c *Controller) setBerserk(active bool, pct float64, tick uint64) {
	c.st.Berserk = active
	loggingboss.BerserkChanged(context.Background(), c.pub, tick, c.ref(),
		loggingboss.BerserkPayload{Active: active, HealthPercent: pct})
}

// DeactivateBerserk is the explicit administrative override. It has no effect
// while phase 4 or the health floor keeps berserk forced.
func (c *Controller) DeactivateBerserk(tick uint64) {
	if c == nil || c.actor == nil {
		return
	}
	pct := c.actor.HealthPercent()
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.st.Berserk {
		return
	}
	if c.st.Phase >= MaxPhase || pct < BerserkHealthFloor {
		return
	}
	c.setBerserk(false, pct, tick)
}

// AdminSetPhase resets the phase outside the monotonic rule.
func (c *Controller) AdminSetPhase(phase int, now time.Time) {
	if c == nil {
		return
	}
	if phase < MinPhase {
		phase = MinPhase
	}
	if phase > MaxPhase {
		phase = MaxPhase
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.Phase = phase
	c.st.LastPhaseChange = now
}

// pickScheduled rolls the per-tick activation chance and reserves one eligible
// ability chosen uniformly at random, stamping its cooldowns. Caller holds the
// lock and executes afterwards.
func (c *Controller) pickScheduled(now time.Time) (Ability, int, bool) {
	chance := 0.05 + float64(c.st.Phase)*0.02
	if c.rng.Float64() >= chance {
		return Ability{}, 0, false
	}
	eligible := c.eligibleAbilities(now, false)
	if len(eligible) == 0 {
		return Ability{}, 0, false
	}
	ability := eligible[c.rng.Intn(len(eligible))]
	c.stampAbility(ability, false, now)
	return ability, c.st.Phase, true
}

// OnDamaged reacts to incoming damage: at phase 3 and above there is a chance
// to answer with a defensive ability off its own shorter cooldown.
func (c *Controller) OnDamaged(tick uint64, now time.Time) {
	if c == nil || c.actor == nil {
		return
	}
	c.mu.Lock()
	if c.st.Phase < 3 || c.rng.Float64() >= defensiveChance {
		c.mu.Unlock()
		return
	}
	if last, ok := c.actor.CooldownAt(defensiveCooldownKey); ok && now.Sub(last) < DefensiveCooldown {
		c.mu.Unlock()
		return
	}
	eligible := c.eligibleAbilities(now, true)
	if len(eligible) == 0 {
		c.mu.Unlock()
		return
	}
	c.actor.StampCooldown(defensiveCooldownKey, now)
	ability := eligible[c.rng.Intn(len(eligible))]
	c.stampAbility(ability, true, now)
	phase := c.st.Phase
	c.mu.Unlock()
	c.execute(ability, phase, true, tick)
}

// eligibleAbilities filters by phase unlock and per-ability cooldown. The
// defensive path ignores the global cooldown but only sees defensive
// abilities.
func (c *Controller) eligibleAbilities(now time.Time, defensiveOnly bool) []Ability {
	if !defensiveOnly {
		if last, ok := c.actor.CooldownAt(globalCooldownKey); ok && now.Sub(last) < GlobalAbilityCooldown {
			return nil
		}
	}
	var eligible []Ability
	for _, ability := range c.abilities {
		if ability.MinPhase > c.st.Phase {
			continue
		}
		if defensiveOnly && !ability.Defensive {
			continue
		}
		if last, ok := c.actor.CooldownAt("boss." + ability.Name); ok && now.Sub(last) < ability.Cooldown {
			continue
		}
		eligible = append(eligible, ability)
	}
	return eligible
}

func (c *Controller) stampAbility(ability Ability, defensive bool, now time.Time) {
	c.actor.StampCooldown("boss."+ability.Name, now)
	if !defensive {
		c.actor.StampCooldown(globalCooldownKey, now)
	}
}

// execute fires the executor and the telemetry event. Never called under the
// lock: executors call back into the registry and the host world.
func (c *Controller) execute(ability Ability, phase int, defensive bool, tick uint64) {
	if c.executor != nil {
		c.executor.ExecuteAbility(c.actor, ability, phase)
	}
	loggingboss.AbilityUsed(context.Background(), c.pub, tick, c.ref(),
		loggingboss.AbilityPayload{Ability: ability.Name, Phase: phase, Defensive: defensive})
}

func (c *Controller) ref() logging.EntityRef {
	return logging.EntityRef{ID: string(c.actor.ID), Kind: logging.EntityKindBoss}
}
