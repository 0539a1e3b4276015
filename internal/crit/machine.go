package crit

import (
	"context"
	"math/rand"
	"sync"

	"duskfall/server/internal/state"
	"duskfall/server/logging"
	loggingcombat "duskfall/server/logging/combat"
)

// Phase is the tagged critical state. The legacy sign-encoded countdown is
// gone; ReadySentinel survives only in telemetry payloads.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCharging
	PhaseReady
)

// ReadySentinel mirrors the legacy wire encoding of the Ready phase.
const ReadySentinel = -1

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCharging:
		return "charging"
	case PhaseReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Chance returns the critical roll threshold for a tier, as a chance out of
// RollSides. Monotonically non-decreasing in tier.
func Chance(tier int) int {
	switch {
	case tier <= 1:
		return 5
	case tier == 2:
		return 7
	case tier == 3:
		return 10
	case tier == 4:
		return 13
	default:
		return 20
	}
}

// RollSides is the size of the uniform draw backing every critical roll.
const RollSides = 200

// EliteChargeMultiplier scales elite weapon damage on charge expiry.
const EliteChargeMultiplier = 3

// EliteAttackMultiplier scales elite weapon damage when a live attack resolves
// the charge instead.
const EliteAttackMultiplier = 4

// OrdinaryMultiplier triples the next hit for a ready ordinary mob.
const OrdinaryMultiplier = 3

// State is the per-actor charge record; at most one exists per actor.
type State struct {
	Phase     Phase
	TicksLeft int
	Elite     bool
}

// CountdownValue reports the legacy encoding for telemetry: ticks remaining
// while charging, ReadySentinel once ready.
func (s *State) CountdownValue() int {
	if s == nil {
		return 0
	}
	if s.Phase == PhaseReady {
		return ReadySentinel
	}
	return s.TicksLeft
}

// Hooks receive the machine's side effects. All of them are fire-and-forget;
// a nil hook set disables them.
type Hooks struct {
	// DisplayDirty marks the actor's status display for refresh.
	DisplayDirty func(id state.ActorID)
	// EliteExecute performs the area attack when an elite charge expires.
	EliteExecute func(id state.ActorID, multiplier int)
	// ChargeStarted fires presentation side effects on a successful roll.
	ChargeStarted func(id state.ActorID)
}

// Machine drives every actor's critical charge. Rolls arrive from combat
// events while the combat job ticks the countdowns, so the state table is
// guarded; hooks always fire outside the lock.
type Machine struct {
	mu     sync.Mutex
	states map[state.ActorID]*State
	rng    *rand.Rand
	hooks  Hooks
	pub    logging.Publisher
}

func NewMachine(rng *rand.Rand, hooks Hooks, pub logging.Publisher) *Machine {
	return &Machine{
		states: make(map[state.ActorID]*State),
		rng:    rng,
		hooks:  hooks,
		pub:    pub,
	}
}

// RollConfig carries the per-species inputs of a roll.
type RollConfig struct {
	ChargeTicks int
	// Immune forces the threshold to zero (a specific boss species in its
	// final combat stage never charges).
	Immune bool
}

// Roll attempts to start a charge for the actor after it dealt damage. An
// actor already Charging or Ready ignores the roll; first success wins.
func (m *Machine) Roll(actor *state.Actor, cfg RollConfig, tick uint64) bool {
	if m == nil || actor == nil {
		return false
	}
	threshold := Chance(actor.Tier)
	if cfg.Immune {
		threshold = 0
	}
	if threshold <= 0 {
		return false
	}
	ticks := cfg.ChargeTicks
	if ticks <= 0 {
		ticks = chargeTicksDefault(actor.Elite)
	}

	m.mu.Lock()
	if existing, ok := m.states[actor.ID]; ok && existing.Phase != PhaseIdle {
		m.mu.Unlock()
		return false
	}
	draw := m.rng.Intn(RollSides) + 1
	if draw > threshold {
		m.mu.Unlock()
		return false
	}
	m.states[actor.ID] = &State{Phase: PhaseCharging, TicksLeft: ticks, Elite: actor.Elite}
	m.mu.Unlock()

	m.announceCharge(actor.ID, actor.Elite, ticks, tick)
	return true
}

// Arm forces the actor into Charging, bypassing the roll. The frozen boss
// re-arm loop and tests use it.
func (m *Machine) Arm(id state.ActorID, elite bool, ticks int, tick uint64) {
	if m == nil || id == "" || ticks <= 0 {
		return
	}
	m.mu.Lock()
	if existing, ok := m.states[id]; ok && existing.Phase != PhaseIdle {
		m.mu.Unlock()
		return
	}
	m.states[id] = &State{Phase: PhaseCharging, TicksLeft: ticks, Elite: elite}
	m.mu.Unlock()
	m.announceCharge(id, elite, ticks, tick)
}

// announceCharge fires the charge side effects. Never called under the lock:
// the elite-execute hook re-enters the machine through the frozen re-arm path.
func (m *Machine) announceCharge(id state.ActorID, elite bool, ticks int, tick uint64) {
	if m.hooks.DisplayDirty != nil {
		m.hooks.DisplayDirty(id)
	}
	if m.hooks.ChargeStarted != nil {
		m.hooks.ChargeStarted(id)
	}
	loggingcombat.CriticalCharged(context.Background(), m.pub, tick,
		logging.EntityRef{ID: string(id), Kind: logging.EntityKindMob},
		loggingcombat.CriticalPayload{ChargeTicks: ticks, Elite: elite})
}

// Tick decrements every charging actor once. Ordinary actors reaching zero
// rest at Ready; elite actors execute immediately and resolve to Idle. The
// valid func drops entries whose actor vanished mid-charge; one bad entry
// never aborts the sweep.
func (m *Machine) Tick(tick uint64, valid func(state.ActorID) bool) {
	if m == nil {
		return
	}
	var readied, expired []state.ActorID
	m.mu.Lock()
	for id, st := range m.states {
		if st == nil {
			delete(m.states, id)
			continue
		}
		if valid != nil && !valid(id) {
			delete(m.states, id)
			continue
		}
		if st.Phase != PhaseCharging {
			continue
		}
		st.TicksLeft--
		if st.TicksLeft > 0 {
			continue
		}
		if st.Elite {
			delete(m.states, id)
			expired = append(expired, id)
			continue
		}
		st.Phase = PhaseReady
		st.TicksLeft = 0
		readied = append(readied, id)
	}
	m.mu.Unlock()

	for _, id := range readied {
		if m.hooks.DisplayDirty != nil {
			m.hooks.DisplayDirty(id)
		}
		loggingcombat.CriticalReady(context.Background(), m.pub, tick,
			logging.EntityRef{ID: string(id), Kind: logging.EntityKindMob})
	}
	for _, id := range expired {
		if m.hooks.EliteExecute != nil {
			m.hooks.EliteExecute(id, EliteChargeMultiplier)
		}
	}
}

// ConsumeReady clears a Ready state, reporting whether the caller should
// amplify the pending hit. Ordinary mobs only; elites never rest at Ready.
func (m *Machine) ConsumeReady(id state.ActorID) bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[id]
	if !ok || st.Phase != PhaseReady {
		return false
	}
	delete(m.states, id)
	return true
}

// ConsumeCharging clears a Charging elite state for the live-attack
// resolution path, reporting whether the charge was consumed.
func (m *Machine) ConsumeCharging(id state.ActorID) bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[id]
	if !ok || st.Phase != PhaseCharging || !st.Elite {
		return false
	}
	delete(m.states, id)
	return true
}

// PhaseOf reports the actor's current phase; absent means Idle.
func (m *Machine) PhaseOf(id state.ActorID) Phase {
	if m == nil {
		return PhaseIdle
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.states[id]; ok {
		return st.Phase
	}
	return PhaseIdle
}

// Snapshot returns a copy of the actor's state for display purposes.
func (m *Machine) Snapshot(id state.ActorID) (State, bool) {
	if m == nil {
		return State{}, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[id]
	if !ok {
		return State{}, false
	}
	return *st, true
}

// Remove discards the actor's state; called on deregistration. No rollback is
// needed: damage already applied stays applied.
func (m *Machine) Remove(id state.ActorID) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, id)
}

// ChargingCount reports how many actors are mid-charge.
func (m *Machine) ChargingCount() int {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, st := range m.states {
		if st != nil && st.Phase == PhaseCharging {
			count++
		}
	}
	return count
}

func chargeTicksDefault(elite bool) int {
	if elite {
		return 12
	}
	return 6
}
