package registry

import (
	"strings"

	"duskfall/server/internal/boss"
	"duskfall/server/internal/state"
)

// Lookup returns the behavioral record for a managed actor.
func (r *Registry) Lookup(id state.ActorID) (*state.Actor, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	actor, ok := r.actors[id]
	return actor, ok
}

// TierOf reports the actor's power tier; false when the actor is unmanaged.
func (r *Registry) TierOf(id state.ActorID) (int, bool) {
	actor, ok := r.Lookup(id)
	if !ok {
		return 0, false
	}
	return actor.Tier, true
}

// IsElite reports the actor's eliteness; false result with ok=false means
// unmanaged.
func (r *Registry) IsElite(id state.ActorID) (bool, bool) {
	actor, ok := r.Lookup(id)
	if !ok {
		return false, false
	}
	return actor.Elite, true
}

// IsWorldBoss reports whether the actor is the live world boss.
func (r *Registry) IsWorldBoss(id state.ActorID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.boss != nil && r.boss.Actor() != nil && r.boss.Actor().ID == id
}

// ActiveWorldBoss returns the live boss actor, if any.
func (r *Registry) ActiveWorldBoss() (*state.Actor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.boss == nil || r.boss.Actor() == nil {
		return nil, false
	}
	return r.boss.Actor(), true
}

// Boss exposes the live boss controller for the tick loop and admin surface.
func (r *Registry) Boss() (*boss.Controller, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.boss == nil {
		return nil, false
	}
	return r.boss, true
}

// Classification is the heuristic result for entities never registered here.
type Classification struct {
	Species state.Species
	Tier    int
	Elite   bool
	Boss    bool
}

// equipmentTiers maps native equipment material onto a power tier; the order
// matters, later entries win so finer materials take precedence.
var equipmentTiers = []struct {
	material string
	tier     int
}{
	{"leather", 1},
	{"chain", 2},
	{"iron", 3},
	{"steel", 4},
	{"obsidian", 5},
	{"starforged", 6},
}

// ClassifyUnmanaged is the single heuristic fallback for entities that were
// not spawned through this registry (e.g. vanilla-spawned). It infers species
// from the native entity kind and tier from equipment material. The managed
// side-table is always the source of truth; this never overrides it.
func (r *Registry) ClassifyUnmanaged(entityKind, equipmentMaterial string) (Classification, bool) {
	if r == nil {
		return Classification{}, false
	}
	entry, ok := r.catalog.LookupByKind(strings.TrimSpace(entityKind))
	if !ok {
		return Classification{}, false
	}
	tier := state.MinTier
	material := strings.ToLower(equipmentMaterial)
	for _, mapping := range equipmentTiers {
		if strings.Contains(material, mapping.material) {
			tier = mapping.tier
		}
	}
	return Classification{
		Species: entry.ID,
		Tier:    state.ClampTier(tier, r.cfg.ExtendedTiers),
		Elite:   false,
		Boss:    entry.Boss,
	}, true
}
