package world

import (
	"sync"
	"time"

	"duskfall/server/internal/state"
)

// Rect is an axis-aligned region footprint.
type Rect struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

func (r Rect) Contains(pos state.Vec2) bool {
	return pos.X >= r.MinX && pos.X <= r.MaxX && pos.Y >= r.MinY && pos.Y <= r.MaxY
}

// Arena is an in-memory Host used by cmd/server and tests. Regions are flat
// rectangles with optional solid obstacles and forbidden zones.
type Arena struct {
	mu        sync.RWMutex
	regions   map[string]*arenaRegion
	players   map[string]arenaPlayer
	suspended map[state.ActorID]time.Time
	positions map[state.ActorID]state.Vec2
	aggro     map[state.ActorID]string
}

type arenaRegion struct {
	bounds    Rect
	solids    []Rect
	forbidden []Rect
}

type arenaPlayer struct {
	region string
	pos    state.Vec2
}

func NewArena() *Arena {
	return &Arena{
		regions:   make(map[string]*arenaRegion),
		players:   make(map[string]arenaPlayer),
		suspended: make(map[state.ActorID]time.Time),
		positions: make(map[state.ActorID]state.Vec2),
		aggro:     make(map[state.ActorID]string),
	}
}

// AddRegion registers a loaded region with the given bounds.
func (a *Arena) AddRegion(name string, bounds Rect) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.regions[name] = &arenaRegion{bounds: bounds}
}

// AddSolid marks a rectangle of the region as blocked for spawn placement.
func (a *Arena) AddSolid(region string, r Rect) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if reg, ok := a.regions[region]; ok {
		reg.solids = append(reg.solids, r)
	}
}

// AddForbiddenZone marks a rectangle mobs may not enter.
func (a *Arena) AddForbiddenZone(region string, r Rect) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if reg, ok := a.regions[region]; ok {
		reg.forbidden = append(reg.forbidden, r)
	}
}

// UpsertPlayer adds or moves a connected player.
func (a *Arena) UpsertPlayer(id, region string, pos state.Vec2) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.players[id] = arenaPlayer{region: region, pos: pos}
}

// RemovePlayer disconnects a player.
func (a *Arena) RemovePlayer(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.players, id)
}

func (a *Arena) RegionLoaded(region string, pos state.Vec2) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	reg, ok := a.regions[region]
	return ok && reg.bounds.Contains(pos)
}

func (a *Arena) Standable(region string, pos state.Vec2) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	reg, ok := a.regions[region]
	if !ok || !reg.bounds.Contains(pos) {
		return false
	}
	for _, solid := range reg.solids {
		if solid.Contains(pos) {
			return false
		}
	}
	return true
}

func (a *Arena) InForbiddenZone(region string, pos state.Vec2) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	reg, ok := a.regions[region]
	if !ok {
		return false
	}
	for _, zone := range reg.forbidden {
		if zone.Contains(pos) {
			return true
		}
	}
	return false
}

func (a *Arena) PlayersWithin(region string, center state.Vec2, radius float64) []PlayerRef {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var refs []PlayerRef
	for id, p := range a.players {
		if p.region != region {
			continue
		}
		if p.pos.DistanceTo(center) <= radius {
			refs = append(refs, PlayerRef{ID: id, Pos: p.pos})
		}
	}
	return refs
}

func (a *Arena) PlayerReachable(id string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.players[id]
	return ok
}

func (a *Arena) Relocate(id state.ActorID, region string, to state.Vec2) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.positions[id] = to
}

func (a *Arena) ClearAggro(id state.ActorID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.aggro, id)
}

func (a *Arena) SuspendAI(id state.ActorID, d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.suspended[id] = time.Now().Add(d)
}

// SetAggro records the native entity's current target; tests and the demo
// loop use it to observe ClearAggro.
func (a *Arena) SetAggro(id state.ActorID, target string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.aggro[id] = target
}

// Aggro returns the recorded target for the actor, if any.
func (a *Arena) Aggro(id state.ActorID) (string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	target, ok := a.aggro[id]
	return target, ok
}

// SuspendedUntil reports the AI suspension deadline for the actor, if any.
func (a *Arena) SuspendedUntil(id state.ActorID) (time.Time, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	deadline, ok := a.suspended[id]
	return deadline, ok
}

// NativePosition returns the last relocated position for the actor, if any.
func (a *Arena) NativePosition(id state.ActorID) (state.Vec2, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	pos, ok := a.positions[id]
	return pos, ok
}
