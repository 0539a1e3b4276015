package world

import (
	"time"

	"duskfall/server/internal/state"
)

// PlayerRef is the narrow view of a connected player the combat core needs.
type PlayerRef struct {
	ID  string
	Pos state.Vec2
}

// Host is the seam to the engine that owns native entities. The lifecycle
// registry holds the behavioral record; everything spatial or player-facing
// goes through here.
type Host interface {
	// RegionLoaded reports whether the region around pos is loaded and addressable.
	RegionLoaded(region string, pos state.Vec2) bool
	// Standable reports whether a mob fits at pos: inside bounds, non-solid headroom.
	Standable(region string, pos state.Vec2) bool
	// InForbiddenZone reports whether pos falls inside a designated no-mob zone.
	InForbiddenZone(region string, pos state.Vec2) bool
	// PlayersWithin returns connected players inside the radius around center.
	PlayersWithin(region string, center state.Vec2, radius float64) []PlayerRef
	// PlayerReachable reports whether the player is still connected.
	PlayerReachable(id string) bool
	// Relocate moves the native entity for the actor to the given position.
	Relocate(id state.ActorID, region string, to state.Vec2)
	// ClearAggro drops the native entity's current target.
	ClearAggro(id state.ActorID)
	// SuspendAI pauses the native entity's autonomous decisions for the window.
	SuspendAI(id state.ActorID, d time.Duration)
}
