package visibility

import (
	"sync"
	"time"

	"duskfall/server/internal/crit"
	"duskfall/server/internal/state"
)

// DefaultWindow keeps the status display up this long after the last hit.
const DefaultWindow = 6 * time.Second

// StatusInfo is what the display sink renders while an actor is in combat.
type StatusInfo struct {
	Health    float64
	MaxHealth float64
	CritPhase crit.Phase
	// Countdown carries the legacy encoding: ticks remaining while charging,
	// -1 once ready.
	Countdown int
}

// Display applies name/status presentation to the native entity. Both calls
// are fire-and-forget.
type Display interface {
	ShowStatus(actor *state.Actor, info StatusInfo)
	ShowLabel(actor *state.Actor, label string)
}

// Controller decides per actor per tick whether the transient status display
// or the persistent identity label is visible. Pure timeout-and-override
// logic, re-evaluated for every tracked actor.
type Controller struct {
	window  time.Duration
	display Display
	// critSnapshot supplies the override: an actor mid-charge never reverts
	// to its idle label.
	critSnapshot func(id state.ActorID) (crit.State, bool)

	// mu guards the tracking maps; marks arrive from combat events while the
	// visibility job ticks on its own goroutine.
	mu          sync.Mutex
	lastDamaged map[state.ActorID]time.Time
	dirty       map[state.ActorID]bool
	showing     map[state.ActorID]bool
}

func NewController(window time.Duration, display Display, critSnapshot func(id state.ActorID) (crit.State, bool)) *Controller {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Controller{
		window:       window,
		display:      display,
		critSnapshot: critSnapshot,
		lastDamaged:  make(map[state.ActorID]time.Time),
		dirty:        make(map[state.ActorID]bool),
		showing:      make(map[state.ActorID]bool),
	}
}

// MarkDamaged records a hit so the status display stays up for the window.
func (c *Controller) MarkDamaged(id state.ActorID, now time.Time) {
	if c == nil || id == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastDamaged[id] = now
	c.dirty[id] = true
}

// MarkDirty forces a refresh of the actor's presentation on the next tick.
func (c *Controller) MarkDirty(id state.ActorID) {
	if c == nil || id == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dirty[id] = true
}

// Forget drops all tracking for a removed actor.
func (c *Controller) Forget(id state.ActorID) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.lastDamaged, id)
	delete(c.dirty, id)
	delete(c.showing, id)
}

// Showing reports whether the actor currently has its status display up.
func (c *Controller) Showing(id state.ActorID) bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.showing[id]
}

// Tick re-evaluates every provided actor. Recently damaged or mid-critical
// actors show the status display; everything else gets its identity label
// restored once.
func (c *Controller) Tick(actors []*state.Actor, now time.Time) {
	if c == nil {
		return
	}
	for _, actor := range actors {
		if actor == nil {
			continue
		}
		c.tickActor(actor, now)
	}
}

func (c *Controller) tickActor(actor *state.Actor, now time.Time) {
	id := actor.ID
	var critState crit.State
	critActive := false
	if c.critSnapshot != nil {
		if st, ok := c.critSnapshot(id); ok && st.Phase != crit.PhaseIdle {
			critState = st
			critActive = true
		}
	}

	c.mu.Lock()
	inWindow := false
	if last, ok := c.lastDamaged[id]; ok && now.Sub(last) < c.window {
		inWindow = true
	}
	show := inWindow || critActive
	wasShowing := c.showing[id]
	dirty := c.dirty[id]
	delete(c.dirty, id)
	if show {
		c.showing[id] = true
	} else if wasShowing || dirty {
		delete(c.showing, id)
	}
	c.mu.Unlock()

	// Display calls stay outside the lock; they are fire-and-forget and may
	// take arbitrarily long.
	if show {
		if c.display != nil && (!wasShowing || dirty || critActive) {
			health, maxHealth := actor.HealthSnapshot()
			c.display.ShowStatus(actor, StatusInfo{
				Health:    health,
				MaxHealth: maxHealth,
				CritPhase: critState.Phase,
				Countdown: critState.CountdownValue(),
			})
		}
		return
	}

	if (wasShowing || dirty) && c.display != nil {
		c.display.ShowLabel(actor, ResolveLabel(actor))
	}
}

// ResolveLabel picks the identity label to restore: stored label first, then
// an external tag, then the type-and-tier default.
func ResolveLabel(actor *state.Actor) string {
	if actor == nil {
		return ""
	}
	if actor.Label != "" {
		return actor.Label
	}
	if actor.TaggedName != "" {
		return actor.TaggedName
	}
	return actor.DefaultLabel()
}
