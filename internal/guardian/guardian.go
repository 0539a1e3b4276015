package guardian

import (
	"context"
	"math"
	"math/rand"
	"time"

	"duskfall/server/internal/state"
	"duskfall/server/internal/world"
	"duskfall/server/logging"
	logginglifecycle "duskfall/server/logging/lifecycle"
)

const (
	// DefaultWanderRadius bounds how far a mob may stray from its anchor.
	DefaultWanderRadius = 32.0
	// DefaultGraceWindow suspends a relocated mob's AI so it does not
	// immediately re-acquire the same target and walk straight back out.
	DefaultGraceWindow = 500 * time.Millisecond
	// relocateSpread randomizes the return point around the anchor.
	relocateSpread = 3.0
	// relocateProbes bounds how many candidate return points are checked.
	relocateProbes = 6
)

type Config struct {
	WanderRadius float64
	GraceWindow  time.Duration
	// RadiusFor overrides the wander radius per actor (species leash); nil or
	// a non-positive return falls back to WanderRadius.
	RadiusFor func(actor *state.Actor) float64
}

func (c Config) normalized() Config {
	normalized := c
	if normalized.WanderRadius <= 0 {
		normalized.WanderRadius = DefaultWanderRadius
	}
	if normalized.GraceWindow <= 0 {
		normalized.GraceWindow = DefaultGraceWindow
	}
	return normalized
}

// Guardian periodically pulls strays back to their anchors. It runs on a
// coarser period than the combat tick.
type Guardian struct {
	cfg  Config
	host world.Host
	rng  *rand.Rand
	pub  logging.Publisher
}

func New(cfg Config, host world.Host, rng *rand.Rand, pub logging.Publisher) *Guardian {
	return &Guardian{cfg: cfg.normalized(), host: host, rng: rng, pub: pub}
}

// Sweep checks every managed actor against its anchor and relocates the ones
// out of bounds. Returns the number relocated.
func (g *Guardian) Sweep(actors []*state.Actor, tick uint64, now time.Time) int {
	if g == nil || g.host == nil {
		return 0
	}
	relocated := 0
	for _, actor := range actors {
		if actor == nil || actor.Anchor.Region == "" {
			continue
		}
		reason, distance := g.violation(actor)
		if reason == "" {
			continue
		}
		g.relocate(actor, reason, distance, tick)
		relocated++
	}
	return relocated
}

// violation names the rule the actor breaks, or "" when it is in bounds.
// Distance exactly equal to the radius is in bounds.
func (g *Guardian) violation(actor *state.Actor) (string, float64) {
	anchor := actor.Anchor
	if actor.Region != anchor.Region {
		return "region_mismatch", 0
	}
	distance := actor.Pos.DistanceTo(anchor.Pos)
	radius := g.cfg.WanderRadius
	if g.cfg.RadiusFor != nil {
		if override := g.cfg.RadiusFor(actor); override > 0 {
			radius = override
		}
	}
	if distance > radius {
		return "wandered", distance
	}
	if g.host.InForbiddenZone(actor.Region, actor.Pos) {
		return "forbidden_zone", distance
	}
	return "", 0
}

func (g *Guardian) relocate(actor *state.Actor, reason string, distance float64, tick uint64) {
	target := g.safePointNear(actor.Anchor)
	actor.Region = actor.Anchor.Region
	actor.Pos = target

	g.host.Relocate(actor.ID, actor.Region, target)
	g.host.ClearAggro(actor.ID)
	g.host.SuspendAI(actor.ID, g.cfg.GraceWindow)

	logginglifecycle.Relocated(context.Background(), g.pub, tick,
		logging.EntityRef{ID: string(actor.ID), Kind: logging.EntityKindMob},
		logginglifecycle.RelocatedPayload{Reason: reason, Distance: distance, X: target.X, Y: target.Y})
}

// safePointNear probes randomized offsets around the anchor and falls back to
// the anchor itself when none are standable.
func (g *Guardian) safePointNear(anchor state.Anchor) state.Vec2 {
	for i := 0; i < relocateProbes; i++ {
		angle := world.RandomAngle(g.rng)
		dist := world.RandomDistance(g.rng, 0, relocateSpread)
		candidate := state.Vec2{
			X: anchor.Pos.X + math.Cos(angle)*dist,
			Y: anchor.Pos.Y + math.Sin(angle)*dist,
		}
		if g.host.Standable(anchor.Region, candidate) {
			return candidate
		}
	}
	return anchor.Pos
}
