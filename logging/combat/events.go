package combat

import (
	"context"

	"duskfall/server/logging"
)

const (
	// EventDamage is emitted when a contributor deals damage to a mob.
	EventDamage logging.EventType = "combat.damage"
	// EventDefeat is emitted when a mob's health reaches zero.
	EventDefeat logging.EventType = "combat.defeat"
	// EventCriticalCharged is emitted when a mob begins charging a critical.
	EventCriticalCharged logging.EventType = "combat.critical_charged"
	// EventCriticalReady is emitted when an ordinary mob finishes charging.
	EventCriticalReady logging.EventType = "combat.critical_ready"
	// EventCriticalExecuted is emitted when a charged critical resolves.
	EventCriticalExecuted logging.EventType = "combat.critical_executed"
)

// DamagePayload captures the amount applied to a single mob.
type DamagePayload struct {
	Amount       float64 `json:"amount"`
	TargetHealth float64 `json:"targetHealth"`
	Contributor  string  `json:"contributor,omitempty"`
}

// DefeatPayload describes the context of the fatal blow.
type DefeatPayload struct {
	Species     string `json:"species"`
	Tier        int    `json:"tier"`
	Elite       bool   `json:"elite"`
	TopDamager  string `json:"topDamager,omitempty"`
	Contributor string `json:"contributor,omitempty"`
}

// CriticalPayload describes a critical state change.
type CriticalPayload struct {
	ChargeTicks int     `json:"chargeTicks,omitempty"`
	Elite       bool    `json:"elite"`
	Damage      float64 `json:"damage,omitempty"`
	TargetsHit  int     `json:"targetsHit,omitempty"`
}

func Damage(ctx context.Context, pub logging.Publisher, tick uint64, actor, target logging.EntityRef, payload DamagePayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventDamage,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}

func Defeat(ctx context.Context, pub logging.Publisher, tick uint64, actor, target logging.EntityRef, payload DefeatPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventDefeat,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}

func CriticalCharged(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload CriticalPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventCriticalCharged,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}

func CriticalReady(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef) {
	publish(ctx, pub, logging.Event{
		Type:     EventCriticalReady,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
	})
}

func CriticalExecuted(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload CriticalPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventCriticalExecuted,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}

func publish(ctx context.Context, pub logging.Publisher, event logging.Event) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, event)
}
