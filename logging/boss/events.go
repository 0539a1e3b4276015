package boss

import (
	"context"

	"duskfall/server/logging"
)

const (
	// EventPhaseChanged is emitted on a world-boss phase escalation.
	EventPhaseChanged logging.EventType = "boss.phase_changed"
	// EventBerserkChanged is emitted when berserk toggles.
	EventBerserkChanged logging.EventType = "boss.berserk_changed"
	// EventAbilityUsed is emitted when the ability scheduler fires.
	EventAbilityUsed logging.EventType = "boss.ability_used"
)

type PhasePayload struct {
	From          int     `json:"from"`
	To            int     `json:"to"`
	HealthPercent float64 `json:"healthPercent"`
}

type BerserkPayload struct {
	Active        bool    `json:"active"`
	HealthPercent float64 `json:"healthPercent"`
}

type AbilityPayload struct {
	Ability   string `json:"ability"`
	Phase     int    `json:"phase"`
	Defensive bool   `json:"defensive,omitempty"`
}

func PhaseChanged(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload PhasePayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventPhaseChanged,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryBoss,
		Payload:  payload,
	})
}

func BerserkChanged(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload BerserkPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventBerserkChanged,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryBoss,
		Payload:  payload,
	})
}

func AbilityUsed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload AbilityPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventAbilityUsed,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryBoss,
		Payload:  payload,
	})
}

func publish(ctx context.Context, pub logging.Publisher, event logging.Event) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, event)
}
