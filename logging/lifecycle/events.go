package lifecycle

import (
	"context"

	"duskfall/server/logging"
)

const (
	// EventSpawned is emitted when a mob is registered into the live table.
	EventSpawned logging.EventType = "lifecycle.spawned"
	// EventSpawnBlocked is emitted when a spawn is refused by a cooldown or cap.
	EventSpawnBlocked logging.EventType = "lifecycle.spawn_blocked"
	// EventSpawnFailed is emitted when initialization failed and the partial
	// actor was torn down.
	EventSpawnFailed logging.EventType = "lifecycle.spawn_failed"
	// EventDespawned is emitted when a mob leaves the live table.
	EventDespawned logging.EventType = "lifecycle.despawned"
	// EventRelocated is emitted when the guardian pulls a stray back to its anchor.
	EventRelocated logging.EventType = "lifecycle.relocated"
)

type SpawnPayload struct {
	Species string  `json:"species"`
	Tier    int     `json:"tier"`
	Elite   bool    `json:"elite"`
	Boss    bool    `json:"boss,omitempty"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

type BlockedPayload struct {
	Species string `json:"species"`
	Tier    int    `json:"tier"`
	Elite   bool   `json:"elite"`
	Reason  string `json:"reason"`
}

type FailedPayload struct {
	Species string `json:"species"`
	Tier    int    `json:"tier"`
	Error   string `json:"error"`
}

type RelocatedPayload struct {
	Reason   string  `json:"reason"`
	Distance float64 `json:"distance"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

func Spawned(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SpawnPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventSpawned,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
	})
}

func SpawnBlocked(ctx context.Context, pub logging.Publisher, tick uint64, payload BlockedPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventSpawnBlocked,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityDebug,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
	})
}

func SpawnFailed(ctx context.Context, pub logging.Publisher, tick uint64, payload FailedPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventSpawnFailed,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityWarn,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
	})
}

func Despawned(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, reason string) {
	publish(ctx, pub, logging.Event{
		Type:     EventDespawned,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Extra:    map[string]any{"reason": reason},
	})
}

func Relocated(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload RelocatedPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventRelocated,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
	})
}

func publish(ctx context.Context, pub logging.Publisher, event logging.Event) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, event)
}
