package logging

import (
	"context"
	"time"
)

type EventType string

type Severity int

// The zero value is reserved for "unset": the router stamps unset events as
// Info, so publishing with an explicit Debug stays expressible.
const (
	severityUnset Severity = iota
	SeverityDebug
	SeverityInfo
	SeverityWarn
	SeverityError
)

type EntityKind string

const (
	EntityKindUnknown EntityKind = "unknown"
	EntityKindPlayer  EntityKind = "player"
	EntityKindMob     EntityKind = "mob"
	EntityKindBoss    EntityKind = "boss"
	EntityKindWorld   EntityKind = "world"
)

// Event is the unit every sink receives. Payload carries the typed,
// event-specific document published by the domain helper packages.
type Event struct {
	Type     EventType      `json:"type"`
	Tick     uint64         `json:"tick"`
	Time     time.Time      `json:"time"`
	Actor    EntityRef      `json:"actor"`
	Targets  []EntityRef    `json:"targets,omitempty"`
	Severity Severity       `json:"severity"`
	Category string         `json:"category,omitempty"`
	Payload  any            `json:"payload,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
}

type EntityRef struct {
	ID   string     `json:"id"`
	Kind EntityKind `json:"kind"`
}

const (
	CategoryLifecycle = "lifecycle"
	CategoryCombat    = "combat"
	CategoryBoss      = "boss"
	CategorySystem    = "system"
)

type Publisher interface {
	Publish(ctx context.Context, event Event)
}

type PublisherFunc func(ctx context.Context, event Event)

func (f PublisherFunc) Publish(ctx context.Context, event Event) {
	if f == nil {
		return
	}
	f(ctx, event)
}

// NopPublisher discards every event; components treat it the same as nil.
var NopPublisher Publisher = PublisherFunc(func(context.Context, Event) {})

func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}
