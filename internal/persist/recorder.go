package persist

import "duskfall/server/internal/state"

// Recorder persists kill-count increments per contributor. The combat core
// never reads persisted state back.
type Recorder interface {
	RecordKill(contributor string, species state.Species, tier int, elite bool)
	Close() error
}

// Nop discards every record.
type Nop struct{}

func (Nop) RecordKill(string, state.Species, int, bool) {}
func (Nop) Close() error                                { return nil }
