package registry

import (
	"duskfall/server/internal/ledger"
	"duskfall/server/internal/state"
	"duskfall/server/internal/visibility"
)

// EquipmentService generates loadout content at spawn time. Failures are
// tolerated: a mob spawns with empty slots.
type EquipmentService interface {
	CreateWeapon(tier int, weaponType string) (state.Weapon, bool)
	CreateEquipment(tier int, slot string) (string, bool)
}

// DropService is notified at death; fire-and-forget, nothing is read back.
type DropService interface {
	NotifyDeath(species state.Species, tier int, elite bool, ranked []ledger.Share)
}

// PresentationService receives sound/particle/chat cues; never awaited.
type PresentationService interface {
	CriticalCharge(actor *state.Actor)
	CriticalStrike(actor *state.Actor, damage float64)
	AreaHit(actor *state.Actor, targets []string, damage float64)
	Knockback(playerID string, from state.Vec2, strength float64)
}

// StrikeService applies damage to players; the host owns player health.
type StrikeService interface {
	DamagePlayer(playerID string, amount float64)
}

// KillRecorder persists per-contributor kill counts; nothing is read back.
type KillRecorder interface {
	RecordKill(contributor string, species state.Species, tier int, elite bool)
}

// Services bundles every external collaborator the registry calls into.
type Services struct {
	Equipment    EquipmentService
	Drops        DropService
	Presentation PresentationService
	Strikes      StrikeService
	Kills        KillRecorder
	Display      visibility.Display
}

func (s Services) normalized() Services {
	normalized := s
	if normalized.Equipment == nil {
		normalized.Equipment = NopEquipment{}
	}
	if normalized.Drops == nil {
		normalized.Drops = NopDrops{}
	}
	if normalized.Presentation == nil {
		normalized.Presentation = NopPresentation{}
	}
	if normalized.Strikes == nil {
		normalized.Strikes = NopStrikes{}
	}
	if normalized.Kills == nil {
		normalized.Kills = NopKills{}
	}
	if normalized.Display == nil {
		normalized.Display = NopDisplay{}
	}
	return normalized
}

type NopEquipment struct{}

func (NopEquipment) CreateWeapon(int, string) (state.Weapon, bool) { return state.Weapon{}, false }
func (NopEquipment) CreateEquipment(int, string) (string, bool)    { return "", false }

type NopDrops struct{}

func (NopDrops) NotifyDeath(state.Species, int, bool, []ledger.Share) {}

type NopPresentation struct{}

func (NopPresentation) CriticalCharge(*state.Actor)                  {}
func (NopPresentation) CriticalStrike(*state.Actor, float64)         {}
func (NopPresentation) AreaHit(*state.Actor, []string, float64)      {}
func (NopPresentation) Knockback(string, state.Vec2, float64)        {}

type NopStrikes struct{}

func (NopStrikes) DamagePlayer(string, float64) {}

type NopKills struct{}

func (NopKills) RecordKill(string, state.Species, int, bool) {}

type NopDisplay struct{}

func (NopDisplay) ShowStatus(*state.Actor, visibility.StatusInfo) {}
func (NopDisplay) ShowLabel(*state.Actor, string)                 {}
