package bestiary

// Document is the designer-authored bestiary file. It is the YAML surface the
// schema generator reflects; Compile turns it into the runtime catalog.
type Document struct {
	Species []EntryDocument `yaml:"species" json:"species" jsonschema:"required"`
}

// EntryDocument describes one species.
type EntryDocument struct {
	ID          string `yaml:"id" json:"id" jsonschema:"required"`
	DisplayName string `yaml:"displayName" json:"displayName,omitempty"`
	// EntityKind names the host engine's native entity type; the unmanaged
	// classifier maps native kinds back through it.
	EntityKind string `yaml:"entityKind" json:"entityKind,omitempty"`
	Boss       bool   `yaml:"boss" json:"boss,omitempty"`

	BaseHealth    float64 `yaml:"baseHealth" json:"baseHealth" jsonschema:"required"`
	HealthPerTier float64 `yaml:"healthPerTier" json:"healthPerTier,omitempty"`

	MinDamage float64 `yaml:"minDamage" json:"minDamage,omitempty"`
	MaxDamage float64 `yaml:"maxDamage" json:"maxDamage,omitempty"`

	// ChargeTicks/EliteChargeTicks override the default critical charge
	// durations for named species; zero keeps the defaults.
	ChargeTicks      int `yaml:"chargeTicks" json:"chargeTicks,omitempty"`
	EliteChargeTicks int `yaml:"eliteChargeTicks" json:"eliteChargeTicks,omitempty"`

	// Frozen marks the boss variant that re-enters Charging while below the
	// enrage health threshold.
	Frozen bool `yaml:"frozen" json:"frozen,omitempty"`
	// CritImmuneFinalStage marks the species whose final combat stage never
	// rolls criticals.
	CritImmuneFinalStage bool `yaml:"critImmuneFinalStage" json:"critImmuneFinalStage,omitempty"`

	WeaponType  string  `yaml:"weaponType" json:"weaponType,omitempty"`
	LeashRadius float64 `yaml:"leashRadius" json:"leashRadius,omitempty"`

	// SummonSpecies/SummonCount configure the boss summon ability; a zero
	// count disables it.
	SummonSpecies string `yaml:"summonSpecies" json:"summonSpecies,omitempty"`
	SummonCount   int    `yaml:"summonCount" json:"summonCount,omitempty"`
}

// DefaultDocument ships a small built-in bestiary so the server boots without
// an authored file.
func DefaultDocument() Document {
	return Document{
		Species: []EntryDocument{
			{
				ID:            "husk",
				DisplayName:   "Husk",
				EntityKind:    "zombie",
				BaseHealth:    40,
				HealthPerTier: 20,
				MinDamage:     3,
				MaxDamage:     6,
				WeaponType:    "claw",
			},
			{
				ID:            "marrow_knight",
				DisplayName:   "Marrow Knight",
				EntityKind:    "skeleton",
				BaseHealth:    60,
				HealthPerTier: 30,
				MinDamage:     5,
				MaxDamage:     9,
				WeaponType:    "sword",
			},
			{
				ID:                   "dusk_tyrant",
				DisplayName:          "Dusk Tyrant",
				EntityKind:           "wither",
				Boss:                 true,
				BaseHealth:           2000,
				HealthPerTier:        500,
				MinDamage:            14,
				MaxDamage:            22,
				ChargeTicks:          10,
				EliteChargeTicks:     16,
				CritImmuneFinalStage: true,
				WeaponType:           "greataxe",
				LeashRadius:          80,
				SummonSpecies:        "husk",
				SummonCount:          2,
			},
			{
				ID:               "rimefang",
				DisplayName:      "Rimefang",
				EntityKind:       "stray",
				BaseHealth:       120,
				HealthPerTier:    60,
				MinDamage:        7,
				MaxDamage:        12,
				Frozen:           true,
				EliteChargeTicks: 14,
				WeaponType:       "frost_blade",
			},
		},
	}
}
