package bestiary

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"duskfall/server/internal/state"
)

const (
	// DefaultChargeTicks is the ordinary critical charge duration.
	DefaultChargeTicks = 6
	// DefaultEliteChargeTicks is the elite critical charge duration.
	DefaultEliteChargeTicks = 12
)

// Entry is a compiled species record.
type Entry struct {
	ID          state.Species
	DisplayName string
	EntityKind  string
	Boss        bool
	Frozen      bool

	CritImmuneFinalStage bool

	baseHealth    float64
	healthPerTier float64
	minDamage     float64
	maxDamage     float64

	chargeTicks      int
	eliteChargeTicks int

	WeaponType  string
	LeashRadius float64

	SummonSpecies state.Species
	SummonCount   int
}

// MaxHealthForTier scales the species base health by tier.
func (e *Entry) MaxHealthForTier(tier int) float64 {
	if e == nil {
		return 0
	}
	if tier < state.MinTier {
		tier = state.MinTier
	}
	return e.baseHealth + float64(tier-1)*e.healthPerTier
}

// DamageRange returns the species' innate weapon damage bounds.
func (e *Entry) DamageRange() (float64, float64) {
	if e == nil {
		return 0, 0
	}
	return e.minDamage, e.maxDamage
}

// ChargeTicks resolves the critical charge duration for the eliteness,
// honoring per-species overrides.
func (e *Entry) ChargeTicks(elite bool) int {
	if e != nil {
		if elite && e.eliteChargeTicks > 0 {
			return e.eliteChargeTicks
		}
		if !elite && e.chargeTicks > 0 {
			return e.chargeTicks
		}
	}
	if elite {
		return DefaultEliteChargeTicks
	}
	return DefaultChargeTicks
}

// Catalog indexes compiled species entries.
type Catalog struct {
	entries map[state.Species]*Entry
	byKind  map[string]*Entry
}

// Compile validates a document and builds the runtime catalog.
func Compile(doc Document) (*Catalog, error) {
	if len(doc.Species) == 0 {
		return nil, fmt.Errorf("bestiary: document has no species")
	}
	catalog := &Catalog{
		entries: make(map[state.Species]*Entry, len(doc.Species)),
		byKind:  make(map[string]*Entry),
	}
	for i, raw := range doc.Species {
		id := strings.TrimSpace(raw.ID)
		if id == "" {
			return nil, fmt.Errorf("bestiary: species %d has empty id", i)
		}
		species := state.Species(id)
		if _, dup := catalog.entries[species]; dup {
			return nil, fmt.Errorf("bestiary: duplicate species %q", id)
		}
		if raw.BaseHealth <= 0 {
			return nil, fmt.Errorf("bestiary: species %q has non-positive base health", id)
		}
		if raw.MaxDamage < raw.MinDamage {
			return nil, fmt.Errorf("bestiary: species %q damage range inverted", id)
		}
		entry := &Entry{
			ID:                   species,
			DisplayName:          raw.DisplayName,
			EntityKind:           strings.TrimSpace(raw.EntityKind),
			Boss:                 raw.Boss,
			Frozen:               raw.Frozen,
			CritImmuneFinalStage: raw.CritImmuneFinalStage,
			baseHealth:           raw.BaseHealth,
			healthPerTier:        raw.HealthPerTier,
			minDamage:            raw.MinDamage,
			maxDamage:            raw.MaxDamage,
			chargeTicks:          raw.ChargeTicks,
			eliteChargeTicks:     raw.EliteChargeTicks,
			WeaponType:           raw.WeaponType,
			LeashRadius:          raw.LeashRadius,
			SummonSpecies:        state.Species(strings.TrimSpace(raw.SummonSpecies)),
			SummonCount:          raw.SummonCount,
		}
		if entry.SummonCount > 0 && entry.SummonSpecies == "" {
			return nil, fmt.Errorf("bestiary: species %q has summon count without a summon species", id)
		}
		if entry.DisplayName == "" {
			entry.DisplayName = id
		}
		catalog.entries[species] = entry
		if entry.EntityKind != "" {
			catalog.byKind[entry.EntityKind] = entry
		}
	}
	for _, entry := range catalog.entries {
		if entry.SummonCount <= 0 {
			continue
		}
		if _, ok := catalog.entries[entry.SummonSpecies]; !ok {
			return nil, fmt.Errorf("bestiary: species %q summons unknown species %q", entry.ID, entry.SummonSpecies)
		}
	}
	return catalog, nil
}

// Load reads a YAML bestiary document from disk and compiles it.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bestiary: read %s: %w", path, err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("bestiary: parse %s: %w", path, err)
	}
	return Compile(doc)
}

// Default compiles the built-in bestiary; it never fails.
func Default() *Catalog {
	catalog, err := Compile(DefaultDocument())
	if err != nil {
		panic(fmt.Sprintf("bestiary: default document invalid: %v", err))
	}
	return catalog
}

// Lookup returns the entry for a species.
func (c *Catalog) Lookup(species state.Species) (*Entry, bool) {
	if c == nil {
		return nil, false
	}
	entry, ok := c.entries[species]
	return entry, ok
}

// LookupByKind maps a native entity kind back to a species entry; it backs
// the unmanaged-actor classifier.
func (c *Catalog) LookupByKind(kind string) (*Entry, bool) {
	if c == nil {
		return nil, false
	}
	entry, ok := c.byKind[kind]
	return entry, ok
}

// Species lists all compiled species ids.
func (c *Catalog) Species() []state.Species {
	if c == nil {
		return nil
	}
	ids := make([]state.Species, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	return ids
}
