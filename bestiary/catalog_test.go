package bestiary

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCatalogCompiles(t *testing.T) {
	t.Parallel()

	catalog := Default()
	if len(catalog.Species()) == 0 {
		t.Fatalf("expected built-in species")
	}

	entry, ok := catalog.Lookup("husk")
	if !ok {
		t.Fatalf("expected husk in the default catalog")
	}
	if entry.DisplayName == "" {
		t.Fatalf("expected a display name for husk")
	}
	if min, max := entry.DamageRange(); min <= 0 || max < min {
		t.Fatalf("expected a sane damage range, got [%v, %v]", min, max)
	}

	boss, ok := catalog.Lookup("dusk_tyrant")
	if !ok {
		t.Fatalf("expected dusk_tyrant in the default catalog")
	}
	if !boss.Boss || !boss.CritImmuneFinalStage {
		t.Fatalf("expected dusk_tyrant boss flags set")
	}
	if boss.SummonSpecies != "husk" || boss.SummonCount != 2 {
		t.Fatalf("expected dusk_tyrant to summon two husks, got %q x%d", boss.SummonSpecies, boss.SummonCount)
	}
}

func TestMaxHealthForTierScalesLinearly(t *testing.T) {
	t.Parallel()

	catalog := Default()
	entry, _ := catalog.Lookup("husk")

	t1 := entry.MaxHealthForTier(1)
	t2 := entry.MaxHealthForTier(2)
	t3 := entry.MaxHealthForTier(3)
	if t1 <= 0 {
		t.Fatalf("expected positive tier 1 health, got %v", t1)
	}
	if t2-t1 != t3-t2 {
		t.Fatalf("expected linear per-tier growth, got %v then %v", t2-t1, t3-t2)
	}
	if entry.MaxHealthForTier(0) != t1 {
		t.Fatalf("expected sub-minimum tier clamped to tier 1 health")
	}
}

func TestChargeTicksOverridesAndDefaults(t *testing.T) {
	t.Parallel()

	catalog := Default()

	plain, _ := catalog.Lookup("husk")
	if got := plain.ChargeTicks(false); got != DefaultChargeTicks {
		t.Fatalf("expected default ordinary charge %d, got %d", DefaultChargeTicks, got)
	}
	if got := plain.ChargeTicks(true); got != DefaultEliteChargeTicks {
		t.Fatalf("expected default elite charge %d, got %d", DefaultEliteChargeTicks, got)
	}

	boss, _ := catalog.Lookup("dusk_tyrant")
	if got := boss.ChargeTicks(false); got != 10 {
		t.Fatalf("expected dusk_tyrant charge override 10, got %d", got)
	}
	if got := boss.ChargeTicks(true); got != 16 {
		t.Fatalf("expected dusk_tyrant elite charge override 16, got %d", got)
	}

	frozen, _ := catalog.Lookup("rimefang")
	if got := frozen.ChargeTicks(true); got != 14 {
		t.Fatalf("expected rimefang elite charge override 14, got %d", got)
	}
}

func TestCompileRejectsBadDocuments(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		doc  Document
	}{
		{"empty", Document{}},
		{"blank id", Document{Species: []EntryDocument{{ID: "  ", BaseHealth: 10}}}},
		{"duplicate id", Document{Species: []EntryDocument{
			{ID: "husk", BaseHealth: 10},
			{ID: "husk", BaseHealth: 12},
		}}},
		{"zero health", Document{Species: []EntryDocument{{ID: "husk"}}}},
		{"inverted damage", Document{Species: []EntryDocument{
			{ID: "husk", BaseHealth: 10, MinDamage: 5, MaxDamage: 2},
		}}},
		{"summon count without species", Document{Species: []EntryDocument{
			{ID: "husk", BaseHealth: 10, SummonCount: 2},
		}}},
		{"unknown summon species", Document{Species: []EntryDocument{
			{ID: "tyrant", BaseHealth: 10, SummonSpecies: "ghoul", SummonCount: 2},
		}}},
	}
	for _, tc := range cases {
		if _, err := Compile(tc.doc); err == nil {
			t.Fatalf("%s: expected compile error", tc.name)
		}
	}
}

func TestLoadReadsYAMLDocument(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "bestiary.yaml")
	doc := `species:
  - id: bog_lurker
    displayName: Bog Lurker
    entityKind: slime
    baseHealth: 30
    healthPerTier: 8
    minDamage: 2
    maxDamage: 4
    chargeTicks: 7
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	catalog, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	entry, ok := catalog.Lookup("bog_lurker")
	if !ok {
		t.Fatalf("expected bog_lurker loaded")
	}
	if entry.DisplayName != "Bog Lurker" {
		t.Fatalf("expected display name preserved, got %q", entry.DisplayName)
	}
	if got := entry.ChargeTicks(false); got != 7 {
		t.Fatalf("expected charge override 7, got %d", got)
	}
	if entry.MaxHealthForTier(2) != 38 {
		t.Fatalf("expected tier 2 health 38, got %v", entry.MaxHealthForTier(2))
	}
	if _, ok := catalog.LookupByKind("slime"); !ok {
		t.Fatalf("expected kind index populated")
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
