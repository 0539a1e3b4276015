package state

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestClampTier(t *testing.T) {
	t.Parallel()

	cases := []struct {
		tier     int
		extended bool
		want     int
	}{
		{0, false, 1},
		{-3, false, 1},
		{3, false, 3},
		{6, false, 5},
		{9, false, 5},
		{6, true, 6},
		{9, true, 6},
	}
	for _, tc := range cases {
		if got := ClampTier(tc.tier, tc.extended); got != tc.want {
			t.Fatalf("ClampTier(%d, %v) = %d, want %d", tc.tier, tc.extended, got, tc.want)
		}
	}
}

func TestNewActorIDIsPrefixedAndUnique(t *testing.T) {
	t.Parallel()

	a, b := NewActorID(), NewActorID()
	if !strings.HasPrefix(string(a), "mob-") {
		t.Fatalf("expected mob- prefix, got %s", a)
	}
	if a == b {
		t.Fatalf("expected distinct ids")
	}
}

func TestSetHealthClampsAndReportsChange(t *testing.T) {
	t.Parallel()

	actor := &Actor{}
	if !actor.SetHealth(100, 120) {
		t.Fatalf("expected change reported")
	}
	if actor.Health != 100 || actor.MaxHealth != 100 {
		t.Fatalf("expected health clamped to max, got %v/%v", actor.Health, actor.MaxHealth)
	}

	if actor.SetHealth(100, 100) {
		t.Fatalf("expected no-op reported as unchanged")
	}

	if !actor.SetHealth(100, -5) {
		t.Fatalf("expected change to zero")
	}
	if actor.Health != 0 {
		t.Fatalf("expected negative health floored at zero, got %v", actor.Health)
	}
	if actor.Alive() {
		t.Fatalf("expected actor dead at zero health")
	}
}

func TestApplyDamageClampsToRemaining(t *testing.T) {
	t.Parallel()

	actor := &Actor{}
	actor.SetHealth(50, 50)

	if applied := actor.ApplyDamage(20); applied != 20 {
		t.Fatalf("expected 20 applied, got %v", applied)
	}
	if applied := actor.ApplyDamage(100); applied != 30 {
		t.Fatalf("expected overkill clamped to 30, got %v", applied)
	}
	if actor.Health != 0 {
		t.Fatalf("expected zero health, got %v", actor.Health)
	}
	if applied := actor.ApplyDamage(5); applied != 0 {
		t.Fatalf("expected no damage on a dead actor, got %v", applied)
	}
	if applied := actor.ApplyDamage(-5); applied != 0 {
		t.Fatalf("expected negative damage ignored, got %v", applied)
	}
}

func TestDefaultLabel(t *testing.T) {
	t.Parallel()

	actor := &Actor{Species: "marrow_knight", Tier: 4}
	if got := actor.DefaultLabel(); got != "marrow knight [T4]" {
		t.Fatalf("unexpected label %q", got)
	}
	actor.Elite = true
	if got := actor.DefaultLabel(); got != "Elite marrow knight [T4]" {
		t.Fatalf("unexpected elite label %q", got)
	}
}

func TestReadyCooldownGateAndRestamp(t *testing.T) {
	t.Parallel()

	actor := &Actor{}
	now := time.UnixMilli(1_700_000_000)

	if !actor.ReadyCooldown("swing", time.Second, now) {
		t.Fatalf("expected first use to pass")
	}
	if actor.ReadyCooldown("swing", time.Second, now.Add(500*time.Millisecond)) {
		t.Fatalf("expected gate inside the cooldown")
	}
	if !actor.ReadyCooldown("swing", time.Second, now.Add(time.Second)) {
		t.Fatalf("expected gate open after the cooldown")
	}
	// Separate names track independently.
	if !actor.ReadyCooldown("howl", time.Second, now) {
		t.Fatalf("expected independent cooldown names")
	}
}

func TestHealthPercent(t *testing.T) {
	t.Parallel()

	actor := &Actor{}
	if actor.HealthPercent() != 0 {
		t.Fatalf("expected zero percent without max health")
	}
	actor.SetHealth(200, 50)
	if got := actor.HealthPercent(); got != 0.25 {
		t.Fatalf("expected 0.25, got %v", got)
	}
}

func TestHealRestoresUpToMax(t *testing.T) {
	t.Parallel()

	actor := &Actor{}
	actor.SetHealth(100, 40)
	if got := actor.Heal(25); got != 25 {
		t.Fatalf("expected full heal applied, got %v", got)
	}
	if got := actor.Heal(100); got != 35 {
		t.Fatalf("expected heal clamped to max, got %v", got)
	}
	if health, _ := actor.HealthSnapshot(); health != 100 {
		t.Fatalf("expected full health, got %v", health)
	}
	if got := actor.Heal(5); got != 0 {
		t.Fatalf("expected no heal at full health, got %v", got)
	}
}

func TestConcurrentDamageAndReadsAccountEveryHit(t *testing.T) {
	t.Parallel()

	actor := &Actor{}
	actor.SetHealth(1000, 1000)

	var wg sync.WaitGroup
	start := make(chan struct{})
	wg.Add(3)
	go func() {
		defer wg.Done()
		<-start
		for i := 0; i < 1000; i++ {
			actor.ApplyDamage(0.25)
		}
	}()
	go func() {
		defer wg.Done()
		<-start
		for i := 0; i < 1000; i++ {
			actor.ApplyDamage(0.25)
		}
	}()
	go func() {
		defer wg.Done()
		<-start
		for i := 0; i < 1000; i++ {
			actor.HealthSnapshot()
			actor.HealthPercent()
			actor.Alive()
		}
	}()
	close(start)
	wg.Wait()

	if health, _ := actor.HealthSnapshot(); health != 500 {
		t.Fatalf("expected every hit accounted, got health %v", health)
	}
}
