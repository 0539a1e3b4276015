package boss

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"duskfall/server/internal/state"
	"duskfall/server/logging"
)

func testBoss(health, maxHealth float64) *state.Actor {
	return &state.Actor{
		ID:        "mob-boss-1",
		Species:   "wither",
		Tier:      5,
		Boss:      true,
		Health:    health,
		MaxHealth: maxHealth,
		Weapon:    state.Weapon{MinDamage: 8, MaxDamage: 12},
	}
}

func testController(actor *state.Actor, executor Executor, seed int64) *Controller {
	return NewController(actor, nil, executor, rand.New(rand.NewSource(seed)), logging.NopPublisher)
}

func TestPhaseTransitionAtThreshold(t *testing.T) {
	t.Parallel()

	actor := testBoss(100, 100)
	c := testController(actor, nil, 1)
	now := time.UnixMilli(1_700_000_000)

	c.Update(1, now)
	if got := c.Snapshot().Phase; got != 1 {
		t.Fatalf("expected phase 1 at full health, got %d", got)
	}

	actor.SetHealth(actor.MaxHealth, 70)
	c.Update(2, now.Add(time.Second))
	if got := c.Snapshot().Phase; got != 2 {
		t.Fatalf("expected phase 2 at 70%% health, got %d", got)
	}
}

func TestPhaseTransitionCooldownGatesEscalation(t *testing.T) {
	t.Parallel()

	actor := testBoss(100, 100)
	c := testController(actor, nil, 1)
	now := time.UnixMilli(1_700_000_000)

	actor.SetHealth(actor.MaxHealth, 70)
	c.Update(1, now)
	if got := c.Snapshot().Phase; got != 2 {
		t.Fatalf("expected phase 2, got %d", got)
	}

	// Crossing the next threshold inside the cooldown does nothing.
	actor.SetHealth(actor.MaxHealth, 45)
	c.Update(2, now.Add(2*time.Second))
	if got := c.Snapshot().Phase; got != 2 {
		t.Fatalf("expected phase held during cooldown, got %d", got)
	}

	c.Update(3, now.Add(6*time.Second))
	if got := c.Snapshot().Phase; got != 3 {
		t.Fatalf("expected phase 3 after cooldown, got %d", got)
	}
}

func TestPhaseNeverDecreasesOnHeal(t *testing.T) {
	t.Parallel()

	actor := testBoss(100, 100)
	c := testController(actor, nil, 1)
	now := time.UnixMilli(1_700_000_000)

	actor.SetHealth(actor.MaxHealth, 40)
	c.Update(1, now)
	if got := c.Snapshot().Phase; got != 3 {
		t.Fatalf("expected phase 3 at 40%% health, got %d", got)
	}

	actor.SetHealth(actor.MaxHealth, 95)
	c.Update(2, now.Add(10*time.Second))
	if got := c.Snapshot().Phase; got != 3 {
		t.Fatalf("expected phase to hold after heal, got %d", got)
	}
}

func TestBerserkForcedByHealthFloorAndPhaseFour(t *testing.T) {
	t.Parallel()

	actor := testBoss(100, 100)
	c := testController(actor, nil, 1)
	now := time.UnixMilli(1_700_000_000)

	actor.SetHealth(actor.MaxHealth, 15)
	c.Update(1, now)
	st := c.Snapshot()
	if st.Phase != 4 {
		t.Fatalf("expected phase 4 at 15%% health, got %d", st.Phase)
	}
	if !st.Berserk {
		t.Fatalf("expected berserk forced below the health floor")
	}

	// Phase 4 keeps berserk forced even against the explicit override.
	actor.SetHealth(actor.MaxHealth, 60)
	c.DeactivateBerserk(2)
	if !c.Snapshot().Berserk {
		t.Fatalf("expected berserk held while phase 4")
	}
}

func TestBerserkClearsAboveRecoveryThreshold(t *testing.T) {
	t.Parallel()

	actor := testBoss(100, 100)
	c := testController(actor, nil, 1)
	now := time.UnixMilli(1_700_000_000)

	actor.SetHealth(actor.MaxHealth, 15)
	c.Update(1, now)
	if !c.Snapshot().Berserk {
		t.Fatalf("expected berserk at 15%% health")
	}

	// Drop phase back below 4 administratively, then heal past recovery.
	c.AdminSetPhase(2, now)
	actor.SetHealth(actor.MaxHealth, 40)
	c.Update(2, now.Add(time.Second))
	if c.Snapshot().Berserk {
		t.Fatalf("expected berserk cleared above recovery threshold")
	}
}

func TestBerserkHoldsBetweenFloorAndRecovery(t *testing.T) {
	t.Parallel()

	actor := testBoss(100, 100)
	c := testController(actor, nil, 1)
	now := time.UnixMilli(1_700_000_000)

	actor.SetHealth(actor.MaxHealth, 15)
	c.Update(1, now)
	c.AdminSetPhase(2, now)

	// 30% sits between the floor and the recovery threshold.
	actor.SetHealth(actor.MaxHealth, 30)
	c.Update(2, now.Add(time.Second))
	if !c.Snapshot().Berserk {
		t.Fatalf("expected berserk to hold in the hysteresis band")
	}
}

func TestCurrentProfileStacksBerserk(t *testing.T) {
	t.Parallel()

	actor := testBoss(100, 100)
	c := testController(actor, nil, 1)
	base := c.CurrentProfile()
	if base.SpeedMult != 1.0 || base.DamageMult != 1.0 {
		t.Fatalf("expected neutral phase 1 profile, got %+v", base)
	}

	actor.SetHealth(actor.MaxHealth, 10)
	c.Update(1, time.UnixMilli(1_700_000_000))
	stacked := c.CurrentProfile()
	phase4 := phaseProfiles[4]
	if stacked.DamageMult <= phase4.DamageMult {
		t.Fatalf("expected berserk to stack on the phase profile, got %+v", stacked)
	}
}

func TestUpdateEventuallyFiresAbilitiesRespectingGlobalCooldown(t *testing.T) {
	t.Parallel()

	actor := testBoss(100, 100)
	var fired []time.Time
	executor := ExecutorFunc(func(_ *state.Actor, _ Ability, _ int) {})
	c := testController(actor, executor, 3)

	now := time.UnixMilli(1_700_000_000)
	for i := 0; i < 600; i++ {
		at := now.Add(time.Duration(i) * 100 * time.Millisecond)
		before := actor.Cooldowns[globalCooldownKey]
		c.Update(uint64(i), at)
		if after := actor.Cooldowns[globalCooldownKey]; !after.Equal(before) {
			fired = append(fired, after)
		}
	}
	if len(fired) == 0 {
		t.Fatalf("expected at least one ability over 60 simulated seconds")
	}
	for i := 1; i < len(fired); i++ {
		if gap := fired[i].Sub(fired[i-1]); gap < GlobalAbilityCooldown {
			t.Fatalf("expected firings %v apart at least, got %v", GlobalAbilityCooldown, gap)
		}
	}
}

func TestHighPhaseAbilitiesLockedEarly(t *testing.T) {
	t.Parallel()

	actor := testBoss(100, 100)
	seen := make(map[string]bool)
	executor := ExecutorFunc(func(_ *state.Actor, ability Ability, _ int) {
		seen[ability.Name] = true
	})
	c := testController(actor, executor, 3)

	now := time.UnixMilli(1_700_000_000)
	for i := 0; i < 600; i++ {
		c.Update(uint64(i), now.Add(time.Duration(i)*100*time.Millisecond))
	}
	if seen["summon"] || seen["heal"] {
		t.Fatalf("expected phase 3 abilities locked at phase 1, saw %v", seen)
	}
	if !seen["roar"] && !seen["stomp"] {
		t.Fatalf("expected phase 1 abilities to fire, saw %v", seen)
	}
}

func TestOnDamagedBelowPhaseThreeNeverReacts(t *testing.T) {
	t.Parallel()

	actor := testBoss(100, 100)
	fired := 0
	executor := ExecutorFunc(func(_ *state.Actor, _ Ability, _ int) { fired++ })
	c := testController(actor, executor, 3)

	now := time.UnixMilli(1_700_000_000)
	for i := 0; i < 500; i++ {
		c.OnDamaged(uint64(i), now.Add(time.Duration(i)*time.Second))
	}
	if fired != 0 {
		t.Fatalf("expected no defensive reaction below phase 3, got %d", fired)
	}
}

func TestOnDamagedFiresDefensiveAbilitiesAtHighPhase(t *testing.T) {
	t.Parallel()

	actor := testBoss(100, 100)
	var abilities []Ability
	executor := ExecutorFunc(func(_ *state.Actor, ability Ability, _ int) {
		abilities = append(abilities, ability)
	})
	c := testController(actor, executor, 3)
	now := time.UnixMilli(1_700_000_000)

	actor.SetHealth(actor.MaxHealth, 40)
	c.Update(1, now)
	if got := c.Snapshot().Phase; got != 3 {
		t.Fatalf("expected phase 3, got %d", got)
	}

	for i := 0; i < 500; i++ {
		c.OnDamaged(uint64(i), now.Add(time.Duration(i)*time.Second))
	}
	if len(abilities) == 0 {
		t.Fatalf("expected defensive reactions at phase 3")
	}
	for _, ability := range abilities {
		if !ability.Defensive {
			t.Fatalf("expected only defensive abilities from OnDamaged, got %s", ability.Name)
		}
	}
}

func TestAdminSetPhaseClampsRange(t *testing.T) {
	t.Parallel()

	actor := testBoss(100, 100)
	c := testController(actor, nil, 1)
	now := time.UnixMilli(1_700_000_000)

	c.AdminSetPhase(9, now)
	if got := c.Snapshot().Phase; got != MaxPhase {
		t.Fatalf("expected clamp to max phase, got %d", got)
	}
	c.AdminSetPhase(0, now)
	if got := c.Snapshot().Phase; got != MinPhase {
		t.Fatalf("expected clamp to min phase, got %d", got)
	}
}

func TestUpdateAndOnDamagedInterleaveSafely(t *testing.T) {
	t.Parallel()

	actor := testBoss(100, 100)
	actor.SetHealth(100, 30) // phase 3 territory
	c := testController(actor, nil, 5)
	base := time.UnixMilli(1_700_000_000)

	var wg sync.WaitGroup
	start := make(chan struct{})
	wg.Add(2)
	go func() {
		defer wg.Done()
		<-start
		for i := 0; i < 500; i++ {
			c.Update(uint64(i), base.Add(time.Duration(i)*100*time.Millisecond))
		}
	}()
	go func() {
		defer wg.Done()
		<-start
		for i := 0; i < 500; i++ {
			c.OnDamaged(uint64(i), base.Add(time.Duration(i)*100*time.Millisecond))
		}
	}()
	close(start)
	wg.Wait()

	st := c.Snapshot()
	if st.Phase < MinPhase || st.Phase > MaxPhase {
		t.Fatalf("expected phase in range, got %d", st.Phase)
	}
}
