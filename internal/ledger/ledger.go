package ledger

import (
	"sort"
	"sync"
	"time"

	"duskfall/server/internal/state"
)

// DefaultIdleWindow expires ledger entries untouched for this long.
const DefaultIdleWindow = 2 * time.Minute

// Share is one contributor's cumulative damage against an actor.
type Share struct {
	Contributor string
	Damage      float64
}

type entry struct {
	totals     map[string]float64
	order      []string // insertion order, so ties keep a stable-ish sequence
	lastTouch  string
	lastActive time.Time
}

// Ledger attributes damage per (actor, contributor). Records happen on the
// combat tick; expiry runs on a maintenance job, hence the mutex.
type Ledger struct {
	mu         sync.Mutex
	entries    map[state.ActorID]*entry
	idleWindow time.Duration
}

func New(idleWindow time.Duration) *Ledger {
	if idleWindow <= 0 {
		idleWindow = DefaultIdleWindow
	}
	return &Ledger{
		entries:    make(map[state.ActorID]*entry),
		idleWindow: idleWindow,
	}
}

// Record merges amount into the contributor's running total. Negative amounts
// are ignored; totals only grow.
func (l *Ledger) Record(actor state.ActorID, contributor string, amount float64, now time.Time) {
	if l == nil || actor == "" || contributor == "" || amount < 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.entries[actor]
	if e == nil {
		e = &entry{totals: make(map[string]float64)}
		l.entries[actor] = e
	}
	if _, seen := e.totals[contributor]; !seen {
		e.order = append(e.order, contributor)
	}
	e.totals[contributor] += amount
	e.lastTouch = contributor
	e.lastActive = now
}

// Touch records an interaction without damage. It keeps the most-recent
// interaction fallback alive for late-arriving support actors.
func (l *Ledger) Touch(actor state.ActorID, contributor string, now time.Time) {
	if l == nil || actor == "" || contributor == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.entries[actor]
	if e == nil {
		e = &entry{totals: make(map[string]float64)}
		l.entries[actor] = e
	}
	e.lastTouch = contributor
	e.lastActive = now
}

// TopContributor resolves the highest-damage contributor who is still
// reachable, falling down the ranked list, then to the most recent
// interaction when no damage totals survive.
func (l *Ledger) TopContributor(actor state.ActorID, reachable func(string) bool) (string, bool) {
	if l == nil {
		return "", false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.entries[actor]
	if e == nil {
		return "", false
	}
	for _, share := range rankedLocked(e) {
		if reachable == nil || reachable(share.Contributor) {
			return share.Contributor, true
		}
	}
	if e.lastTouch != "" && (reachable == nil || reachable(e.lastTouch)) {
		return e.lastTouch, true
	}
	return "", false
}

// Ranked returns contributors in descending damage order. Equal totals keep
// whatever relative order insertion produced; no tie-break is defined.
func (l *Ledger) Ranked(actor state.ActorID) []Share {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.entries[actor]
	if e == nil {
		return nil
	}
	return rankedLocked(e)
}

func rankedLocked(e *entry) []Share {
	shares := make([]Share, 0, len(e.totals))
	for _, contributor := range e.order {
		shares = append(shares, Share{Contributor: contributor, Damage: e.totals[contributor]})
	}
	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].Damage > shares[j].Damage
	})
	return shares
}

// Total reports one contributor's cumulative damage.
func (l *Ledger) Total(actor state.ActorID, contributor string) float64 {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if e := l.entries[actor]; e != nil {
		return e.totals[contributor]
	}
	return 0
}

// Forget drops the actor's full ledger entry; called on deregistration.
func (l *Ledger) Forget(actor state.ActorID) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, actor)
}

// Expire removes entries for actors no longer valid and entries idle past the
// window. It returns the number of entries removed.
func (l *Ledger) Expire(now time.Time, valid func(state.ActorID) bool) int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for actor, e := range l.entries {
		if valid != nil && !valid(actor) {
			delete(l.entries, actor)
			removed++
			continue
		}
		if now.Sub(e.lastActive) > l.idleWindow {
			delete(l.entries, actor)
			removed++
		}
	}
	return removed
}

// Len reports how many actors currently hold ledger entries.
func (l *Ledger) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
