package engine

import (
	"sync"
	"time"
)

// EditGuard is a time-boxed flag raised while a human is actively editing.
// While held, periodic reconciliation and feed-driven slide mutation are
// suppressed for this context so an in-flight poll cannot overwrite unsaved
// optimistic state. The hold auto-expires so a burst of consecutive edits
// never needs a manual release; each BeginEdit extends the deadline.
// The debounced writer is NOT gated by this: edits must still persist.
type EditGuard struct {
	mu    sync.Mutex
	clock Clock
	hold  time.Duration
	until time.Time
}

func NewEditGuard(hold time.Duration) *EditGuard {
	return NewEditGuardWithClock(hold, RealClock{})
}

func NewEditGuardWithClock(hold time.Duration, clock Clock) *EditGuard {
	return &EditGuard{clock: clock, hold: hold}
}

// BeginEdit asserts the guard and (re)starts the auto-release countdown.
func (g *EditGuard) BeginEdit() {
	g.mu.Lock()
	g.until = g.clock.Now().Add(g.hold)
	g.mu.Unlock()
}

// EndEdit releases the guard immediately.
func (g *EditGuard) EndEdit() {
	g.mu.Lock()
	g.until = time.Time{}
	g.mu.Unlock()
}

// Active reports whether an edit hold is currently asserted.
func (g *EditGuard) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.clock.Now().Before(g.until)
}
