package cooldown

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Remaining returns how long until a player who last fished at
// lastFished is allowed to fish again; zero means ready now. A zero
// lastFished means the player has never fished.
func Remaining(lastFished, now time.Time, d time.Duration) time.Duration {
	if lastFished.IsZero() {
		return 0
	}
	rem := d - now.Sub(lastFished)
	if rem < 0 {
		return 0
	}
	return rem
}

// Gate tracks last-attempt times per player in memory. It is a fast
// path in front of the ledger's own cooldown check: Check never
// advances state, so a refused attempt leaves no trace, and Advance is
// only called once the catch has been durably recorded.
type Gate struct {
	mu   sync.Mutex
	last map[string]time.Time
	d    time.Duration
	clk  Clock
}

func NewGate(d time.Duration, clk Clock) *Gate {
	if clk == nil {
		clk = RealClock{}
	}
	return &Gate{
		last: make(map[string]time.Time),
		d:    d,
		clk:  clk,
	}
}

func (g *Gate) Duration() time.Duration { return g.d }

// Check reports whether player may fish now, and the remaining wait if
// not.
func (g *Gate) Check(player string) (bool, time.Duration) {
	return g.CheckAt(player, g.clk.Now())
}

// CheckAt is Check against an explicit time.
func (g *Gate) CheckAt(player string, now time.Time) (bool, time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	rem := Remaining(g.last[player], now, g.d)
	return rem == 0, rem
}

// Advance records a successful attempt at the given time.
func (g *Gate) Advance(player string, at time.Time) {
	g.mu.Lock()
	g.last[player] = at
	g.mu.Unlock()
}

func (g *Gate) Reset(player string) {
	g.mu.Lock()
	delete(g.last, player)
	g.mu.Unlock()
}

func (g *Gate) Peek(player string) (time.Time, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.last[player]
	return t, ok
}
