// Package cutoff decides whether new lunch orders are still accepted.
package cutoff

import (
	"fmt"
	"time"
)

// Gate closes ordering at a fixed local time of day unless the operator
// disabled the cutoff.
type Gate struct {
	hour, minute int
	loc          *time.Location
	now          func() time.Time
}

func NewGate(hour, minute int, loc *time.Location) *Gate {
	if loc == nil {
		loc = time.Local
	}
	return &Gate{hour: hour, minute: minute, loc: loc, now: time.Now}
}

// ParseClock parses an "HH:MM" cutoff.
func ParseClock(s string) (int, int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid cutoff %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

// WithClock swaps the time source, for tests and replay.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	cp := *g
	cp.now = now
	return &cp
}

// Cutoff returns the cutoff instant on the day of t.
func (g *Gate) Cutoff(t time.Time) time.Time {
	t = t.In(g.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), g.hour, g.minute, 0, 0, g.loc)
}

// OpenAt reports whether orders are accepted at t.
func (g *Gate) OpenAt(t time.Time, disableCutoff bool) bool {
	if disableCutoff {
		return true
	}
	return t.In(g.loc).Before(g.Cutoff(t))
}

// Open evaluates the gate against the current clock. It is never cached.
func (g *Gate) Open(disableCutoff bool) bool {
	return g.OpenAt(g.now(), disableCutoff)
}

func (g *Gate) Now() time.Time {
	return g.now().In(g.loc)
}

func (g *Gate) String() string {
	return fmt.Sprintf("%02d:%02d %s", g.hour, g.minute, g.loc)
}
