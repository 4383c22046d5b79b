package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock is a package-level time source so tests can freeze "now" via SetClock.
// Production code uses the real clock; tests inject a fake for deterministic defaults.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source used for current-time defaults and event
// timestamps. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Now returns the current time in loc. A nil loc means the process-local zone.
func Now(loc *time.Location) time.Time {
	if loc == nil {
		return clock.Now()
	}
	return clock.Now().In(loc)
}
