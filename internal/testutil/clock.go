package testutil

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Epoch is the time FixedClock starts at.
var Epoch = time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)

// FixedClock returns a fake clock set to Epoch.
func FixedClock() *clockwork.FakeClock {
	return clockwork.NewFakeClockAt(Epoch)
}
