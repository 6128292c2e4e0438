package testing

import (
	"time"

	"github.com/LeJamon/goNFTMarket/internal/core/host"
)

// DefaultTime is the block time a fresh TestEnv starts at.
var DefaultTime = time.Unix(1_700_000_000, 0).UTC()

// ManualClock is the host clock used by TestEnv.
type ManualClock = host.ManualClock

// NewManualClock returns a clock set to DefaultTime.
func NewManualClock() *ManualClock {
	return host.NewManualClock(DefaultTime)
}

// NewManualClockAt returns a clock set to t.
func NewManualClockAt(t time.Time) *ManualClock {
	return host.NewManualClock(t)
}
