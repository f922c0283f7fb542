// Package stats counts session lifecycle events and logs them periodically.
package stats

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hasirciogluhq/tcp-hammer/cmd/hammer/internal/logger"
)

// Collector implements core.Recorder with atomic counters.
type Collector struct {
	start time.Time

	dials        atomic.Int64
	dialFailures atomic.Int64
	connected    atomic.Int64
	roundTrips   atomic.Int64
	mismatches   atomic.Int64
	closed       atomic.Int64
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Dials          int64         `json:"dials"`
	DialFailures   int64         `json:"dial_failures"`
	Connected      int64         `json:"connected"`
	Active         int64         `json:"active"`
	RoundTrips     int64         `json:"round_trips"`
	Mismatches     int64         `json:"mismatches"`
	Closed         int64         `json:"closed"`
	Elapsed        time.Duration `json:"-"`
	ElapsedSeconds float64       `json:"elapsed_seconds"`
}

func NewCollector() *Collector {
	return &Collector{start: time.Now()}
}

func (c *Collector) DialStarted() { c.dials.Add(1) }
func (c *Collector) DialFailed()  { c.dialFailures.Add(1) }
func (c *Collector) Connected()   { c.connected.Add(1) }
func (c *Collector) RoundTrip()   { c.roundTrips.Add(1) }
func (c *Collector) Mismatch()    { c.mismatches.Add(1) }
func (c *Collector) Closed()      { c.closed.Add(1) }

// Snapshot returns the current counters.
func (c *Collector) Snapshot() Snapshot {
	elapsed := time.Since(c.start)
	s := Snapshot{
		Dials:          c.dials.Load(),
		DialFailures:   c.dialFailures.Load(),
		Connected:      c.connected.Load(),
		RoundTrips:     c.roundTrips.Load(),
		Mismatches:     c.mismatches.Load(),
		Closed:         c.closed.Load(),
		Elapsed:        elapsed,
		ElapsedSeconds: elapsed.Seconds(),
	}
	s.Active = s.Connected - s.Closed
	return s
}

// RoundTripRate returns round trips per second between two snapshots.
func RoundTripRate(prev, cur Snapshot) float64 {
	d := cur.Elapsed - prev.Elapsed
	if d <= 0 {
		return 0
	}
	return float64(cur.RoundTrips-prev.RoundTrips) / d.Seconds()
}

// Report logs a snapshot every interval until ctx is done.
// A zero interval disables periodic logging.
func (c *Collector) Report(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	prev := c.Snapshot()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cur := c.Snapshot()
			c.log("Stats", cur, RoundTripRate(prev, cur))
			prev = cur
		}
	}
}

// LogFinal logs the totals with the average round-trip rate.
func (c *Collector) LogFinal() {
	cur := c.Snapshot()
	c.log("Final stats", cur, RoundTripRate(Snapshot{}, cur))
}

func (c *Collector) log(msg string, s Snapshot, rate float64) {
	logger.Info(msg,
		"dials", s.Dials,
		"dial_failures", s.DialFailures,
		"active", s.Active,
		"round_trips", s.RoundTrips,
		"round_trips_per_sec", int64(rate),
		"mismatches", s.Mismatches,
		"closed", s.Closed,
		"elapsed", s.Elapsed.Truncate(time.Millisecond))
}
