package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/banshee-data/ncom.report/internal/monitoring"
	"github.com/banshee-data/ncom.report/internal/timeutil"
)

// Stats tracks packet statistics with thread-safe operations. Counters since
// the last reset feed the periodic log line; totals since start feed the API.
type Stats struct {
	mu        sync.Mutex
	window    Counters
	total     Counters
	lastReset time.Time
	started   time.Time
}

// Counters is a snapshot of packet statistics.
type Counters struct {
	Packets          int64 `json:"packets"`
	Bytes            int64 `json:"bytes"`
	Decoded          int64 `json:"decoded"`
	LengthMismatches int64 `json:"length_mismatches"`
	SyncMismatches   int64 `json:"sync_mismatches"`
	OtherErrors      int64 `json:"other_errors"`
	SinkErrors       int64 `json:"sink_errors"`
}

// Rejected returns the number of packets that failed to decode.
func (c Counters) Rejected() int64 {
	return c.LengthMismatches + c.SyncMismatches + c.OtherErrors
}

// NewStats creates a new Stats instance
func NewStats() *Stats {
	now := time.Now()
	return &Stats{lastReset: now, started: now}
}

func (s *Stats) add(fn func(c *Counters)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.window)
	fn(&s.total)
}

// AddPacket increments packet count and byte count
func (s *Stats) AddPacket(bytes int) {
	s.add(func(c *Counters) {
		c.Packets++
		c.Bytes += int64(bytes)
	})
}

// AddDecoded increments the successfully decoded count
func (s *Stats) AddDecoded() { s.add(func(c *Counters) { c.Decoded++ }) }

// AddLengthMismatch counts a packet of the wrong size
func (s *Stats) AddLengthMismatch() { s.add(func(c *Counters) { c.LengthMismatches++ }) }

// AddSyncMismatch counts a packet with a bad sync byte
func (s *Stats) AddSyncMismatch() { s.add(func(c *Counters) { c.SyncMismatches++ }) }

// AddOtherError counts a decode failure of any other kind
func (s *Stats) AddOtherError() { s.add(func(c *Counters) { c.OtherErrors++ }) }

// AddSinkError counts a failed sink write
func (s *Stats) AddSinkError() { s.add(func(c *Counters) { c.SinkErrors++ }) }

// Snapshot returns totals since the Stats was created and the uptime.
func (s *Stats) Snapshot() (Counters, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total, time.Since(s.started)
}

// GetAndReset returns the counters of the current window and starts a new one
func (s *Stats) GetAndReset() (Counters, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	duration := now.Sub(s.lastReset)
	c := s.window
	s.window = Counters{}
	s.lastReset = now
	return c, duration
}

// LogStats logs per-second rates for the current window and resets it
func (s *Stats) LogStats() {
	c, duration := s.GetAndReset()
	if c.Packets == 0 || duration <= 0 {
		return
	}
	secs := duration.Seconds()

	logMsg := fmt.Sprintf("NCOM stats (/sec): %.2f KB, %.1f packets, %.1f decoded",
		float64(c.Bytes)/secs/1024, float64(c.Packets)/secs, float64(c.Decoded)/secs)
	if rejected := c.Rejected(); rejected > 0 {
		logMsg += fmt.Sprintf(", %d rejected (%d length, %d sync)", rejected, c.LengthMismatches, c.SyncMismatches)
	}
	if c.SinkErrors > 0 {
		logMsg += fmt.Sprintf(", %d sink errors", c.SinkErrors)
	}
	monitoring.Logf("%s", logMsg)
}

// LogEvery calls LogStats on every tick of interval until ctx is cancelled.
// A nil clock uses the wall clock.
func (s *Stats) LogEvery(ctx context.Context, interval time.Duration, clock timeutil.Clock) {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	ticker := clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			s.LogStats()
		}
	}
}
