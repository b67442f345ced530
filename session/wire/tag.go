package wire

import (
	"fmt"
	"sync/atomic"
	"time"
)

// TagGenerator produces unique correlation tags for one connection instance.
// A tag combines the session reference timestamp with the connection epoch
// counter; the epoch strictly increases on every generation and never resets
// for the lifetime of the generator.
type TagGenerator struct {
	ref   int64 // session-start timestamp, unix seconds
	epoch atomic.Uint64
}

// NewTagGenerator creates a tag generator anchored at the current time.
func NewTagGenerator() *TagGenerator {
	return &TagGenerator{ref: time.Now().Unix()}
}

// Next returns the next tag and increments the epoch. With long the full
// reference timestamp is embedded, otherwise only its low three digits.
func (g *TagGenerator) Next(long bool) string {
	epoch := g.epoch.Add(1)

	ts := g.ref
	if !long {
		ts = ts % 1000
	}

	return fmt.Sprintf("%d.--%d", ts, epoch)
}

// Epoch returns the number of tags generated so far.
func (g *TagGenerator) Epoch() uint64 {
	return g.epoch.Load()
}
