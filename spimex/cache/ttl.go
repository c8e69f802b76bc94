package cache

import (
	"fmt"
	"time"

	internal "github.com/ParfinovichOlga/spimex-trading-microservice/spimex"
	"github.com/ParfinovichOlga/spimex-trading-microservice/spimex/config"
)

// Cutoff is the daily expiry instant in seconds since midnight.
type Cutoff int

// NewCutoff validates seconds since midnight.
func NewCutoff(seconds int) (Cutoff, error) {
	if seconds < 0 || seconds >= internal.SecondsPerDay {
		return 0, fmt.Errorf("cutoff must be in [0, %d), got %d", internal.SecondsPerDay, seconds)
	}
	return Cutoff(seconds), nil
}

// ParseCutoff parses seconds since midnight ("51060") or a wall-clock
// "HH:MM" ("14:11"), the same forms cache.storage_time accepts.
func ParseCutoff(s string) (Cutoff, error) {
	n, err := config.ParseStorageTime(s)
	if err != nil {
		return 0, err
	}
	return NewCutoff(n)
}

// String renders the cutoff as HH:MM:SS.
func (c Cutoff) String() string {
	s := int(c)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, s%3600/60, s%60)
}

// TTL returns the seconds from now until the next occurrence of cutoff.
//
// now is truncated to the minute. When now is exactly the cutoff the result
// is 0 and the entry expires immediately; after the cutoff the next one is
// tomorrow's.
func TTL(now time.Time, cutoff Cutoff) int {
	nowSeconds := now.Hour()*3600 + now.Minute()*60
	c := int(cutoff)
	if nowSeconds <= c {
		return c - nowSeconds
	}
	return internal.SecondsPerDay - nowSeconds + c
}

// TTLCalculator computes TTLs against a clock in a fixed time zone.
type TTLCalculator struct {
	cutoff Cutoff
	loc    *time.Location
	now    func() time.Time
}

// NewTTLCalculator creates a calculator. A nil loc means time.Local and a nil
// now means time.Now.
func NewTTLCalculator(cutoff Cutoff, loc *time.Location, now func() time.Time) *TTLCalculator {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &TTLCalculator{cutoff: cutoff, loc: loc, now: now}
}

// Seconds returns the TTL for a write happening now.
func (c *TTLCalculator) Seconds() int {
	return TTL(c.now().In(c.loc), c.cutoff)
}

// Cutoff returns the configured cutoff.
func (c *TTLCalculator) Cutoff() Cutoff {
	return c.cutoff
}
