package calendar

import (
	"sync"
	"time"
)

// ComputeEaster returns the date of Orthodox Easter for the given year,
// expressed on the Gregorian (civil) calendar.
//
// The Gauss congruence algorithm yields the Julian-calendar date; the fixed
// +13 day shift converts it to the civil calendar. That shift is the
// Julian/Gregorian gap for the years 1900-2099 only — outside that range the
// result drifts by the missing century corrections. Kept as a bounded-validity
// constant rather than recomputed per year.
func ComputeEaster(year int) time.Time {
	a := year % 19
	b := year % 4
	c := year % 7
	d := (19*a + 15) % 30
	e := (2*b + 4*c + 6*d + 6) % 7

	day := 22 + d + e
	month := time.March
	if day > 31 {
		day -= 31
		month = time.April
	}

	julian := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return julian.AddDate(0, 0, 13)
}

// EasterCalculator memoizes Easter dates per year. The cache grows only with
// the set of years ever queried and is safe for concurrent use. Two callers
// racing on a fresh year may compute it twice; the computation is cheap and
// idempotent, so no extra locking is done around it.
type EasterCalculator struct {
	mu    sync.RWMutex
	cache map[int]time.Time
}

// NewEasterCalculator creates a calculator with an empty cache.
func NewEasterCalculator() *EasterCalculator {
	return &EasterCalculator{cache: make(map[int]time.Time)}
}

// Date returns the memoized Easter date for a year.
func (c *EasterCalculator) Date(year int) time.Time {
	c.mu.RLock()
	if d, ok := c.cache[year]; ok {
		c.mu.RUnlock()
		return d
	}
	c.mu.RUnlock()

	d := ComputeEaster(year)

	c.mu.Lock()
	c.cache[year] = d
	c.mu.Unlock()
	return d
}
