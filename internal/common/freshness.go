package common

import "time"

// Troy ounce to gram conversion used for metal prices
const TroyOunceGrams = 31.1035

// IsFresh returns true if the given timestamp is within the TTL as of now
func IsFresh(updated time.Time, ttl time.Duration) bool {
	return IsFreshAt(updated, ttl, time.Now())
}

// IsFreshAt returns true if now - updated <= ttl.
// A zero timestamp is never fresh.
func IsFreshAt(updated time.Time, ttl time.Duration, now time.Time) bool {
	if updated.IsZero() {
		return false
	}
	return now.Sub(updated) <= ttl
}

// StartOfMonthUTC returns the first instant of t's calendar month in UTC
func StartOfMonthUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
