package model

import (
	"math"
	"time"
)

// DefaultExpiringSoonDays is the window used by IsExpiringSoon when callers have no preference.
const DefaultExpiringSoonDays = 7

// DaysRemaining returns whole days until end, rounded up.
// A date earlier today yields 0; anything in the past is <= 0.
func DaysRemaining(end, now time.Time) int {
	return int(math.Ceil(end.Sub(now).Hours() / 24))
}

// IsExpired reports whether end has no whole days remaining. A nil end never expires.
func IsExpired(end *time.Time, now time.Time) bool {
	return end != nil && DaysRemaining(*end, now) <= 0
}

// IsExpiringSoon reports whether end falls within the next days (exclusive of expired).
func IsExpiringSoon(end *time.Time, now time.Time, days int) bool {
	if end == nil {
		return false
	}
	if days <= 0 {
		days = DefaultExpiringSoonDays
	}
	left := DaysRemaining(*end, now)
	return left > 0 && left <= days
}
