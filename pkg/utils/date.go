package utils

import (
	"log"
	"time"
)

const DateLayout = "2006-01-02"

func GetEasternTimeLocation() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		log.Fatal("Failed to load location", err)
	}
	return loc
}

func TimeNowET() time.Time {
	return time.Now().In(GetEasternTimeLocation())
}

// DateOnly truncates a time to midnight in its own location.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysBetween returns whole calendar days from a to b, negative when b is
// before a. Both dates are rebuilt in UTC so a DST transition inside the
// span cannot shift the count.
func DaysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// IsMarketOpen reports whether US equity markets are in regular session.
func IsMarketOpen(t time.Time) bool {
	et := t.In(GetEasternTimeLocation())
	if et.Weekday() == time.Saturday || et.Weekday() == time.Sunday {
		return false
	}
	open := time.Date(et.Year(), et.Month(), et.Day(), 9, 30, 0, 0, et.Location())
	close := time.Date(et.Year(), et.Month(), et.Day(), 16, 0, 0, 0, et.Location())
	return !et.Before(open) && et.Before(close)
}
