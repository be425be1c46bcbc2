package utils

import (
	"time"
)

// NewWeeklyActivity returns a fresh 7-slot activity array with today's slot set.
func NewWeeklyActivity(now time.Time) []int {
	week := make([]int, 7)
	week[now.UTC().Weekday()] = 1
	return week
}

// BumpWeeklyActivity increments today's slot. When last falls in an earlier
// week than now the slots start over; arrays of the wrong length are repaired.
func BumpWeeklyActivity(week []int, last, now time.Time) []int {
	fixed := make([]int, 7)
	if SameWeek(last, now) {
		copy(fixed, week)
	}
	fixed[now.UTC().Weekday()]++
	return fixed
}

// SameWeek reports whether a and b fall in the same Sunday-started UTC week.
func SameWeek(a, b time.Time) bool {
	return weekStart(a).Equal(weekStart(b))
}

func weekStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// SameDay compares calendar days in UTC.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
