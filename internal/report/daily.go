// Package report aggregates entries into calendar-day and work-week buckets
// for dashboards and exports. All functions are read-only over a snapshot.
package report

import (
	"time"

	"github.com/sadopc/shiftclock/internal/entry"
)

const dayLayout = "2006-01-02"

// DayKey returns the local calendar day of t as YYYY-MM-DD.
func DayKey(t time.Time) string {
	return t.Local().Format(dayLayout)
}

// StartOfDay returns local midnight of the day containing t.
func StartOfDay(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// DayBucket aggregates the entries that started on one calendar day.
type DayBucket struct {
	Key      string
	Minutes  int64
	Sessions int
	FirstIn  time.Time
	LastOut  time.Time
}

// Daily groups entries by the local day of their start instant. Days with no
// entries are absent.
func Daily(entries []entry.TimeEntry, now time.Time) map[string]DayBucket {
	days := make(map[string]DayBucket)
	for _, e := range entries {
		key := DayKey(e.StartTime)
		b, ok := days[key]
		if !ok {
			b = DayBucket{Key: key, FirstIn: e.StartTime}
		}
		b.Minutes += entry.DisplayMinutes(e, now)
		b.Sessions++
		if e.StartTime.Before(b.FirstIn) {
			b.FirstIn = e.StartTime
		}
		out := now
		if e.EndTime != nil {
			out = *e.EndTime
		}
		if out.After(b.LastOut) {
			b.LastOut = out
		}
		days[key] = b
	}
	return days
}

// Point is one day of a trailing report window.
type Point struct {
	Day      time.Time
	Key      string
	Minutes  int64
	Hours    float64
	Earnings float64
}

// LastNDays returns exactly n points ending with now's calendar day, oldest
// first, including days with no entries.
func LastNDays(entries []entry.TimeEntry, now time.Time, n int, hourlyRate float64) []Point {
	if n <= 0 {
		return nil
	}
	days := Daily(entries, now)
	today := StartOfDay(now)

	points := make([]Point, 0, n)
	for i := n - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		key := day.Format(dayLayout)
		minutes := days[key].Minutes
		hours := float64(minutes) / 60
		points = append(points, Point{
			Day:      day,
			Key:      key,
			Minutes:  minutes,
			Hours:    hours,
			Earnings: hours * hourlyRate,
		})
	}
	return points
}

// Summary totals a window of points.
type Summary struct {
	Minutes    int64
	Hours      float64
	Earnings   float64
	ActiveDays int
}

func Totals(points []Point) Summary {
	var s Summary
	for _, p := range points {
		s.Minutes += p.Minutes
		s.Earnings += p.Earnings
		if p.Minutes > 0 {
			s.ActiveDays++
		}
	}
	s.Hours = float64(s.Minutes) / 60
	return s
}
