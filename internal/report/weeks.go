package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/sadopc/shiftclock/internal/entry"
)

// WeekBucket is a Monday 00:00 to Saturday 23:59:59.999 work week.
type WeekBucket struct {
	Start   time.Time
	End     time.Time
	Entries []entry.TimeEntry
	Minutes int64
}

func (w WeekBucket) Key() string { return w.Start.Format(dayLayout) }

// Label is the date-range label used by exports, e.g. "2024-03-04 to 2024-03-09".
func (w WeekBucket) Label() string {
	return fmt.Sprintf("%s to %s", w.Start.Format(dayLayout), w.End.Format(dayLayout))
}

// WeekStart returns the Monday at local midnight of the work week holding t.
// Sunday belongs to the week that ended the day before, so it is first rolled
// back to Saturday and only then snapped to Monday.
func WeekStart(t time.Time) time.Time {
	day := StartOfDay(t)
	if day.Weekday() == time.Sunday {
		day = day.AddDate(0, 0, -1)
	}
	sinceMonday := int(day.Weekday()) - int(time.Monday)
	return day.AddDate(0, 0, -sinceMonday)
}

// WeekEnd returns Saturday 23:59:59.999 of the week starting at monday.
func WeekEnd(monday time.Time) time.Time {
	return monday.AddDate(0, 0, 6).Add(-time.Millisecond)
}

// Weeks groups entries into work weeks in ascending order. Entries within a
// week keep chronological order; totals use display minutes.
func Weeks(entries []entry.TimeEntry, now time.Time) []WeekBucket {
	sorted := make([]entry.TimeEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime.Before(sorted[j].StartTime)
	})

	var weeks []WeekBucket
	index := make(map[string]int)
	for _, e := range sorted {
		start := WeekStart(e.StartTime)
		key := start.Format(dayLayout)
		i, ok := index[key]
		if !ok {
			weeks = append(weeks, WeekBucket{Start: start, End: WeekEnd(start)})
			i = len(weeks) - 1
			index[key] = i
		}
		weeks[i].Entries = append(weeks[i].Entries, e)
		weeks[i].Minutes += entry.DisplayMinutes(e, now)
	}
	// Sorted input already yields ascending week starts.
	return weeks
}

// InRange keeps entries whose start falls within [from, to] local days inclusive.
func InRange(entries []entry.TimeEntry, from, to time.Time) []entry.TimeEntry {
	lo := StartOfDay(from)
	hi := StartOfDay(to).AddDate(0, 0, 1)
	var out []entry.TimeEntry
	for _, e := range entries {
		if !e.StartTime.Before(lo) && e.StartTime.Before(hi) {
			out = append(out, e)
		}
	}
	return out
}
