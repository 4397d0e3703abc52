package entry

import "time"

// Worked returns the worked time of e evaluated at now: gross elapsed time
// minus completed and in-progress breaks, never negative. An on-break entry
// without a break start counts no running break; see HasBreakFault.
func Worked(e TimeEntry, now time.Time) time.Duration {
	end := now
	if e.EndTime != nil {
		end = *e.EndTime
	}
	gross := nonNegative(end.Sub(e.StartTime))
	completed := time.Duration(e.BreakMinutes) * time.Minute

	var running time.Duration
	if e.Status == StatusOnBreak && e.BreakStartedAt != nil {
		running = nonNegative(now.Sub(*e.BreakStartedAt))
	}
	return nonNegative(gross - completed - running)
}

// WorkedMinutes floors Worked to whole minutes.
func WorkedMinutes(e TimeEntry, now time.Time) int64 {
	return wholeMinutes(Worked(e, now))
}

// DisplayMinutes is the value shown in dashboards and reports. A completed
// entry never reports less than its persisted TotalMinutes snapshot.
func DisplayMinutes(e TimeEntry, now time.Time) int64 {
	worked := WorkedMinutes(e, now)
	if e.Status == StatusCompleted && e.TotalMinutes > worked {
		return e.TotalMinutes
	}
	return worked
}

// HasBreakFault reports the on-break-without-break-start integrity fault.
func (e TimeEntry) HasBreakFault() bool {
	return e.Status == StatusOnBreak && e.BreakStartedAt == nil
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}

// wholeMinutes truncates to millisecond precision first, matching the
// persisted resolution, then floors to minutes.
func wholeMinutes(d time.Duration) int64 {
	ms := nonNegative(d).Milliseconds()
	return ms / 60000
}

func minutesBetween(from, to time.Time) int64 {
	return wholeMinutes(to.Sub(from))
}
