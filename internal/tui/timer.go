package tui

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sadopc/shiftclock/internal/entry"
)

// timerModel derives the live timer display from the running entry.
type timerModel struct {
	entry *entry.TimeEntry
	now   time.Time
}

func (t timerModel) running() bool {
	return t.entry != nil
}

func (t timerModel) onBreak() bool {
	return t.entry != nil && t.entry.Status == entry.StatusOnBreak
}

// currentElapsed is the worked time so far, breaks excluded.
func (t timerModel) currentElapsed() time.Duration {
	if t.entry == nil {
		return 0
	}
	return entry.Worked(*t.entry, t.now)
}

// breakElapsed is the length of the break in progress.
func (t timerModel) breakElapsed() time.Duration {
	if !t.onBreak() || t.entry.BreakStartedAt == nil {
		return 0
	}
	return max(0, t.now.Sub(*t.entry.BreakStartedAt))
}

func (t timerModel) startedAgo() string {
	if t.entry == nil {
		return ""
	}
	return humanize.RelTime(t.entry.StartTime, t.now, "ago", "from now")
}
