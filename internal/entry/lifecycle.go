package entry

import (
	"time"

	"github.com/google/uuid"
)

// StartParams describes a new timer entry.
type StartParams struct {
	ProjectID *string
	Task      string
	Note      string
	At        time.Time
}

// ManualParams describes a manually logged, already finished entry.
type ManualParams struct {
	ProjectID *string
	Task      string
	Note      string
	Start     time.Time
	End       time.Time
}

// EditParams replaces the user-editable fields of an entry. At is when the
// edit happened and becomes the entry's UpdatedAt.
type EditParams struct {
	ProjectID *string
	Task      string
	Note      string
	Start     time.Time
	End       time.Time
	At        time.Time
}

// Start opens a running timer entry owned by owner.
func Start(owner string, p StartParams) (TimeEntry, error) {
	if owner == "" {
		return TimeEntry{}, errorf(ErrValidation, "no authenticated owner")
	}
	if p.At.IsZero() {
		return TimeEntry{}, errorf(ErrValidation, "start time is required")
	}
	return TimeEntry{
		ID:        uuid.NewString(),
		OwnerID:   owner,
		ProjectID: copyID(p.ProjectID),
		Task:      p.Task,
		Note:      p.Note,
		Origin:    OriginTimer,
		StartTime: p.At,
		Status:    StatusActive,
		Breaks:    []Break{},
		CreatedAt: p.At,
		UpdatedAt: p.At,
	}, nil
}

// ManualLog creates a completed entry with no breaks.
func ManualLog(owner string, p ManualParams) (TimeEntry, error) {
	if owner == "" {
		return TimeEntry{}, errorf(ErrValidation, "no authenticated owner")
	}
	if !p.End.After(p.Start) {
		return TimeEntry{}, errorf(ErrValidation, "end %s is not after start %s",
			p.End.Format(time.RFC3339), p.Start.Format(time.RFC3339))
	}
	end := p.End
	return TimeEntry{
		ID:           uuid.NewString(),
		OwnerID:      owner,
		ProjectID:    copyID(p.ProjectID),
		Task:         p.Task,
		Note:         p.Note,
		Origin:       OriginManual,
		StartTime:    p.Start,
		EndTime:      &end,
		Status:       StatusCompleted,
		Breaks:       []Break{},
		TotalMinutes: minutesBetween(p.Start, p.End),
		CreatedAt:    p.End,
		UpdatedAt:    p.End,
	}, nil
}

// StartBreak moves an active entry onto a break beginning at at.
func StartBreak(e TimeEntry, at time.Time) (TimeEntry, error) {
	if e.Status != StatusActive {
		return e, errorf(ErrInvalidState, "cannot start a break while %s", e.Status)
	}
	next := e.clone()
	next.Status = StatusOnBreak
	next.BreakStartedAt = &at
	next.UpdatedAt = at
	return next, nil
}

// EndBreak closes the running break at at and returns the entry to active.
func EndBreak(e TimeEntry, at time.Time) (TimeEntry, error) {
	if e.Status != StatusOnBreak {
		return e, errorf(ErrInvalidState, "cannot end a break while %s", e.Status)
	}
	if e.BreakStartedAt == nil {
		return e, errorf(ErrMissingBreakStart, "entry %s", e.ID)
	}
	next := e.clone()
	foldBreak(&next, at)
	next.Status = StatusActive
	next.UpdatedAt = at
	return next, nil
}

// ClockOut completes an active or on-break entry at at. A running break is
// folded in first, as EndBreak would. An on-break entry without a break
// start is closed with no additional break time.
func ClockOut(e TimeEntry, at time.Time) (TimeEntry, error) {
	if e.Status == StatusCompleted {
		return e, errorf(ErrInvalidState, "entry %s is already completed", e.ID)
	}
	next := e.clone()
	if next.Status == StatusOnBreak && next.BreakStartedAt != nil {
		foldBreak(&next, at)
	}
	gross := minutesBetween(next.StartTime, at)
	next.TotalMinutes = max(0, gross-next.BreakMinutes)
	next.EndTime = &at
	next.Status = StatusCompleted
	next.BreakStartedAt = nil
	next.UpdatedAt = at
	return next, nil
}

// Edit rewrites the editable fields of e and recomputes its total from the
// new span minus the breaks already recorded. The result is always completed.
func Edit(e TimeEntry, p EditParams) (TimeEntry, error) {
	if p.At.IsZero() {
		return e, errorf(ErrValidation, "edit time is required")
	}
	if !p.End.After(p.Start) {
		return e, errorf(ErrValidation, "end %s is not after start %s",
			p.End.Format(time.RFC3339), p.Start.Format(time.RFC3339))
	}
	next := e.clone()
	end := p.End
	next.ProjectID = copyID(p.ProjectID)
	next.Task = p.Task
	next.Note = p.Note
	next.StartTime = p.Start
	next.EndTime = &end
	next.TotalMinutes = max(0, minutesBetween(p.Start, p.End)-next.BreakMinutes)
	next.Status = StatusCompleted
	next.BreakStartedAt = nil
	next.UpdatedAt = p.At
	return next, nil
}

func foldBreak(e *TimeEntry, at time.Time) {
	start := *e.BreakStartedAt
	minutes := minutesBetween(start, at)
	e.Breaks = append(e.Breaks, Break{Start: start, End: at, Minutes: minutes})
	e.BreakMinutes += minutes
	e.BreakStartedAt = nil
}

func copyID(id *string) *string {
	if id == nil || *id == "" {
		return nil
	}
	v := *id
	return &v
}
