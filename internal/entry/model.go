// Package entry models a single work session and its lifecycle:
// active -> on break -> active -> completed.
package entry

import "time"

type Status string

const (
	StatusActive    Status = "active"
	StatusOnBreak   Status = "on_break"
	StatusCompleted Status = "completed"
)

type Origin string

const (
	OriginTimer  Origin = "timer"
	OriginManual Origin = "manual"
)

// Break is a finished break inside an entry.
type Break struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Minutes int64     `json:"duration_minutes"`
}

// TimeEntry is one tracked work session. A nil ProjectID means the implicit
// "General" bucket; a nil EndTime means the entry is still running.
type TimeEntry struct {
	ID        string  `json:"id"`
	OwnerID   string  `json:"owner_id"`
	ProjectID *string `json:"project_id,omitempty"`
	Task      string  `json:"task"`
	Note      string  `json:"note"`
	Origin    Origin  `json:"origin"`

	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Status    Status     `json:"status"`

	BreakMinutes   int64      `json:"break_minutes"`
	Breaks         []Break    `json:"breaks"`
	BreakStartedAt *time.Time `json:"break_started_at,omitempty"`

	// TotalMinutes is the worked-time snapshot written at the last transition.
	TotalMinutes int64 `json:"total_minutes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GeneralProject is the display name for entries without a project.
const GeneralProject = "General"

func (e TimeEntry) Running() bool { return e.EndTime == nil }

// clone returns a copy that shares no mutable state with e.
func (e TimeEntry) clone() TimeEntry {
	c := e
	if e.Breaks != nil {
		c.Breaks = make([]Break, len(e.Breaks))
		copy(c.Breaks, e.Breaks)
	}
	if e.ProjectID != nil {
		pid := *e.ProjectID
		c.ProjectID = &pid
	}
	if e.EndTime != nil {
		end := *e.EndTime
		c.EndTime = &end
	}
	if e.BreakStartedAt != nil {
		bs := *e.BreakStartedAt
		c.BreakStartedAt = &bs
	}
	return c
}

// Validate checks the structural invariants every persisted entry must hold.
func (e TimeEntry) Validate() error {
	if e.OwnerID == "" {
		return errorf(ErrValidation, "entry %s has no owner", e.ID)
	}
	if e.StartTime.IsZero() {
		return errorf(ErrValidation, "entry %s has no start time", e.ID)
	}
	switch e.Status {
	case StatusActive, StatusOnBreak, StatusCompleted:
	default:
		return errorf(ErrValidation, "entry %s has unknown status %q", e.ID, e.Status)
	}
	if e.Status == StatusOnBreak && e.BreakStartedAt == nil {
		return errorf(ErrMissingBreakStart, "entry %s", e.ID)
	}
	if e.Status != StatusOnBreak && e.BreakStartedAt != nil {
		return errorf(ErrInvalidState, "entry %s has a break start while %s", e.ID, e.Status)
	}
	if e.EndTime != nil && e.Status != StatusCompleted {
		return errorf(ErrInvalidState, "entry %s has an end time while %s", e.ID, e.Status)
	}
	if e.BreakMinutes < 0 || e.TotalMinutes < 0 {
		return errorf(ErrValidation, "entry %s has negative minutes", e.ID)
	}
	for i := 1; i < len(e.Breaks); i++ {
		if e.Breaks[i].Start.Before(e.Breaks[i-1].End) {
			return errorf(ErrValidation, "entry %s has overlapping breaks", e.ID)
		}
	}
	return nil
}
