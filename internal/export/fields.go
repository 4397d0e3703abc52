package export

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sadopc/shiftclock/internal/entry"
	"github.com/sadopc/shiftclock/internal/profile"
)

var (
	ErrNoFields   = fmt.Errorf("%w: no export fields selected", entry.ErrValidation)
	ErrEmptyRange = fmt.Errorf("%w: no entries in export range", entry.ErrValidation)
)

// Field is one column an export may include.
type Field string

const (
	FieldDate     Field = "date"
	FieldTimeIn   Field = "timeIn"
	FieldTimeOut  Field = "timeOut"
	FieldDuration Field = "duration"
	FieldProject  Field = "project"
	FieldTask     Field = "task"
	FieldStatus   Field = "status"
	FieldEarnings Field = "earnings"
	FieldNote     Field = "note"
)

// AllFields is the fixed field set in display order.
var AllFields = []Field{
	FieldDate, FieldTimeIn, FieldTimeOut, FieldDuration,
	FieldProject, FieldTask, FieldStatus, FieldEarnings, FieldNote,
}

var fieldLabels = map[Field]string{
	FieldDate:     "Date",
	FieldTimeIn:   "Time In",
	FieldTimeOut:  "Time Out",
	FieldDuration: "Duration",
	FieldProject:  "Project",
	FieldTask:     "Task",
	FieldStatus:   "Status",
	FieldEarnings: "Earnings",
	FieldNote:     "Note",
}

func (f Field) Label() string { return fieldLabels[f] }

func (f Field) valid() bool {
	_, ok := fieldLabels[f]
	return ok
}

// ParseFields parses a comma separated field list. "all" selects every field.
// Names are matched case-insensitively and duplicates are dropped.
func ParseFields(s string) ([]Field, error) {
	if strings.EqualFold(strings.TrimSpace(s), "all") {
		return append([]Field(nil), AllFields...), nil
	}
	var fields []Field
	seen := make(map[Field]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		f, ok := lookupField(part)
		if !ok {
			return nil, fmt.Errorf("%w: unknown export field %q", entry.ErrValidation, part)
		}
		if !seen[f] {
			seen[f] = true
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 {
		return nil, ErrNoFields
	}
	return fields, nil
}

func lookupField(name string) (Field, bool) {
	for _, f := range AllFields {
		if strings.EqualFold(string(f), name) {
			return f, true
		}
	}
	return "", false
}

// Pair is one projected label:value cell.
type Pair struct {
	Field Field
	Label string
	Value string
}

func (p Pair) String() string { return p.Label + ": " + p.Value }

// Projector maps entries to display values. Running entries are evaluated at Now.
type Projector struct {
	Projects map[string]string
	Profile  profile.Profile
	Now      time.Time
}

func (p Projector) ProjectName(e entry.TimeEntry) string {
	if e.ProjectID == nil {
		return entry.GeneralProject
	}
	if name, ok := p.Projects[*e.ProjectID]; ok {
		return name
	}
	return "Unknown"
}

func (p Projector) Value(e entry.TimeEntry, f Field) string {
	switch f {
	case FieldDate:
		return e.StartTime.Local().Format("2006-01-02")
	case FieldTimeIn:
		return e.StartTime.Local().Format("15:04")
	case FieldTimeOut:
		if e.EndTime == nil {
			return "running"
		}
		return e.EndTime.Local().Format("15:04")
	case FieldDuration:
		return formatMinutes(entry.DisplayMinutes(e, p.Now))
	case FieldProject:
		return p.ProjectName(e)
	case FieldTask:
		return e.Task
	case FieldStatus:
		return statusLabel(e.Status)
	case FieldEarnings:
		return p.Profile.FormatMoney(p.Profile.Earnings(entry.DisplayMinutes(e, p.Now)))
	case FieldNote:
		return e.Note
	}
	return ""
}

// Project returns the selected fields of e in the order given.
func (p Projector) Project(e entry.TimeEntry, fields []Field) []Pair {
	pairs := make([]Pair, 0, len(fields))
	for _, f := range fields {
		if !f.valid() {
			continue
		}
		pairs = append(pairs, Pair{Field: f, Label: f.Label(), Value: p.Value(e, f)})
	}
	return pairs
}

// Line renders the projection of e as "Label: value" cells joined by " | ".
func (p Projector) Line(e entry.TimeEntry, fields []Field) string {
	pairs := p.Project(e, fields)
	parts := make([]string, len(pairs))
	for i, pair := range pairs {
		parts[i] = pair.String()
	}
	return strings.Join(parts, " | ")
}

func statusLabel(s entry.Status) string {
	switch s {
	case entry.StatusActive:
		return "Active"
	case entry.StatusOnBreak:
		return "On break"
	case entry.StatusCompleted:
		return "Completed"
	}
	return string(s)
}

func formatMinutes(m int64) string {
	if m < 0 {
		m = 0
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// IsNoData reports whether err means there was nothing to export.
func IsNoData(err error) bool {
	return errors.Is(err, ErrNoFields) || errors.Is(err, ErrEmptyRange)
}
