package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sadopc/shiftclock/internal/report"
)

// Week is one work week of projected rows.
type Week struct {
	Label   string
	Start   time.Time
	End     time.Time
	Minutes int64
	Rows    [][]Pair
}

// Table is the structured input consumed by CSV and PDF renderers.
type Table struct {
	Fields []Field
	Weeks  []Week
}

// WeeklyRows projects every entry of every week bucket onto fields.
func WeeklyRows(weeks []report.WeekBucket, fields []Field, p Projector) (Table, error) {
	if len(fields) == 0 {
		return Table{}, ErrNoFields
	}
	t := Table{Fields: fields}
	for _, w := range weeks {
		if len(w.Entries) == 0 {
			continue
		}
		week := Week{Label: w.Label(), Start: w.Start, End: w.End, Minutes: w.Minutes}
		for _, e := range w.Entries {
			week.Rows = append(week.Rows, p.Project(e, fields))
		}
		t.Weeks = append(t.Weeks, week)
	}
	if len(t.Weeks) == 0 {
		return Table{}, ErrEmptyRange
	}
	return t, nil
}

// Header is the CSV header: the week label followed by each field label.
func (t Table) Header() []string {
	h := []string{"Week"}
	for _, f := range t.Fields {
		h = append(h, f.Label())
	}
	return h
}

// totalRow fills the duration and earnings columns with the week's totals.
func (t Table) totalRow(w Week, p Projector) []string {
	row := []string{"Total " + w.Label}
	for _, f := range t.Fields {
		switch f {
		case FieldDuration:
			row = append(row, formatMinutes(w.Minutes))
		case FieldEarnings:
			row = append(row, p.Profile.FormatMoney(p.Profile.Earnings(w.Minutes)))
		default:
			row = append(row, "")
		}
	}
	return row
}

func WriteCSV(out io.Writer, t Table, p Projector) error {
	w := csv.NewWriter(out)

	if err := w.Write(t.Header()); err != nil {
		return err
	}
	for _, week := range t.Weeks {
		for _, pairs := range week.Rows {
			row := []string{week.Label}
			for _, pair := range pairs {
				row = append(row, pair.Value)
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		if err := w.Write(t.totalRow(week, p)); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func ToCSV(t Table, p Projector, path string) error {
	f, err := createFile(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	if err := WriteCSV(f, t, p); err != nil {
		f.Close()
		return fmt.Errorf("write csv: %w", err)
	}
	// Buffered data may only fail to reach disk on close.
	if err := f.Close(); err != nil {
		return fmt.Errorf("close csv file: %w", err)
	}
	return nil
}

var createFile = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}
