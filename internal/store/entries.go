package store

import (
	"database/sql"
	"fmt"

	"github.com/sadopc/shiftclock/internal/entry"
)

const entryColumns = `id, owner_id, project_id, task, note, origin, start_time, end_time, status,
	break_minutes, break_started_at, total_minutes, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (entry.TimeEntry, error) {
	var e entry.TimeEntry
	var projectID, endTime, breakStartedAt sql.NullString
	var origin, status, startTime, createdAt, updatedAt string
	err := row.Scan(&e.ID, &e.OwnerID, &projectID, &e.Task, &e.Note, &origin, &startTime, &endTime, &status,
		&e.BreakMinutes, &breakStartedAt, &e.TotalMinutes, &createdAt, &updatedAt)
	if err != nil {
		return e, err
	}
	if projectID.Valid {
		e.ProjectID = &projectID.String
	}
	e.Origin = entry.Origin(origin)
	e.Status = entry.Status(status)
	if e.StartTime, err = parseTime(startTime); err != nil {
		return e, fmt.Errorf("entry %s start: %w", e.ID, err)
	}
	if e.EndTime, err = timePtr(endTime); err != nil {
		return e, fmt.Errorf("entry %s end: %w", e.ID, err)
	}
	if e.BreakStartedAt, err = timePtr(breakStartedAt); err != nil {
		return e, fmt.Errorf("entry %s break start: %w", e.ID, err)
	}
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return e, fmt.Errorf("entry %s created: %w", e.ID, err)
	}
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return e, fmt.Errorf("entry %s updated: %w", e.ID, err)
	}
	e.Breaks = []entry.Break{}
	return e, nil
}

// CreateEntry inserts a new entry and its breaks.
func (s *Store) CreateEntry(e entry.TimeEntry) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("create entry: %w", err)
	}
	err := s.inTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO time_entries (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.OwnerID, e.ProjectID, e.Task, e.Note, string(e.Origin), formatTime(e.StartTime),
			nullTime(e.EndTime), string(e.Status), e.BreakMinutes, nullTime(e.BreakStartedAt),
			e.TotalMinutes, formatTime(e.CreatedAt), formatTime(e.UpdatedAt),
		)
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: owner %s already has a running entry", entry.ErrInvalidState, e.OwnerID)
		}
		if err != nil {
			return err
		}
		return writeBreaks(tx, e)
	})
	if err != nil {
		return fmt.Errorf("create entry: %w", err)
	}
	s.publishEntries(e.OwnerID)
	return nil
}

// SaveEntry overwrites the full persisted state of an existing entry.
func (s *Store) SaveEntry(e entry.TimeEntry) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("save entry: %w", err)
	}
	err := s.inTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			UPDATE time_entries SET project_id = ?, task = ?, note = ?, origin = ?, start_time = ?, end_time = ?,
				status = ?, break_minutes = ?, break_started_at = ?, total_minutes = ?, updated_at = ?
			WHERE id = ? AND owner_id = ?`,
			e.ProjectID, e.Task, e.Note, string(e.Origin), formatTime(e.StartTime), nullTime(e.EndTime),
			string(e.Status), e.BreakMinutes, nullTime(e.BreakStartedAt), e.TotalMinutes, formatTime(e.UpdatedAt),
			e.ID, e.OwnerID,
		)
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: owner %s already has a running entry", entry.ErrInvalidState, e.OwnerID)
		}
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("entry %s: %w", e.ID, ErrNotFound)
		}
		if _, err := tx.Exec(`DELETE FROM entry_breaks WHERE entry_id = ?`, e.ID); err != nil {
			return err
		}
		return writeBreaks(tx, e)
	})
	if err != nil {
		return fmt.Errorf("save entry: %w", err)
	}
	s.publishEntries(e.OwnerID)
	return nil
}

func writeBreaks(tx *sql.Tx, e entry.TimeEntry) error {
	for i, b := range e.Breaks {
		_, err := tx.Exec(
			`INSERT INTO entry_breaks (entry_id, seq, start_time, end_time, minutes) VALUES (?, ?, ?, ?, ?)`,
			e.ID, i, formatTime(b.Start), formatTime(b.End), b.Minutes,
		)
		if err != nil {
			return fmt.Errorf("insert break %d: %w", i, err)
		}
	}
	return nil
}

func (s *Store) GetEntry(id string) (*entry.TimeEntry, error) {
	e, err := scanEntry(s.db.QueryRow(`SELECT `+entryColumns+` FROM time_entries WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("get entry %s", id))
	}
	breaks, err := s.loadBreaks(`WHERE entry_id = ?`, id)
	if err != nil {
		return nil, err
	}
	e.Breaks = append(e.Breaks, breaks[id]...)
	return &e, nil
}

// GetRunningEntry returns owner's entry without an end time, or nil.
func (s *Store) GetRunningEntry(owner string) (*entry.TimeEntry, error) {
	var id string
	err := s.db.QueryRow(
		`SELECT id FROM time_entries WHERE owner_id = ? AND end_time IS NULL ORDER BY start_time DESC LIMIT 1`, owner,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get running entry: %w", err)
	}
	return s.GetEntry(id)
}

func (s *Store) DeleteEntry(id string) error {
	var owner string
	err := s.db.QueryRow(`SELECT owner_id FROM time_entries WHERE id = ?`, id).Scan(&owner)
	if err != nil {
		return notFound(err, fmt.Sprintf("delete entry %s", id))
	}
	if _, err := s.db.Exec(`DELETE FROM time_entries WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete entry %s: %w", id, err)
	}
	s.publishEntries(owner)
	return nil
}

// ListEntries returns owner's entries, newest first.
func (s *Store) ListEntries(owner string, f EntryFilter) ([]entry.TimeEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM time_entries WHERE owner_id = ?`
	args := []any{owner}

	if f.ProjectID != nil {
		query += ` AND project_id = ?`
		args = append(args, *f.ProjectID)
	}
	if f.From != nil {
		query += ` AND start_time >= ?`
		args = append(args, formatTime(*f.From))
	}
	if f.To != nil {
		query += ` AND start_time < ?`
		args = append(args, formatTime(*f.To))
	}
	query += ` ORDER BY start_time DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	var entries []entry.TimeEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		entries = append(entries, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return entries, nil
	}

	breaks, err := s.loadBreaks(`WHERE entry_id IN (SELECT id FROM time_entries WHERE owner_id = ?)`, owner)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Breaks = append(entries[i].Breaks, breaks[entries[i].ID]...)
	}
	return entries, nil
}

func (s *Store) loadBreaks(where string, args ...any) (map[string][]entry.Break, error) {
	rows, err := s.db.Query(`SELECT entry_id, start_time, end_time, minutes FROM entry_breaks `+where+` ORDER BY entry_id, seq`, args...)
	if err != nil {
		return nil, fmt.Errorf("load breaks: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]entry.Break)
	for rows.Next() {
		var id, start, end string
		var b entry.Break
		if err = rows.Scan(&id, &start, &end, &b.Minutes); err != nil {
			return nil, err
		}
		if b.Start, err = parseTime(start); err != nil {
			return nil, fmt.Errorf("break of entry %s: %w", id, err)
		}
		if b.End, err = parseTime(end); err != nil {
			return nil, fmt.Errorf("break of entry %s: %w", id, err)
		}
		out[id] = append(out[id], b)
	}
	return out, rows.Err()
}

func (s *Store) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
