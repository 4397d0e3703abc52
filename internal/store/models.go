package store

import "time"

type Project struct {
	ID        string
	OwnerID   string
	Name      string
	Color     string
	Archived  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EntryFilter is used to filter time entries in queries.
type EntryFilter struct {
	ProjectID *string
	From      *time.Time
	To        *time.Time
	Limit     int
}
