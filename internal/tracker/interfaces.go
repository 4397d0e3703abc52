package tracker

import "github.com/sadopc/shiftclock/internal/entry"

// EntryStore provides persistence for time entries.
type EntryStore interface {
	CreateEntry(e entry.TimeEntry) error
	SaveEntry(e entry.TimeEntry) error
	GetEntry(id string) (*entry.TimeEntry, error)
	GetRunningEntry(owner string) (*entry.TimeEntry, error)
	DeleteEntry(id string) error
}

// EntryFeed pushes the full entry collection of an owner on every change.
type EntryFeed interface {
	SubscribeEntries(owner string, fn func([]entry.TimeEntry)) (func(), error)
}
