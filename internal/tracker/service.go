// Package tracker applies entry transitions for one user: it loads the
// latest stored snapshot, runs the pure transition and persists the result.
package tracker

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sadopc/shiftclock/internal/clock"
	"github.com/sadopc/shiftclock/internal/entry"
	"github.com/sadopc/shiftclock/internal/logger"
)

var ErrNotOwner = fmt.Errorf("%w: entry belongs to another user", entry.ErrValidation)

// Service handles time entry operations for a single owner. Writes are
// serialized so each one reads the snapshot left by the previous.
type Service struct {
	store  EntryStore
	clock  clock.Clock
	owner  string
	logger *slog.Logger

	mu sync.Mutex
}

// NewService creates a new tracker service. A nil logger discards output.
func NewService(store EntryStore, c clock.Clock, owner string, l *slog.Logger) *Service {
	if c == nil {
		c = clock.Real{}
	}
	if l == nil {
		l = logger.Discard()
	}
	return &Service{store: store, clock: c, owner: owner, logger: l}
}

func (s *Service) Owner() string { return s.owner }

func (s *Service) Now() time.Time { return s.clock.Now() }

// Running returns the owner's running entry, or nil.
func (s *Service) Running() (*entry.TimeEntry, error) {
	e, err := s.store.GetRunningEntry(s.owner)
	if err != nil {
		return nil, fmt.Errorf("getting running entry: %w", err)
	}
	if e != nil {
		s.checkIntegrity(*e)
	}
	return e, nil
}

// StartTimer opens a new running entry. Only one timer may run at a time.
func (s *Service) StartTimer(projectID *string, task, note string) (entry.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	running, err := s.Running()
	if err != nil {
		return entry.TimeEntry{}, err
	}
	if running != nil {
		return entry.TimeEntry{}, fmt.Errorf("%w: timer %s is already running", entry.ErrInvalidState, running.ID)
	}

	e, err := entry.Start(s.owner, entry.StartParams{
		ProjectID: projectID,
		Task:      task,
		Note:      note,
		At:        s.clock.Now(),
	})
	if err != nil {
		return entry.TimeEntry{}, err
	}
	if err := s.store.CreateEntry(e); err != nil {
		return entry.TimeEntry{}, fmt.Errorf("creating entry: %w", err)
	}
	s.logger.Info("timer started", "entry", e.ID)
	return e, nil
}

// ManualLog records an already finished session.
func (s *Service) ManualLog(p entry.ManualParams) (entry.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := entry.ManualLog(s.owner, p)
	if err != nil {
		return entry.TimeEntry{}, err
	}
	now := s.clock.Now()
	e.CreatedAt, e.UpdatedAt = now, now
	if err := s.store.CreateEntry(e); err != nil {
		return entry.TimeEntry{}, fmt.Errorf("creating entry: %w", err)
	}
	s.logger.Info("manual entry logged", "entry", e.ID, "minutes", e.TotalMinutes)
	return e, nil
}

func (s *Service) StartBreak(id string) (entry.TimeEntry, error) {
	return s.apply(id, "break started", func(e entry.TimeEntry) (entry.TimeEntry, error) {
		return entry.StartBreak(e, s.clock.Now())
	})
}

func (s *Service) EndBreak(id string) (entry.TimeEntry, error) {
	return s.apply(id, "break ended", func(e entry.TimeEntry) (entry.TimeEntry, error) {
		return entry.EndBreak(e, s.clock.Now())
	})
}

// ToggleBreak starts a break on an active entry and ends it on an on-break one.
func (s *Service) ToggleBreak(id string) (entry.TimeEntry, error) {
	return s.apply(id, "break toggled", func(e entry.TimeEntry) (entry.TimeEntry, error) {
		if e.Status == entry.StatusOnBreak {
			return entry.EndBreak(e, s.clock.Now())
		}
		return entry.StartBreak(e, s.clock.Now())
	})
}

func (s *Service) ClockOut(id string) (entry.TimeEntry, error) {
	return s.apply(id, "clocked out", func(e entry.TimeEntry) (entry.TimeEntry, error) {
		return entry.ClockOut(e, s.clock.Now())
	})
}

func (s *Service) Edit(id string, p entry.EditParams) (entry.TimeEntry, error) {
	return s.apply(id, "entry edited", func(e entry.TimeEntry) (entry.TimeEntry, error) {
		p.At = s.clock.Now()
		return entry.Edit(e, p)
	})
}

func (s *Service) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.load(id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteEntry(e.ID); err != nil {
		return fmt.Errorf("deleting entry: %w", err)
	}
	s.logger.Info("entry deleted", "entry", id)
	return nil
}

func (s *Service) apply(id, event string, transition func(entry.TimeEntry) (entry.TimeEntry, error)) (entry.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(id)
	if err != nil {
		return entry.TimeEntry{}, err
	}
	next, err := transition(current)
	if err != nil {
		return entry.TimeEntry{}, err
	}
	if err := s.store.SaveEntry(next); err != nil {
		return entry.TimeEntry{}, fmt.Errorf("saving entry: %w", err)
	}
	s.logger.Info(event, "entry", next.ID, "status", next.Status, "total_minutes", next.TotalMinutes)
	return next, nil
}

func (s *Service) load(id string) (entry.TimeEntry, error) {
	e, err := s.store.GetEntry(id)
	if err != nil {
		return entry.TimeEntry{}, fmt.Errorf("getting entry: %w", err)
	}
	if e.OwnerID != s.owner {
		return entry.TimeEntry{}, ErrNotOwner
	}
	s.checkIntegrity(*e)
	return *e, nil
}

func (s *Service) checkIntegrity(e entry.TimeEntry) {
	if e.HasBreakFault() {
		s.logger.Warn("entry on break without a break start; treating break as zero", "entry", e.ID)
	}
}
