package tracker

import (
	"sync"

	"github.com/sadopc/shiftclock/internal/entry"
)

// Snapshot keeps the latest entry collection received from a feed. Reports
// and the dashboard read from it; nothing mutates the entries it hands out.
type Snapshot struct {
	mu      sync.RWMutex
	entries []entry.TimeEntry
	version int
}

// Receive replaces the held collection. It has the feed listener signature.
func (s *Snapshot) Receive(entries []entry.TimeEntry) {
	cp := make([]entry.TimeEntry, len(entries))
	copy(cp, entries)

	s.mu.Lock()
	s.entries = cp
	s.version++
	s.mu.Unlock()
}

func (s *Snapshot) Entries() []entry.TimeEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries
}

// Version counts deliveries; zero means nothing has arrived yet.
func (s *Snapshot) Version() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Running returns the first running entry in the snapshot, or nil.
func (s *Snapshot) Running() *entry.TimeEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.entries {
		if s.entries[i].Running() {
			e := s.entries[i]
			return &e
		}
	}
	return nil
}

// Follow subscribes a new snapshot to feed and calls onChange, when set,
// after each delivery. The returned func unsubscribes.
func Follow(feed EntryFeed, owner string, onChange func()) (*Snapshot, func(), error) {
	snap := &Snapshot{}
	cancel, err := feed.SubscribeEntries(owner, func(entries []entry.TimeEntry) {
		snap.Receive(entries)
		if onChange != nil {
			onChange()
		}
	})
	if err != nil {
		return nil, nil, err
	}
	return snap, cancel, nil
}
