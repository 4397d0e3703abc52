package store

import (
	"sync"

	"github.com/sadopc/shiftclock/internal/entry"
	"github.com/sadopc/shiftclock/internal/profile"
)

// feed fans a full replacement value out to per-owner listeners.
type feed[T any] struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]subscription[T]
}

type subscription[T any] struct {
	owner string
	fn    func(T)
}

func (f *feed[T]) add(owner string, fn func(T)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subs == nil {
		f.subs = make(map[int]subscription[T])
	}
	id := f.nextID
	f.nextID++
	f.subs[id] = subscription[T]{owner: owner, fn: fn}

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

func (f *feed[T]) listeners(owner string) []func(T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var fns []func(T)
	for _, s := range f.subs {
		if s.owner == owner {
			fns = append(fns, s.fn)
		}
	}
	return fns
}

// SubscribeEntries delivers owner's full entry list now and after every
// write that touches it. The returned func unsubscribes.
func (s *Store) SubscribeEntries(owner string, fn func([]entry.TimeEntry)) (func(), error) {
	entries, err := s.ListEntries(owner, EntryFilter{})
	if err != nil {
		return nil, err
	}
	cancel := s.entriesFeed.add(owner, fn)
	fn(entries)
	return cancel, nil
}

func (s *Store) SubscribeProjects(owner string, fn func([]Project)) (func(), error) {
	projects, err := s.ListProjects(owner, true)
	if err != nil {
		return nil, err
	}
	cancel := s.projectsFeed.add(owner, fn)
	fn(projects)
	return cancel, nil
}

func (s *Store) SubscribeProfile(owner string, fn func(profile.Profile)) (func(), error) {
	p, err := s.GetProfile(owner)
	if err != nil {
		return nil, err
	}
	cancel := s.profileFeed.add(owner, fn)
	fn(p)
	return cancel, nil
}

func (s *Store) publishEntries(owner string) {
	fns := s.entriesFeed.listeners(owner)
	if len(fns) == 0 {
		return
	}
	entries, err := s.ListEntries(owner, EntryFilter{})
	if err != nil {
		s.logger.Error("publish entries", "owner", owner, "error", err)
		return
	}
	for _, fn := range fns {
		fn(entries)
	}
}

func (s *Store) publishProjects(owner string) {
	fns := s.projectsFeed.listeners(owner)
	if len(fns) == 0 {
		return
	}
	projects, err := s.ListProjects(owner, true)
	if err != nil {
		s.logger.Error("publish projects", "owner", owner, "error", err)
		return
	}
	for _, fn := range fns {
		fn(projects)
	}
}

func (s *Store) publishProfile(owner string, p profile.Profile) {
	for _, fn := range s.profileFeed.listeners(owner) {
		fn(p)
	}
}
