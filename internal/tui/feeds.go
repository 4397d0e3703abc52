package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/shiftclock/internal/entry"
	"github.com/sadopc/shiftclock/internal/profile"
	"github.com/sadopc/shiftclock/internal/store"
	"github.com/sadopc/shiftclock/internal/tracker"
)

// feedMsg carries whichever collections changed since the last delivery.
type feedMsg struct {
	entries  []entry.TimeEntry
	projects []store.Project
	profile  *profile.Profile

	hasEntries  bool
	hasProjects bool
}

// feeds bridges store subscriptions into the Bubble Tea loop. Listeners
// never block: they record the latest value and poke a one-slot channel
// that a waiting command drains.
type feeds struct {
	snap *tracker.Snapshot

	mu            sync.Mutex
	seenVersion   int
	projects      []store.Project
	prof          profile.Profile
	dirtyProjects bool
	dirtyProfile  bool

	notify    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	cancels   []func()
}

func subscribeFeeds(s *store.Store, owner string) (*feeds, error) {
	f := &feeds{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}

	subscribe := []func() (func(), error){
		func() (func(), error) {
			snap, cancel, err := tracker.Follow(s, owner, f.signal)
			f.snap = snap
			return cancel, err
		},
		func() (func(), error) { return s.SubscribeProjects(owner, f.onProjects) },
		func() (func(), error) { return s.SubscribeProfile(owner, f.onProfile) },
	}
	for _, sub := range subscribe {
		cancel, err := sub()
		if err != nil {
			f.close()
			return nil, err
		}
		f.cancels = append(f.cancels, cancel)
	}
	return f, nil
}

func (f *feeds) onProjects(projects []store.Project) {
	f.mu.Lock()
	f.projects = projects
	f.dirtyProjects = true
	f.mu.Unlock()
	f.signal()
}

func (f *feeds) onProfile(p profile.Profile) {
	f.mu.Lock()
	f.prof = p
	f.dirtyProfile = true
	f.mu.Unlock()
	f.signal()
}

func (f *feeds) signal() {
	select {
	case f.notify <- struct{}{}:
	default:
	}
}

// wait returns a command that blocks until the next change, or returns nil
// once the feeds are closed.
func (f *feeds) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-f.done:
			return nil
		default:
		}
		select {
		case <-f.notify:
			return f.drain()
		case <-f.done:
			return nil
		}
	}
}

func (f *feeds) drain() feedMsg {
	f.mu.Lock()
	defer f.mu.Unlock()

	var msg feedMsg
	if v := f.snap.Version(); v != f.seenVersion {
		msg.entries, msg.hasEntries = f.snap.Entries(), true
		f.seenVersion = v
	}
	if f.dirtyProjects {
		msg.projects, msg.hasProjects = f.projects, true
	}
	if f.dirtyProfile {
		p := f.prof
		msg.profile = &p
	}
	f.dirtyProjects, f.dirtyProfile = false, false
	return msg
}

func (f *feeds) close() {
	f.closeOnce.Do(func() {
		for _, cancel := range f.cancels {
			cancel()
		}
		close(f.done)
	})
}
