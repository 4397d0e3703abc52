package tracker_test

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/sadopc/shiftclock/internal/clock"
	"github.com/sadopc/shiftclock/internal/entry"
	"github.com/sadopc/shiftclock/internal/store"
	"github.com/sadopc/shiftclock/internal/tracker"
	"github.com/sadopc/shiftclock/internal/tracker/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const owner = "u1"

func at(h, m int) time.Time {
	return time.Date(2024, 3, 4, h, m, 0, 0, time.Local)
}

func activeEntry() *entry.TimeEntry {
	return &entry.TimeEntry{
		ID: "e1", OwnerID: owner, StartTime: at(9, 0),
		Status: entry.StatusActive, Origin: entry.OriginTimer,
	}
}

func TestService_StartTimer(t *testing.T) {
	repo := &mocks.EntryStore{}
	repo.On("GetRunningEntry", owner).Return((*entry.TimeEntry)(nil), nil)
	repo.On("CreateEntry", mock.MatchedBy(func(e entry.TimeEntry) bool {
		return e.Status == entry.StatusActive && e.StartTime.Equal(at(9, 0)) && e.Task == "standup"
	})).Return(nil)

	svc := tracker.NewService(repo, clock.NewManual(at(9, 0)), owner, nil)
	e, err := svc.StartTimer(nil, "standup", "")
	require.NoError(t, err)
	require.NotEmpty(t, e.ID)
	require.Nil(t, e.EndTime)
	repo.AssertExpectations(t)
}

func TestService_StartTimerWhileRunning(t *testing.T) {
	repo := &mocks.EntryStore{}
	repo.On("GetRunningEntry", owner).Return(activeEntry(), nil)

	svc := tracker.NewService(repo, clock.NewManual(at(10, 0)), owner, nil)
	_, err := svc.StartTimer(nil, "", "")
	require.ErrorIs(t, err, entry.ErrInvalidState)
	repo.AssertNotCalled(t, "CreateEntry", mock.Anything)
}

func TestService_StartTimerRequiresOwner(t *testing.T) {
	repo := &mocks.EntryStore{}
	repo.On("GetRunningEntry", "").Return((*entry.TimeEntry)(nil), nil)

	svc := tracker.NewService(repo, clock.NewManual(at(10, 0)), "", nil)
	_, err := svc.StartTimer(nil, "", "")
	require.ErrorIs(t, err, entry.ErrValidation)
}

func TestService_ToggleBreak(t *testing.T) {
	repo := &mocks.EntryStore{}
	repo.On("GetEntry", "e1").Return(activeEntry(), nil)
	repo.On("SaveEntry", mock.MatchedBy(func(e entry.TimeEntry) bool {
		return e.Status == entry.StatusOnBreak && e.BreakStartedAt != nil && e.BreakStartedAt.Equal(at(12, 0))
	})).Return(nil)

	svc := tracker.NewService(repo, clock.NewManual(at(12, 0)), owner, nil)
	e, err := svc.ToggleBreak("e1")
	require.NoError(t, err)
	require.Equal(t, entry.StatusOnBreak, e.Status)
	repo.AssertExpectations(t)
}

func TestService_ToggleBreakOnCompleted(t *testing.T) {
	done := activeEntry()
	end := at(17, 0)
	done.EndTime, done.Status = &end, entry.StatusCompleted

	repo := &mocks.EntryStore{}
	repo.On("GetEntry", "e1").Return(done, nil)

	svc := tracker.NewService(repo, clock.NewManual(at(18, 0)), owner, nil)
	_, err := svc.ToggleBreak("e1")
	require.ErrorIs(t, err, entry.ErrInvalidState)
	repo.AssertNotCalled(t, "SaveEntry", mock.Anything)
}

func TestService_EndBreakLogsIntegrityFault(t *testing.T) {
	faulty := activeEntry()
	faulty.Status = entry.StatusOnBreak

	repo := &mocks.EntryStore{}
	repo.On("GetEntry", "e1").Return(faulty, nil)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	svc := tracker.NewService(repo, clock.NewManual(at(12, 0)), owner, logger)

	_, err := svc.EndBreak("e1")
	require.ErrorIs(t, err, entry.ErrMissingBreakStart)
	require.Contains(t, buf.String(), "level=WARN")
	require.Contains(t, buf.String(), "entry=e1")
	repo.AssertNotCalled(t, "SaveEntry", mock.Anything)
}

func TestService_ClockOutTolerantOfFault(t *testing.T) {
	faulty := activeEntry()
	faulty.Status = entry.StatusOnBreak

	repo := &mocks.EntryStore{}
	repo.On("GetEntry", "e1").Return(faulty, nil)
	repo.On("SaveEntry", mock.Anything).Return(nil)

	svc := tracker.NewService(repo, clock.NewManual(at(17, 0)), owner, nil)
	e, err := svc.ClockOut("e1")
	require.NoError(t, err)
	require.Equal(t, int64(480), e.TotalMinutes)
	require.Zero(t, e.BreakMinutes)
}

func TestService_RejectsForeignEntry(t *testing.T) {
	other := activeEntry()
	other.OwnerID = "someone-else"

	repo := &mocks.EntryStore{}
	repo.On("GetEntry", "e1").Return(other, nil)

	svc := tracker.NewService(repo, clock.NewManual(at(12, 0)), owner, nil)
	_, err := svc.ClockOut("e1")
	require.ErrorIs(t, err, tracker.ErrNotOwner)
	require.ErrorIs(t, svc.Delete("e1"), tracker.ErrNotOwner)
}

func TestService_WrapsStoreErrors(t *testing.T) {
	boom := errors.New("disk full")
	repo := &mocks.EntryStore{}
	repo.On("GetEntry", "e1").Return(activeEntry(), nil)
	repo.On("SaveEntry", mock.Anything).Return(boom)
	repo.On("GetEntry", "missing").Return((*entry.TimeEntry)(nil), store.ErrNotFound)

	svc := tracker.NewService(repo, clock.NewManual(at(12, 0)), owner, nil)
	_, err := svc.StartBreak("e1")
	require.ErrorIs(t, err, boom)

	_, err = svc.StartBreak("missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestService_EditStampsUpdatedAt(t *testing.T) {
	repo := &mocks.EntryStore{}
	repo.On("GetEntry", "e1").Return(activeEntry(), nil)
	repo.On("SaveEntry", mock.Anything).Return(nil)

	svc := tracker.NewService(repo, clock.NewManual(at(20, 0)), owner, nil)
	e, err := svc.Edit("e1", entry.EditParams{Task: "fixed", Start: at(8, 0), End: at(16, 0)})
	require.NoError(t, err)
	require.Equal(t, at(20, 0), e.UpdatedAt)
	require.Equal(t, int64(480), e.TotalMinutes)

	_, err = svc.Edit("e1", entry.EditParams{Start: at(16, 0), End: at(8, 0)})
	require.ErrorIs(t, err, entry.ErrValidation)
}

// ============================================================
// Against the SQLite store
// ============================================================

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestService_WorkdayEndToEnd(t *testing.T) {
	s := newStore(t)
	clk := clock.NewManual(at(9, 0))
	svc := tracker.NewService(s, clk, owner, nil)

	changes := 0
	snap, cancel, err := tracker.Follow(s, owner, func() { changes++ })
	require.NoError(t, err)
	defer cancel()
	require.Equal(t, 1, snap.Version())
	require.Equal(t, 1, changes)
	require.Nil(t, snap.Running())

	started, err := svc.StartTimer(nil, "build", "")
	require.NoError(t, err)
	require.NotNil(t, snap.Running())

	clk.Set(at(12, 0))
	_, err = svc.ToggleBreak(started.ID)
	require.NoError(t, err)
	clk.Set(at(12, 30))
	_, err = svc.ToggleBreak(started.ID)
	require.NoError(t, err)
	clk.Set(at(17, 0))
	done, err := svc.ClockOut(started.ID)
	require.NoError(t, err)

	require.Equal(t, int64(30), done.BreakMinutes)
	require.Equal(t, int64(450), done.TotalMinutes)
	require.Len(t, done.Breaks, 1)

	require.Nil(t, snap.Running())
	require.Equal(t, 5, snap.Version())
	require.Equal(t, 5, changes)
	entries := snap.Entries()
	require.Len(t, entries, 1)
	require.Equal(t, int64(450), entries[0].TotalMinutes)

	running, err := svc.Running()
	require.NoError(t, err)
	require.Nil(t, running)
}

func TestService_ManualLogAndDelete(t *testing.T) {
	s := newStore(t)
	svc := tracker.NewService(s, clock.NewManual(at(18, 0)), owner, nil)

	e, err := svc.ManualLog(entry.ManualParams{Task: "review", Start: at(13, 0), End: at(14, 45)})
	require.NoError(t, err)
	require.Equal(t, int64(105), e.TotalMinutes)
	require.Equal(t, entry.OriginManual, e.Origin)

	_, err = svc.ManualLog(entry.ManualParams{Start: at(14, 0), End: at(14, 0)})
	require.ErrorIs(t, err, entry.ErrValidation)

	require.NoError(t, svc.Delete(e.ID))
	_, err = s.GetEntry(e.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

// slowStore widens the gap between reading and writing an entry.
type slowStore struct {
	*store.Store
}

func (s slowStore) GetEntry(id string) (*entry.TimeEntry, error) {
	e, err := s.Store.GetEntry(id)
	time.Sleep(5 * time.Millisecond)
	return e, err
}

func (s slowStore) GetRunningEntry(owner string) (*entry.TimeEntry, error) {
	e, err := s.Store.GetRunningEntry(owner)
	time.Sleep(5 * time.Millisecond)
	return e, err
}

func TestService_ConcurrentBreakAndClockOut(t *testing.T) {
	for range 10 {
		s := newStore(t)
		svc := tracker.NewService(slowStore{s}, clock.NewManual(at(9, 0)), owner, nil)
		started, err := svc.StartTimer(nil, "", "")
		require.NoError(t, err)

		var wg sync.WaitGroup
		var breakErr, outErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, breakErr = svc.ToggleBreak(started.ID)
		}()
		go func() {
			defer wg.Done()
			_, outErr = svc.ClockOut(started.ID)
		}()
		wg.Wait()

		if breakErr != nil {
			require.ErrorIs(t, breakErr, entry.ErrInvalidState)
		}
		require.NoError(t, outErr)
		got, err := s.GetEntry(started.ID)
		require.NoError(t, err)
		require.Equal(t, entry.StatusCompleted, got.Status)
		require.NotNil(t, got.EndTime)
		require.Nil(t, got.BreakStartedAt)
		require.NoError(t, got.Validate())
	}
}

func TestService_ConcurrentStartTimer(t *testing.T) {
	s := newStore(t)
	svc := tracker.NewService(slowStore{s}, clock.NewManual(at(9, 0)), owner, nil)

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.StartTimer(nil, "", "")
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, entry.ErrInvalidState)
	}
	require.Equal(t, 1, succeeded)

	entries, err := s.ListEntries(owner, store.EntryFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestService_SecondSessionCannotStartTimer(t *testing.T) {
	s := newStore(t)
	clk := clock.NewManual(at(9, 0))
	first := tracker.NewService(slowStore{s}, clk, owner, nil)
	second := tracker.NewService(slowStore{s}, clk, owner, nil)

	var wg sync.WaitGroup
	var err1, err2 error
	wg.Add(2)
	go func() { defer wg.Done(); _, err1 = first.StartTimer(nil, "", "") }()
	go func() { defer wg.Done(); _, err2 = second.StartTimer(nil, "", "") }()
	wg.Wait()

	require.True(t, (err1 == nil) != (err2 == nil), "exactly one start should succeed: %v / %v", err1, err2)
	if err1 != nil {
		require.ErrorIs(t, err1, entry.ErrInvalidState)
	} else {
		require.ErrorIs(t, err2, entry.ErrInvalidState)
	}
}

func TestFollow_SubscribeError(t *testing.T) {
	feed := &mocks.EntryFeed{}
	feed.On("SubscribeEntries", owner, mock.Anything).Return(nil, errors.New("closed"))

	_, _, err := tracker.Follow(feed, owner, nil)
	require.Error(t, err)
}
