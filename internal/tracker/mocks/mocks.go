package mocks

import (
	"github.com/sadopc/shiftclock/internal/entry"
	"github.com/stretchr/testify/mock"
)

// EntryStore is a mock for tracker.EntryStore.
type EntryStore struct {
	mock.Mock
}

func (m *EntryStore) CreateEntry(e entry.TimeEntry) error {
	args := m.Called(e)
	return args.Error(0)
}

func (m *EntryStore) SaveEntry(e entry.TimeEntry) error {
	args := m.Called(e)
	return args.Error(0)
}

func (m *EntryStore) GetEntry(id string) (*entry.TimeEntry, error) {
	args := m.Called(id)
	if e, ok := args.Get(0).(*entry.TimeEntry); ok {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *EntryStore) GetRunningEntry(owner string) (*entry.TimeEntry, error) {
	args := m.Called(owner)
	if e, ok := args.Get(0).(*entry.TimeEntry); ok {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *EntryStore) DeleteEntry(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

// EntryFeed is a mock for tracker.EntryFeed.
type EntryFeed struct {
	mock.Mock
}

func (m *EntryFeed) SubscribeEntries(owner string, fn func([]entry.TimeEntry)) (func(), error) {
	args := m.Called(owner, fn)
	if cancel, ok := args.Get(0).(func()); ok {
		return cancel, args.Error(1)
	}
	return nil, args.Error(1)
}
