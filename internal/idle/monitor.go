// Package idle raises at most one idle signal per idle period for the
// running timer entry.
package idle

import (
	"log/slog"
	"sync"
	"time"

	"github.com/sadopc/shiftclock/internal/clock"
)

// Monitor compares the time since the last observed activity against a
// threshold. It only evaluates while bound to an active entry.
type Monitor struct {
	mu sync.Mutex

	clock     clock.Clock
	threshold time.Duration
	onIdle    func(entryID string, since time.Time)
	logger    *slog.Logger

	entryID      string
	lastActivity time.Time
	signaled     bool
}

// New creates a monitor. Thresholds below one minute are raised to one minute.
func New(c clock.Clock, thresholdMinutes int, onIdle func(entryID string, since time.Time), logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		clock:        c,
		threshold:    thresholdFor(thresholdMinutes),
		onIdle:       onIdle,
		logger:       logger,
		lastActivity: c.Now(),
	}
}

func thresholdFor(minutes int) time.Duration {
	if minutes < 1 {
		minutes = 1
	}
	return time.Duration(minutes) * time.Minute
}

// SetThreshold changes the idle threshold without resetting the idle period.
func (m *Monitor) SetThreshold(minutes int) {
	m.mu.Lock()
	m.threshold = thresholdFor(minutes)
	m.mu.Unlock()
}

func (m *Monitor) Threshold() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.threshold
}

// Bind attaches the monitor to an active entry and starts a fresh idle period.
func (m *Monitor) Bind(entryID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entryID == entryID {
		return
	}
	m.entryID = entryID
	m.lastActivity = m.clock.Now()
	m.signaled = false
}

// Unbind stops evaluation until the next Bind.
func (m *Monitor) Unbind() {
	m.mu.Lock()
	m.entryID = ""
	m.signaled = false
	m.mu.Unlock()
}

func (m *Monitor) Bound() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entryID
}

// RecordActivity resets the idle period and re-arms the signal.
func (m *Monitor) RecordActivity() {
	m.mu.Lock()
	m.lastActivity = m.clock.Now()
	m.signaled = false
	m.mu.Unlock()
}

// IdleFor reports how long no activity has been observed.
func (m *Monitor) IdleFor() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.clock.Now().Sub(m.lastActivity)
	if d < 0 {
		return 0
	}
	return d
}

// Signaled reports whether the current idle period has already been signaled.
func (m *Monitor) Signaled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.signaled
}

// Tick evaluates one poll. It returns true when this call raised the signal.
func (m *Monitor) Tick() bool {
	m.mu.Lock()
	if m.entryID == "" || m.signaled {
		m.mu.Unlock()
		return false
	}
	now := m.clock.Now()
	if now.Sub(m.lastActivity) < m.threshold {
		m.mu.Unlock()
		return false
	}
	m.signaled = true
	entryID, since := m.entryID, m.lastActivity
	m.mu.Unlock()

	m.logger.Info("idle threshold reached", "entry", entryID, "since", since)
	if m.onIdle != nil {
		m.onIdle(entryID, since)
	}
	return true
}
