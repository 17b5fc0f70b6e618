package session

import (
	"Workpulse/internal/model"
	"sync"
	"time"
)

// StartedAtLayout renders the human-readable start time of a session.
const StartedAtLayout = "3:04:05 PM"

// Tracker holds the ordered list of active monitoring sessions.
// Ids are millisecond timestamps bumped forward on collision, so they are
// unique and strictly increasing for the life of the process.
type Tracker struct {
	mu       sync.RWMutex
	sessions []model.ActiveSession
	lastID   int64
	now      func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{now: time.Now}
}

// NewTrackerWithClock is for tests that need a fixed clock.
func NewTrackerWithClock(now func() time.Time) *Tracker {
	return &Tracker{now: now}
}

// Start appends a session for an accepted request and returns it.
func (t *Tracker) Start(requestID, adminID, employeeID, kind string) model.ActiveSession {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	id := now.UnixMilli()
	if id <= t.lastID {
		id = t.lastID + 1
	}
	t.lastID = id

	s := model.ActiveSession{
		ID:         id,
		EmployeeID: employeeID,
		AdminID:    adminID,
		Type:       kind,
		StartedAt:  now.Format(StartedAtLayout),
		RequestID:  requestID,
		Started:    now,
	}
	t.sessions = append(t.sessions, s)
	return s
}

// Stop removes the session with id. Unknown ids are a no-op.
func (t *Tracker) Stop(id int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, s := range t.sessions {
		if s.ID == id {
			t.sessions = append(t.sessions[:i], t.sessions[i+1:]...)
			return true
		}
	}
	return false
}

// StopOlderThan removes every session started before cutoff and returns them.
func (t *Tracker) StopOlderThan(cutoff time.Time) []model.ActiveSession {
	t.mu.Lock()
	defer t.mu.Unlock()

	var stopped []model.ActiveSession
	kept := t.sessions[:0]
	for _, s := range t.sessions {
		if s.Started.Before(cutoff) {
			stopped = append(stopped, s)
			continue
		}
		kept = append(kept, s)
	}
	t.sessions = kept
	return stopped
}

// List returns a copy of the sessions in start order. Never nil, so the
// broadcast encodes as [] rather than null.
func (t *Tracker) List() []model.ActiveSession {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]model.ActiveSession, len(t.sessions))
	copy(out, t.sessions)
	return out
}

func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}
