package session

import (
	"encoding/json"
	"testing"
	"time"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestStartAssignsUniqueIncreasingIDs(t *testing.T) {
	at := time.Date(2026, 3, 1, 14, 30, 0, 0, time.UTC)
	tr := NewTrackerWithClock(fixedClock(at))

	a := tr.Start("r1", "admin-1", "EMP7", "Screen")
	b := tr.Start("r2", "admin-1", "EMP8", "Voice")
	c := tr.Start("r3", "admin-2", "EMP7", "Webcam")

	if a.ID != at.UnixMilli() {
		t.Errorf("first id = %d, want %d", a.ID, at.UnixMilli())
	}
	if !(a.ID < b.ID && b.ID < c.ID) {
		t.Errorf("ids not strictly increasing: %d %d %d", a.ID, b.ID, c.ID)
	}
	if a.StartedAt != "2:30:00 PM" {
		t.Errorf("startedAt = %q", a.StartedAt)
	}
	if a.AdminID != "admin-1" || a.EmployeeID != "EMP7" || a.Type != "Screen" {
		t.Errorf("session fields = %+v", a)
	}
}

func TestStopRemovesOnlyThatSession(t *testing.T) {
	tr := NewTracker()
	a := tr.Start("r1", "admin-1", "EMP7", "Screen")
	b := tr.Start("r2", "admin-1", "EMP8", "Screen")
	c := tr.Start("r3", "admin-1", "EMP9", "Screen")

	if !tr.Stop(b.ID) {
		t.Fatal("stop should find the session")
	}

	list := tr.List()
	if len(list) != 2 || list[0].ID != a.ID || list[1].ID != c.ID {
		t.Errorf("list after stop = %+v", list)
	}
}

func TestStopUnknownIsNoop(t *testing.T) {
	tr := NewTracker()
	a := tr.Start("r1", "admin-1", "EMP7", "Screen")

	if tr.Stop(a.ID + 1000) {
		t.Error("stop of unknown id should report false")
	}
	if tr.Len() != 1 {
		t.Errorf("len = %d, want 1", tr.Len())
	}
}

func TestStopOlderThan(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	tr := NewTrackerWithClock(func() time.Time { return clock })

	old := tr.Start("r1", "admin-1", "EMP7", "Screen")
	clock = now.Add(time.Hour)
	fresh := tr.Start("r2", "admin-1", "EMP8", "Screen")

	stopped := tr.StopOlderThan(now.Add(30 * time.Minute))
	if len(stopped) != 1 || stopped[0].ID != old.ID {
		t.Errorf("stopped = %+v", stopped)
	}
	if list := tr.List(); len(list) != 1 || list[0].ID != fresh.ID {
		t.Errorf("remaining = %+v", list)
	}
}

func TestListIsCopyAndEncodesAsArray(t *testing.T) {
	tr := NewTracker()

	raw, err := json.Marshal(tr.List())
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != "[]" {
		t.Errorf("empty list encodes as %s, want []", raw)
	}

	tr.Start("r1", "admin-1", "EMP7", "Screen")
	list := tr.List()
	list[0].AdminID = "mutated"
	if tr.List()[0].AdminID != "admin-1" {
		t.Error("List must return a copy")
	}
}

func TestSessionJSONShape(t *testing.T) {
	tr := NewTrackerWithClock(fixedClock(time.Date(2026, 3, 1, 9, 5, 7, 0, time.UTC)))
	s := tr.Start("r1", "admin-1", "EMP7", "Screen")

	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"id", "employeeId", "adminId", "type", "startedAt"} {
		if _, ok := m[key]; !ok {
			t.Errorf("missing key %q in %s", key, raw)
		}
	}
	if m["startedAt"] != "9:05:07 AM" {
		t.Errorf("startedAt = %v", m["startedAt"])
	}
}
