package service

import (
	"Workpulse/internal/event"
	"Workpulse/internal/model"
	"context"
	"errors"
	"testing"
	"time"
)

type stubRequests struct {
	lastFilter model.RequestFilter
	result     []model.MonitoringRequest
}

func (s *stubRequests) Create(context.Context, *model.MonitoringRequest) (*model.MonitoringRequest, error) {
	return nil, errors.New("not used")
}

func (s *stubRequests) Respond(context.Context, string, string, model.AllowFlags) (*model.MonitoringRequest, error) {
	return nil, errors.New("not used")
}

func (s *stubRequests) FindPending(ctx context.Context, f model.RequestFilter) ([]model.MonitoringRequest, error) {
	f.Status = event.StatusPending
	return s.FindForUser(ctx, f)
}

func (s *stubRequests) FindForUser(_ context.Context, f model.RequestFilter) ([]model.MonitoringRequest, error) {
	s.lastFilter = f
	return s.result, nil
}

func (s *stubRequests) ExpirePending(context.Context, time.Time) ([]model.MonitoringRequest, error) {
	return nil, nil
}

type stubSessions []model.ActiveSession

func (s stubSessions) Sessions() []model.ActiveSession { return s }

func TestRequestsForAdmin(t *testing.T) {
	requests := &stubRequests{result: []model.MonitoringRequest{{AdminID: "admin-1"}}}
	svc := NewMonitoringService(requests, stubSessions{})

	got, err := svc.RequestsForAdmin(context.Background(), "admin-1", "")
	if err != nil {
		t.Fatalf("RequestsForAdmin: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d records", len(got))
	}
	if requests.lastFilter != (model.RequestFilter{AdminID: "admin-1"}) {
		t.Errorf("filter = %+v", requests.lastFilter)
	}

	if _, err := svc.RequestsForEmployee(context.Background(), "EMP7", event.StatusAccepted); err != nil {
		t.Fatal(err)
	}
	if requests.lastFilter != (model.RequestFilter{EmployeeID: "EMP7", Status: event.StatusAccepted}) {
		t.Errorf("filter = %+v", requests.lastFilter)
	}
}

func TestRequestsRejectUnknownStatus(t *testing.T) {
	svc := NewMonitoringService(&stubRequests{}, stubSessions{})
	if _, err := svc.RequestsForAdmin(context.Background(), "admin-1", "cancelled"); !errors.Is(err, ErrInvalidStatusFilter) {
		t.Errorf("err = %v, want ErrInvalidStatusFilter", err)
	}
}

func TestActiveSessionsFilter(t *testing.T) {
	sessions := stubSessions{
		{ID: 1, AdminID: "admin-1", EmployeeID: "EMP7"},
		{ID: 2, AdminID: "admin-2", EmployeeID: "EMP8"},
		{ID: 3, AdminID: "admin-2", EmployeeID: "EMP7"},
	}
	svc := NewMonitoringService(&stubRequests{}, sessions)

	if got := svc.ActiveSessions(""); len(got) != 3 {
		t.Errorf("all = %d", len(got))
	}
	got := svc.ActiveSessions("EMP7")
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Errorf("EMP7 sessions = %+v", got)
	}
	if got := svc.ActiveSessions("nobody"); got == nil || len(got) != 0 {
		t.Errorf("unknown user = %#v, want empty slice", got)
	}
}
