package service

import (
	"Workpulse/internal/event"
	"Workpulse/internal/model"
	"Workpulse/internal/repo"
	"context"
	"errors"
)

var ErrInvalidStatusFilter = errors.New("status must be pending, accepted or declined")

// SessionSource is read-only access to the active session list.
type SessionSource interface {
	Sessions() []model.ActiveSession
}

type MonitoringService interface {
	RequestsForAdmin(ctx context.Context, adminID, status string) ([]model.MonitoringRequest, error)
	RequestsForEmployee(ctx context.Context, employeeID, status string) ([]model.MonitoringRequest, error)
	ActiveSessions(userID string) []model.ActiveSession
}

type monitoringService struct {
	requests repo.MonitoringRequestRepository
	sessions SessionSource
}

func NewMonitoringService(requests repo.MonitoringRequestRepository, sessions SessionSource) MonitoringService {
	return &monitoringService{
		requests: requests,
		sessions: sessions,
	}
}

func (s *monitoringService) RequestsForAdmin(ctx context.Context, adminID, status string) ([]model.MonitoringRequest, error) {
	if err := validateStatus(status); err != nil {
		return nil, err
	}
	return s.requests.FindForUser(ctx, model.RequestFilter{AdminID: adminID, Status: status})
}

func (s *monitoringService) RequestsForEmployee(ctx context.Context, employeeID, status string) ([]model.MonitoringRequest, error) {
	if err := validateStatus(status); err != nil {
		return nil, err
	}
	return s.requests.FindForUser(ctx, model.RequestFilter{EmployeeID: employeeID, Status: status})
}

// ActiveSessions returns every session, or those userID takes part in.
func (s *monitoringService) ActiveSessions(userID string) []model.ActiveSession {
	all := s.sessions.Sessions()
	if userID == "" {
		return all
	}
	return Filter(all, func(as model.ActiveSession) bool {
		return as.AdminID == userID || as.EmployeeID == userID
	})
}

func validateStatus(status string) error {
	switch status {
	case "", event.StatusPending, event.StatusAccepted, event.StatusDeclined:
		return nil
	default:
		return ErrInvalidStatusFilter
	}
}
