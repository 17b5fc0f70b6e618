package model

import "time"

// ActiveSession is the live period between an accepted request and its stop.
// It is process-local and never persisted.
type ActiveSession struct {
	ID         int64  `json:"id"`
	EmployeeID string `json:"employeeId"`
	AdminID    string `json:"adminId"`
	Type       string `json:"type"`
	StartedAt  string `json:"startedAt"` // human-readable, e.g. "3:04:05 PM"

	RequestID string    `json:"requestId,omitempty"`
	Started   time.Time `json:"-"`
}
