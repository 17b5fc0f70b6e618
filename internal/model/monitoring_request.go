package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MonitoringRequest is an admin's ask to observe an employee. Status moves
// pending -> accepted or pending -> declined and never changes again.
type MonitoringRequest struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	AdminID     string             `json:"adminId" bson:"adminId"`
	EmployeeID  string             `json:"employeeId" bson:"employeeId"`
	Type        string             `json:"type" bson:"type"`
	Message     string             `json:"message" bson:"message"`
	AllowScreen bool               `json:"allowScreen" bson:"allowScreen"`
	AllowAudio  bool               `json:"allowAudio" bson:"allowAudio"`
	AllowWebcam bool               `json:"allowWebcam" bson:"allowWebcam"`
	Status      string             `json:"status" bson:"status"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	RespondedAt *time.Time         `json:"respondedAt,omitempty" bson:"respondedAt,omitempty"`
}

// AllowFlags are set by the responder when answering a request.
// Nil fields keep the stored value.
type AllowFlags struct {
	Screen *bool `json:"allowScreen,omitempty"`
	Audio  *bool `json:"allowAudio,omitempty"`
	Webcam *bool `json:"allowWebcam,omitempty"`
}

// RequestFilter selects requests by either side. At least one field should be set.
type RequestFilter struct {
	AdminID    string
	EmployeeID string
	Status     string
}

func (f RequestFilter) IsEmpty() bool {
	return f.AdminID == "" && f.EmployeeID == ""
}
