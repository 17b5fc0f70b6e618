package model

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// -----------------------------------------------------------------
// WebSocket Event Payloads - Client to Server
// -----------------------------------------------------------------

// OnlinePayload is sent once per connection to bind it to a user
type OnlinePayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SendRequestPayload is sent by an admin to ask for monitoring
type SendRequestPayload struct {
	AdminID     string `json:"adminId"`
	EmployeeID  string `json:"employeeId"`
	Type        string `json:"type"`
	Message     string `json:"message"`
	AllowScreen *bool  `json:"allowScreen,omitempty"`
	AllowAudio  *bool  `json:"allowAudio,omitempty"`
	AllowWebcam *bool  `json:"allowWebcam,omitempty"`
}

// RespondPayload is sent by the employee to accept or decline
type RespondPayload struct {
	ID          string `json:"_id"`
	Status      string `json:"status"`
	AdminID     string `json:"adminId"`
	EmployeeID  string `json:"employeeId"`
	Type        string `json:"type"`
	AllowScreen *bool  `json:"allowScreen,omitempty"`
	AllowAudio  *bool  `json:"allowAudio,omitempty"`
	AllowWebcam *bool  `json:"allowWebcam,omitempty"`
}

func (p RespondPayload) Flags() AllowFlags {
	return AllowFlags{Screen: p.AllowScreen, Audio: p.AllowAudio, Webcam: p.AllowWebcam}
}

// StopSessionPayload names the session to stop
type StopSessionPayload struct {
	SessionID int64 `json:"sessionId"`
}

// UnmarshalJSON accepts {"sessionId": n}, a bare number, or a numeric string.
func (p *StopSessionPayload) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var obj struct {
			SessionID json.Number `json:"sessionId"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		return p.setFrom(obj.SessionID.String())
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		var s string
		if err2 := json.Unmarshal(data, &s); err2 != nil {
			return err
		}
		return p.setFrom(s)
	}
	return p.setFrom(n.String())
}

func (p *StopSessionPayload) setFrom(s string) error {
	if s == "" {
		p.SessionID = 0
		return nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	p.SessionID = id
	return nil
}

// UpdateStatusPayload carries the capability flags for every tab of a user
type UpdateStatusPayload struct {
	UserID string `json:"userId"`
	Screen bool   `json:"screen"`
	Voice  bool   `json:"voice"`
	Webcam bool   `json:"webcam"`
}

// SendMessagePayload is a chat message from sender to receiver
type SendMessagePayload struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Text       string `json:"text"`
}

// -----------------------------------------------------------------
// WebSocket Event Payloads - Server to Client
// -----------------------------------------------------------------

// ErrorPayload tells the originating connection its event was dropped
type ErrorPayload struct {
	Event   string `json:"event"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
