package model

// -----------------------------------------------------------------
// Monitor API Response Models
// -----------------------------------------------------------------

// MonitorResponse is the main response for the monitor API
type MonitorResponse struct {
	Status         string          `json:"status"`         // "healthy" or "idle"
	Connections    ConnectionStats `json:"connections"`    // Socket connection stats
	Presence       []PresenceEntry `json:"presence"`       // Current presence snapshot
	ActiveSessions []ActiveSession `json:"activeSessions"` // Current sessions
	Dispatch       DispatchStats   `json:"dispatch"`       // Inbound queue stats
}

// ConnectionStats holds connection-related statistics
type ConnectionStats struct {
	TotalSockets    int `json:"totalSockets"`    // Sockets attached to the hub
	BoundSockets    int `json:"boundSockets"`    // Sockets that announced a user
	OnlineUsers     int `json:"onlineUsers"`     // Distinct users with >= 1 socket
	OnlineAdmins    int `json:"onlineAdmins"`    // Of which admin-class
	SharingScreen   int `json:"sharingScreen"`   // Sockets with screen flag on
	SharingVoice    int `json:"sharingVoice"`    // Sockets with voice flag on
	SharingWebcam   int `json:"sharingWebcam"`   // Sockets with webcam flag on
	TotalActiveSess int `json:"totalActiveSess"` // len(ActiveSessions)
}

// DispatchStats reports the per-worker inbound queue depth
type DispatchStats struct {
	Workers     int   `json:"workers"`
	QueueDepths []int `json:"queueDepths"`
}
