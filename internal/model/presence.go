package model

// PresenceEntry is one row of the onlineEmployees broadcast, one per live connection.
type PresenceEntry struct {
	UserID   string `json:"userId"`
	SocketID string `json:"socketId"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Screen   bool   `json:"screen"`
	Voice    bool   `json:"voice"`
	Webcam   bool   `json:"webcam"`
}

// Capabilities are the per-connection media flags.
type Capabilities struct {
	Screen bool `json:"screen"`
	Voice  bool `json:"voice"`
	Webcam bool `json:"webcam"`
}
