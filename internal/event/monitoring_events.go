package event

// Client to server
const (
	// EventEmployeeOnline - a connection announces which user owns it
	EventEmployeeOnline = "employeeOnline"

	// EventSendMonitoringRequest - admin asks to monitor an employee
	EventSendMonitoringRequest = "sendMonitoringRequest"

	// EventRespondMonitoringRequest - employee accepts or declines
	EventRespondMonitoringRequest = "respondMonitoringRequest"

	// EventStopSession - either side ends an active session
	EventStopSession = "stopSession"

	// EventUpdateStatus - capability flags changed on the employee side
	EventUpdateStatus = "updateStatus"

	// EventSendMessage - chat message
	EventSendMessage = "sendMessage"

	// EventDisconnect is synthesised by the hub when a socket goes away.
	// Clients never send it.
	EventDisconnect = "disconnect"
)

// Server to client
const (
	EventOnlineEmployees          = "onlineEmployees"
	EventReceiveMonitoringRequest = "receiveMonitoringRequest"
	EventPendingRequests          = "pendingRequests"
	EventRequestResponse          = "requestResponse"
	EventActiveSessions           = "activeSessions"
	EventReceiveMessage           = "receiveMessage"

	// EventMonitoringError tells the originating connection that its event
	// was dropped.
	EventMonitoringError = "monitoringError"
)

// Request status values
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusDeclined = "declined"
)

// Capability types. Any other label is stored as given.
const (
	TypeScreen = "Screen"
	TypeVoice  = "Voice"
	TypeWebcam = "Webcam"
)

// Connection status labels
const (
	ConnectionStatusActive = "Active"
)

// Error codes carried by EventMonitoringError
const (
	ErrCodeInvalidPayload = "invalid_payload"
	ErrCodeMissingField   = "missing_field"
	ErrCodeInvalidStatus  = "invalid_status"
	ErrCodeNotFound       = "not_found"
	ErrCodeStoreFailure   = "store_failure"
)

// IsClientEvent reports whether name is an event a client may send.
func IsClientEvent(name string) bool {
	switch name {
	case EventEmployeeOnline,
		EventSendMonitoringRequest,
		EventRespondMonitoringRequest,
		EventStopSession,
		EventUpdateStatus,
		EventSendMessage:
		return true
	default:
		return false
	}
}
