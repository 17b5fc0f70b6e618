package hub

import (
	"Workpulse/internal/model"
)

// StateSource exposes the coordinator state the monitor reports on.
type StateSource interface {
	Presence() []model.PresenceEntry
	Sessions() []model.ActiveSession
	IsAdmin(userID string) bool
}

// MonitorService provides methods to gather hub statistics
type MonitorService struct {
	hub   *Hub
	state StateSource
}

// NewMonitorService creates a new monitor service
func NewMonitorService(hub *Hub, state StateSource) *MonitorService {
	return &MonitorService{hub: hub, state: state}
}

// GetStats gathers and returns all hub statistics
func (ms *MonitorService) GetStats() model.MonitorResponse {
	presence := ms.state.Presence()
	sessions := ms.state.Sessions()
	connectionStats := ms.getConnectionStats(presence, len(sessions))

	// Determine overall health status
	status := "healthy"
	if connectionStats.TotalSockets == 0 {
		status = "idle"
	}

	return model.MonitorResponse{
		Status:         status,
		Connections:    connectionStats,
		Presence:       presence,
		ActiveSessions: sessions,
		Dispatch: model.DispatchStats{
			Workers:     len(ms.hub.shards),
			QueueDepths: ms.hub.QueueDepths(),
		},
	}
}

// getConnectionStats returns connection statistics
func (ms *MonitorService) getConnectionStats(presence []model.PresenceEntry, sessions int) model.ConnectionStats {
	stats := model.ConnectionStats{
		TotalSockets:    ms.hub.ClientCount(),
		BoundSockets:    len(presence),
		TotalActiveSess: sessions,
	}

	users := make(map[string]struct{})
	for _, p := range presence {
		if _, seen := users[p.UserID]; !seen {
			users[p.UserID] = struct{}{}
			if ms.state.IsAdmin(p.UserID) {
				stats.OnlineAdmins++
			}
		}
		if p.Screen {
			stats.SharingScreen++
		}
		if p.Voice {
			stats.SharingVoice++
		}
		if p.Webcam {
			stats.SharingWebcam++
		}
	}
	stats.OnlineUsers = len(users)

	return stats
}
