package coordinator

import (
	"Workpulse/internal/event"
	"Workpulse/internal/model"
	"Workpulse/internal/observability"
	"Workpulse/internal/presence"
	"Workpulse/internal/repo"
	"Workpulse/internal/session"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultAdminPrefix = "admin"

// RequestStore is the part of the monitoring request repository the
// coordinator depends on.
type RequestStore interface {
	Create(ctx context.Context, req *model.MonitoringRequest) (*model.MonitoringRequest, error)
	Respond(ctx context.Context, id string, status string, flags model.AllowFlags) (*model.MonitoringRequest, error)
	FindPending(ctx context.Context, filter model.RequestFilter) ([]model.MonitoringRequest, error)
	ExpirePending(ctx context.Context, cutoff time.Time) ([]model.MonitoringRequest, error)
}

// MessageStore persists chat messages.
type MessageStore interface {
	InsertMessage(ctx context.Context, msg *model.Message) (*model.Message, error)
}

// Inbound is one event read from a connection. The hub synthesises
// event.EventDisconnect when the socket goes away.
type Inbound struct {
	ConnID  string
	Event   string
	Payload json.RawMessage
}

// Outbound is a frame for one connection, or for every connection when
// Broadcast is set.
type Outbound struct {
	ConnID    string
	Broadcast bool
	Event     event.WsEvent
}

// Sink delivers outbound frames. Deliver is called with the coordinator
// lock held, so it must not block on a connection and must not call back
// into the coordinator.
type Sink interface {
	Deliver(out []Outbound)
}

type Options struct {
	Registry    *presence.Registry
	Tracker     *session.Tracker
	Requests    RequestStore
	Messages    MessageStore
	Mirror      presence.Mirror
	Metrics     *observability.Metrics
	Logger      *zap.Logger
	AdminPrefix string
}

// Coordinator turns inbound socket events into registry, tracker and store
// mutations and the frames that follow them. Store I/O runs without the
// lock; registry and tracker mutation plus delivery run under it, so every
// connection sees broadcasts in mutation order.
type Coordinator struct {
	mu       sync.Mutex
	registry *presence.Registry
	tracker  *session.Tracker
	requests RequestStore
	messages MessageStore
	mirror   presence.Mirror
	metrics  *observability.Metrics
	logger   *zap.Logger
	sink     Sink

	// syncing holds, per connecting employee connection, the request ids
	// already unicast live while its backlog read is in flight.
	syncing map[string]map[string]struct{}

	adminPrefix string
}

func New(opts Options) *Coordinator {
	c := &Coordinator{
		registry:    opts.Registry,
		tracker:     opts.Tracker,
		requests:    opts.Requests,
		messages:    opts.Messages,
		mirror:      opts.Mirror,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
		adminPrefix: opts.AdminPrefix,
		syncing:     make(map[string]map[string]struct{}),
	}
	if c.registry == nil {
		c.registry = presence.NewRegistry()
	}
	if c.tracker == nil {
		c.tracker = session.NewTracker()
	}
	if c.mirror == nil {
		c.mirror = presence.NopMirror{}
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.adminPrefix == "" {
		c.adminPrefix = defaultAdminPrefix
	}
	return c
}

// SetSink attaches the transport. It must be called before the first Handle.
func (c *Coordinator) SetSink(s Sink) {
	c.mu.Lock()
	c.sink = s
	c.mu.Unlock()
}

// IsAdmin reports whether userID is an admin-class identifier.
func (c *Coordinator) IsAdmin(userID string) bool {
	return strings.HasPrefix(userID, c.adminPrefix)
}

// Presence returns the current presence snapshot.
func (c *Coordinator) Presence() []model.PresenceEntry {
	return c.registry.Snapshot()
}

// Sessions returns the current active sessions.
func (c *Coordinator) Sessions() []model.ActiveSession {
	return c.tracker.List()
}

// Handle processes one inbound event and returns the frames it produced.
// Failures never escape: they are logged, counted and, for client events,
// answered with a monitoringError to the originating connection.
func (c *Coordinator) Handle(ctx context.Context, in Inbound) []Outbound {
	switch in.Event {
	case event.EventEmployeeOnline:
		return c.handleOnline(ctx, in)
	case event.EventSendMonitoringRequest:
		return c.handleSendRequest(ctx, in)
	case event.EventRespondMonitoringRequest:
		return c.handleRespond(ctx, in)
	case event.EventStopSession:
		return c.handleStopSession(in)
	case event.EventUpdateStatus:
		return c.handleUpdateStatus(ctx, in)
	case event.EventSendMessage:
		return c.handleSendMessage(ctx, in)
	case event.EventDisconnect:
		return c.handleDisconnect(ctx, in)
	default:
		c.metrics.EventHandled(in.Event, observability.OutcomeUnknownEvent)
		c.logger.Debug("unknown event type",
			zap.String("event", in.Event),
			zap.String("conn_id", in.ConnID),
		)
		return nil
	}
}

// -----------------------------------------------------------------------------
// employeeOnline
// -----------------------------------------------------------------------------
func (c *Coordinator) handleOnline(ctx context.Context, in Inbound) []Outbound {
	var p model.OnlinePayload
	if err := json.Unmarshal(in.Payload, &p); err != nil {
		return c.reject(in, event.ErrCodeInvalidPayload, "payload must be {id, name}")
	}
	if p.ID == "" {
		return c.reject(in, event.ErrCodeMissingField, "id is required")
	}

	admin := c.IsAdmin(p.ID)

	// The connection is visible before the backlog read, so a request created
	// during the read is unicast live and recorded in c.syncing.
	out := c.commit(func() []Outbound {
		c.registry.AddConnection(p.ID, in.ConnID, p.Name)
		if !admin {
			c.syncing[in.ConnID] = make(map[string]struct{})
		}

		frames := c.appendBroadcast(nil, event.EventOnlineEmployees, c.registry.Snapshot())
		return c.appendUnicast(frames, in.ConnID, event.EventActiveSessions, c.tracker.List())
	})
	c.publishPresence(ctx, p.ID)

	var pending []model.MonitoringRequest
	if !admin && c.requests != nil {
		start := time.Now()
		found, err := c.requests.FindPending(ctx, model.RequestFilter{EmployeeID: p.ID})
		c.metrics.ObserveStore("find_pending", start)
		if err != nil {
			// presence already went through; the employee just misses the backlog
			c.logger.Error("failed to load pending requests on connect",
				zap.String("user_id", p.ID),
				zap.Error(err),
			)
		}
		pending = found
	}

	if !admin {
		out = append(out, c.commit(func() []Outbound {
			live, ok := c.syncing[in.ConnID]
			delete(c.syncing, in.ConnID)
			if !ok {
				// disconnected during the read
				return nil
			}
			var frames []Outbound
			for i := range pending {
				if _, sent := live[pending[i].ID.Hex()]; sent {
					continue
				}
				frames = c.appendUnicast(frames, in.ConnID, event.EventReceiveMonitoringRequest, pending[i])
			}
			return frames
		})...)
	}

	c.logger.Info("user online",
		zap.String("user_id", p.ID),
		zap.String("conn_id", in.ConnID),
		zap.Int("pending", len(pending)),
	)
	c.metrics.EventHandled(in.Event, observability.OutcomeHandled)
	return out
}

// -----------------------------------------------------------------------------
// sendMonitoringRequest
// -----------------------------------------------------------------------------
func (c *Coordinator) handleSendRequest(ctx context.Context, in Inbound) []Outbound {
	var p model.SendRequestPayload
	if err := json.Unmarshal(in.Payload, &p); err != nil {
		return c.reject(in, event.ErrCodeInvalidPayload, "malformed monitoring request")
	}
	if p.AdminID == "" || p.EmployeeID == "" {
		return c.reject(in, event.ErrCodeMissingField, "adminId and employeeId are required")
	}
	if c.requests == nil {
		return c.reject(in, event.ErrCodeStoreFailure, "request store unavailable")
	}

	req := &model.MonitoringRequest{
		AdminID:     p.AdminID,
		EmployeeID:  p.EmployeeID,
		Type:        p.Type,
		Message:     p.Message,
		AllowScreen: boolOr(p.AllowScreen, true),
		AllowAudio:  boolOr(p.AllowAudio, false),
		AllowWebcam: boolOr(p.AllowWebcam, false),
	}

	start := time.Now()
	created, err := c.requests.Create(ctx, req)
	c.metrics.ObserveStore("create", start)
	if err != nil {
		c.logger.Error("dropping monitoring request, store write failed",
			zap.String("admin_id", p.AdminID),
			zap.String("employee_id", p.EmployeeID),
			zap.Error(err),
		)
		return c.rejectStore(in, err)
	}
	c.metrics.RequestTransition(event.StatusPending)

	adminPending := c.loadAdminPending(ctx)

	out := c.commit(func() []Outbound {
		var frames []Outbound
		for _, connID := range c.registry.ConnectionIDs(created.EmployeeID) {
			if live, ok := c.syncing[connID]; ok {
				live[created.ID.Hex()] = struct{}{}
			}
			frames = c.appendUnicast(frames, connID, event.EventReceiveMonitoringRequest, created)
		}
		return c.appendAdminPending(frames, adminPending)
	})

	c.metrics.EventHandled(in.Event, observability.OutcomeHandled)
	return out
}

// loadAdminPending reads the pending list of every online admin. Admins whose
// read fails are left out.
func (c *Coordinator) loadAdminPending(ctx context.Context) map[string][]model.MonitoringRequest {
	return c.loadPendingFor(ctx, c.registry.Users(c.IsAdmin))
}

func (c *Coordinator) loadPendingFor(ctx context.Context, adminIDs []string) map[string][]model.MonitoringRequest {
	result := make(map[string][]model.MonitoringRequest, len(adminIDs))
	for _, adminID := range adminIDs {
		start := time.Now()
		pending, err := c.requests.FindPending(ctx, model.RequestFilter{AdminID: adminID})
		c.metrics.ObserveStore("find_pending", start)
		if err != nil {
			c.logger.Warn("failed to refresh admin pending list",
				zap.String("admin_id", adminID),
				zap.Error(err),
			)
			continue
		}
		result[adminID] = pending
	}
	return result
}

// appendAdminPending must run under c.mu. Connections are re-read so an admin
// that left during the store reads is skipped.
func (c *Coordinator) appendAdminPending(frames []Outbound, byAdmin map[string][]model.MonitoringRequest) []Outbound {
	for _, adminID := range c.registry.Users(c.IsAdmin) {
		pending, ok := byAdmin[adminID]
		if !ok {
			continue
		}
		for _, connID := range c.registry.ConnectionIDs(adminID) {
			frames = c.appendUnicast(frames, connID, event.EventPendingRequests, pending)
		}
	}
	return frames
}

// -----------------------------------------------------------------------------
// respondMonitoringRequest
// -----------------------------------------------------------------------------
func (c *Coordinator) handleRespond(ctx context.Context, in Inbound) []Outbound {
	var p model.RespondPayload
	if err := json.Unmarshal(in.Payload, &p); err != nil {
		return c.reject(in, event.ErrCodeInvalidPayload, "malformed monitoring response")
	}
	if p.ID == "" {
		return c.reject(in, event.ErrCodeMissingField, "_id is required")
	}
	if p.Status != event.StatusAccepted && p.Status != event.StatusDeclined {
		return c.reject(in, event.ErrCodeInvalidStatus, "status must be accepted or declined")
	}
	if c.requests == nil {
		return c.reject(in, event.ErrCodeStoreFailure, "request store unavailable")
	}

	start := time.Now()
	updated, err := c.requests.Respond(ctx, p.ID, p.Status, p.Flags())
	c.metrics.ObserveStore("respond", start)
	switch {
	case errors.Is(err, repo.ErrRequestNotFound):
		c.logger.Info("response for unknown or answered request ignored",
			zap.String("request_id", p.ID),
			zap.String("conn_id", in.ConnID),
		)
		c.metrics.EventHandled(in.Event, observability.OutcomeNotFound)
		return c.deliverError(in, event.ErrCodeNotFound, "no pending monitoring request with that id")
	case errors.Is(err, repo.ErrInvalidRequestID):
		return c.reject(in, event.ErrCodeInvalidPayload, "_id is not a valid request id")
	case err != nil:
		c.logger.Error("dropping monitoring response, store write failed",
			zap.String("request_id", p.ID),
			zap.Error(err),
		)
		return c.rejectStore(in, err)
	}
	c.metrics.RequestTransition(updated.Status)

	out := c.commit(func() []Outbound {
		var frames []Outbound
		for _, connID := range c.registry.ConnectionIDs(updated.AdminID) {
			frames = c.appendUnicast(frames, connID, event.EventRequestResponse, updated)
		}
		if updated.Status == event.StatusAccepted {
			s := c.tracker.Start(updated.ID.Hex(), updated.AdminID, updated.EmployeeID, updated.Type)
			c.logger.Info("monitoring session started",
				zap.Int64("session_id", s.ID),
				zap.String("admin_id", s.AdminID),
				zap.String("employee_id", s.EmployeeID),
				zap.String("type", s.Type),
			)
			c.metrics.SetActiveSessions(c.tracker.Len())
			frames = c.appendBroadcast(frames, event.EventActiveSessions, c.tracker.List())
		}
		return frames
	})

	c.metrics.EventHandled(in.Event, observability.OutcomeHandled)
	return out
}

// -----------------------------------------------------------------------------
// stopSession - unknown ids still broadcast the unchanged list
// -----------------------------------------------------------------------------
func (c *Coordinator) handleStopSession(in Inbound) []Outbound {
	var p model.StopSessionPayload
	if err := json.Unmarshal(in.Payload, &p); err != nil {
		return c.reject(in, event.ErrCodeInvalidPayload, "sessionId must be a number")
	}

	out := c.commit(func() []Outbound {
		if c.tracker.Stop(p.SessionID) {
			c.logger.Info("monitoring session stopped",
				zap.Int64("session_id", p.SessionID),
				zap.String("conn_id", in.ConnID),
			)
		}
		c.metrics.SetActiveSessions(c.tracker.Len())
		return c.appendBroadcast(nil, event.EventActiveSessions, c.tracker.List())
	})

	c.metrics.EventHandled(in.Event, observability.OutcomeHandled)
	return out
}

// -----------------------------------------------------------------------------
// updateStatus - flags apply to every connection of the user
// -----------------------------------------------------------------------------
func (c *Coordinator) handleUpdateStatus(ctx context.Context, in Inbound) []Outbound {
	var p model.UpdateStatusPayload
	if err := json.Unmarshal(in.Payload, &p); err != nil {
		return c.reject(in, event.ErrCodeInvalidPayload, "payload must be {userId, screen, voice, webcam}")
	}
	if p.UserID == "" {
		return c.reject(in, event.ErrCodeMissingField, "userId is required")
	}

	known := false
	out := c.commit(func() []Outbound {
		known = c.registry.UpdateCapabilities(p.UserID, model.Capabilities{
			Screen: p.Screen,
			Voice:  p.Voice,
			Webcam: p.Webcam,
		})
		if !known {
			return nil
		}
		return c.appendBroadcast(nil, event.EventOnlineEmployees, c.registry.Snapshot())
	})

	c.metrics.EventHandled(in.Event, observability.OutcomeHandled)
	if known {
		c.publishPresence(ctx, p.UserID)
	}
	return out
}

// -----------------------------------------------------------------------------
// sendMessage - persist, then relay to both parties
// -----------------------------------------------------------------------------
func (c *Coordinator) handleSendMessage(ctx context.Context, in Inbound) []Outbound {
	var p model.SendMessagePayload
	if err := json.Unmarshal(in.Payload, &p); err != nil {
		return c.reject(in, event.ErrCodeInvalidPayload, "payload must be {senderId, receiverId, text}")
	}
	if p.SenderID == "" || p.ReceiverID == "" || p.Text == "" {
		return c.reject(in, event.ErrCodeMissingField, "senderId, receiverId and text are required")
	}
	if c.messages == nil {
		return c.reject(in, event.ErrCodeStoreFailure, "message store unavailable")
	}

	start := time.Now()
	saved, err := c.messages.InsertMessage(ctx, &model.Message{
		SenderID:   p.SenderID,
		ReceiverID: p.ReceiverID,
		Text:       p.Text,
	})
	c.metrics.ObserveStore("insert_message", start)
	if err != nil {
		c.logger.Error("dropping chat message, store write failed",
			zap.String("sender_id", p.SenderID),
			zap.Error(err),
		)
		return c.rejectStore(in, err)
	}

	out := c.commit(func() []Outbound {
		var frames []Outbound
		for _, connID := range c.registry.ConnectionIDs(saved.ReceiverID) {
			frames = c.appendUnicast(frames, connID, event.EventReceiveMessage, saved)
		}
		if saved.SenderID != saved.ReceiverID {
			for _, connID := range c.registry.ConnectionIDs(saved.SenderID) {
				frames = c.appendUnicast(frames, connID, event.EventReceiveMessage, saved)
			}
		}
		return frames
	})

	c.metrics.EventHandled(in.Event, observability.OutcomeHandled)
	return out
}

// -----------------------------------------------------------------------------
// disconnect
// -----------------------------------------------------------------------------
func (c *Coordinator) handleDisconnect(ctx context.Context, in Inbound) []Outbound {
	var owners []string
	out := c.commit(func() []Outbound {
		owners = c.registry.RemoveConnection(in.ConnID)
		delete(c.syncing, in.ConnID)
		return c.appendBroadcast(nil, event.EventOnlineEmployees, c.registry.Snapshot())
	})

	c.logger.Debug("connection removed",
		zap.String("conn_id", in.ConnID),
		zap.Strings("owners", owners),
	)
	c.metrics.EventHandled(in.Event, observability.OutcomeHandled)
	c.publishPresence(ctx, owners...)
	return out
}

// -----------------------------------------------------------------------------
// Expire - declines pending requests created before pendingCutoff and stops
// sessions started before sessionCutoff. A zero cutoff disables that half.
// -----------------------------------------------------------------------------
func (c *Coordinator) Expire(ctx context.Context, pendingCutoff, sessionCutoff time.Time) []Outbound {
	var expired []model.MonitoringRequest
	if !pendingCutoff.IsZero() && c.requests != nil {
		start := time.Now()
		found, err := c.requests.ExpirePending(ctx, pendingCutoff)
		c.metrics.ObserveStore("expire_pending", start)
		if err != nil {
			c.logger.Error("failed to expire pending requests", zap.Error(err))
		}
		// partial results are still announced
		expired = found
	}

	var adminPending map[string][]model.MonitoringRequest
	if len(expired) > 0 {
		seen := make(map[string]struct{}, len(expired))
		admins := make([]string, 0, len(expired))
		for _, req := range expired {
			c.metrics.RequestTransition("expired")
			if _, ok := seen[req.AdminID]; ok {
				continue
			}
			seen[req.AdminID] = struct{}{}
			if c.registry.Has(req.AdminID) {
				admins = append(admins, req.AdminID)
			}
		}
		adminPending = c.loadPendingFor(ctx, admins)
	}

	if len(expired) == 0 && sessionCutoff.IsZero() {
		return nil
	}

	return c.commit(func() []Outbound {
		var frames []Outbound
		for i := range expired {
			for _, connID := range c.registry.ConnectionIDs(expired[i].AdminID) {
				frames = c.appendUnicast(frames, connID, event.EventRequestResponse, expired[i])
			}
		}
		frames = c.appendAdminPending(frames, adminPending)

		if !sessionCutoff.IsZero() {
			stopped := c.tracker.StopOlderThan(sessionCutoff)
			if len(stopped) > 0 {
				c.logger.Info("stopped aged monitoring sessions",
					zap.Int("count", len(stopped)),
					zap.Time("cutoff", sessionCutoff),
				)
				c.metrics.SetActiveSessions(c.tracker.Len())
				frames = c.appendBroadcast(frames, event.EventActiveSessions, c.tracker.List())
			}
		}
		return frames
	})
}

// commit runs fn under the state lock and hands its frames to the sink
// before releasing it.
func (c *Coordinator) commit(fn func() []Outbound) []Outbound {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := fn()
	c.metrics.SetPresence(len(c.registry.Users(nil)))
	if c.sink != nil && len(out) > 0 {
		c.sink.Deliver(out)
	}
	return out
}

func (c *Coordinator) reject(in Inbound, code, message string) []Outbound {
	c.logger.Warn("dropping invalid event",
		zap.String("event", in.Event),
		zap.String("conn_id", in.ConnID),
		zap.String("code", code),
		zap.String("reason", message),
	)
	c.metrics.EventHandled(in.Event, observability.OutcomeInvalid)
	return c.deliverError(in, code, message)
}

func (c *Coordinator) rejectStore(in Inbound, err error) []Outbound {
	c.metrics.EventHandled(in.Event, observability.OutcomeStoreError)
	return c.deliverError(in, event.ErrCodeStoreFailure, err.Error())
}

// deliverError answers the originating connection only. Disconnect is never
// answered since the connection is gone.
func (c *Coordinator) deliverError(in Inbound, code, message string) []Outbound {
	if in.Event == event.EventDisconnect || in.ConnID == "" {
		return nil
	}
	return c.commit(func() []Outbound {
		return c.appendUnicast(nil, in.ConnID, event.EventMonitoringError, model.ErrorPayload{
			Event:   in.Event,
			Code:    code,
			Message: message,
		})
	})
}

func (c *Coordinator) appendUnicast(frames []Outbound, connID, name string, payload any) []Outbound {
	ev, err := event.New(name, payload)
	if err != nil {
		c.logger.Error("failed to encode outbound event", zap.String("event", name), zap.Error(err))
		return frames
	}
	return append(frames, Outbound{ConnID: connID, Event: ev})
}

func (c *Coordinator) appendBroadcast(frames []Outbound, name string, payload any) []Outbound {
	ev, err := event.New(name, payload)
	if err != nil {
		c.logger.Error("failed to encode outbound event", zap.String("event", name), zap.Error(err))
		return frames
	}
	return append(frames, Outbound{Broadcast: true, Event: ev})
}

// publishPresence mirrors the named users. Mirror failures are logged only.
func (c *Coordinator) publishPresence(ctx context.Context, userIDs ...string) {
	for _, userID := range userIDs {
		st, ok := c.registry.State(userID)
		var err error
		if ok {
			st.LastSeen = time.Now().UTC()
			err = c.mirror.Publish(ctx, st)
		} else {
			err = c.mirror.Remove(ctx, userID)
		}
		if err != nil {
			c.logger.Warn("presence mirror update failed",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
	}
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
