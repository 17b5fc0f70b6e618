package hub

import (
	"Workpulse/internal/event"
	"Workpulse/internal/observability"
	"context"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Client struct {
	ID     string
	conn   *websocket.Conn
	hub    *Hub
	egress chan event.WsEvent
	logger *zap.Logger

	// cancel or stop goroutine
	cancel         context.CancelFunc
	ctx            context.Context
	once           sync.Once
	connClosed     chan struct{}
	connClosedOnce sync.Once
	closed         bool         // tracks if client is closed
	closedMu       sync.RWMutex // protects closed flag and egress close
}

var (
	// tuning parameters
	writeWait          = 10 * time.Second       // time allowed to write a message to the peer
	pongWait           = 60 * time.Second       // time allowed to read the next pong message from the peer
	pingInterval       = (pongWait * 9) / 10    // send pings to peer with this period
	maxMessageSize     = 64 * 1024              // max inbound message size (64KB)
	sendBufSize        = 256                    // per-connection outbound buffer size
	inboundBufSize     = 1024                   // per-worker inbound queue
	unregisterTimeout  = 5 * time.Second        // timeout for client unregistration
	inboundSendTimeout = 500 * time.Millisecond // timeout for sending to inbound queue
	handleTimeout      = 15 * time.Second       // upper bound for one coordinator call
)

// RegisterClient wraps conn in a client with a fresh connection id and starts
// its pumps. The client is attached before its first read, so frames for it
// are never lost. It returns nil once the hub is stopped.
func RegisterClient(conn *websocket.Conn, h *Hub) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	clientID := uuid.New().String()

	client := &Client{
		ID:         clientID,
		conn:       conn,
		hub:        h,
		egress:     make(chan event.WsEvent, sendBufSize),
		logger:     h.logger.With(zap.String("conn_id", clientID)),
		cancel:     cancel,
		ctx:        ctx,
		connClosed: make(chan struct{}),
	}

	if !h.addClient(client) {
		client.logger.Warn("hub stopped, rejecting client")
		cancel()
		conn.Close()
		return nil
	}

	go client.ReadMessages()
	go client.WriteMessage()
	return client
}

// ReadMessages is the only producer of this client's inbound events, and it
// unregisters last, so the synthetic disconnect always follows them.
func (c *Client) ReadMessages() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-time.After(unregisterTimeout):
			c.logger.Warn("failed to unregister client: timeout")
		}
		c.Close()
	}()

	c.conn.SetReadLimit(int64(maxMessageSize))
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(c.pongHandler)

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var ev event.WsEvent
		if err := c.conn.ReadJSON(&ev); err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
			) {
				c.logger.Debug("client disconnected")
				return
			}

			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				c.logger.Info("client timed out - closing connection")
				return
			}

			c.logger.Info("error reading from client", zap.Error(err))
			return
		}

		if !event.IsClientEvent(ev.Event) {
			c.hub.metrics.EventHandled(ev.Event, observability.OutcomeUnknownEvent)
			c.logger.Debug("dropping unknown event", zap.String("event", ev.Event))
			continue
		}

		if !c.hub.enqueue(c.ctx, c.ID, ev, inboundSendTimeout) {
			c.logger.Warn("inbound queue full, dropping client")
			return
		}
	}
}

func (c *Client) WriteMessage() {
	ticker := time.NewTicker(pingInterval)

	defer func() {
		ticker.Stop()
		c.Close()
		_ = c.conn.Close()

		c.connClosedOnce.Do(func() {
			close(c.connClosed)
		})
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		case ev, ok := <-c.egress:
			if !ok {
				if err := c.conn.WriteMessage(websocket.CloseMessage, nil); err != nil {
					c.logger.Debug("connection closed", zap.Error(err))
				}
				return
			}

			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				c.logger.Info("write error", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.logger.Debug("ping failed", zap.Error(err))
				return
			}
		}
	}
}

func (c *Client) pongHandler(string) error {
	return c.conn.SetReadDeadline(time.Now().Add(pongWait))
}

func (c *Client) Close() {
	c.once.Do(func() {
		c.closedMu.Lock()
		c.closed = true
		c.cancel()
		close(c.egress)
		c.closedMu.Unlock()

		// Wait for WriteMessage to close conn, or force close after timeout
		go func() {
			select {
			case <-c.connClosed:
			case <-time.After(5 * time.Second):
				_ = c.conn.Close()
				c.logger.Warn("safety timeout: force closed connection")
			}
		}()
	})
}

// IsClosed returns true if the client has been closed
func (c *Client) IsClosed() bool {
	c.closedMu.RLock()
	defer c.closedMu.RUnlock()
	return c.closed
}

// TrySend queues ev without blocking. It returns false if the client is
// closed or its buffer is full.
func (c *Client) TrySend(ev event.WsEvent) bool {
	c.closedMu.RLock()
	defer c.closedMu.RUnlock()

	if c.closed {
		return false
	}

	select {
	case c.egress <- ev:
		return true
	default:
		return false
	}
}
