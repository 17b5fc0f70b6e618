package hub

import (
	"Workpulse/internal/coordinator"
	"Workpulse/internal/event"
	"Workpulse/internal/observability"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	defaultWorkers = 16 // tune: 8/16/64 depending on load
)

// Dispatcher handles one inbound event. *coordinator.Coordinator satisfies it.
type Dispatcher interface {
	Handle(ctx context.Context, in coordinator.Inbound) []coordinator.Outbound
}

type inboundMessage struct {
	connID string
	event  event.WsEvent
}

type Options struct {
	Workers        int
	AllowedOrigins []string
	Logger         *zap.Logger
	Metrics        *observability.Metrics
}

// Hub owns the websocket connections. Inbound events are sharded by
// connection id onto a fixed set of workers, so events from one connection
// are handled in the order they were read.
type Hub struct {
	clientsMu  sync.RWMutex
	clients    map[string]*Client
	unregister chan *Client
	shards     []chan inboundMessage
	dispatcher Dispatcher
	upgrader   websocket.Upgrader
	origins    map[string]struct{}
	logger     *zap.Logger
	metrics    *observability.Metrics
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	stopOnce   sync.Once
}

func NewHub(dispatcher Dispatcher, opts Options) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &Hub{
		clients:    make(map[string]*Client),
		unregister: make(chan *Client, 1024),
		shards:     make([]chan inboundMessage, workers),
		dispatcher: dispatcher,
		origins:    make(map[string]struct{}, len(opts.AllowedOrigins)),
		logger:     logger,
		metrics:    opts.Metrics,
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, origin := range opts.AllowedOrigins {
		h.origins[origin] = struct{}{}
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	// run manager loop
	go h.run()

	// start one worker per shard
	for i := range h.shards {
		h.shards[i] = make(chan inboundMessage, inboundBufSize)
		h.wg.Add(1)
		go h.worker(h.shards[i])
	}

	return h
}

func (h *Hub) worker(queue <-chan inboundMessage) {
	defer h.wg.Done()
	for {
		select {
		case <-h.ctx.Done():
			return
		case in := <-queue:
			h.dispatch(in)
		}
	}
}

func (h *Hub) dispatch(in inboundMessage) {
	ctx, cancel := context.WithTimeout(h.ctx, handleTimeout)
	defer cancel()

	h.dispatcher.Handle(ctx, coordinator.Inbound{
		ConnID:  in.connID,
		Event:   in.event.Event,
		Payload: in.event.Payload,
	})
}

func getShard(connID string, n int) int {
	if connID == "" || n <= 1 {
		return 0
	}

	sum := sha1.Sum([]byte(connID))
	return int(binary.BigEndian.Uint32(sum[:4]) % uint32(n))
}

// enqueue puts an event on the connection's shard, waiting at most timeout.
func (h *Hub) enqueue(ctx context.Context, connID string, ev event.WsEvent, timeout time.Duration) bool {
	queue := h.shards[getShard(connID, len(h.shards))]

	select {
	case queue <- inboundMessage{connID: connID, event: ev}:
		return true
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case queue <- inboundMessage{connID: connID, event: ev}:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	case <-h.ctx.Done():
		return false
	}
}

func (h *Hub) run() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case c := <-h.unregister:
			h.removeClient(c)
		}
	}
}

func (h *Hub) addClient(c *Client) bool {
	if h.ctx.Err() != nil {
		return false
	}

	h.clientsMu.Lock()
	h.clients[c.ID] = c
	total := len(h.clients)
	h.clientsMu.Unlock()

	h.metrics.SocketOpened()
	h.logger.Debug("client added", zap.String("conn_id", c.ID), zap.Int("total", total))
	return true
}

func (h *Hub) removeClient(c *Client) {
	h.clientsMu.Lock()
	_, exists := h.clients[c.ID]
	delete(h.clients, c.ID)
	h.clientsMu.Unlock()

	c.Close()
	if !exists {
		return
	}
	h.metrics.SocketClosed()

	// the coordinator sees the disconnect on the same shard as the
	// connection's earlier events
	go h.queueDisconnect(c.ID)
}

// queueDisconnect is a no-op once the hub is stopping, since the workers are
// gone and the state is being discarded.
func (h *Hub) queueDisconnect(connID string) {
	if h.ctx.Err() != nil {
		h.logger.Debug("hub stopping, disconnect not queued", zap.String("conn_id", connID))
		return
	}
	if h.enqueue(h.ctx, connID, event.WsEvent{Event: event.EventDisconnect}, unregisterTimeout) {
		return
	}
	if h.ctx.Err() != nil {
		h.logger.Debug("hub stopped while queueing disconnect", zap.String("conn_id", connID))
		return
	}
	h.logger.Error("failed to queue disconnect", zap.String("conn_id", connID))
}

// Deliver implements coordinator.Sink. It never blocks: a frame for a closed
// or backed-up connection is dropped and a backed-up connection is closed.
func (h *Hub) Deliver(out []coordinator.Outbound) {
	var everyone []*Client

	for _, o := range out {
		if o.Broadcast {
			if everyone == nil {
				everyone = h.snapshotClients()
			}
			for _, c := range everyone {
				h.send(c, o.Event)
			}
			continue
		}

		h.clientsMu.RLock()
		c, ok := h.clients[o.ConnID]
		h.clientsMu.RUnlock()
		if !ok {
			h.metrics.SendDropped()
			continue
		}
		h.send(c, o.Event)
	}
}

func (h *Hub) send(c *Client, ev event.WsEvent) {
	if c.TrySend(ev) {
		return
	}
	h.metrics.SendDropped()
	if !c.IsClosed() {
		h.logger.Warn("egress full, disconnecting client",
			zap.String("conn_id", c.ID),
			zap.String("event", ev.Event),
		)
		// the reader notices the closed socket and unregisters
		c.Close()
	}
}

func (h *Hub) snapshotClients() []*Client {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	return clients
}

// ClientCount returns the number of attached sockets.
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// QueueDepths returns the backlog of every inbound worker.
func (h *Hub) QueueDepths() []int {
	depths := make([]int, len(h.shards))
	for i, q := range h.shards {
		depths[i] = len(q)
	}
	return depths
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		h.cancel()

		for _, c := range h.snapshotClients() {
			c.Close()
		}

		h.wg.Wait()
		h.logger.Info("hub stopped")
	})
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// non-browser clients
		return true
	}
	if _, ok := h.origins["*"]; ok {
		return true
	}
	_, ok := h.origins[origin]
	return ok
}

func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Info("websocket upgrade failed", zap.Error(err))
		return
	}

	RegisterClient(conn, h)
}
