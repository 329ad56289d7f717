package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/zeusync/pebble/internal/core/model"
	"github.com/zeusync/pebble/internal/core/observability/log"
)

const (
	writeWait        = 5 * time.Second
	defaultQueueSize = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// the overlay runs on the same machine
	CheckOrigin: func(*http.Request) bool { return true },
}

type frameMessage struct {
	Type     string               `json:"type"`
	Entities []model.RenderEntity `json:"entities"`
}

type visibilityMessage struct {
	Type    string `json:"type"`
	Visible bool   `json:"visible"`
}

// Hub forwards render payloads and visibility changes to overlay clients
// connected over WebSocket. It satisfies engine.Renderer and never blocks
// the caller on a slow client.
type Hub struct {
	logger    log.Log
	queueSize int

	mu             sync.Mutex
	clients        map[*client]struct{}
	lastFrame      []byte
	lastVisibility []byte
	closed         bool
}

func NewHub(logger log.Log, queueSize int) *Hub {
	if logger == nil {
		logger = log.NewNop()
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Hub{
		logger:    logger.With(log.String("component", "hub")),
		queueSize: queueSize,
		clients:   make(map[*client]struct{}),
	}
}

func (h *Hub) OnRenderPayload(entities []model.RenderEntity) {
	if entities == nil {
		entities = []model.RenderEntity{}
	}
	data, err := json.Marshal(frameMessage{Type: "frame", Entities: entities})
	if err != nil {
		h.logger.Error("encode frame", log.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastFrame = data
	for c := range h.clients {
		c.push(outbound{frame: true, data: data}, h.queueSize)
	}
}

func (h *Hub) SetVisible(visible bool) {
	data, err := json.Marshal(visibilityMessage{Type: "visibility", Visible: visible})
	if err != nil {
		h.logger.Error("encode visibility", log.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastVisibility = data
	for c := range h.clients {
		c.push(outbound{data: data}, h.queueSize)
	}
}

// Clients returns the number of connected overlays.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and streams to the client until it
// disconnects. The latest visibility and frame are replayed first.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", log.Error(err))
		return
	}

	c := newClient(conn)
	if !h.register(c) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
		c.close()
		return
	}
	h.logger.Info("overlay connected", log.String("remote", conn.RemoteAddr().String()))

	go c.writePump(h.logger)
	c.readPump()

	h.unregister(c)
	h.logger.Info("overlay disconnected", log.String("remote", conn.RemoteAddr().String()))
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	if h.lastVisibility != nil {
		c.push(outbound{data: h.lastVisibility}, h.queueSize)
	}
	if h.lastFrame != nil {
		c.push(outbound{frame: true, data: h.lastFrame}, h.queueSize)
	}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() error {
	h.mu.Lock()
	h.closed = true
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for c := range clients {
		c.close()
	}
	return nil
}

type outbound struct {
	frame bool
	data  []byte
}

// client is one overlay connection. Consecutive frames coalesce in its
// queue so a slow reader only ever falls behind by one frame.
type client struct {
	conn *websocket.Conn

	mu    sync.Mutex
	queue []outbound

	wake chan struct{}
	done chan struct{}
	once sync.Once
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		conn: conn,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

func (c *client) push(m outbound, limit int) {
	c.mu.Lock()
	if n := len(c.queue); m.frame && n > 0 && c.queue[n-1].frame {
		c.queue[n-1] = m
	} else {
		c.queue = append(c.queue, m)
	}
	if len(c.queue) > limit {
		c.queue = compact(c.queue)
	}
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *client) drain() []outbound {
	c.mu.Lock()
	defer c.mu.Unlock()
	batch := c.queue
	c.queue = nil
	return batch
}

// compact keeps only the newest visibility change and the newest frame,
// in their original order.
func compact(queue []outbound) []outbound {
	lastVis, lastFrame := -1, -1
	for i, m := range queue {
		if m.frame {
			lastFrame = i
		} else {
			lastVis = i
		}
	}

	out := make([]outbound, 0, 2)
	for i, m := range queue {
		if i == lastVis || i == lastFrame {
			out = append(out, m)
		}
	}
	return out
}

func (c *client) writePump(logger log.Log) {
	for {
		select {
		case <-c.done:
			return
		case <-c.wake:
		}

		for _, m := range c.drain() {
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, m.data); err != nil {
				logger.Debug("overlay write failed", log.Error(err))
				c.close()
				return
			}
		}
	}
}

// readPump discards client messages; it only exists to process control
// frames and notice disconnects.
func (c *client) readPump() {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}
