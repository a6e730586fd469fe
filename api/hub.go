package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/matt-g-everett/seqtx/stream"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
	commandTimeout = 5 * time.Second
	broadcastQueue = 8
	sendQueue      = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// wsConn is the part of *websocket.Conn a client writes through.
type wsConn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// client owns one viewer connection. Only writePump writes to conn.
type client struct {
	conn wsConn
	send chan []byte
	quit chan struct{}
	once sync.Once
}

func newClient(conn wsConn) *client {
	return &client{
		conn: conn,
		send: make(chan []byte, sendQueue),
		quit: make(chan struct{}),
	}
}

// queue hands data to the writer without blocking. It reports false when the
// viewer has fallen sendQueue messages behind or is already closed.
func (c *client) queue(data []byte) bool {
	select {
	case <-c.quit:
		return false
	default:
	}

	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.quit)
		c.conn.Close()
	})
}

func (c *client) writePump() {
	defer c.close()
	for {
		select {
		case <-c.quit:
			return
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("Error writing to viewer: %v", err)
				return
			}
		}
	}
}

// Hub fans frames out to websocket viewers and feeds their commands to the
// controller. It is a stream.Sink.
type Hub struct {
	controller *stream.Controller

	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	done       chan struct{}

	mu    sync.Mutex
	count int
	last  []byte
}

// NewHub creates a hub sending commands to controller.
func NewHub(controller *stream.Controller) *Hub {
	return &Hub{
		controller: controller,
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, broadcastQueue),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
	}
}

// Clients returns the number of connected viewers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

// SendFrame queues a frame for every connected viewer.
func (h *Hub) SendFrame(f *stream.Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}

	select {
	case h.broadcast <- data:
	default:
		log.Printf("Hub busy, dropping frame at %dms", f.RuntimeMs)
	}
	return nil
}

// Run delivers frames until ctx is cancelled, then disconnects every viewer.
// A viewer that cannot keep up is dropped rather than stalling the others.
func (h *Hub) Run(ctx context.Context) error {
	defer func() {
		close(h.done)
		for c := range h.clients {
			c.close()
			delete(h.clients, c)
		}
		h.setCount(0)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case c := <-h.register:
			h.clients[c] = true
			go c.writePump()
			h.mu.Lock()
			last := h.last
			h.mu.Unlock()
			if last != nil {
				c.queue(last)
			}
			h.setCount(len(h.clients))

		case c := <-h.unregister:
			if h.clients[c] {
				delete(h.clients, c)
				c.close()
			}
			h.setCount(len(h.clients))

		case data := <-h.broadcast:
			h.mu.Lock()
			h.last = data
			h.mu.Unlock()
			for c := range h.clients {
				if !c.queue(data) {
					log.Println("Viewer too slow, disconnecting")
					delete(h.clients, c)
					c.close()
				}
			}
			h.setCount(len(h.clients))
		}
	}
}

func (h *Hub) setCount(n int) {
	h.mu.Lock()
	h.count = n
	h.mu.Unlock()
}

// ServeWS upgrades the request and reads commands from the viewer until it
// disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade error:", err)
		return
	}

	c := newClient(conn)
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	case <-r.Context().Done():
		conn.Close()
		return
	}

	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.close()
	}()

	conn.SetReadLimit(maxMessageSize)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if err := h.apply(r.Context(), data); err != nil {
			log.Printf("Viewer command failed: %v", err)
			if reply, err := json.Marshal(errorMessage{Type: "error", Error: err.Error()}); err == nil {
				c.queue(reply)
			}
		}
	}
}

func (h *Hub) apply(ctx context.Context, data []byte) error {
	cmd, err := stream.ParseCommand(data)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	return h.controller.Apply(ctx, cmd)
}
