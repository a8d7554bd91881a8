package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

// Message is the JSON envelope for everything sent over the socket.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Command is a control message from a client.
type Command struct {
	Type  string  `json:"type"` // pause, resume, speed, rewind
	Value float64 `json:"value,omitempty"`
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub tracks connected clients and fans broadcast frames out to them. A
// client whose buffer is full is dropped rather than allowed to stall the
// rest.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	commands   chan Command
	done       chan struct{}

	logger    *slog.Logger
	onClients func(n int)
	upgrader  websocket.Upgrader
}

func NewHub(logger *slog.Logger, onClients func(n int)) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	if onClients == nil {
		onClients = func(int) {}
	}
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *client),
		unregister: make(chan *client),
		commands:   make(chan Command, 16),
		done:       make(chan struct{}),
		logger:     logger,
		onClients:  onClients,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Commands delivers client control messages.
func (h *Hub) Commands() <-chan Command { return h.commands }

// Submit queues a command as if a client had sent it. It reports false
// when the queue is full.
func (h *Hub) Submit(cmd Command) bool {
	select {
	case h.commands <- cmd:
		return true
	default:
		return false
	}
}

// Broadcast queues a message for every client. It never blocks: when the
// queue is full the message is dropped.
func (h *Hub) Broadcast(m Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- data:
	default:
		h.logger.Debug("broadcast queue full, dropping frame", "type", m.Type)
	}
	return nil
}

// Run is the hub event loop. It returns when ctx is done, closing every
// client.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for c := range h.clients {
			close(c.send)
			delete(h.clients, c)
		}
		h.onClients(0)
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.clients[c] = true
			h.onClients(len(h.clients))
			h.logger.Info("stream client connected", "remote", c.conn.RemoteAddr().String(), "clients", len(h.clients))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.onClients(len(h.clients))
				h.logger.Info("stream client disconnected", "clients", len(h.clients))
			}

		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					close(c.send)
					delete(h.clients, c)
					h.onClients(len(h.clients))
					h.logger.Warn("stream client too slow, dropped")
				}
			}
		}
	}
}

// ServeWS upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var cmd Command
		if err := c.conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("stream read failed", "err", err)
			}
			return
		}
		select {
		case c.hub.commands <- cmd:
		default:
			c.hub.logger.Warn("command queue full, dropping", "type", cmd.Type)
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
