package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	pingInterval = 20 * time.Second
	readTimeout  = 60 * time.Second
	writeTimeout = 3 * time.Second
)

// Hub fans state messages out to companion displays and hands their
// commands to a callback. Register, unregister and broadcast all go through
// the Run loop.
type Hub struct {
	clients    map[*websocket.Conn]struct{}
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan []byte
	upgrader   websocket.Upgrader
	onCommand  func(Command)
	logger     zerolog.Logger

	// last is replayed to every new client so it can draw immediately.
	last []byte
}

// NewHub creates a hub. onCommand runs on the connection's read goroutine.
func NewHub(onCommand func(Command), logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]struct{}),
		register:   make(chan *websocket.Conn, 16),
		unregister: make(chan *websocket.Conn, 16),
		broadcast:  make(chan []byte, 256),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     localOrigin,
		},
		onCommand: onCommand,
		logger:    logger,
	}
}

// localOrigin accepts non-browser clients and pages served from loopback.
func localOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}
	switch parsed.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

// Run serves the hub until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				_ = c.Close()
			}
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			if h.last != nil {
				h.write(c, websocket.TextMessage, h.last)
			}

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				_ = c.Close()
			}

		case msg := <-h.broadcast:
			h.last = msg
			for c := range h.clients {
				h.write(c, websocket.TextMessage, msg)
			}

		case <-ping.C:
			for c := range h.clients {
				h.write(c, websocket.PingMessage, nil)
			}
		}
	}
}

func (h *Hub) write(c *websocket.Conn, messageType int, payload []byte) {
	_ = c.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.WriteMessage(messageType, payload); err != nil {
		delete(h.clients, c)
		_ = c.Close()
	}
}

// Handler upgrades requests to WebSocket connections.
func (h *Hub) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		h.register <- conn

		go func() {
			defer func() { h.unregister <- conn }()
			_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
			conn.SetPongHandler(func(string) error {
				return conn.SetReadDeadline(time.Now().Add(readTimeout))
			})

			for {
				_, data, err := conn.ReadMessage()
				if err != nil {
					return
				}
				var command Command
				if err := json.Unmarshal(data, &command); err != nil {
					h.logger.Debug().Err(err).Msg("malformed remote command")
					continue
				}
				if h.onCommand != nil {
					h.onCommand(command)
				}
			}
		}()
	})
}

// BroadcastJSON queues v for every client. A full queue drops the message.
func (h *Hub) BroadcastJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case h.broadcast <- b:
	default:
	}
}
