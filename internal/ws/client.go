package ws

import (
	"StoreChat/entity"
	"StoreChat/internal/lib/sl"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 64 * 1024
)

// Client is a single WebSocket connection. Fields other than conn, send, id
// and auth are guarded by the hub lock.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	id   string
	// auth holds verified token claims, nil for anonymous connections.
	auth *entity.UserAuth

	participant entity.Participant
	generation  uint64
	rooms       map[string]struct{}
	closed      bool
}

func newClient(hub *Hub, buffer int) *Client {
	return &Client{
		hub:   hub,
		send:  make(chan []byte, buffer),
		id:    uuid.NewString(),
		rooms: make(map[string]struct{}),
	}
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) Participant() entity.Participant {
	c.hub.mu.Lock()
	defer c.hub.mu.Unlock()

	return c.participant
}

// Emit queues a single event for this connection.
func (c *Client) Emit(event string, payload interface{}) error {
	data, err := encode(event, payload)
	if err != nil {
		return err
	}

	c.hub.mu.Lock()
	defer c.hub.mu.Unlock()

	if c.closed {
		return fmt.Errorf("emit %s: %w", event, entity.ErrTransport)
	}
	if !c.hub.enqueueLocked(c, data) {
		return fmt.Errorf("emit %s: queue full: %w", event, entity.ErrTransport)
	}
	return nil
}

// readPump pumps inbound frames into the hub until the connection fails.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("connection closed", slog.String("client", c.id), sl.Err(err))
			}
			break
		}
		c.hub.HandleClientMessage(c, raw)
	}
}

// writePump drains the send queue to the connection and keeps it alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Authenticator resolves a bearer token into a user.
type Authenticator interface {
	AuthenticateByToken(token string) (*entity.UserAuth, error)
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.allowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// ServeWs upgrades the request. The token query parameter is optional; when
// present it must be valid and its claims bind the connection identity.
func ServeWs(hub *Hub, auth Authenticator, log *slog.Logger, w http.ResponseWriter, r *http.Request) {
	var user *entity.UserAuth
	if token := r.URL.Query().Get("token"); token != "" && auth != nil {
		var err error
		user, err = auth.AuthenticateByToken(token)
		if err != nil {
			log.Debug("websocket token rejected", sl.Err(err))
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     hub.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("websocket upgrade failed", sl.Err(err))
		return
	}

	client := hub.newClient()
	client.conn = conn
	client.auth = user
	hub.attach(client)

	go client.writePump()
	go client.readPump()
}
