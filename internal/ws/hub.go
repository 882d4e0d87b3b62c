package ws

import (
	"StoreChat/entity"
	"StoreChat/internal/lib/sl"
	"StoreChat/internal/metrics"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultSendBuffer = 256
	relayTimeout      = 2 * time.Second
)

// Connection is the view of a client the chat core works with.
type Connection interface {
	ID() string
	Participant() entity.Participant
	Emit(event string, payload interface{}) error
}

// ClientMessageHandler handles chat messages sent by registered clients.
type ClientMessageHandler interface {
	HandleSendMessage(conn Connection, req entity.SendMessageRequest)
}

// PresenceStore mirrors the registry outside the process.
type PresenceStore interface {
	SetOnline(ctx context.Context, p entity.Participant) error
	Remove(ctx context.Context, identity string) error
}

// Backplane carries fan-out to other instances.
type Backplane interface {
	Publish(ctx context.Context, env Envelope) error
}

const (
	ScopeRoom = "room"
	ScopeUser = "user"
	ScopeAll  = "all"
)

// Envelope is a fan-out request exchanged between instances.
type Envelope struct {
	Scope  string              `json:"scope"`
	Target string              `json:"target,omitempty"`
	Event  string              `json:"event"`
	Data   jsoniter.RawMessage `json:"data"`
	Origin string              `json:"origin,omitempty"`
}

type frame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

func encode(event string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(frame{Event: event, Data: payload})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return data, nil
}

// Hub owns the connection registry and room membership. Every mutation and
// every enqueue happens under mu, so operations are applied one at a time.
type Hub struct {
	mu          sync.Mutex
	clients     map[*Client]struct{}
	identities  map[string]*Client
	generations map[string]uint64
	rooms       map[string]map[*Client]struct{}

	handler        ClientMessageHandler
	backplane      Backplane
	presence       PresenceStore
	allowedOrigins []string
	sendBuffer     int
	log            *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		clients:     make(map[*Client]struct{}),
		identities:  make(map[string]*Client),
		generations: make(map[string]uint64),
		rooms:       make(map[string]map[*Client]struct{}),
		sendBuffer:  defaultSendBuffer,
		log:         log.With(sl.Module("ws")),
	}
}

func (h *Hub) SetHandler(handler ClientMessageHandler) {
	h.handler = handler
}

func (h *Hub) SetBackplane(backplane Backplane) {
	h.backplane = backplane
}

func (h *Hub) SetPresence(presence PresenceStore) {
	h.presence = presence
}

func (h *Hub) SetAllowedOrigins(origins []string) {
	h.allowedOrigins = origins
}

func (h *Hub) SetSendBuffer(size int) {
	if size > 0 {
		h.sendBuffer = size
	}
}

func (h *Hub) newClient() *Client {
	return newClient(h, h.sendBuffer)
}

// attach adds an upgraded client to the hub.
func (h *Hub) attach(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	metrics.ConnectedClients.Inc()
}

// enqueueLocked queues a frame without blocking. A client whose queue is full
// is dropped.
func (h *Hub) enqueueLocked(c *Client, data []byte) bool {
	if c.closed {
		metrics.DeliveriesDropped.Inc()
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		metrics.DeliveriesDropped.Inc()
		h.log.Warn("dropping slow client",
			slog.String("client", c.id),
			slog.String("user", c.participant.Identity),
		)
		if offline, ok := h.removeLocked(c); ok {
			go h.presenceRemove(offline.Identity)
		}
		return false
	}
}

// removeLocked closes c and releases everything it holds. It reports the
// participant that went offline when c still owned its identity.
func (h *Hub) removeLocked(c *Client) (entity.Participant, bool) {
	if c.closed {
		return entity.Participant{}, false
	}
	c.closed = true
	close(c.send)
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		metrics.ConnectedClients.Dec()
	}
	for room := range c.rooms {
		h.leaveLocked(c, room)
	}

	p := c.participant
	if !p.Registered() || !h.releaseLocked(c) {
		return entity.Participant{}, false
	}
	if data, err := encode(entity.EventUserOffline, entity.PresenceEvent{UserID: p.Identity, UserName: p.DisplayName}); err == nil {
		h.broadcastLocked(data, nil)
	}
	return p, true
}

// releaseLocked removes the identity mapping if c still holds it.
func (h *Hub) releaseLocked(c *Client) bool {
	identity := c.participant.Identity
	current, ok := h.identities[identity]
	if !ok || current != c || h.generations[identity] != c.generation {
		return false
	}
	delete(h.identities, identity)
	return true
}

func (h *Hub) broadcastLocked(data []byte, exclude *Client) int {
	delivered := 0
	for c := range h.clients {
		if c == exclude {
			continue
		}
		if h.enqueueLocked(c, data) {
			delivered++
		}
	}
	return delivered
}

func (h *Hub) relay(env Envelope) {
	if h.backplane == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), relayTimeout)
	defer cancel()
	if err := h.backplane.Publish(ctx, env); err != nil {
		h.log.Warn("backplane publish",
			slog.String("scope", env.Scope),
			slog.String("event", env.Event),
			sl.Err(err),
		)
	}
}

func (h *Hub) relayPayload(scope, target, event string, payload interface{}) {
	if h.backplane == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("encode relay payload", slog.String("event", event), sl.Err(err))
		return
	}
	h.relay(Envelope{Scope: scope, Target: target, Event: event, Data: data})
}

// Deliver replays an envelope received from another instance to local
// clients only.
func (h *Hub) Deliver(env Envelope) {
	data, err := encode(env.Event, env.Data)
	if err != nil {
		h.log.Warn("decode relayed event", slog.String("event", env.Event), sl.Err(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	switch env.Scope {
	case ScopeRoom:
		h.publishLocked(env.Target, data, nil)
	case ScopeUser:
		if c, ok := h.identities[env.Target]; ok {
			h.enqueueLocked(c, data)
		}
	case ScopeAll:
		h.broadcastLocked(data, nil)
	default:
		h.log.Warn("unknown relay scope", slog.String("scope", env.Scope))
	}
}

// Online lists registered participants ordered by identity.
func (h *Hub) Online() []entity.Participant {
	h.mu.Lock()
	defer h.mu.Unlock()

	online := make([]entity.Participant, 0, len(h.identities))
	for _, c := range h.identities {
		online = append(online, c.participant)
	}
	sort.Slice(online, func(i, j int) bool {
		return online[i].Identity < online[j].Identity
	})
	return online
}

// Shutdown closes every connection.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		c.closed = true
		close(c.send)
		delete(h.clients, c)
		metrics.ConnectedClients.Dec()
	}
	h.identities = make(map[string]*Client)
	h.rooms = make(map[string]map[*Client]struct{})
}

func (h *Hub) presenceSet(p entity.Participant) {
	if h.presence == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), relayTimeout)
	defer cancel()
	if err := h.presence.SetOnline(ctx, p); err != nil {
		h.log.Warn("presence set online", slog.String("user", p.Identity), sl.Err(err))
	}
}

func (h *Hub) presenceRemove(identity string) {
	if h.presence == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), relayTimeout)
	defer cancel()
	if err := h.presence.Remove(ctx, identity); err != nil {
		h.log.Warn("presence remove", slog.String("user", identity), sl.Err(err))
	}
}
