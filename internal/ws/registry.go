package ws

import (
	"StoreChat/entity"
	"StoreChat/internal/lib/sl"
	"fmt"
	"log/slog"
)

// Register binds identity to c. The latest registration for an identity wins;
// older connections stay open but no longer receive direct notifications.
func (h *Hub) Register(c *Client, identity, displayName, role string) error {
	p := entity.Participant{
		Identity:    identity,
		DisplayName: displayName,
		Role:        role,
	}
	online, err := encode(entity.EventUserOnline, entity.PresenceEvent{UserID: identity, UserName: displayName})
	if err != nil {
		return err
	}

	h.mu.Lock()
	if c.closed {
		h.mu.Unlock()
		return fmt.Errorf("register %s: %w", identity, entity.ErrTransport)
	}

	previous := c.participant
	released := false
	if previous.Registered() {
		h.leaveLocked(c, entity.PersonalRoom(previous.Identity))
		h.leaveLocked(c, entity.AdminRoom)
		if previous.Identity != identity && h.releaseLocked(c) {
			released = true
			offline, err := encode(entity.EventUserOffline, entity.PresenceEvent{UserID: previous.Identity, UserName: previous.DisplayName})
			if err == nil {
				h.broadcastLocked(offline, c)
			}
		}
	}

	h.generations[identity]++
	c.generation = h.generations[identity]
	c.participant = p
	h.identities[identity] = c

	h.joinLocked(c, entity.PersonalRoom(identity))
	if p.IsAdmin() {
		h.joinLocked(c, entity.AdminRoom)
	}
	h.broadcastLocked(online, c)
	h.mu.Unlock()

	if released {
		h.relayPayload(ScopeAll, "", entity.EventUserOffline, entity.PresenceEvent{UserID: previous.Identity, UserName: previous.DisplayName})
		h.presenceRemove(previous.Identity)
	}
	h.log.Debug("user registered",
		slog.String("user", identity),
		slog.String("role", role),
		slog.String("client", c.id),
	)
	h.relayPayload(ScopeAll, "", entity.EventUserOnline, entity.PresenceEvent{UserID: identity, UserName: displayName})
	h.presenceSet(p)
	return nil
}

// Unregister closes c. The identity goes offline only when c is its latest
// registration.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	offline, ok := h.removeLocked(c)
	h.mu.Unlock()

	if !ok {
		return
	}
	h.log.Debug("user offline", slog.String("user", offline.Identity), slog.String("client", c.id))
	h.relayPayload(ScopeAll, "", entity.EventUserOffline, entity.PresenceEvent{UserID: offline.Identity, UserName: offline.DisplayName})
	h.presenceRemove(offline.Identity)
}

// Lookup returns the latest connection registered for identity.
func (h *Hub) Lookup(identity string) (*Client, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.identities[identity]
	return c, ok
}

// Heartbeat refreshes every local participant in the presence store.
func (h *Hub) Heartbeat() {
	if h.presence == nil {
		return
	}
	online := h.Online()
	for _, p := range online {
		h.presenceSet(p)
	}
	h.log.Debug("presence heartbeat", slog.Int("online", len(online)))
}

func (h *Hub) logDropped(event string, err error) {
	h.log.Warn("event not delivered", slog.String("event", event), sl.Err(err))
}
