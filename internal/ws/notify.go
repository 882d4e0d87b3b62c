package ws

import (
	"StoreChat/entity"
)

// NotifyUser sends a notification to the identity's latest connection. It
// reports whether a local connection took it; offline users are skipped.
func (h *Hub) NotifyUser(identity string, payload interface{}) bool {
	data, err := encode(entity.EventNotification, payload)
	if err != nil {
		h.logDropped(entity.EventNotification, err)
		return false
	}

	h.mu.Lock()
	c, ok := h.identities[identity]
	delivered := ok && h.enqueueLocked(c, data)
	h.mu.Unlock()

	if !ok {
		h.relayPayload(ScopeUser, identity, entity.EventNotification, payload)
	}
	return delivered
}

func (h *Hub) NotifyRoom(room, event string, payload interface{}) int {
	return h.Publish(room, event, payload, nil)
}

// BroadcastAll sends event to every connection, registered or not.
func (h *Hub) BroadcastAll(event string, payload interface{}) int {
	data, err := encode(event, payload)
	if err != nil {
		h.logDropped(event, err)
		return 0
	}

	h.mu.Lock()
	delivered := h.broadcastLocked(data, nil)
	h.mu.Unlock()

	h.relayPayload(ScopeAll, "", event, payload)
	return delivered
}
