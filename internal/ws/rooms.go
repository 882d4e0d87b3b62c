package ws

import (
	"StoreChat/entity"
	"fmt"
)

func (h *Hub) joinLocked(c *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

func (h *Hub) leaveLocked(c *Client, room string) {
	delete(c.rooms, room)
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
	}
}

func (h *Hub) publishLocked(room string, data []byte, exclude *Client) int {
	delivered := 0
	for c := range h.rooms[room] {
		if c == exclude {
			continue
		}
		if h.enqueueLocked(c, data) {
			delivered++
		}
	}
	return delivered
}

// Join adds a registered c to room. The joiner gets an ack and the other
// members are told about the newcomer.
func (h *Hub) Join(c *Client, room, productID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c.closed {
		return fmt.Errorf("join %s: %w", room, entity.ErrTransport)
	}
	if !c.participant.Registered() {
		return errNotRegistered
	}
	h.joinLocked(c, room)

	acks := []struct {
		event   string
		payload interface{}
	}{
		{entity.EventRoomJoined, entity.RoomJoinedEvent{Room: room, Success: true}},
		{entity.EventJoinedRoomInfo, entity.JoinedRoomInfo{Room: room, ProductID: productID}},
	}
	for _, ack := range acks {
		data, err := encode(ack.event, ack.payload)
		if err != nil {
			return err
		}
		h.enqueueLocked(c, data)
	}

	joined, err := encode(entity.EventUserJoinedRoom, entity.UserJoinedRoomEvent{
		UserID:   c.participant.Identity,
		UserName: c.participant.DisplayName,
		Room:     room,
	})
	if err != nil {
		return err
	}
	h.publishLocked(room, joined, c)
	return nil
}

func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leaveLocked(c, room)
}

// Members reports how many local connections are in room.
func (h *Hub) Members(room string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.rooms[room])
}

// Publish sends event to every member of room except exclude, then relays it
// to other instances.
func (h *Hub) Publish(room, event string, payload interface{}, exclude Connection) int {
	data, err := encode(event, payload)
	if err != nil {
		h.logDropped(event, err)
		return 0
	}
	excluded, _ := exclude.(*Client)

	h.mu.Lock()
	delivered := h.publishLocked(room, data, excluded)
	h.mu.Unlock()

	h.relayPayload(ScopeRoom, room, event, payload)
	return delivered
}

// RelayTyping tells the rest of room that c started or stopped typing.
func (h *Hub) RelayTyping(c *Client, room string, typing bool) error {
	p := c.Participant()
	if !p.Registered() {
		return errNotRegistered
	}
	h.Publish(room, entity.EventUserTyping, entity.TypingEvent{
		UserID:   p.Identity,
		UserName: p.DisplayName,
		Typing:   typing,
	}, c)
	return nil
}
