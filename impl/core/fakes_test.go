package core

import (
	"StoreChat/entity"
	"StoreChat/internal/ws"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"
)

type fakeRepo struct {
	mu       sync.Mutex
	saved    []entity.Message
	saveErr  error
	readErr  error
	readMark []string
}

func (r *fakeRepo) SaveMessage(_ context.Context, msg entity.Message) (entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return entity.Message{}, r.saveErr
	}
	r.saved = append(r.saved, msg)
	return msg, nil
}

func (r *fakeRepo) all() []entity.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entity.Message(nil), r.saved...)
}

func (r *fakeRepo) byPrefix(prefix string) []entity.Message {
	var found []entity.Message
	for _, m := range r.all() {
		if len(m.MessageID) >= len(prefix) && m.MessageID[:len(prefix)] == prefix {
			found = append(found, m)
		}
	}
	return found
}

func (r *fakeRepo) GetRoomMessages(_ context.Context, room string, page entity.Pagination) ([]entity.Message, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var inRoom []entity.Message
	for _, m := range r.saved {
		if m.Room == room {
			inRoom = append(inRoom, m)
		}
	}
	sort.SliceStable(inRoom, func(i, j int) bool {
		return inRoom[i].CreatedAt.After(inRoom[j].CreatedAt)
	})
	total := int64(len(inRoom))
	start := int(page.Skip())
	if start > len(inRoom) {
		start = len(inRoom)
	}
	end := start + page.Limit
	if end > len(inRoom) {
		end = len(inRoom)
	}
	return append([]entity.Message(nil), inRoom[start:end]...), total, nil
}

func (r *fakeRepo) MarkRoomRead(_ context.Context, room, userID string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readErr != nil {
		return 0, r.readErr
	}
	r.readMark = append(r.readMark, room+":"+userID)
	var n int64
	for i := range r.saved {
		if r.saved[i].Room == room && r.saved[i].MarkRead(userID, at) {
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) findLocked(ticketID string) int {
	for i, m := range r.saved {
		if m.MessageID == ticketID && m.IsSupportTicket {
			return i
		}
	}
	return -1
}

func (r *fakeRepo) FindTicket(_ context.Context, ticketID string) (*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.findLocked(ticketID)
	if i < 0 {
		return nil, fmt.Errorf("ticket %s: %w", ticketID, entity.ErrNotFound)
	}
	ticket := r.saved[i]
	return &ticket, nil
}

func (r *fakeRepo) UpdateTicketStatus(_ context.Context, ticketID string, status entity.TicketStatus, at time.Time) (*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.findLocked(ticketID)
	if i < 0 {
		return nil, fmt.Errorf("ticket %s: %w", ticketID, entity.ErrNotFound)
	}
	r.saved[i].TicketStatus = status
	r.saved[i].UpdatedAt = at
	ticket := r.saved[i]
	return &ticket, nil
}

func (r *fakeRepo) ListTickets(_ context.Context, filter entity.TicketFilter, page entity.Pagination) ([]entity.Message, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var tickets []entity.Message
	for _, m := range r.saved {
		if !m.IsSupportTicket {
			continue
		}
		if filter.SenderID != "" && m.SenderID != filter.SenderID {
			continue
		}
		if filter.Status != "" && m.TicketStatus != filter.Status {
			continue
		}
		tickets = append(tickets, m)
	}
	return tickets, int64(len(tickets)), nil
}

type published struct {
	Room    string
	Event   string
	Payload interface{}
	Exclude ws.Connection
}

type fakeHub struct {
	mu        sync.Mutex
	published []published
	notified  map[string][]interface{}
	online    []entity.Participant
	beats     int
}

func newFakeHub() *fakeHub {
	return &fakeHub{notified: make(map[string][]interface{})}
}

func (h *fakeHub) Publish(room, event string, payload interface{}, exclude ws.Connection) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.published = append(h.published, published{Room: room, Event: event, Payload: payload, Exclude: exclude})
	return 1
}

func (h *fakeHub) NotifyUser(identity string, payload interface{}) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notified[identity] = append(h.notified[identity], payload)
	return true
}

func (h *fakeHub) NotifyRoom(room, event string, payload interface{}) int {
	return h.Publish(room, event, payload, nil)
}

func (h *fakeHub) Online() []entity.Participant {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.online
}

func (h *fakeHub) Heartbeat() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.beats++
}

func (h *fakeHub) publishedTo(room string) []published {
	h.mu.Lock()
	defer h.mu.Unlock()
	var found []published
	for _, p := range h.published {
		if p.Room == room {
			found = append(found, p)
		}
	}
	return found
}

func (h *fakeHub) notificationsFor(identity string) []interface{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]interface{}(nil), h.notified[identity]...)
}

type emitted struct {
	Event   string
	Payload interface{}
}

type fakeConn struct {
	mu          sync.Mutex
	id          string
	participant entity.Participant
	closed      bool
	frames      []emitted
}

func newFakeConn(identity, role string) *fakeConn {
	return &fakeConn{
		id:          "conn-" + identity,
		participant: entity.Participant{Identity: identity, DisplayName: "Name " + identity, Role: role},
	}
}

func (c *fakeConn) ID() string {
	return c.id
}

func (c *fakeConn) Participant() entity.Participant {
	return c.participant
}

func (c *fakeConn) Emit(event string, payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("emit %s: %w", event, entity.ErrTransport)
	}
	c.frames = append(c.frames, emitted{Event: event, Payload: payload})
	return nil
}

func (c *fakeConn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) events(name string) []emitted {
	c.mu.Lock()
	defer c.mu.Unlock()
	var found []emitted
	for _, f := range c.frames {
		if f.Event == name {
			found = append(found, f)
		}
	}
	return found
}

type fixedResponder string

func (r fixedResponder) Classify(string) string {
	return string(r)
}

func newTestCore() (*Core, *fakeRepo, *fakeHub) {
	repo := &fakeRepo{}
	hub := newFakeHub()
	c := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.SetRepository(repo)
	c.SetHub(hub)
	c.SetResponder(fixedResponder("We will get back to you"))
	c.SetAutoReplyDelay(10 * time.Millisecond)
	return c, repo, hub
}
