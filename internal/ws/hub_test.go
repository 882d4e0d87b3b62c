package ws

import (
	"StoreChat/entity"
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type received struct {
	Event string              `json:"event"`
	Data  jsoniter.RawMessage `json:"data"`
}

func newTestHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func connect(h *Hub) *Client {
	c := h.newClient()
	h.attach(c)
	return c
}

func next(t *testing.T, c *Client) received {
	t.Helper()
	select {
	case data, ok := <-c.send:
		require.True(t, ok, "send queue closed")
		var r received
		require.NoError(t, json.Unmarshal(data, &r))
		return r
	case <-time.After(time.Second):
		t.Fatal("no frame received")
	}
	return received{}
}

func assertEmpty(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("unexpected frame: %s", data)
	default:
	}
}

func decode(t *testing.T, r received, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Data, v))
}

type fakeBackplane struct {
	mu        sync.Mutex
	envelopes []Envelope
}

func (f *fakeBackplane) Publish(_ context.Context, env Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.envelopes = append(f.envelopes, env)
	return nil
}

func (f *fakeBackplane) all() []Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Envelope(nil), f.envelopes...)
}

type fakePresence struct {
	mu     sync.Mutex
	online map[string]entity.Participant
}

func (f *fakePresence) SetOnline(_ context.Context, p entity.Participant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.online[p.Identity] = p
	return nil
}

func (f *fakePresence) Remove(_ context.Context, identity string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.online, identity)
	return nil
}

func (f *fakePresence) has(identity string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.online[identity]
	return ok
}

func TestRegisterBroadcastsOnlineToOthers(t *testing.T) {
	h := newTestHub()
	alice := connect(h)
	bob := connect(h)

	require.NoError(t, h.Register(alice, "alice", "Alice", entity.CustomerRole))
	online := next(t, bob)
	assert.Equal(t, entity.EventUserOnline, online.Event)

	var p entity.PresenceEvent
	decode(t, online, &p)
	assert.Equal(t, entity.PresenceEvent{UserID: "alice", UserName: "Alice"}, p)
	assertEmpty(t, alice)

	found, ok := h.Lookup("alice")
	require.True(t, ok)
	assert.Same(t, alice, found)
	assert.Equal(t, 1, h.Members(entity.PersonalRoom("alice")))
	assert.Equal(t, 0, h.Members(entity.AdminRoom))
}

func TestAdminJoinsAdminRoom(t *testing.T) {
	h := newTestHub()
	admin := connect(h)

	require.NoError(t, h.Register(admin, "root", "Root", entity.AdminRole))
	assert.Equal(t, 1, h.Members(entity.AdminRoom))

	h.NotifyRoom(entity.AdminRoom, entity.EventNewSupportTicket, map[string]string{"id": "t1"})
	assert.Equal(t, entity.EventNewSupportTicket, next(t, admin).Event)
}

func TestLastRegistrationWins(t *testing.T) {
	h := newTestHub()
	first := connect(h)
	second := connect(h)

	require.NoError(t, h.Register(first, "u1", "U", entity.CustomerRole))
	next(t, second)
	require.NoError(t, h.Register(second, "u1", "U", entity.CustomerRole))
	next(t, first) // user_online for the second registration

	// the stale connection going away must not take the identity offline
	h.Unregister(first)
	found, ok := h.Lookup("u1")
	require.True(t, ok)
	assert.Same(t, second, found)
	assertEmpty(t, second)

	assert.True(t, h.NotifyUser("u1", entity.Notification{Type: "x", Message: "hi"}))
	assert.Equal(t, entity.EventNotification, next(t, second).Event)
}

func TestRegisterUnderNewIdentityTakesOldOffline(t *testing.T) {
	h := newTestHub()
	presence := &fakePresence{online: map[string]entity.Participant{}}
	h.SetPresence(presence)
	backplane := &fakeBackplane{}
	h.SetBackplane(backplane)

	c := connect(h)
	observer := connect(h)
	require.NoError(t, h.Register(c, "alice", "Alice", entity.CustomerRole))
	next(t, observer)

	require.NoError(t, h.Register(c, "carol", "Carol", entity.CustomerRole))
	offline := next(t, observer)
	assert.Equal(t, entity.EventUserOffline, offline.Event)
	var p entity.PresenceEvent
	decode(t, offline, &p)
	assert.Equal(t, entity.PresenceEvent{UserID: "alice", UserName: "Alice"}, p)
	assert.Equal(t, entity.EventUserOnline, next(t, observer).Event)
	assertEmpty(t, c)

	_, ok := h.Lookup("alice")
	assert.False(t, ok)
	assert.False(t, presence.has("alice"))
	assert.True(t, presence.has("carol"))
	assert.Equal(t, 0, h.Members(entity.PersonalRoom("alice")))
	assert.Equal(t, 1, h.Members(entity.PersonalRoom("carol")))

	var relayed []string
	for _, env := range backplane.all() {
		relayed = append(relayed, env.Event)
	}
	assert.Equal(t, []string{entity.EventUserOnline, entity.EventUserOffline, entity.EventUserOnline}, relayed)
}

func TestUnregisteredClientCannotJoinOrType(t *testing.T) {
	h := newTestHub()
	anon := connect(h)
	member := connect(h)
	require.NoError(t, h.Register(member, "bob", "Bob", entity.CustomerRole))
	next(t, anon)
	require.NoError(t, h.Join(member, "r", ""))
	next(t, member)
	next(t, member)

	assert.ErrorIs(t, h.Join(anon, "r", ""), errNotRegistered)
	assert.ErrorIs(t, h.RelayTyping(anon, "r", true), errNotRegistered)
	assert.Equal(t, 1, h.Members("r"))
	assertEmpty(t, member)
	assertEmpty(t, anon)
}

func TestUnregisterBroadcastsOffline(t *testing.T) {
	h := newTestHub()
	presence := &fakePresence{online: map[string]entity.Participant{}}
	h.SetPresence(presence)

	alice := connect(h)
	bob := connect(h)
	require.NoError(t, h.Register(alice, "alice", "Alice", entity.CustomerRole))
	next(t, bob)
	assert.True(t, presence.has("alice"))

	h.Unregister(alice)
	offline := next(t, bob)
	assert.Equal(t, entity.EventUserOffline, offline.Event)

	_, ok := h.Lookup("alice")
	assert.False(t, ok)
	assert.False(t, presence.has("alice"))
	assert.Error(t, alice.Emit(entity.EventError, entity.ErrorEvent{}))
	assert.Empty(t, h.Online())
}

func TestJoinAcksAndAnnounces(t *testing.T) {
	h := newTestHub()
	alice := connect(h)
	bob := connect(h)
	require.NoError(t, h.Register(alice, "alice", "Alice", entity.CustomerRole))
	require.NoError(t, h.Register(bob, "bob", "Bob", entity.CustomerRole))
	next(t, bob)
	next(t, alice)

	require.NoError(t, h.Join(alice, "room-1", ""))
	assert.Equal(t, entity.EventRoomJoined, next(t, alice).Event)
	assert.Equal(t, entity.EventJoinedRoomInfo, next(t, alice).Event)
	assertEmpty(t, bob)

	require.NoError(t, h.Join(bob, "room-1", "p1"))
	ack := next(t, bob)
	var joined entity.RoomJoinedEvent
	decode(t, ack, &joined)
	assert.Equal(t, entity.RoomJoinedEvent{Room: "room-1", Success: true}, joined)

	var info entity.JoinedRoomInfo
	decode(t, next(t, bob), &info)
	assert.Equal(t, "p1", info.ProductID)

	announce := next(t, alice)
	assert.Equal(t, entity.EventUserJoinedRoom, announce.Event)
	var who entity.UserJoinedRoomEvent
	decode(t, announce, &who)
	assert.Equal(t, entity.UserJoinedRoomEvent{UserID: "bob", UserName: "Bob", Room: "room-1"}, who)
}

func TestPublishExcludesSender(t *testing.T) {
	h := newTestHub()
	members := []*Client{connect(h), connect(h), connect(h)}
	for _, c := range members {
		h.mu.Lock()
		h.joinLocked(c, "lobby")
		h.mu.Unlock()
	}

	delivered := h.Publish("lobby", entity.EventReceiveMessage, map[string]string{"message": "hello"}, members[0])
	assert.Equal(t, 2, delivered)
	assertEmpty(t, members[0])
	assert.Equal(t, entity.EventReceiveMessage, next(t, members[1]).Event)
	assert.Equal(t, entity.EventReceiveMessage, next(t, members[2]).Event)

	h.Leave(members[2], "lobby")
	assert.Equal(t, 1, h.Publish("lobby", entity.EventReceiveMessage, "again", members[0]))
}

func TestPublishPreservesOrder(t *testing.T) {
	h := newTestHub()
	c := connect(h)
	h.mu.Lock()
	h.joinLocked(c, "r")
	h.mu.Unlock()

	for i := 0; i < 10; i++ {
		h.Publish("r", entity.EventReceiveMessage, i, nil)
	}
	for i := 0; i < 10; i++ {
		var n int
		decode(t, next(t, c), &n)
		assert.Equal(t, i, n)
	}
}

func TestRelayTypingSkipsOrigin(t *testing.T) {
	h := newTestHub()
	alice := connect(h)
	bob := connect(h)
	require.NoError(t, h.Register(alice, "alice", "Alice", entity.CustomerRole))
	next(t, bob)
	h.mu.Lock()
	h.joinLocked(alice, "r")
	h.joinLocked(bob, "r")
	h.mu.Unlock()

	require.NoError(t, h.RelayTyping(alice, "r", true))
	typing := next(t, bob)
	assert.Equal(t, entity.EventUserTyping, typing.Event)
	var ev entity.TypingEvent
	decode(t, typing, &ev)
	assert.Equal(t, entity.TypingEvent{UserID: "alice", UserName: "Alice", Typing: true}, ev)
	assertEmpty(t, alice)
}

func TestSlowClientIsDropped(t *testing.T) {
	h := newTestHub()
	h.SetSendBuffer(1)
	c := connect(h)
	require.NoError(t, h.Register(c, "u", "U", entity.CustomerRole))

	require.NoError(t, h.Join(c, "r", ""))

	h.mu.Lock()
	closed := c.closed
	h.mu.Unlock()
	assert.True(t, closed)
	assert.Equal(t, 0, h.Members("r"))

	<-c.send
	_, ok := <-c.send
	assert.False(t, ok)
}

func TestNotifyOfflineUser(t *testing.T) {
	h := newTestHub()
	backplane := &fakeBackplane{}
	h.SetBackplane(backplane)

	assert.False(t, h.NotifyUser("ghost", entity.Notification{Type: "x"}))

	envelopes := backplane.all()
	require.Len(t, envelopes, 1)
	assert.Equal(t, ScopeUser, envelopes[0].Scope)
	assert.Equal(t, "ghost", envelopes[0].Target)
}

func TestBroadcastAllReachesAnonymous(t *testing.T) {
	h := newTestHub()
	a, b := connect(h), connect(h)

	assert.Equal(t, 2, h.BroadcastAll("maintenance", "soon"))
	assert.Equal(t, "maintenance", next(t, a).Event)
	assert.Equal(t, "maintenance", next(t, b).Event)
}

func TestDeliverDoesNotRelay(t *testing.T) {
	h := newTestHub()
	backplane := &fakeBackplane{}
	h.SetBackplane(backplane)

	c := connect(h)
	h.mu.Lock()
	h.joinLocked(c, "lobby")
	h.mu.Unlock()

	h.Deliver(Envelope{Scope: ScopeRoom, Target: "lobby", Event: entity.EventReceiveMessage, Data: jsoniter.RawMessage(`{"message":"remote"}`)})
	frame := next(t, c)
	assert.Equal(t, entity.EventReceiveMessage, frame.Event)
	assert.JSONEq(t, `{"message":"remote"}`, string(frame.Data))
	assert.Empty(t, backplane.all())
}

func TestShutdownClosesQueues(t *testing.T) {
	h := newTestHub()
	c := connect(h)
	require.NoError(t, h.Register(c, "u", "U", entity.CustomerRole))

	h.Shutdown()
	_, ok := <-c.send
	assert.False(t, ok)
	assert.Empty(t, h.Online())

	h.Unregister(c)
}
