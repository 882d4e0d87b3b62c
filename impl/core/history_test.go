package core

import (
	"StoreChat/entity"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, repo *fakeRepo, room string, n int) {
	t.Helper()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		_, err := repo.SaveMessage(context.Background(), entity.Message{
			MessageID: entity.NewMessageID(entity.MessagePrefix),
			Room:      room,
			Body:      string(rune('a' + i)),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}
}

func TestHistoryIsChronologicalAndMarksRead(t *testing.T) {
	c, repo, _ := newTestCore()
	seed(t, repo, "lobby", 5)

	messages, page, err := c.GetRoomMessages(context.Background(), customer, "lobby", 1, 3)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, []string{"c", "d", "e"}, []string{messages[0].Body, messages[1].Body, messages[2].Body})
	assert.Equal(t, entity.Pagination{Page: 1, Limit: 3, Total: 5}, page)

	for _, m := range messages {
		assert.True(t, m.ReadByUser(customer.ID))
	}

	// reading twice keeps one receipt per user
	messages, _, err = c.GetRoomMessages(context.Background(), customer, "lobby", 1, 3)
	require.NoError(t, err)
	assert.Len(t, messages[0].ReadBy, 1)
}

func TestHistoryReadMarkFailureIsIgnored(t *testing.T) {
	c, repo, _ := newTestCore()
	seed(t, repo, "lobby", 2)
	repo.readErr = errors.New("write conflict")

	messages, _, err := c.GetRoomMessages(context.Background(), customer, "lobby", 1, 10)
	require.NoError(t, err)
	assert.Len(t, messages, 2)
	assert.False(t, messages[0].ReadByUser(customer.ID))
}

func TestHistoryRoomAccess(t *testing.T) {
	c, _, _ := newTestCore()
	ctx := context.Background()

	forbidden := []string{
		entity.AdminRoom,
		entity.PersonalRoom(other.ID),
		"support_" + other.ID + "_1700000000000",
	}
	for _, room := range forbidden {
		_, _, err := c.GetRoomMessages(ctx, customer, room, 1, 10)
		assert.True(t, errors.Is(err, entity.ErrNotAuthorized), room)

		_, _, err = c.GetRoomMessages(ctx, admin, room, 1, 10)
		assert.NoError(t, err, room)
	}

	allowed := []string{
		entity.GeneralRoom,
		entity.PersonalRoom(customer.ID),
		"support_" + customer.ID + "_1700000000000",
	}
	for _, room := range allowed {
		_, _, err := c.GetRoomMessages(ctx, customer, room, 1, 10)
		assert.NoError(t, err, room)
	}
}

type staticPresence []entity.Participant

func (p staticPresence) Online(context.Context) ([]entity.Participant, error) {
	return p, nil
}

func TestOnlineUsers(t *testing.T) {
	c, _, hub := newTestCore()
	hub.online = []entity.Participant{{Identity: "local"}}

	online, err := c.OnlineUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "local", online[0].Identity)

	c.SetPresence(staticPresence{{Identity: "a"}, {Identity: "b"}})
	online, err = c.OnlineUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, online, 2)
}
