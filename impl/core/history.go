package core

import (
	"StoreChat/entity"
	"StoreChat/internal/lib/sl"
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const supportRoomPrefix = "support_"

// canReadRoom keeps the admin room, other users' personal rooms and other
// users' ticket rooms admin only.
func canReadRoom(actor *entity.UserAuth, room string) bool {
	if actor.IsAdmin() {
		return true
	}
	switch {
	case room == entity.AdminRoom:
		return false
	case strings.HasPrefix(room, "user_"):
		return room == entity.PersonalRoom(actor.ID)
	case strings.HasPrefix(room, supportRoomPrefix):
		return strings.HasPrefix(room, supportRoomPrefix+actor.ID+"_")
	}
	return true
}

// GetRoomMessages returns one page of room history in chronological order and
// marks the room read for the caller.
func (c *Core) GetRoomMessages(ctx context.Context, actor *entity.UserAuth, room string, page, limit int) ([]entity.Message, entity.Pagination, error) {
	pagination := paginate(page, limit, entity.DefaultHistoryLimit)
	if actor == nil {
		return nil, pagination, fmt.Errorf("room history: %w", entity.ErrNotAuthorized)
	}
	if room == "" {
		return nil, pagination, fmt.Errorf("%w: room is required", entity.ErrValidation)
	}
	if !canReadRoom(actor, room) {
		return nil, pagination, fmt.Errorf("room %s: %w", room, entity.ErrNotAuthorized)
	}
	if c.repo == nil {
		return nil, pagination, fmt.Errorf("room history: no repository: %w", entity.ErrPersistence)
	}

	messages, total, err := c.repo.GetRoomMessages(ctx, room, pagination)
	if err != nil {
		return nil, pagination, storageError(err)
	}
	pagination.Total = total

	// newest first from storage
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	now := c.now()
	if _, err = c.repo.MarkRoomRead(ctx, room, actor.ID, now); err != nil {
		c.log.With(
			slog.String("room", room),
			slog.String("user", actor.ID),
		).Warn("mark room read", sl.Err(err))
	} else {
		for i := range messages {
			messages[i].MarkRead(actor.ID, now)
		}
	}
	return messages, pagination, nil
}

// OnlineUsers lists participants online, cluster wide when a presence
// directory is configured.
func (c *Core) OnlineUsers(ctx context.Context) ([]entity.Participant, error) {
	if c.presence != nil {
		online, err := c.presence.Online(ctx)
		if err == nil {
			return online, nil
		}
		c.log.Warn("presence directory", sl.Err(err))
	}
	if c.hub == nil {
		return []entity.Participant{}, nil
	}
	return c.hub.Online(), nil
}

func (c *Core) AuthenticateByToken(token string) (*entity.UserAuth, error) {
	if c.authService == nil {
		return nil, fmt.Errorf("no auth service: %w", entity.ErrNotAuthorized)
	}
	return c.authService.AuthenticateByToken(token)
}
