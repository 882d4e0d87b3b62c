package core

import (
	"StoreChat/entity"
	"StoreChat/internal/lib/sl"
	"StoreChat/internal/metrics"
	"StoreChat/internal/ws"
	"context"
	"log/slog"
	"time"
)

// HandleSendMessage stamps, persists and fans out a message from a registered
// connection. Customers also get a delayed auto reply.
func (c *Core) HandleSendMessage(conn ws.Connection, req entity.SendMessageRequest) {
	sender := conn.Participant()
	now := c.now()

	room := req.Room
	if room == "" {
		room = entity.AdminRoom
	}
	msgType := req.MessageType
	if msgType == "" {
		msgType = entity.MessageText
	}

	msg := entity.Message{
		MessageID:  entity.NewMessageID(entity.MessagePrefix),
		Room:       room,
		SenderID:   sender.Identity,
		SenderName: sender.DisplayName,
		Body:       req.Message,
		Type:       msgType,
		ProductID:  req.ProductID,
		ReadBy:     []entity.ReadReceipt{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	metrics.MessagesSent.Inc()

	go c.persistAsync(msg)

	if c.hub != nil {
		c.hub.Publish(room, entity.EventReceiveMessage, msg, conn)
	}
	if err := conn.Emit(entity.EventMessageSent, msg); err != nil {
		c.log.Debug("message ack not delivered", slog.String("client", conn.ID()), sl.Err(err))
	}

	if sender.IsCustomer() {
		replyRoom := req.Room
		if replyRoom == "" {
			replyRoom = entity.GeneralRoom
		}
		c.scheduleAutoReply(conn, replyRoom, req.Message)
	}
}

func (c *Core) persistAsync(msg entity.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if _, err := c.persist(ctx, msg); err != nil {
		c.log.With(
			slog.String("message_id", msg.MessageID),
			slog.String("room", msg.Room),
		).Warn("message not saved", sl.Err(err))
	}
}

// scheduleAutoReply fires once after the configured delay. There is no way to
// cancel it; a connection closed by then simply does not get the reply.
func (c *Core) scheduleAutoReply(conn ws.Connection, room, text string) {
	if c.responder == nil {
		return
	}
	time.AfterFunc(c.autoReplyDelay, func() {
		c.sendAutoResponse(conn, room, text)
	})
}

func (c *Core) sendAutoResponse(conn ws.Connection, room, text string) {
	now := c.now()
	reply := entity.Message{
		MessageID:      entity.NewMessageID(entity.AutoPrefix),
		Room:           room,
		SenderID:       entity.SystemSenderID,
		SenderName:     c.supportName,
		Body:           c.responder.Classify(text),
		Type:           entity.MessageText,
		IsAutoResponse: true,
		ReadBy:         []entity.ReadReceipt{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if saved, err := c.persist(ctx, reply); err != nil {
		c.log.Warn("auto reply not saved", slog.String("message_id", reply.MessageID), sl.Err(err))
		reply = saved
	}

	metrics.AutoReplies.Inc()
	if err := conn.Emit(entity.EventReceiveMessage, reply); err != nil {
		c.log.Debug("auto reply not delivered", slog.String("client", conn.ID()), sl.Err(err))
	}
}
