package repository

import (
	"StoreChat/entity"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SystemStorageID is the fixed sender of every system and support-bot message.
var SystemStorageID = primitive.ObjectID{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1}

type readRecord struct {
	UserID string    `bson:"user_id"`
	ReadAt time.Time `bson:"read_at"`
}

type messageRecord struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	MessageID       string             `bson:"message_id"`
	Room            string             `bson:"room"`
	SenderID        primitive.ObjectID `bson:"sender_id"`
	RequesterID     string             `bson:"requester_id,omitempty"`
	SenderName      string             `bson:"sender_name"`
	Body            string             `bson:"message"`
	Type            string             `bson:"message_type"`
	ProductID       string             `bson:"product_id,omitempty"`
	IsSupportTicket bool               `bson:"is_support_ticket"`
	TicketStatus    string             `bson:"ticket_status,omitempty"`
	IsAutoResponse  bool               `bson:"is_auto_response"`
	ReadBy          []readRecord       `bson:"read_by"`
	CreatedAt       time.Time          `bson:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at"`
}

// StorageSenderID maps a logical sender to an ObjectID. System senders share one
// constant id, hex ids pass through, anything else gets a fresh id.
func StorageSenderID(senderID string) primitive.ObjectID {
	if id, ok := lookupSenderID(senderID); ok {
		return id
	}
	return primitive.NewObjectID()
}

func lookupSenderID(senderID string) (primitive.ObjectID, bool) {
	if senderID == entity.SystemSenderID || senderID == entity.SupportBotSenderID {
		return SystemStorageID, true
	}
	if primitive.IsValidObjectID(senderID) {
		id, err := primitive.ObjectIDFromHex(senderID)
		if err == nil {
			return id, true
		}
	}
	return primitive.NilObjectID, false
}

func toRecord(msg entity.Message) messageRecord {
	rec := messageRecord{
		MessageID:       msg.MessageID,
		Room:            msg.Room,
		SenderID:        StorageSenderID(msg.SenderID),
		SenderName:      msg.SenderName,
		Body:            msg.Body,
		Type:            string(msg.Type),
		ProductID:       msg.ProductID,
		IsSupportTicket: msg.IsSupportTicket,
		IsAutoResponse:  msg.IsAutoResponse,
		ReadBy:          make([]readRecord, 0, len(msg.ReadBy)),
		CreatedAt:       msg.CreatedAt,
		UpdatedAt:       msg.UpdatedAt,
	}
	if rec.MessageID == "" {
		rec.MessageID = entity.NewMessageID(entity.MessagePrefix)
	}
	if rec.Room == "" {
		rec.Room = entity.GeneralRoom
	}
	if rec.SenderName == "" {
		rec.SenderName = entity.DefaultSenderName
	}
	if rec.Type == "" {
		rec.Type = string(entity.MessageText)
	}
	if msg.IsSupportTicket {
		rec.TicketStatus = string(msg.TicketStatus)
		rec.RequesterID = msg.SenderID
	}
	for _, r := range msg.ReadBy {
		rec.ReadBy = append(rec.ReadBy, readRecord{UserID: r.UserID, ReadAt: r.ReadAt})
	}
	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.CreatedAt
	}
	return rec
}

func (r messageRecord) toEntity() entity.Message {
	msg := entity.Message{
		MessageID:       r.MessageID,
		Room:            r.Room,
		SenderID:        r.SenderID.Hex(),
		SenderName:      r.SenderName,
		Body:            r.Body,
		Type:            entity.MessageType(r.Type),
		ProductID:       r.ProductID,
		IsSupportTicket: r.IsSupportTicket,
		IsAutoResponse:  r.IsAutoResponse,
		ReadBy:          make([]entity.ReadReceipt, 0, len(r.ReadBy)),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.IsSupportTicket {
		msg.TicketStatus = entity.TicketStatus(r.TicketStatus)
		if r.RequesterID != "" {
			msg.SenderID = r.RequesterID
		}
	}
	for _, rr := range r.ReadBy {
		msg.ReadBy = append(msg.ReadBy, entity.ReadReceipt{UserID: rr.UserID, ReadAt: rr.ReadAt})
	}
	return msg
}

func decodeMessages(ctx context.Context, cursor *mongo.Cursor) ([]entity.Message, error) {
	defer cursor.Close(ctx)

	var records []messageRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("mongodb decode messages: %w", err)
	}
	messages := make([]entity.Message, 0, len(records))
	for _, rec := range records {
		messages = append(messages, rec.toEntity())
	}
	return messages, nil
}

// SaveMessage inserts a chat message or ticket and returns the stored form.
func (m *MongoDB) SaveMessage(ctx context.Context, msg entity.Message) (entity.Message, error) {
	collection, err := m.collection(messagesCollection)
	if err != nil {
		return entity.Message{}, err
	}

	rec := toRecord(msg)
	res, err := collection.InsertOne(ctx, rec)
	if err != nil {
		return entity.Message{}, fmt.Errorf("mongodb insert message: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		rec.ID = id
	}
	return rec.toEntity(), nil
}

// GetRoomMessages returns one page of a room's history, newest first.
func (m *MongoDB) GetRoomMessages(ctx context.Context, room string, page entity.Pagination) ([]entity.Message, int64, error) {
	collection, err := m.collection(messagesCollection)
	if err != nil {
		return nil, 0, err
	}

	filter := bson.D{{Key: "room", Value: room}}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("mongodb find room messages: %w", err)
	}
	messages, err := decodeMessages(ctx, cursor)
	if err != nil {
		return nil, 0, err
	}

	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("mongodb count room messages: %w", err)
	}
	return messages, total, nil
}

// MarkRoomRead adds a read receipt for userID to every room message it has not read yet.
func (m *MongoDB) MarkRoomRead(ctx context.Context, room, userID string, at time.Time) (int64, error) {
	collection, err := m.collection(messagesCollection)
	if err != nil {
		return 0, err
	}

	filter := bson.D{
		{Key: "room", Value: room},
		{Key: "read_by.user_id", Value: bson.D{{Key: "$ne", Value: userID}}},
	}
	update := bson.D{
		{Key: "$push", Value: bson.D{{Key: "read_by", Value: readRecord{UserID: userID, ReadAt: at}}}},
	}
	res, err := collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("mongodb mark room read: %w", err)
	}
	return res.ModifiedCount, nil
}

// EnsureMessageIndexes creates the indexes used by history and ticket queries.
func (m *MongoDB) EnsureMessageIndexes(ctx context.Context) error {
	collection, err := m.collection(messagesCollection)
	if err != nil {
		return err
	}

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "message_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "room", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "sender_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "product_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "is_support_ticket", Value: 1}, {Key: "ticket_status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "requester_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	_, err = collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("mongodb create message indexes: %w", err)
	}
	return nil
}

func notFound(err error, what string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", what, entity.ErrNotFound)
	}
	return fmt.Errorf("mongodb find %s: %w", what, err)
}
