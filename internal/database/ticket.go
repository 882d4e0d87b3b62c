package repository

import (
	"StoreChat/entity"
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func ticketFilter(ticketID string) bson.D {
	return bson.D{
		{Key: "message_id", Value: ticketID},
		{Key: "is_support_ticket", Value: true},
	}
}

func (m *MongoDB) FindTicket(ctx context.Context, ticketID string) (*entity.Message, error) {
	collection, err := m.collection(messagesCollection)
	if err != nil {
		return nil, err
	}

	var rec messageRecord
	err = collection.FindOne(ctx, ticketFilter(ticketID)).Decode(&rec)
	if err != nil {
		return nil, notFound(err, "ticket "+ticketID)
	}
	ticket := rec.toEntity()
	return &ticket, nil
}

func (m *MongoDB) UpdateTicketStatus(ctx context.Context, ticketID string, status entity.TicketStatus, at time.Time) (*entity.Message, error) {
	collection, err := m.collection(messagesCollection)
	if err != nil {
		return nil, err
	}

	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "ticket_status", Value: string(status)},
			{Key: "updated_at", Value: at},
		}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var rec messageRecord
	err = collection.FindOneAndUpdate(ctx, ticketFilter(ticketID), update, opts).Decode(&rec)
	if err != nil {
		return nil, notFound(err, "ticket "+ticketID)
	}
	ticket := rec.toEntity()
	return &ticket, nil
}

// ListTickets returns tickets newest first. The sender filter matches the
// requester identity as given at creation time.
func (m *MongoDB) ListTickets(ctx context.Context, filter entity.TicketFilter, page entity.Pagination) ([]entity.Message, int64, error) {
	collection, err := m.collection(messagesCollection)
	if err != nil {
		return nil, 0, err
	}

	query := bson.D{{Key: "is_support_ticket", Value: true}}
	if filter.SenderID != "" {
		query = append(query, bson.E{Key: "requester_id", Value: filter.SenderID})
	}
	if filter.Status != "" {
		query = append(query, bson.E{Key: "ticket_status", Value: string(filter.Status)})
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))

	cursor, err := collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("mongodb find tickets: %w", err)
	}
	tickets, err := decodeMessages(ctx, cursor)
	if err != nil {
		return nil, 0, err
	}

	total, err := collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("mongodb count tickets: %w", err)
	}
	return tickets, total, nil
}
