package chat

import (
	"StoreChat/entity"
	"context"
)

type Core interface {
	GetRoomMessages(ctx context.Context, actor *entity.UserAuth, room string, page, limit int) ([]entity.Message, entity.Pagination, error)
	CreateTicket(ctx context.Context, requester *entity.UserAuth, body, productID string) (*entity.TicketCreated, error)
	ListTickets(ctx context.Context, actor *entity.UserAuth, status string, page, limit int) ([]entity.Message, entity.Pagination, error)
	SetTicketStatus(ctx context.Context, actor *entity.UserAuth, ticketID, status string) (*entity.Message, error)
	OnlineUsers(ctx context.Context) ([]entity.Participant, error)
}
