package core

import (
	"StoreChat/entity"
	"StoreChat/internal/metrics"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// CreateTicket opens a support ticket in its own room and alerts admins.
// Storage errors are returned to the caller.
func (c *Core) CreateTicket(ctx context.Context, requester *entity.UserAuth, body, productID string) (*entity.TicketCreated, error) {
	if requester == nil || requester.ID == "" {
		return nil, fmt.Errorf("create ticket: %w", entity.ErrNotAuthorized)
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: ticket message is empty", entity.ErrValidation)
	}

	ticket := entity.NewTicket(requester, body, productID, c.now())
	ticket.ReadBy = []entity.ReadReceipt{}
	if _, err := c.persist(ctx, ticket); err != nil {
		return nil, err
	}
	metrics.TicketsCreated.Inc()

	if c.hub != nil {
		c.hub.NotifyRoom(entity.AdminRoom, entity.EventNewSupportTicket, entity.TicketAlert{
			Ticket: ticket,
			User: entity.TicketRequester{
				ID:    requester.ID,
				Name:  requester.Name,
				Email: requester.Email,
			},
		})
	}
	c.alert(fmt.Sprintf("New support ticket from %s (%s): %s", requester.Name, requester.ID, body))

	c.log.With(
		slog.String("ticket_id", ticket.MessageID),
		slog.String("user", requester.ID),
	).Info("support ticket created")

	return &entity.TicketCreated{Ticket: ticket, Room: ticket.Room}, nil
}

// SetTicketStatus changes a ticket's status and notifies its requester.
// Only admins may change status.
func (c *Core) SetTicketStatus(ctx context.Context, actor *entity.UserAuth, ticketID, status string) (*entity.Message, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("update ticket %s: admin role required: %w", ticketID, entity.ErrNotAuthorized)
	}
	next, err := entity.ParseTicketStatus(status)
	if err != nil {
		return nil, err
	}
	if c.repo == nil {
		return nil, fmt.Errorf("update ticket %s: no repository: %w", ticketID, entity.ErrPersistence)
	}

	current, err := c.repo.FindTicket(ctx, ticketID)
	if err != nil {
		return nil, storageError(err)
	}
	if c.strictTickets && !current.TicketStatus.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: ticket %s cannot move from %s to %s", entity.ErrValidation, ticketID, current.TicketStatus, next)
	}

	updated, err := c.repo.UpdateTicketStatus(ctx, ticketID, next, c.now())
	if err != nil {
		return nil, storageError(err)
	}
	metrics.TicketTransitions.WithLabelValues(next.String()).Inc()

	if c.hub != nil {
		c.hub.NotifyUser(updated.SenderID, entity.Notification{
			Type:     entity.NotificationTicketStatus,
			TicketID: ticketID,
			Status:   next,
			Message:  fmt.Sprintf("Your support ticket status has been updated to %s", next),
		})
	}

	c.log.With(
		slog.String("ticket_id", ticketID),
		slog.String("from", current.TicketStatus.String()),
		slog.String("to", next.String()),
		slog.String("admin", actor.ID),
	).Info("ticket status changed")

	return updated, nil
}

// ListTickets returns tickets newest first. Admins see every ticket, anyone
// else only their own.
func (c *Core) ListTickets(ctx context.Context, actor *entity.UserAuth, status string, page, limit int) ([]entity.Message, entity.Pagination, error) {
	pagination := paginate(page, limit, entity.DefaultTicketLimit)
	if actor == nil {
		return nil, pagination, fmt.Errorf("list tickets: %w", entity.ErrNotAuthorized)
	}

	var filter entity.TicketFilter
	if status != "" {
		parsed, err := entity.ParseTicketStatus(status)
		if err != nil {
			return nil, pagination, err
		}
		filter.Status = parsed
	}
	if !actor.IsAdmin() {
		filter.SenderID = actor.ID
	}
	if c.repo == nil {
		return nil, pagination, fmt.Errorf("list tickets: no repository: %w", entity.ErrPersistence)
	}

	tickets, total, err := c.repo.ListTickets(ctx, filter, pagination)
	if err != nil {
		return nil, pagination, storageError(err)
	}
	pagination.Total = total
	return tickets, pagination, nil
}

// storageError keeps ErrNotFound and classifies everything else as a
// persistence failure.
func storageError(err error) error {
	if errors.Is(err, entity.ErrNotFound) || errors.Is(err, entity.ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %w", entity.ErrPersistence, err)
}

func paginate(page, limit, defaultLimit int) entity.Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > entity.MaxPageLimit {
		limit = entity.MaxPageLimit
	}
	return entity.Pagination{Page: page, Limit: limit}
}
