package entity

import (
	"StoreChat/internal/lib/validate"
	"fmt"
	"net/http"
	"time"
)

type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

var ticketTransitions = map[TicketStatus][]TicketStatus{
	TicketOpen: {
		TicketInProgress,
		TicketResolved,
		TicketClosed,
	},
	TicketInProgress: {
		TicketResolved,
		TicketClosed,
	},
	TicketResolved: {
		TicketInProgress,
		TicketClosed,
	},
	TicketClosed: {},
}

func (s TicketStatus) String() string {
	return string(s)
}

func (s TicketStatus) IsValid() bool {
	_, ok := ticketTransitions[s]
	return ok
}

// CanTransitionTo reports whether the strict lifecycle allows s -> next.
func (s TicketStatus) CanTransitionTo(next TicketStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range ticketTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func ParseTicketStatus(s string) (TicketStatus, error) {
	status := TicketStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("%w: invalid ticket status %q", ErrValidation, s)
	}
	return status, nil
}

// TicketRoom is unique per requester and creation time so tickets never share a chat room.
func TicketRoom(requesterID string, createdAt time.Time) string {
	return fmt.Sprintf("support_%s_%d", requesterID, createdAt.UnixMilli())
}

func NewTicket(requester *UserAuth, body, productID string, now time.Time) Message {
	return Message{
		MessageID:       NewMessageID(TicketPrefix),
		Room:            TicketRoom(requester.ID, now),
		SenderID:        requester.ID,
		SenderName:      requester.Name,
		Body:            body,
		Type:            MessageText,
		ProductID:       productID,
		IsSupportTicket: true,
		TicketStatus:    TicketOpen,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

type TicketFilter struct {
	SenderID string
	Status   TicketStatus
}

type CreateTicketRequest struct {
	Message   string `json:"message" validate:"required,max=5000"`
	ProductID string `json:"productId" validate:"omitempty,max=64"`
}

type TicketStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// TicketRequester is the profile attached to a new ticket alert.
type TicketRequester struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type TicketAlert struct {
	Ticket Message         `json:"ticket"`
	User   TicketRequester `json:"user"`
}

type TicketCreated struct {
	Ticket Message `json:"ticket"`
	Room   string  `json:"room"`
}

func (r *CreateTicketRequest) Bind(_ *http.Request) error {
	return validate.Struct(r)
}

func (r *TicketStatusRequest) Bind(_ *http.Request) error {
	return validate.Struct(r)
}
