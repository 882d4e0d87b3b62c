package entity

import (
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	MessageText   MessageType = "text"
	MessageImage  MessageType = "image"
	MessageFile   MessageType = "file"
	MessageSystem MessageType = "system"
)

func (t MessageType) IsValid() bool {
	switch t {
	case MessageText, MessageImage, MessageFile, MessageSystem:
		return true
	}
	return false
}

const (
	AdminRoom   = "admin_room"
	GeneralRoom = "general"

	SystemSenderID     = "system"
	SupportBotSenderID = "support-bot"
	DefaultSenderName  = "Customer"
)

const (
	MessagePrefix = "msg"
	AutoPrefix    = "auto"
	TicketPrefix  = "ticket"
)

// Message is a chat message or, when IsSupportTicket is set, a support ticket.
type Message struct {
	MessageID       string        `json:"messageId"`
	Room            string        `json:"room"`
	SenderID        string        `json:"senderId"`
	SenderName      string        `json:"senderName"`
	Body            string        `json:"message"`
	Type            MessageType   `json:"messageType"`
	ProductID       string        `json:"productId,omitempty"`
	IsSupportTicket bool          `json:"isSupportTicket"`
	TicketStatus    TicketStatus  `json:"ticketStatus,omitempty"`
	IsAutoResponse  bool          `json:"isAutoResponse"`
	ReadBy          []ReadReceipt `json:"readBy"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

type ReadReceipt struct {
	UserID string    `json:"userId"`
	ReadAt time.Time `json:"readAt"`
}

// NewMessageID returns a prefixed 128-bit random id.
func NewMessageID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// PersonalRoom is the room every registered identity joins for direct notifications.
func PersonalRoom(identity string) string {
	return "user_" + identity
}

// MarkRead appends a receipt unless userID already read the message.
func (m *Message) MarkRead(userID string, at time.Time) bool {
	if m.ReadByUser(userID) {
		return false
	}
	m.ReadBy = append(m.ReadBy, ReadReceipt{UserID: userID, ReadAt: at})
	return true
}

func (m *Message) ReadByUser(userID string) bool {
	for _, r := range m.ReadBy {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// SendMessageRequest is the client payload of a send_message event.
type SendMessageRequest struct {
	Room        string      `json:"room" validate:"omitempty,max=200"`
	Message     string      `json:"message" validate:"required,max=5000"`
	MessageType MessageType `json:"messageType" validate:"omitempty,oneof=text image file system"`
	ProductID   string      `json:"productId" validate:"omitempty,max=64"`
}
