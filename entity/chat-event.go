package entity

// Outbound real-time event names.
const (
	EventUserOnline       = "user_online"
	EventUserOffline      = "user_offline"
	EventRoomJoined       = "room_joined"
	EventJoinedRoomInfo   = "joined_room_info"
	EventUserJoinedRoom   = "user_joined_room"
	EventReceiveMessage   = "receive_message"
	EventMessageSent      = "message_sent"
	EventUserTyping       = "user_typing"
	EventNotification     = "notification"
	EventNewSupportTicket = "new_support_ticket"
	EventError            = "error"
)

const NotificationTicketStatus = "ticket_status_update"

type PresenceEvent struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

type RoomJoinedEvent struct {
	Room    string `json:"room"`
	Success bool   `json:"success"`
}

type JoinedRoomInfo struct {
	Room      string `json:"room"`
	ProductID string `json:"productId,omitempty"`
}

type UserJoinedRoomEvent struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Room     string `json:"room"`
}

type TypingEvent struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Typing   bool   `json:"typing"`
}

type Notification struct {
	Type     string       `json:"type"`
	TicketID string       `json:"ticketId,omitempty"`
	Status   TicketStatus `json:"status,omitempty"`
	Message  string       `json:"message"`
}

type ErrorEvent struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}
