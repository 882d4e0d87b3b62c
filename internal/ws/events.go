package ws

import (
	"StoreChat/entity"
	"StoreChat/internal/lib/validate"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// Inbound event names.
const (
	EventUserJoin    = "user_join"
	EventJoinRoom    = "join_room"
	EventLeaveRoom   = "leave_room"
	EventSendMessage = "send_message"
	EventTypingStart = "typing_start"
	EventTypingStop  = "typing_stop"
)

var errNotRegistered = errors.New("send user_join first")

type inbound struct {
	Event string              `json:"event"`
	Data  jsoniter.RawMessage `json:"data"`
}

type UserJoin struct {
	UserID   string `json:"userId" validate:"required,max=128"`
	UserName string `json:"userName" validate:"max=128"`
	Role     string `json:"role" validate:"omitempty,oneof=customer admin system"`
}

type JoinRoom struct {
	Room      string `json:"room" validate:"required,max=200"`
	ProductID string `json:"productId" validate:"omitempty,max=64"`
}

type LeaveRoom struct {
	Room string `json:"room" validate:"required,max=200"`
}

type Typing struct {
	Room   string `json:"room" validate:"required,max=200"`
	Typing bool   `json:"-"`
}

// ParseEvent decodes a raw frame into one of UserJoin, JoinRoom, LeaveRoom,
// Typing or entity.SendMessageRequest. The event name is returned even when
// the payload is rejected.
func ParseEvent(raw []byte) (string, interface{}, error) {
	var in inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		return "", nil, fmt.Errorf("%w: malformed frame", entity.ErrValidation)
	}

	var event interface{}
	switch in.Event {
	case EventUserJoin:
		event = &UserJoin{}
	case EventJoinRoom:
		event = &JoinRoom{}
	case EventLeaveRoom:
		event = &LeaveRoom{}
	case EventSendMessage:
		event = &entity.SendMessageRequest{}
	case EventTypingStart:
		event = &Typing{Typing: true}
	case EventTypingStop:
		event = &Typing{}
	default:
		return in.Event, nil, fmt.Errorf("%w: unknown event %q", entity.ErrValidation, in.Event)
	}

	if len(in.Data) == 0 {
		return in.Event, nil, fmt.Errorf("%w: missing data", entity.ErrValidation)
	}
	if err := json.Unmarshal(in.Data, event); err != nil {
		return in.Event, nil, fmt.Errorf("%w: %s", entity.ErrValidation, err.Error())
	}
	if req, ok := event.(*entity.SendMessageRequest); ok {
		req.Message = strings.TrimSpace(req.Message)
	}
	if err := validate.Struct(event); err != nil {
		return in.Event, nil, fmt.Errorf("%w: %s", entity.ErrValidation, err.Error())
	}
	return in.Event, event, nil
}

// HandleClientMessage parses and dispatches an inbound frame. Rejected frames
// are answered with an error event.
func (h *Hub) HandleClientMessage(c *Client, raw []byte) {
	name, event, err := ParseEvent(raw)
	if err == nil {
		err = h.dispatch(c, event)
	}
	if err == nil {
		return
	}

	h.log.Debug("client event rejected",
		slog.String("client", c.id),
		slog.String("event", name),
		slog.String("reason", err.Error()),
	)
	_ = c.Emit(entity.EventError, entity.ErrorEvent{Event: name, Message: err.Error()})
}

func (h *Hub) dispatch(c *Client, event interface{}) error {
	switch ev := event.(type) {
	case *UserJoin:
		identity, name, role := c.resolveJoin(ev)
		return h.Register(c, identity, name, role)

	case *JoinRoom:
		return h.Join(c, ev.Room, ev.ProductID)

	case *LeaveRoom:
		h.Leave(c, ev.Room)
		return nil

	case *Typing:
		return h.RelayTyping(c, ev.Room, ev.Typing)

	case *entity.SendMessageRequest:
		if !c.Participant().Registered() {
			return errNotRegistered
		}
		if h.handler != nil {
			h.handler.HandleSendMessage(c, *ev)
		}
		return nil
	}
	return fmt.Errorf("%w: unsupported event", entity.ErrValidation)
}

// resolveJoin applies token claims over the announced identity. Anonymous
// connections cannot claim a privileged role.
func (c *Client) resolveJoin(ev *UserJoin) (identity, name, role string) {
	identity, name, role = ev.UserID, ev.UserName, ev.Role
	if c.auth != nil {
		identity, role = c.auth.ID, c.auth.Role
		if name == "" {
			name = c.auth.Name
		}
	} else if role != entity.CustomerRole {
		role = entity.CustomerRole
	}
	if name == "" {
		name = identity
	}
	return identity, name, role
}
