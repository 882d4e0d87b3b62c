package core

import (
	"StoreChat/entity"
	"StoreChat/internal/lib/sl"
	"StoreChat/internal/ws"
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sony/gobreaker"
)

const (
	defaultAutoReplyDelay = time.Second
	defaultSupportName    = "Delightico Support"
	heartbeatSchedule     = "@every 30s"
	persistTimeout        = 5 * time.Second
)

type Repository interface {
	SaveMessage(ctx context.Context, msg entity.Message) (entity.Message, error)
	GetRoomMessages(ctx context.Context, room string, page entity.Pagination) ([]entity.Message, int64, error)
	MarkRoomRead(ctx context.Context, room, userID string, at time.Time) (int64, error)

	FindTicket(ctx context.Context, ticketID string) (*entity.Message, error)
	UpdateTicketStatus(ctx context.Context, ticketID string, status entity.TicketStatus, at time.Time) (*entity.Message, error)
	ListTickets(ctx context.Context, filter entity.TicketFilter, page entity.Pagination) ([]entity.Message, int64, error)
}

// Hub is the real-time fan-out side of the chat.
type Hub interface {
	Publish(room, event string, payload interface{}, exclude ws.Connection) int
	NotifyUser(identity string, payload interface{}) bool
	NotifyRoom(room, event string, payload interface{}) int
	Online() []entity.Participant
	Heartbeat()
}

type Responder interface {
	Classify(text string) string
}

type AuthService interface {
	AuthenticateByToken(token string) (*entity.UserAuth, error)
}

// PresenceDirectory lists participants online across all instances.
type PresenceDirectory interface {
	Online(ctx context.Context) ([]entity.Participant, error)
}

type AlertSender interface {
	SendMessage(msg string)
}

type Core struct {
	repo           Repository
	hub            Hub
	responder      Responder
	authService    AuthService
	presence       PresenceDirectory
	alerts         AlertSender
	breaker        *gobreaker.CircuitBreaker
	scheduler      *cron.Cron
	autoReplyDelay time.Duration
	supportName    string
	strictTickets  bool
	now            func() time.Time
	log            *slog.Logger
}

func New(log *slog.Logger) *Core {
	c := &Core{
		autoReplyDelay: defaultAutoReplyDelay,
		supportName:    defaultSupportName,
		now:            time.Now,
		log:            log.With(sl.Module("core")),
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "message-store",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
	return c
}

func (c *Core) SetRepository(repo Repository) {
	c.repo = repo
}

func (c *Core) SetHub(hub Hub) {
	c.hub = hub
}

func (c *Core) SetResponder(responder Responder) {
	c.responder = responder
}

func (c *Core) SetAuthService(auth AuthService) {
	c.authService = auth
}

func (c *Core) SetPresence(presence PresenceDirectory) {
	c.presence = presence
}

func (c *Core) SetAlertSender(alerts AlertSender) {
	c.alerts = alerts
}

func (c *Core) SetAutoReplyDelay(delay time.Duration) {
	if delay >= 0 {
		c.autoReplyDelay = delay
	}
}

func (c *Core) SetSupportName(name string) {
	if name != "" {
		c.supportName = name
	}
}

// SetStrictTickets enforces the ticket lifecycle lattice on status changes.
func (c *Core) SetStrictTickets(strict bool) {
	c.strictTickets = strict
}

// Init starts the presence heartbeat.
func (c *Core) Init() {
	if c.hub == nil {
		return
	}
	c.scheduler = cron.New()
	_, err := c.scheduler.AddFunc(heartbeatSchedule, c.hub.Heartbeat)
	if err != nil {
		c.log.Error("schedule presence heartbeat", sl.Err(err))
		return
	}
	c.scheduler.Start()
	c.log.With(
		slog.String("schedule", heartbeatSchedule),
	).Info("presence heartbeat scheduled")
}

func (c *Core) Stop() {
	if c.scheduler != nil {
		<-c.scheduler.Stop().Done()
	}
}

func (c *Core) alert(msg string) {
	if c.alerts != nil {
		go c.alerts.SendMessage(msg)
	}
}
