package api

import (
	"StoreChat/entity"
	"StoreChat/internal/config"
	"StoreChat/internal/ws"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubHandler struct{}

func (stubHandler) AuthenticateByToken(token string) (*entity.UserAuth, error) {
	if token == "admin" {
		return &entity.UserAuth{ID: "a1", Role: entity.AdminRole}, nil
	}
	return nil, entity.ErrNotAuthorized
}

func (stubHandler) GetRoomMessages(context.Context, *entity.UserAuth, string, int, int) ([]entity.Message, entity.Pagination, error) {
	return []entity.Message{}, entity.Pagination{Page: 1, Limit: 50}, nil
}

func (stubHandler) CreateTicket(context.Context, *entity.UserAuth, string, string) (*entity.TicketCreated, error) {
	return &entity.TicketCreated{}, nil
}

func (stubHandler) ListTickets(context.Context, *entity.UserAuth, string, int, int) ([]entity.Message, entity.Pagination, error) {
	return []entity.Message{}, entity.Pagination{Page: 1, Limit: 20}, nil
}

func (stubHandler) SetTicketStatus(context.Context, *entity.UserAuth, string, string) (*entity.Message, error) {
	return &entity.Message{}, nil
}

func (stubHandler) OnlineUsers(context.Context) ([]entity.Participant, error) {
	return []entity.Participant{}, nil
}

func TestRouter(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	conf := &config.Config{}
	conf.Metrics.Enabled = true
	router := NewRouter(conf, log, stubHandler{}, ws.NewHub(log), nil)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"health", http.MethodGet, "/health", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK},
		{"unknown path", http.MethodGet, "/nope", "", http.StatusNotFound},
		{"wrong method", http.MethodDelete, "/api/chat/presence", "admin", http.StatusMethodNotAllowed},
		{"chat without token", http.MethodGet, "/api/chat/presence", "", http.StatusUnauthorized},
		{"chat with token", http.MethodGet, "/api/chat/presence", "admin", http.StatusOK},
		{"history", http.MethodGet, "/api/chat/messages/general", "admin", http.StatusOK},
		{"tickets", http.MethodGet, "/api/chat/support-tickets", "admin", http.StatusOK},
		{"ws without upgrade", http.MethodGet, "/ws", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
