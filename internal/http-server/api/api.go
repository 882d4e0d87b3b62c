package api

import (
	"StoreChat/internal/config"
	"StoreChat/internal/http-server/handlers/chat"
	"StoreChat/internal/http-server/handlers/errors"
	"StoreChat/internal/http-server/handlers/health"
	"StoreChat/internal/http-server/middleware/authenticate"
	"StoreChat/internal/http-server/middleware/timeout"
	"StoreChat/internal/lib/sl"
	"StoreChat/internal/metrics"
	"StoreChat/internal/ws"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	chat.Core
}

// NewRouter wires the websocket endpoint, the chat REST api and the
// operational endpoints.
func NewRouter(conf *config.Config, log *slog.Logger, handler Handler, hub *ws.Hub, storage health.Checker) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWs(hub, handler, log, w, r)
	})
	router.Get("/health", health.Health(log, storage))
	if conf.Metrics.Enabled {
		router.Handle("/metrics", metrics.Handler())
	}

	router.Route("/api/chat", func(r chi.Router) {
		r.Use(timeout.Timeout(10))
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(authenticate.New(log, handler))

		r.Get("/messages/{room}", chat.GetMessages(log, handler))
		r.Post("/support-ticket", chat.CreateTicket(log, handler))
		r.Get("/support-tickets", chat.ListTickets(log, handler))
		r.Put("/support-tickets/{ticketId}/status", chat.SetTicketStatus(log, handler))
		r.Get("/presence", chat.GetPresence(log, handler))
	})

	return router
}

// New serves until ctx is cancelled, then shuts the server down gracefully.
func New(ctx context.Context, conf *config.Config, log *slog.Logger, handler Handler, hub *ws.Hub, storage health.Checker) error {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:           NewRouter(conf, log, handler, hub, storage),
		ErrorLog:          httpLog,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIP, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.httpServer.Shutdown(shutdownCtx); err != nil {
			server.log.Error("shutdown", sl.Err(err))
		}
	}()

	server.log.Info("starting api server", slog.String("address", serverAddress))

	err = server.httpServer.Serve(listener)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
