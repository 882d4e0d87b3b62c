package chat

import (
	"StoreChat/internal/lib/api/response"
	"StoreChat/internal/lib/sl"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

func GetPresence(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.chat"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			unavailable(w, r, logger)
			return
		}

		online, err := handler.OnlineUsers(r.Context())
		if err != nil {
			renderError(w, r, logger, err)
			return
		}

		render.JSON(w, r, response.Ok(online))
	}
}
