package chat

import (
	"StoreChat/internal/lib/api/cont"
	"StoreChat/internal/lib/api/response"
	"StoreChat/internal/lib/sl"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

func GetMessages(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.chat")
		room := chi.URLParam(r, "room")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("room", room),
		)

		if handler == nil {
			unavailable(w, r, logger)
			return
		}

		messages, pagination, err := handler.GetRoomMessages(r.Context(), cont.GetUser(r.Context()), room,
			queryInt(r, "page"), queryInt(r, "limit"))
		if err != nil {
			renderError(w, r, logger, err)
			return
		}
		logger.Debug("room history", slog.Int("count", len(messages)))

		render.JSON(w, r, response.Paged(messages, pagination))
	}
}
