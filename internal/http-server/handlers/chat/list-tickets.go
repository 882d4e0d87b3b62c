package chat

import (
	"StoreChat/internal/lib/api/cont"
	"StoreChat/internal/lib/api/response"
	"StoreChat/internal/lib/sl"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

func ListTickets(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.chat")
		status := r.URL.Query().Get("status")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("status", status),
		)

		if handler == nil {
			unavailable(w, r, logger)
			return
		}

		tickets, pagination, err := handler.ListTickets(r.Context(), cont.GetUser(r.Context()), status,
			queryInt(r, "page"), queryInt(r, "limit"))
		if err != nil {
			renderError(w, r, logger, err)
			return
		}

		render.JSON(w, r, response.Paged(tickets, pagination))
	}
}
