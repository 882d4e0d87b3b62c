package chat

import (
	"StoreChat/entity"
	"StoreChat/internal/lib/api/cont"
	"StoreChat/internal/lib/api/response"
	"StoreChat/internal/lib/sl"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

const adminRequired = "Admin role required to update ticket status"

func SetTicketStatus(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.chat")
		ticketID := chi.URLParam(r, "ticketId")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("ticket_id", ticketID),
		)

		if handler == nil {
			unavailable(w, r, logger)
			return
		}

		var req entity.TicketStatusRequest
		if err := render.Bind(r, &req); err != nil {
			logger.Debug("bad status request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request: status is required"))
			return
		}

		ticket, err := handler.SetTicketStatus(r.Context(), cont.GetUser(r.Context()), ticketID, req.Status)
		if errors.Is(err, entity.ErrNotAuthorized) {
			logger.Debug("status change denied", sl.Err(err))
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, response.Error(adminRequired))
			return
		}
		if err != nil {
			renderError(w, r, logger, err)
			return
		}

		render.JSON(w, r, response.OkMessage("Ticket status updated", ticket))
	}
}
