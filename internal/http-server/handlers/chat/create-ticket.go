package chat

import (
	"StoreChat/entity"
	"StoreChat/internal/lib/api/cont"
	"StoreChat/internal/lib/api/response"
	"StoreChat/internal/lib/sl"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

func CreateTicket(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.chat")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			unavailable(w, r, logger)
			return
		}

		var req entity.CreateTicketRequest
		if err := render.Bind(r, &req); err != nil {
			logger.Debug("bad ticket request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request: message is required"))
			return
		}

		created, err := handler.CreateTicket(r.Context(), cont.GetUser(r.Context()), req.Message, req.ProductID)
		if err != nil {
			renderError(w, r, logger, err)
			return
		}
		logger.With(
			slog.String("ticket_id", created.Ticket.MessageID),
		).Debug("ticket created")

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.OkMessage("Support ticket created", created))
	}
}
