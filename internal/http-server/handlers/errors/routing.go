package errors

import (
	"StoreChat/internal/lib/api/response"
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
)

// NotFound answers requests that match no route.
func NotFound(log *slog.Logger) http.HandlerFunc {
	return routingError(log, http.StatusNotFound, "Requested resource not found")
}

// NotAllowed answers requests whose path matches but method does not.
func NotAllowed(log *slog.Logger) http.HandlerFunc {
	return routingError(log, http.StatusMethodNotAllowed, "Method not allowed")
}

func routingError(log *slog.Logger, status int, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("unrouted request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
		)
		render.Status(r, status)
		render.JSON(w, r, response.Error(message))
	}
}
