package chat

import (
	"StoreChat/entity"
	"StoreChat/internal/lib/api/response"
	"StoreChat/internal/lib/sl"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/render"
)

// renderError maps core errors to HTTP statuses.
func renderError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := http.StatusInternalServerError
	message := "Internal error"
	switch {
	case errors.Is(err, entity.ErrValidation):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, entity.ErrNotAuthorized):
		status, message = http.StatusForbidden, "Access denied"
	case errors.Is(err, entity.ErrNotFound):
		status, message = http.StatusNotFound, "Not found"
	}

	if status == http.StatusInternalServerError {
		logger.Error("request failed", sl.Err(err))
	} else {
		logger.Debug("request rejected", slog.Int("status", status), sl.Err(err))
	}
	render.Status(r, status)
	render.JSON(w, r, response.Error(message))
}

func unavailable(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	logger.Error("chat service not available")
	render.Status(r, http.StatusServiceUnavailable)
	render.JSON(w, r, response.Error("Chat service not available"))
}

func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}
