package health

import (
	"StoreChat/internal/lib/api/response"
	"StoreChat/internal/lib/sl"
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
)

// Checker reports whether a dependency is reachable.
type Checker interface {
	Ping(ctx context.Context) error
}

type Status struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}

// Health always answers 200; storage reachability is reported in the body.
func Health(log *slog.Logger, storage Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := Status{Status: "ok", Storage: "disabled"}
		if storage != nil {
			if err := storage.Ping(r.Context()); err != nil {
				log.Warn("storage ping", sl.Err(err))
				status.Storage = "unreachable"
			} else {
				status.Storage = "ok"
			}
		}
		render.JSON(w, r, response.Ok(status))
	}
}
