package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db          Pinger
	pingTimeout time.Duration
}

func NewHealthHandler(db Pinger, pingTimeout time.Duration) *HealthHandler {
	return &HealthHandler{db: db, pingTimeout: pingTimeout}
}

// ServeHTTP reports 503 when the token store cannot be reached.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.pingTimeout)
	defer cancel()

	status := http.StatusOK
	body := map[string]any{
		"status":    "ok",
		"database":  "ok",
		"timestamp": time.Now().UnixMilli(),
	}

	if err := h.db.Ping(ctx); err != nil {
		log.Error().Err(err).Msg("health check: database ping failed")
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["database"] = "unavailable"
	}

	writeJSON(w, status, body)
}
