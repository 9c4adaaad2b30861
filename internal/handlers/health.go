package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler responds with service health information.
type HealthHandler struct {
	DB Pinger
}

// Live implements GET /healthz.
func (HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	respond(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"}, "ok")
}

// Ready implements GET /api/v1/healthcheck. It reports 503 while the
// database is unreachable.
func (h HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.DB != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := h.DB.Ping(pingCtx); err != nil {
			respond(ctx, w, http.StatusServiceUnavailable, map[string]string{"database": "unreachable"}, "service unavailable")
			return
		}
	}
	respond(ctx, w, http.StatusOK, map[string]string{"database": "ok"}, "health check passed")
}
