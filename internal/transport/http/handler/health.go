package handler

import (
	"net/http"

	"github.com/wx-callback-gateway/internal/infrastructure/memstore"
)

// StatsProvider reports live credential-store table sizes.
type StatsProvider interface {
	Snapshot() memstore.Stats
}

// HealthHandler handles liveness and store statistics.
type HealthHandler struct {
	stats StatsProvider
}

func NewHealthHandler(stats StatsProvider) *HealthHandler {
	return &HealthHandler{stats: stats}
}

func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Message string         `json:"message"`
		Storage memstore.Stats `json:"storage"`
	}{"pong", h.stats.Snapshot()})
}
