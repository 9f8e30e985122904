package handlers

import (
	"context"
	"net/http"
	"time"

	"shoplist-service/internal/models"

	"github.com/gin-gonic/gin"
)

// Pinger is any dependency that can report its liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// RealtimeStats exposes the fan-out load for the health report.
type RealtimeStats interface {
	ListCount() int
}

type SocketStats interface {
	ConnectedUsers() int
}

type BroadcastStats interface {
	Stats() models.BroadcastStats
}

type HealthHandler struct {
	checks     map[string]Pinger
	lists      RealtimeStats
	sockets    SocketStats
	broadcasts BroadcastStats
}

func NewHealthHandler(checks map[string]Pinger, lists RealtimeStats, sockets SocketStats, broadcasts BroadcastStats) *HealthHandler {
	return &HealthHandler{checks: checks, lists: lists, sockets: sockets, broadcasts: broadcasts}
}

// Health godoc
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Failure 503 {object} models.HealthResponse
// @Router /healthz [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := models.HealthResponse{Status: "ok", Checks: map[string]string{}}
	status := http.StatusOK
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	if h.lists != nil {
		resp.ActiveLists = h.lists.ListCount()
	}
	if h.sockets != nil {
		resp.SocketUsers = h.sockets.ConnectedUsers()
	}
	if h.broadcasts != nil {
		stats := h.broadcasts.Stats()
		resp.Broadcast = &stats
	}

	c.JSON(status, resp)
}
