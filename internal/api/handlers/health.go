package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/greg-czaplicki/parlay-picker/internal/services"
)

type HealthHandler struct {
	courseFit *services.CourseFitService
	sync      *services.SyncService
	hub       *services.WebSocketHub
}

func NewHealthHandler(courseFit *services.CourseFitService, sync *services.SyncService, hub *services.WebSocketHub) *HealthHandler {
	return &HealthHandler{
		courseFit: courseFit,
		sync:      sync,
		hub:       hub,
	}
}

// GetHealth returns basic health status - always returns 200 if server is running
// This is used for basic liveness probes
func (h *HealthHandler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"time":    time.Now().UTC(),
		"service": "parlay-picker",
	})
}

// GetStatus reports dependency state: course fit breaker, last sync, clients
func (h *HealthHandler) GetStatus(c *gin.Context) {
	status := gin.H{
		"status":     "ok",
		"ws_clients": h.hub.ClientCount(),
	}
	if h.courseFit != nil {
		status["course_fit_breaker"] = h.courseFit.BreakerState()
	}
	if h.sync != nil {
		if last := h.sync.LastSync(); !last.IsZero() {
			status["last_sync"] = last
		}
	}
	c.JSON(http.StatusOK, status)
}
