package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/greg-czaplicki/parlay-picker/internal/services"
)

// WebSocketHandler upgrades client connections onto the broadcast hub
type WebSocketHandler struct {
	hub      *services.WebSocketHub
	upgrader websocket.Upgrader
	logger   *logrus.Logger
}

func NewWebSocketHandler(hub *services.WebSocketHub, allowedOrigins []string, logger *logrus.Logger) *WebSocketHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return &WebSocketHandler{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// Non-browser clients send no Origin header
				return origin == "" || allowed[origin]
			},
		},
	}
}

// HandleWebSocket upgrades the request and registers the client
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	h.hub.Register(conn)
}
