package websocket

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/prlessa/My-Stickly-Notes/internal/hub"
	"github.com/prlessa/My-Stickly-Notes/internal/service"
)

// WebSocketHandler upgrades connections and registers them with the hub.
type WebSocketHandler struct {
	upgrader     websocket.Upgrader
	hub          *hub.Hub
	panelService *service.PanelService
}

func NewWebSocketHandler(h *hub.Hub, panelService *service.PanelService) *WebSocketHandler {
	if h == nil {
		panic("Hub cannot be nil for WebSocketHandler")
	}
	if panelService == nil {
		panic("PanelService cannot be nil for WebSocketHandler")
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// TODO: restrict origins once the frontend deployment host is fixed.
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	return &WebSocketHandler{upgrader: upgrader, hub: h, panelService: panelService}
}

// HandleConnection handles GET /ws/panel/:code?name=<participant>.
// The panel must exist; admission (password, capacity) happened earlier
// over HTTP, the socket only needs a valid group to join.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	code := c.Param("code")
	name := c.Query("name")
	logCtx := logrus.WithFields(logrus.Fields{"code": code, "name": name})

	panel, err := h.panelService.Lookup(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrPanelNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "panel not found"})
		} else {
			logCtx.WithError(err).Error("Failed to validate panel for websocket")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to validate panel"})
		}
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logCtx.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := hub.NewClient(h.hub, conn, panel.Code, name)
	if !h.hub.QueueMessage(hub.HubMessage{Type: "register", Client: client}) {
		logCtx.Warn("Hub saturated, closing new websocket connection")
		conn.Close()
		return
	}
	client.Run()
}
