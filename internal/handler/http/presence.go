package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prlessa/My-Stickly-Notes/internal/service"
)

// PresenceHandler exposes the active-user roster over HTTP. The HTTP
// heartbeat doubles as the polling fallback for clients without a live
// websocket.
type PresenceHandler struct {
	presenceService *service.PresenceService
}

func NewPresenceHandler(presenceService *service.PresenceService) *PresenceHandler {
	return &PresenceHandler{presenceService: presenceService}
}

type heartbeatRequest struct {
	Name string `json:"name"`
}

// Heartbeat handles POST /api/panels/:code/users.
func (h *PresenceHandler) Heartbeat(c *gin.Context) {
	var req heartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.presenceService.Heartbeat(c.Request.Context(), c.Param("code"), req.Name); err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, gin.H{"success": true})
}

// Roster handles GET /api/panels/:code/users.
func (h *PresenceHandler) Roster(c *gin.Context) {
	roster, err := h.presenceService.ActiveRoster(c.Request.Context(), c.Param("code"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, roster)
}

// Leave handles DELETE /api/panels/:code/users/:name.
func (h *PresenceHandler) Leave(c *gin.Context) {
	if err := h.presenceService.Remove(c.Request.Context(), c.Param("code"), c.Param("name")); err != nil {
		HandleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
