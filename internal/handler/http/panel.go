package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/prlessa/My-Stickly-Notes/internal/service"
)

// PanelHandler exposes panel creation and admission over HTTP.
type PanelHandler struct {
	panelService *service.PanelService
}

func NewPanelHandler(panelService *service.PanelService) *PanelHandler {
	return &PanelHandler{panelService: panelService}
}

type createPanelRequest struct {
	Name        string `json:"name"`
	Variant     string `json:"type"`
	Password    string `json:"password"`
	Creator     string `json:"creator"`
	BorderColor string `json:"borderColor"`
}

// Create handles POST /api/panels.
func (h *PanelHandler) Create(c *gin.Context) {
	var req createPanelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	panel, err := h.panelService.Create(c.Request.Context(), service.CreatePanelInput{
		Name:        req.Name,
		Variant:     req.Variant,
		Password:    req.Password,
		Creator:     req.Creator,
		BorderColor: req.BorderColor,
	})
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	logrus.WithField("code", panel.Code).Info("Panel created via API")
	SuccessResponse(c, http.StatusCreated, panel)
}

type admitRequest struct {
	Password string `json:"password"`
	UserName string `json:"userName"`
}

// Admit handles POST /api/panels/:code.
func (h *PanelHandler) Admit(c *gin.Context) {
	var req admitRequest
	// Body is optional for open panels.
	_ = c.ShouldBindJSON(&req)

	panel, err := h.panelService.Admit(c.Request.Context(), c.Param("code"), req.Password, req.UserName)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, panel)
}
