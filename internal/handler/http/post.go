package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prlessa/My-Stickly-Notes/internal/service"
)

// PostHandler exposes the note lifecycle over HTTP.
type PostHandler struct {
	postService *service.PostService
}

func NewPostHandler(postService *service.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

// List handles GET /api/panels/:code/posts.
func (h *PostHandler) List(c *gin.Context) {
	posts, err := h.postService.List(c.Request.Context(), c.Param("code"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, posts)
}

type createPostRequest struct {
	AuthorName string `json:"author_name"`
	Content    string `json:"content"`
	Color      string `json:"color"`
	PositionX  *int   `json:"position_x"`
	PositionY  *int   `json:"position_y"`
}

// Create handles POST /api/panels/:code/posts.
func (h *PostHandler) Create(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	post, err := h.postService.Create(c.Request.Context(), c.Param("code"), service.CreatePostInput{
		AuthorName: req.AuthorName,
		Content:    req.Content,
		Color:      req.Color,
		PositionX:  req.PositionX,
		PositionY:  req.PositionY,
	})
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, post)
}

type movePostRequest struct {
	PositionX int    `json:"position_x"`
	PositionY int    `json:"position_y"`
	PanelID   string `json:"panel_id"`
}

// Move handles PATCH /api/posts/:postId/position. The panel id scopes
// cache invalidation and the event channel; it comes from the caller.
func (h *PostHandler) Move(c *gin.Context) {
	var req movePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	post, err := h.postService.Move(c.Request.Context(), c.Param("postId"), req.PanelID, req.PositionX, req.PositionY)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, post)
}

// Remove handles DELETE /api/posts/:postId?panel_id=CODE.
func (h *PostHandler) Remove(c *gin.Context) {
	err := h.postService.Remove(c.Request.Context(), c.Param("postId"), c.Query("panel_id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
