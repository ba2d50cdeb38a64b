package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"piperblog/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// APIHandler serves the editor's JSON endpoints.
type APIHandler struct {
	postService *services.PostService
	log         zerolog.Logger
}

func NewAPIHandler(postService *services.PostService, log zerolog.Logger) *APIHandler {
	return &APIHandler{
		postService: postService,
		log:         log,
	}
}

type contentRequest struct {
	ID      uint   `json:"id" binding:"required"`
	Content string `json:"content"`
}

// SaveContent handles the editor autosave: {id, content} -> {"status":"ok"}.
func (h *APIHandler) SaveContent(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": T(c, "error.bad_request")})
		return
	}

	err := h.postService.UpdateContent(c.Request.Context(), req.ID, req.Content)
	if errors.Is(err, services.ErrPostNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": T(c, "error.post_not_found")})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Uint("post_id", req.ID).Msg("autosave failed")
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": T(c, "error.internal")})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetPost returns one post with its rendered content, used by the editor preview.
func (h *APIHandler) GetPost(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": T(c, "error.bad_request")})
		return
	}
	post, err := h.postService.GetByID(c.Request.Context(), uint(id))
	if errors.Is(err, services.ErrPostNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": T(c, "error.post_not_found")})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("load post failed")
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": T(c, "error.internal")})
		return
	}
	c.JSON(http.StatusOK, post)
}
