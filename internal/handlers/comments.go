package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"piperblog/internal/constants"
	"piperblog/internal/models"
	"piperblog/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type CommentAdminHandler struct {
	commentService *services.CommentService
	log            zerolog.Logger
}

func NewCommentAdminHandler(commentService *services.CommentService, log zerolog.Logger) *CommentAdminHandler {
	return &CommentAdminHandler{commentService: commentService, log: log}
}

func (h *CommentAdminHandler) List(c *gin.Context) {
	status := c.DefaultQuery("status", string(models.CommentStatusPending))
	comments, err := h.commentService.ListForAdmin(c.Request.Context(), status)
	if errors.Is(err, services.ErrInvalidStatus) {
		c.Redirect(http.StatusFound, "/admin/comments")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list comments")
		renderError(c, http.StatusInternalServerError, "error.internal")
		return
	}
	render(c, http.StatusOK, "admin/comments.html", gin.H{
		"Comments": comments,
		"Status":   status,
		"Statuses": []string{"pending", "approved", "spam", "all"},
	})
}

// Action moderates one comment: approve, spam or delete.
func (h *CommentAdminHandler) Action(c *gin.Context) {
	back := "/admin/comments?status=" + c.DefaultPostForm("status", "pending")
	id, err := strconv.ParseUint(c.PostForm("id"), 10, 64)
	if err != nil {
		redirectWithFlash(c, back, constants.FlashError, "error.comment_not_found")
		return
	}
	action := c.PostForm("action")
	if err := h.commentService.Moderate(c.Request.Context(), uint(id), action); err != nil {
		key, known := errorKey(err)
		if !known {
			h.log.Error().Err(err).Uint64("comment_id", id).Msg("moderation failed")
		}
		redirectWithFlash(c, back, constants.FlashError, key)
		return
	}
	redirectWithFlash(c, back, constants.FlashSuccess, "comment."+action+"_done")
}
