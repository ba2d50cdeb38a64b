package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"piperblog/internal/constants"
	"piperblog/internal/models"
	"piperblog/internal/sanitizer"
	"piperblog/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type PostHandler struct {
	postService     *services.PostService
	categoryService *services.CategoryService
	log             zerolog.Logger
}

func NewPostHandler(postService *services.PostService, categoryService *services.CategoryService, log zerolog.Logger) *PostHandler {
	return &PostHandler{
		postService:     postService,
		categoryService: categoryService,
		log:             log,
	}
}

func (h *PostHandler) List(c *gin.Context) {
	query := c.Query("q")
	status := c.DefaultQuery("status", "all")

	posts, err := h.postService.ListForAdmin(c.Request.Context(), query, status)
	if errors.Is(err, services.ErrInvalidStatus) {
		c.Redirect(http.StatusFound, "/admin/posts")
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	render(c, http.StatusOK, "admin/posts.html", gin.H{
		"Posts":    posts,
		"Query":    query,
		"Status":   status,
		"Statuses": []models.PostStatus{models.PostStatusDraft, models.PostStatusPublished, models.PostStatusArchived},
	})
}

// Action applies publish, unpublish, archive or delete to one post.
func (h *PostHandler) Action(c *gin.Context) {
	id, err := strconv.ParseUint(c.PostForm("id"), 10, 64)
	if err != nil {
		redirectWithFlash(c, "/admin/posts", constants.FlashError, "error.post_not_found")
		return
	}
	action := c.PostForm("action")

	var msg string
	if action == "delete" {
		archived, derr := h.postService.Delete(c.Request.Context(), uint(id))
		err = derr
		msg = "post.deleted"
		if archived {
			msg = "post.archived"
		}
	} else {
		err = h.postService.ApplyAction(c.Request.Context(), uint(id), action)
		msg = "post." + action + "ed"
		if action == "archive" {
			msg = "post.archived"
		}
	}
	if err != nil {
		key, known := errorKey(err)
		if !known {
			h.log.Error().Err(err).Uint64("post_id", id).Str("action", action).Msg("post action failed")
		}
		redirectWithFlash(c, "/admin/posts", constants.FlashError, key)
		return
	}
	redirectWithFlash(c, "/admin/posts", constants.FlashSuccess, msg)
}

func (h *PostHandler) New(c *gin.Context) {
	render(c, http.StatusOK, "admin/post_new.html", gin.H{"Title": ""})
}

// Create makes a draft from a title and opens the editor.
func (h *PostHandler) Create(c *gin.Context) {
	title := c.PostForm("title")
	authorID := uint(0)
	if id := CurrentIdentity(c); id != nil {
		authorID = id.ID
	}
	post, err := h.postService.CreateDraft(c.Request.Context(), title, authorID)
	if err != nil {
		key, known := errorKey(err)
		if !known {
			h.fail(c, err)
			return
		}
		render(c, http.StatusUnprocessableEntity, "admin/post_new.html", gin.H{"Error": key, "Title": title})
		return
	}
	c.Redirect(http.StatusSeeOther, "/admin/posts/"+strconv.FormatUint(uint64(post.ID), 10)+"/edit")
}

func (h *PostHandler) Edit(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		renderError(c, http.StatusNotFound, "error.post_not_found")
		return
	}
	post, err := h.postService.GetByID(c.Request.Context(), id)
	if errors.Is(err, services.ErrPostNotFound) {
		renderError(c, http.StatusNotFound, "error.post_not_found")
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	h.renderEditor(c, http.StatusOK, post, "")
}

func (h *PostHandler) renderEditor(c *gin.Context, status int, post *models.Post, errKey string) {
	categories, err := h.categoryService.All(c.Request.Context())
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to load categories")
	}
	render(c, status, "admin/post_edit.html", gin.H{
		"Post":       post,
		"Categories": categories,
		"Formats":    sanitizer.Formats,
		"Statuses":   []models.PostStatus{models.PostStatusDraft, models.PostStatusPublished, models.PostStatusArchived},
		"Error":      errKey,
	})
}

// Save applies the full editor form.
func (h *PostHandler) Save(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		renderError(c, http.StatusNotFound, "error.post_not_found")
		return
	}
	in := services.PostInput{
		Title:     c.PostForm("title"),
		Excerpt:   c.PostForm("excerpt"),
		Source:    c.PostForm("content"),
		Format:    c.PostForm("format"),
		HeroImage: c.PostForm("hero_image"),
		Status:    models.PostStatus(c.PostForm("status")),
	}
	if raw := c.PostForm("category_id"); raw != "" && raw != "0" {
		cid, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			in.CategoryID = new(uint)
		} else {
			v := uint(cid)
			in.CategoryID = &v
		}
	}

	post, err := h.postService.Save(c.Request.Context(), id, in)
	if errors.Is(err, services.ErrPostNotFound) {
		renderError(c, http.StatusNotFound, "error.post_not_found")
		return
	}
	if err != nil {
		key, known := errorKey(err)
		if !known {
			h.fail(c, err)
			return
		}
		draft := &models.Post{
			ID:         id,
			Title:      in.Title,
			Excerpt:    in.Excerpt,
			Source:     in.Source,
			Format:     in.Format,
			HeroImage:  in.HeroImage,
			Status:     in.Status,
			CategoryID: in.CategoryID,
		}
		h.renderEditor(c, http.StatusUnprocessableEntity, draft, key)
		return
	}
	redirectWithFlash(c, "/admin/posts/"+strconv.FormatUint(uint64(post.ID), 10)+"/edit", constants.FlashSuccess, "post.saved")
}

func (h *PostHandler) fail(c *gin.Context, err error) {
	h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	renderError(c, http.StatusInternalServerError, "error.internal")
}

func postID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
