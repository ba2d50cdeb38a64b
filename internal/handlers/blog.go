package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"piperblog/internal/constants"
	"piperblog/internal/models"
	"piperblog/internal/services"
	"piperblog/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type BlogHandler struct {
	postService     *services.PostService
	commentService  *services.CommentService
	categoryService *services.CategoryService
	log             zerolog.Logger
}

func NewBlogHandler(postService *services.PostService, commentService *services.CommentService, categoryService *services.CategoryService, log zerolog.Logger) *BlogHandler {
	return &BlogHandler{
		postService:     postService,
		commentService:  commentService,
		categoryService: categoryService,
		log:             log,
	}
}

func (h *BlogHandler) Index(c *gin.Context) {
	ctx := c.Request.Context()
	site := SiteFrom(c)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize := site.App.PostsPerPage
	if pageSize <= 0 {
		pageSize = 10
	}

	var categoryID *uint
	var category *models.Category
	extra := url.Values{}
	if slug := c.Query("category"); slug != "" {
		found, err := h.categoryService.FindBySlug(ctx, slug)
		if err != nil {
			h.NotFound(c)
			return
		}
		category = found
		categoryID = &found.ID
		extra.Set("category", slug)
	}

	if page < 1 {
		page = 1
	}
	posts, total, err := h.postService.ListPublished(ctx, page, pageSize, categoryID)
	if err != nil {
		h.serverError(c, err)
		return
	}
	totalPages := utils.TotalPages(total, pageSize)
	if clamped := utils.ClampPage(page, totalPages); clamped != page {
		page = clamped
		if posts, _, err = h.postService.ListPublished(ctx, page, pageSize, categoryID); err != nil {
			h.serverError(c, err)
			return
		}
	}
	categories, err := h.categoryService.List(ctx)
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to load categories")
	}

	render(c, http.StatusOK, "index.html", gin.H{
		"Posts":      posts,
		"Categories": categories,
		"Category":   category,
		"Pagination": utils.GeneratePagination(page, totalPages, extra),
	})
}

// ShowPost renders a published article with its approved comments.
func (h *BlogHandler) ShowPost(c *gin.Context) {
	post, err := h.postService.GetPublishedBySlug(c.Request.Context(), c.Param("slug"))
	if errors.Is(err, services.ErrPostNotFound) {
		h.NotFound(c)
		return
	}
	if err != nil {
		h.serverError(c, err)
		return
	}
	form := commentForm{}
	if id, err := strconv.ParseUint(c.Query("reply_to"), 10, 64); err == nil {
		form.ParentID = uint(id)
	}
	h.renderPost(c, http.StatusOK, post, form, "")
}

type commentForm struct {
	Name     string
	Email    string
	Content  string
	ParentID uint
}

func (h *BlogHandler) renderPost(c *gin.Context, status int, post *models.Post, form commentForm, errKey string) {
	comments, total, err := h.commentService.Thread(c.Request.Context(), post.ID)
	if err != nil {
		h.serverError(c, err)
		return
	}
	challenge := currentChallenge(c)

	render(c, status, "post.html", gin.H{
		"Post":          post,
		"Comments":      comments,
		"CommentCount":  total,
		"Challenge":     challenge,
		"Form":          form,
		"CommentError":  errKey,
		"OGDescription": post.Excerpt,
	})
}

// SubmitComment stores a pending comment after the arithmetic check.
func (h *BlogHandler) SubmitComment(c *gin.Context) {
	ctx := c.Request.Context()
	post, err := h.postService.GetPublishedBySlug(ctx, c.Param("slug"))
	if errors.Is(err, services.ErrPostNotFound) {
		h.NotFound(c)
		return
	}
	if err != nil {
		h.serverError(c, err)
		return
	}

	form := commentForm{
		Name:    strings.TrimSpace(c.PostForm("name")),
		Email:   strings.TrimSpace(c.PostForm("email")),
		Content: c.PostForm("content"),
	}
	in := services.CommentInput{
		PostID:    post.ID,
		Name:      form.Name,
		Email:     form.Email,
		Content:   form.Content,
		Answer:    c.PostForm("spam_answer"),
		Challenge: currentChallenge(c),
	}
	if raw := c.PostForm("parent_id"); raw != "" && raw != "0" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			h.renderPost(c, http.StatusUnprocessableEntity, post, form, "error.invalid_parent")
			return
		}
		parent := uint(id)
		in.ParentID = &parent
		form.ParentID = parent
	}

	_, err = h.commentService.Submit(ctx, in)
	if err != nil {
		key, known := errorKey(err)
		if !known {
			h.serverError(c, err)
			return
		}
		if errors.Is(err, services.ErrSpamCheckFailed) {
			newChallenge(c)
		}
		h.renderPost(c, http.StatusUnprocessableEntity, post, form, key)
		return
	}

	newChallenge(c)
	redirectWithFlash(c, "/post/"+post.Slug+"#comments", constants.FlashSuccess, "comment.awaiting_moderation")
}

func (h *BlogHandler) NotFound(c *gin.Context) {
	renderError(c, http.StatusNotFound, "error.not_found")
}

func (h *BlogHandler) serverError(c *gin.Context, err error) {
	h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	renderError(c, http.StatusInternalServerError, "error.internal")
}

// currentChallenge returns the session's spam question, creating one if needed.
func currentChallenge(c *gin.Context) services.Challenge {
	session := sessions.Default(c)
	a, _ := session.Get(constants.SessionKeyChallengeA).(int)
	b, _ := session.Get(constants.SessionKeyChallengeB).(int)
	ch := services.Challenge{A: a, B: b}
	if !ch.Valid() {
		return newChallenge(c)
	}
	return ch
}

func newChallenge(c *gin.Context) services.Challenge {
	ch := services.NewChallenge()
	session := sessions.Default(c)
	session.Set(constants.SessionKeyChallengeA, ch.A)
	session.Set(constants.SessionKeyChallengeB, ch.B)
	session.Save()
	return ch
}
