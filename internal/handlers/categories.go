package handlers

import (
	"net/http"

	"piperblog/internal/constants"
	"piperblog/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type CategoryHandler struct {
	categoryService *services.CategoryService
	log             zerolog.Logger
}

func NewCategoryHandler(categoryService *services.CategoryService, log zerolog.Logger) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService, log: log}
}

func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.categoryService.List(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list categories")
		renderError(c, http.StatusInternalServerError, "error.internal")
		return
	}
	render(c, http.StatusOK, "admin/categories.html", gin.H{"Categories": categories})
}

func (h *CategoryHandler) Create(c *gin.Context) {
	_, err := h.categoryService.Create(c.Request.Context(), c.PostForm("name"))
	h.done(c, err, "category.created")
}

func (h *CategoryHandler) Rename(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		redirectWithFlash(c, "/admin/categories", constants.FlashError, "error.category_not_found")
		return
	}
	h.done(c, h.categoryService.Rename(c.Request.Context(), id, c.PostForm("name")), "category.renamed")
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		redirectWithFlash(c, "/admin/categories", constants.FlashError, "error.category_not_found")
		return
	}
	h.done(c, h.categoryService.Delete(c.Request.Context(), id), "category.deleted")
}

func (h *CategoryHandler) done(c *gin.Context, err error, successKey string) {
	if err != nil {
		key, known := errorKey(err)
		if !known {
			h.log.Error().Err(err).Msg("category change failed")
		}
		redirectWithFlash(c, "/admin/categories", constants.FlashError, key)
		return
	}
	redirectWithFlash(c, "/admin/categories", constants.FlashSuccess, successKey)
}
