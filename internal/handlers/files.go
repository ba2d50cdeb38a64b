package handlers

import (
	"net/http"
	"path"
	"strings"

	"piperblog/internal/constants"
	"piperblog/internal/services"
	"piperblog/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type FileHandler struct {
	fileService *services.FileService
	store       storage.Storage
	log         zerolog.Logger
}

func NewFileHandler(fileService *services.FileService, store storage.Storage, log zerolog.Logger) *FileHandler {
	return &FileHandler{fileService: fileService, store: store, log: log}
}

func (h *FileHandler) List(c *gin.Context) {
	files, err := h.fileService.List(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list files")
		renderError(c, http.StatusInternalServerError, "error.internal")
		return
	}
	render(c, http.StatusOK, "admin/files.html", gin.H{
		"Files":       files,
		"MaxUploadMB": SiteFrom(c).Storage.MaxUploadMB,
	})
}

func (h *FileHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		redirectWithFlash(c, "/admin/files", constants.FlashError, "error.no_file")
		return
	}
	f, err := header.Open()
	if err != nil {
		h.log.Error().Err(err).Msg("cannot open upload")
		redirectWithFlash(c, "/admin/files", constants.FlashError, "error.internal")
		return
	}
	defer f.Close()

	if _, err := h.fileService.Upload(c.Request.Context(), header.Filename, f, header.Size); err != nil {
		key, known := errorKey(err)
		if !known {
			h.log.Error().Err(err).Str("file", header.Filename).Msg("upload failed")
		}
		redirectWithFlash(c, "/admin/files", constants.FlashError, key)
		return
	}
	redirectWithFlash(c, "/admin/files", constants.FlashSuccess, "file.uploaded")
}

// Delete removes a file by its plain name.
func (h *FileHandler) Delete(c *gin.Context) {
	if err := h.fileService.Delete(c.Request.Context(), c.PostForm("name")); err != nil {
		key, known := errorKey(err)
		if !known {
			h.log.Error().Err(err).Msg("delete failed")
		}
		redirectWithFlash(c, "/admin/files", constants.FlashError, key)
		return
	}
	redirectWithFlash(c, "/admin/files", constants.FlashSuccess, "file.deleted")
}

// Serve sends a locally stored upload, or redirects to the bucket URL. It runs
// outside the session middleware.
func (h *FileHandler) Serve(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("path"), "/")
	if name == "" || path.Base(name) != name {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	local, ok := h.store.(*storage.Local)
	if !ok {
		c.Redirect(http.StatusFound, h.store.URL(name))
		return
	}
	p := local.Path(name)
	if p == "" {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	c.Header("X-Content-Type-Options", "nosniff")
	c.File(p)
}
