package handlers

import (
	"net/http"

	"piperblog/internal/services"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	statsService *services.StatsService
}

func NewAdminHandler(statsService *services.StatsService) *AdminHandler {
	return &AdminHandler{statsService: statsService}
}

// Dashboard shows site totals and the latest posts.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	render(c, http.StatusOK, "admin/dashboard.html", gin.H{
		"Stats": h.statsService.Dashboard(c.Request.Context()),
	})
}
