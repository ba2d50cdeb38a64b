package handlers

import (
	"net/http"
	"slices"

	"piperblog/internal/constants"
	"piperblog/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type SettingsHandler struct {
	settingService *services.SettingService
	log            zerolog.Logger
}

func NewSettingsHandler(settingService *services.SettingService, log zerolog.Logger) *SettingsHandler {
	return &SettingsHandler{settingService: settingService, log: log}
}

func (h *SettingsHandler) Show(c *gin.Context) {
	tab := c.DefaultQuery("tab", "general")
	if !slices.Contains(services.SettingsTabs, tab) {
		tab = "general"
	}
	h.renderTab(c, http.StatusOK, tab, "")
}

func (h *SettingsHandler) renderTab(c *gin.Context, status int, tab, errKey string) {
	render(c, status, "admin/settings.html", gin.H{
		"Tab":         tab,
		"Tabs":        services.SettingsTabs,
		"Error":       errKey,
		"NeedRestart": services.NeedsRestart(tab),
	})
}

// Update writes one tab back to config.ini.
func (h *SettingsHandler) Update(c *gin.Context) {
	tab := c.PostForm("tab")
	if err := c.Request.ParseForm(); err != nil {
		h.renderTab(c, http.StatusBadRequest, "general", "error.bad_request")
		return
	}
	if err := h.settingService.ApplyTab(tab, c.Request.PostForm); err != nil {
		key, known := errorKey(err)
		if !known {
			h.log.Error().Err(err).Str("tab", tab).Msg("settings update failed")
		} else {
			h.log.Warn().Err(err).Str("tab", tab).Msg("settings rejected")
		}
		if !slices.Contains(services.SettingsTabs, tab) {
			tab = "general"
		}
		h.renderTab(c, http.StatusUnprocessableEntity, tab, key)
		return
	}

	msg := "settings.saved"
	if services.NeedsRestart(tab) {
		msg = "settings.saved_restart"
	}
	redirectWithFlash(c, "/admin/settings?tab="+tab, constants.FlashSuccess, msg)
}

// ThemeCSS serves the custom stylesheet from the theme tab.
func (h *SettingsHandler) ThemeCSS(c *gin.Context) {
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "text/css; charset=utf-8", []byte(h.settingService.ThemeCSS()))
}
