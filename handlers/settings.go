package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/guestpost/guestpost/backend/go-services/internal/models"
	"github.com/guestpost/guestpost/backend/go-services/internal/settings"
	"github.com/guestpost/guestpost/backend/go-services/pkg/apperrors"
	"github.com/guestpost/guestpost/backend/go-services/pkg/middleware"
)

type SettingsHandler struct {
	svc *settings.Service
}

func NewSettingsHandler(svc *settings.Service) *SettingsHandler {
	return &SettingsHandler{svc: svc}
}

// Register mounts the settings endpoints behind requireAuth and manage_options.
func (h *SettingsHandler) Register(r gin.IRouter, requireAuth gin.HandlerFunc) {
	g := r.Group("/api", requireAuth, middleware.RequireCapability(models.CapManageOptions))
	g.GET("/settings", h.Get)
	g.POST("/settings", h.Update)
}

type categoryOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

func (h *SettingsHandler) Get(c *gin.Context) {
	s, err := h.svc.Get(c.Request.Context())
	if err != nil {
		fail(c, apperrors.Internal(err))
		return
	}
	cats := []categoryOption{}
	for _, name := range h.svc.Categories() {
		cats = append(cats, categoryOption{Value: name, Label: name})
	}
	c.JSON(http.StatusOK, gin.H{"settings": s, "categories": cats})
}

// Update merges a partial settings object; omitted fields keep their values.
func (h *SettingsHandler) Update(c *gin.Context) {
	var p settings.Patch
	if err := c.ShouldBindJSON(&p); err != nil {
		fail(c, apperrors.ErrInvalidInput.WithMessage("Invalid settings data.").Wrap(err))
		return
	}
	s, err := h.svc.Update(c.Request.Context(), p)
	if err != nil {
		fail(c, apperrors.Internal(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "settings": s})
}
