package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/marinedrive/phyto-backend/internal/service"
	"github.com/marinedrive/phyto-backend/pkg/response"
)

// IconHandler handles HTTP requests for species illustrations
type IconHandler struct {
	iconService *service.IconService
	logger      *zap.Logger
}

// NewIconHandler creates a new icon handler
func NewIconHandler(iconService *service.IconService, logger *zap.Logger) *IconHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IconHandler{iconService: iconService, logger: logger}
}

// ListIcons handles GET /api/v1/icons
func (h *IconHandler) ListIcons(c *gin.Context) {
	files, err := h.iconService.List()
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.Success(c, gin.H{"files": files})
}

// MatchIcon handles GET /api/v1/icons/match
func (h *IconHandler) MatchIcon(c *gin.Context) {
	file, err := h.iconService.Match(c.Query("name"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.Success(c, gin.H{"file": file})
}
