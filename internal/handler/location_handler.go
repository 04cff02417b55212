package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/marinedrive/phyto-backend/internal/models"
	"github.com/marinedrive/phyto-backend/internal/service"
	"github.com/marinedrive/phyto-backend/pkg/response"
)

// LocationHandler handles HTTP requests for species occurrence markers
type LocationHandler struct {
	locationService *service.LocationService
	logger          *zap.Logger
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(locationService *service.LocationService, logger *zap.Logger) *LocationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocationHandler{
		locationService: locationService,
		logger:          logger,
	}
}

// GetLocations handles GET /api/v1/phytoplankton/locations
func (h *LocationHandler) GetLocations(c *gin.Context) {
	var q models.LocationQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	res, err := h.locationService.Get(c.Request.Context(), q)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	response.Success(c, res)
}

// IngestMarkers handles POST /api/v1/phytoplankton/locations
func (h *LocationHandler) IngestMarkers(c *gin.Context) {
	var req models.MarkerIngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "bad json")
		return
	}

	res, err := h.locationService.Ingest(req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	response.Success(c, res)
}

// ListSpecies handles GET /api/v1/phytoplankton/locations/species
func (h *LocationHandler) ListSpecies(c *gin.Context) {
	response.Success(c, gin.H{"species": h.locationService.Species()})
}

// ClearCache handles DELETE /api/v1/phytoplankton/locations
func (h *LocationHandler) ClearCache(c *gin.Context) {
	h.locationService.Clear()
	response.Success(c, gin.H{"ok": true})
}
