package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/marinedrive/phyto-backend/internal/models"
	"github.com/marinedrive/phyto-backend/internal/service"
	"github.com/marinedrive/phyto-backend/pkg/response"
)

// DefaultHeartbeat is the SSE keep-alive interval
const DefaultHeartbeat = 15 * time.Second

// DetectionHandler handles HTTP requests for the live detection feed
type DetectionHandler struct {
	detectionService *service.DetectionService
	heartbeat        time.Duration
	logger           *zap.Logger
}

// NewDetectionHandler creates a new detection handler
func NewDetectionHandler(detectionService *service.DetectionService, heartbeat time.Duration, logger *zap.Logger) *DetectionHandler {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DetectionHandler{
		detectionService: detectionService,
		heartbeat:        heartbeat,
		logger:           logger,
	}
}

// GetDetections handles GET /api/v1/phytoplankton
func (h *DetectionHandler) GetDetections(c *gin.Context) {
	response.Success(c, h.detectionService.List())
}

// ReplaceDetections handles POST /api/v1/phytoplankton
func (h *DetectionHandler) ReplaceDetections(c *gin.Context) {
	var body interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "bad json")
		return
	}
	items, ok := body.([]interface{})
	if !ok {
		response.BadRequest(c, "Expected an array")
		return
	}

	res, err := h.detectionService.Replace(c.Request.Context(), items, c.ClientIP())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	response.Success(c, res)
}

// Stream handles GET /api/v1/phytoplankton/stream. It sends the current snapshot
// at once, then again after every replace, with a comment line as heartbeat.
func (h *DetectionHandler) Stream(c *gin.Context) {
	updates := make(chan struct{}, 1)
	unsubscribe := h.detectionService.Subscribe(func() {
		select {
		case updates <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache, no-transform")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	h.logger.Debug("stream opened", zap.String("client", c.ClientIP()))
	defer h.logger.Debug("stream closed", zap.String("client", c.ClientIP()))

	ctx := c.Request.Context()
	if err := h.push(c); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			if err := h.push(c); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := io.WriteString(c.Writer, ": heartbeat\n\n"); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}

func (h *DetectionHandler) push(c *gin.Context) error {
	if err := sse.Encode(c.Writer, sse.Event{Data: h.detectionService.List()}); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}

// GetSnapshots handles GET /api/v1/phytoplankton/snapshots
func (h *DetectionHandler) GetSnapshots(c *gin.Context) {
	var filter models.SnapshotFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid limit parameter")
		return
	}

	metas, err := h.detectionService.Snapshots(c.Request.Context(), filter)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	response.Success(c, metas)
}

// GetSummary handles GET /api/v1/phytoplankton/summary
func (h *DetectionHandler) GetSummary(c *gin.Context) {
	summary, err := h.detectionService.Summary()
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	response.Success(c, summary)
}
