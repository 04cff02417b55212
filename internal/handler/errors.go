package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/marinedrive/phyto-backend/internal/service"
	"github.com/marinedrive/phyto-backend/pkg/response"
)

// writeError maps service errors onto the response envelope
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrEmptySpecies),
		errors.Is(err, service.ErrInvalidBody),
		errors.Is(err, service.ErrInvalidOption):
		response.BadRequest(c, err.Error())
	case errors.Is(err, context.Canceled):
		// client went away; nothing left to answer
		c.Abort()
	default:
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		response.InternalError(c, err.Error())
	}
}
