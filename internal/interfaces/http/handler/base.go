package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/helenrm365/rm365-tools-testing-sub001/internal/domain/shared"
	"github.com/helenrm365/rm365-tools-testing-sub001/internal/infrastructure/logger"
	"github.com/helenrm365/rm365-tools-testing-sub001/internal/interfaces/http/dto"
	"github.com/helenrm365/rm365-tools-testing-sub001/internal/interfaces/http/middleware"
)

// RetryAfterSeconds is advertised on 503 responses
const RetryAfterSeconds = 5

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response, deriving the status from the code
func (h *BaseHandler) Error(c *gin.Context, code, message string) {
	c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, dto.ErrCodeInvalidInput, message)
}

// HandleError converts service errors to HTTP responses: domain errors by
// code, retryable upstream failures as 503 with Retry-After, anything else 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		h.Error(c, dto.NormalizeErrorCode(domainErr.Code), domainErr.Message)
		return
	}

	log := logger.GetGinLogger(c)
	if shared.IsRetryable(err) {
		log.Warn("upstream unavailable", zap.Error(err))
		c.Header("Retry-After", strconv.Itoa(RetryAfterSeconds))
		h.Error(c, dto.ErrCodeUpstreamUnavailable, "A dependency is temporarily unavailable, retry later")
		return
	}

	log.Error("request failed", zap.Error(err))
	h.Error(c, dto.ErrCodeInternal, "An unexpected error occurred")
}
