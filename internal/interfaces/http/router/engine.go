package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/helenrm365/rm365-tools-testing-sub001/internal/infrastructure/logger"
	"github.com/helenrm365/rm365-tools-testing-sub001/internal/infrastructure/telemetry"
	"github.com/helenrm365/rm365-tools-testing-sub001/internal/interfaces/http/dto"
	"github.com/helenrm365/rm365-tools-testing-sub001/internal/interfaces/http/middleware"
)

const (
	HealthPath  = "/health"
	MetricsPath = "/metrics"
)

// EngineConfig wires the cross-cutting pieces of the HTTP server
type EngineConfig struct {
	Logger      *zap.Logger
	HTTPMetrics *telemetry.HTTPMetrics
	// MetricsHandler is mounted at MetricsPath (default /metrics) when set
	MetricsHandler http.Handler
	MetricsPath    string
	Health         gin.HandlerFunc
	BodyLimit      int64
}

// NewEngine creates a gin engine with the standard middleware chain:
// request ID, panic recovery, access log, metrics and body limit.
func NewEngine(cfg EngineConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	metricsPath := cfg.MetricsPath
	if metricsPath == "" {
		metricsPath = MetricsPath
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log, HealthPath, metricsPath),
		middleware.HTTPMetrics(cfg.HTTPMetrics, metricsPath),
		middleware.BodyLimit(cfg.BodyLimit),
	)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeNotFound, "Route not found", middleware.GetRequestID(c)))
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeInvalidInput, "Method not allowed", middleware.GetRequestID(c)))
	})

	if cfg.Health != nil {
		engine.GET(HealthPath, cfg.Health)
	}
	if cfg.MetricsHandler != nil {
		engine.GET(metricsPath, gin.WrapH(cfg.MetricsHandler))
	}
	return engine
}
