package helpers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"lead-checkout/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	NotFound                  = "not found"
	ServerError               = "server error"
	OK                        = "OK"
	AccessControlAllowMethods = "Access-Control-Allow-Methods"
	AccessControlAllowHeaders = "Access-Control-Allow-Headers"
	CORSMethodsOptPost        = "OPTIONS, POST"
	CORSMethodsOptGet         = "OPTIONS, GET"
)

// Simple404 sets a quick and easy 404 gin response
func Simple404(c *gin.Context) {
	c.Data(http.StatusNotFound, "text/plain", []byte(NotFound))
}

// Simple500 sets a quick and easy 500 gin response
func Simple500(c *gin.Context) {
	c.Data(http.StatusInternalServerError, "text/plain", []byte(ServerError))
}

// Simple200OK sets a quick and easy gin response, typically used for Options
// preflight CORS requests
func Simple200OK(c *gin.Context) {
	c.Data(http.StatusOK, "text/plain", []byte(OK))
}

// SetCORSMethods sets the allowed methods and the content-type header for
// CORS preflight responses
func SetCORSMethods(c *gin.Context, methods string) {
	c.Header(AccessControlAllowMethods, methods)
	c.Header(AccessControlAllowHeaders, "Content-Type")
}

// JSONError aborts with the {"error": msg} body the frontend expects
func JSONError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{Error: msg})
}

// NewLogger builds the production zap logger at the given level
// (debug, info, warn, error).
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// RequestLogger logs method, path, status and latency.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// Recovery turns a handler panic into a logged plain 500.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		logger.Error("panic serving request",
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", recovered),
		)
		Simple500(c)
		c.Abort()
	})
}
