package server

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/pantry-tracker/internal/common"
)

const (
	headerRequestID = "X-Request-ID"
	headerUserID    = "X-User-ID"
	ctxKeyUserID    = "user_id"
)

// RequestID propagates or generates X-Request-ID and stores it on the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(headerRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header(headerRequestID, requestID)
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// RequestLogger logs one line per request, at a level picked from the status code.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"status", status,
			"method", c.Request.Method,
			"path", path,
			"elapsed_ms", time.Since(start).Milliseconds(),
			"req_id", common.RequestIDFromContext(c.Request.Context()),
		}
		if uid, ok := common.UserIDFromContext(c.Request.Context()); ok {
			attrs = append(attrs, "user_id", uid)
		}

		switch {
		case status >= 500:
			logger.Error("http.request", attrs...)
		case status >= 400:
			logger.Warn("http.request", attrs...)
		default:
			logger.Info("http.request", attrs...)
		}
	}
}

// Recovery turns a handler panic into a 500.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				requestID := common.RequestIDFromContext(c.Request.Context())
				logger.Error("http.panic",
					"error", err,
					"req_id", requestID,
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"stack", string(debug.Stack()),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":      "internal_error",
					"request_id": requestID,
				})
			}
		}()
		c.Next()
	}
}

// RequireUser reads the caller's id from X-User-ID. Authentication happens upstream.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(headerUserID)
		userID, err := strconv.ParseInt(raw, 10, 64)
		if raw == "" || err != nil || userID <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_user", "message": "X-User-ID header must be a positive integer"})
			return
		}
		c.Set(ctxKeyUserID, userID)
		c.Request = c.Request.WithContext(common.WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}

func userID(c *gin.Context) int64 {
	return c.GetInt64(ctxKeyUserID)
}
