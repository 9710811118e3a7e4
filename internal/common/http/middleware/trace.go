package middleware

import (
	"strings"

	"mockinterview/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	traceIDHeader   = "X-Trace-Id"
	requestIDHeader = "X-Request-Id"

	traceIDContextKey   = "trace_id"
	requestIDContextKey = "request_id"
	userIDContextKey    = "user_id"
)

// TraceContextMiddleware ensures trace and request ids are in the context and response headers.
// Incoming ids are kept so a caller can correlate retries across services.
func TraceContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := headerOrNew(c, traceIDHeader)
		requestID := headerOrNew(c, requestIDHeader)

		c.Set(traceIDContextKey, traceID)
		c.Set(requestIDContextKey, requestID)

		c.Request = c.Request.WithContext(logger.ContextWithTrace(c.Request.Context(), traceID, requestID))

		c.Writer.Header().Set(traceIDHeader, traceID)
		c.Writer.Header().Set(requestIDHeader, requestID)

		c.Next()
	}
}

// SetUserID records the authenticated user on the gin and request contexts.
func SetUserID(c *gin.Context, userID int64) {
	c.Set(userIDContextKey, userID)
	c.Request = c.Request.WithContext(logger.ContextWithUser(c.Request.Context(), userID))
}

// UserID returns the authenticated user id set by AuthMiddleware.
func UserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(userIDContextKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok && id > 0
}

func headerOrNew(c *gin.Context, name string) string {
	v := strings.TrimSpace(c.GetHeader(name))
	if v == "" || len(v) > 128 {
		return uuid.NewString()
	}
	return v
}
