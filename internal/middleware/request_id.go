package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"account-service/internal/observability"
)

// RequestIDContextKey is where the request id is stored on the gin context.
const RequestIDContextKey = "request_id"

// RequestID reuses the caller's X-Request-ID or assigns a fresh one, and
// echoes it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := observability.RequestIDFromRequest(c.Request)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDContextKey, requestID)
		c.Header(observability.RequestIDHeader, requestID)
		c.Next()
	}
}
