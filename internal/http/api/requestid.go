// Package api hosts shared HTTP middleware for the front and admin routers.
package api

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader is the header carrying the request identifier.
const RequestIDHeader = "X-Request-ID"

// requestIDKey is the gin context key for the request identifier.
const requestIDKey = "requestID"

// RequestID assigns every request an identifier, honoring one supplied by
// the caller, and echoes it in the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID returns the request identifier assigned by RequestID.
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
