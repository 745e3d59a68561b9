package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"trip-service/internal/middleware"
)

const requestIDKey = "request_id"

// requestIDFromContext returns the inbound X-Request-ID, minting and caching
// one when the caller did not send any.
func requestIDFromContext(c *gin.Context) string {
	if id := c.GetString(requestIDKey); id != "" {
		return id
	}
	id := c.GetHeader("X-Request-ID")
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(requestIDKey, id)
	return id
}

func userIDFromContext(c *gin.Context) *int64 {
	if id := middleware.UserID(c); id != 0 {
		return &id
	}
	return nil
}
