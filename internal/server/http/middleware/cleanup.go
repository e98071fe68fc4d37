package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/coursemart/internal/server/http/dto"
)

// CleanupTokenHeader carries the shared secret of the cleanup trigger.
const CleanupTokenHeader = "X-Cleanup-Token"

// CleanupGuard restricts maintenance endpoints to callers presenting token.
// An empty token leaves the endpoint open for network-level restriction.
func CleanupGuard(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		got := c.GetHeader(CleanupTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.Failure("cleanup token required"))
			return
		}
		c.Next()
	}
}
