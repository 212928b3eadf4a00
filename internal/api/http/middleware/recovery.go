package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/nft-studio-backend/pkg/logger"
)

// RecoveryMiddleware turns a panic into a logged 500 without leaking the
// stack to the client.
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.FromContext(c.Request.Context()).Error().
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", string(debug.Stack())).
					Msg("panic recovered")

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"ok":    false,
					"error": gin.H{"kind": "Internal", "message": "internal error"},
				})
			}
		}()
		c.Next()
	}
}
