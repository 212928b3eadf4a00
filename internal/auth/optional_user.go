package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	DemoUser = "demo-user"

	maxUserIDLen = 128
)

// OptionalUser trusts the X-User-Id header and falls back to DemoUser.
// Development only: any caller can act as any user.
func OptionalUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := strings.TrimSpace(c.GetHeader("X-User-Id"))
		if len(uid) > maxUserIDLen {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"ok":    false,
				"error": gin.H{"kind": "InvalidRequest", "message": "X-User-Id is too long"},
			})
			return
		}
		if uid == "" {
			uid = DemoUser
		}

		SetUser(c, uid)
		c.Next()
	}
}
