package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/nft-studio-backend/pkg/logger"
)

const CtxFirebaseUID = "firebase_uid"

// SetUser records the acting user on the gin context and tags the
// request-scoped logger with the uid.
func SetUser(c *gin.Context, uid string) {
	c.Set(CtxFirebaseUID, uid)

	ctx := c.Request.Context()
	l := logger.FromContext(ctx).With().Str("uid", uid).Logger()
	c.Request = c.Request.WithContext(logger.WithContext(ctx, l))
}

// UserFirebaseUID returns the uid set by SetUser. Projects, NFTs and
// batch runs are owned by this value.
func UserFirebaseUID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxFirebaseUID))
}
