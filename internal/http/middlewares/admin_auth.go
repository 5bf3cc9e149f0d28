package middlewares

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/lotto-treasury/internal/common"
)

const AdminTokenHeader = "X-Admin-Token"

// AdminAuth guards admin routes with a shared token. An empty token closes
// the admin routes entirely.
func AdminAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			abort(c, common.HTTPErrorForbidden("admin routes are disabled"))
			return
		}
		got := c.GetHeader(AdminTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			abort(c, common.HTTPErrorUnauthorized("invalid admin token"))
			return
		}
		c.Next()
	}
}

func abort(c *gin.Context, httpErr *common.HttpError) {
	c.AbortWithStatusJSON(httpErr.StatusCode, gin.H{
		"success": false,
		"code":    httpErr.Code,
		"error":   httpErr.Message,
	})
}
