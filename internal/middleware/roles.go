package middleware

import (
	"construction-backend/internal/errors"
	"construction-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequireRoles 只允许指定角色访问，需放在 AuthMiddleware 之后
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		viewer, ok := CurrentViewer(c)
		if !ok {
			errors.HandleError(c, errors.New(errors.ErrUnauthorized, "authentication required"))
			c.Abort()
			return
		}
		if !allowed[viewer.Role] {
			util.Logger.Warn("角色无权访问",
				zap.Int("user_id", viewer.UserID),
				zap.String("role", viewer.Role),
				zap.String("path", c.Request.URL.Path))
			errors.HandleError(c, errors.New(errors.ErrForbidden, "you do not have permission to access this resource"))
			c.Abort()
			return
		}
		c.Next()
	}
}
