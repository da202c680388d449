package middleware

import (
	"construction-backend/internal/errors"
	"construction-backend/internal/model"
	"construction-backend/internal/util"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
	ctxToken  = "token"
)

// Authenticator 认证中间件需要的用户查询
type Authenticator interface {
	IsTokenBlacklisted(token string) bool
	GetUserByID(id int) (*model.User, error)
}

// bearerToken 从 Authorization 头中取出令牌
func bearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", errors.New(errors.ErrUnauthorized, "authentication required")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if !(len(parts) == 2 && parts[0] == "Bearer") || parts[1] == "" {
		return "", errors.New(errors.ErrUnauthorized, "invalid authorization header")
	}
	return parts[1], nil
}

func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		util.Logger.Debug("进入认证中间件",
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method))

		token, err := bearerToken(c)
		if err != nil {
			errors.HandleError(c, err)
			c.Abort()
			return
		}

		if auth.IsTokenBlacklisted(token) {
			errors.HandleError(c, errors.New(errors.ErrInvalidToken, "token has been revoked"))
			c.Abort()
			return
		}

		userID, err := util.ValidateToken(token)
		if err != nil {
			errors.HandleError(c, errors.Wrap(errors.ErrInvalidToken, "invalid or expired token", err))
			c.Abort()
			return
		}

		user, err := auth.GetUserByID(userID)
		if err != nil {
			if errors.Is(err, errors.ErrUserNotFound) {
				err = errors.New(errors.ErrInvalidToken, "user no longer exists")
			}
			errors.HandleError(c, err)
			c.Abort()
			return
		}
		if !user.IsActive() {
			util.Logger.Warn("未激活的账户访问", zap.Int("user_id", userID))
			errors.HandleError(c, errors.New(errors.ErrAccountPending, "account is awaiting approval"))
			c.Abort()
			return
		}

		c.Set(ctxUserID, user.ID)
		c.Set(ctxRole, user.Role)
		c.Set(ctxToken, token)
		c.Next()
	}
}

// CurrentViewer 返回认证中间件写入的用户身份
func CurrentViewer(c *gin.Context) (model.Viewer, bool) {
	id, ok := c.Get(ctxUserID)
	if !ok {
		return model.Viewer{}, false
	}
	userID, ok := id.(int)
	if !ok {
		return model.Viewer{}, false
	}
	return model.Viewer{UserID: userID, Role: c.GetString(ctxRole)}, true
}

// CurrentToken 返回当前请求使用的访问令牌
func CurrentToken(c *gin.Context) string {
	return c.GetString(ctxToken)
}
