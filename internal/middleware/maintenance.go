package middleware

import (
	"construction-backend/internal/errors"
	"construction-backend/internal/model"
	"construction-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SettingsReader 读取当前系统设置
type SettingsReader interface {
	Get() (model.SystemSettings, error)
}

// MaintenanceGuard 维护模式下只有管理员可以继续访问
func MaintenanceGuard(settings SettingsReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := settings.Get()
		if err != nil {
			// 读取失败时不阻断请求
			util.Logger.Error("维护模式检查失败", zap.Error(err))
			c.Next()
			return
		}
		if s.MaintenanceMode && c.GetString(ctxRole) != model.RoleAdmin {
			errors.HandleError(c, errors.New(errors.ErrMaintenance, "the site is under maintenance, please try again later"))
			c.Abort()
			return
		}
		c.Next()
	}
}
