package dashboard

import (
	"construction-backend/internal/api"
	"construction-backend/internal/errors"
	"construction-backend/internal/model"

	"github.com/gin-gonic/gin"
)

// DashboardService 按角色汇总看板
type DashboardService interface {
	ForViewer(viewer model.Viewer) (interface{}, error)
}

// PublicSettings 未登录也可读取的设置
type PublicSettings interface {
	Public() (model.PublicSettings, error)
}

type DashboardHandler struct {
	dashboards DashboardService
	settings   PublicSettings
}

func NewDashboardHandler(dashboards DashboardService, settings PublicSettings) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards, settings: settings}
}

// GetDashboard 返回当前角色的看板，响应中带有 role 字段方便前端选择布局
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	viewer, ok := api.Viewer(c)
	if !ok {
		return
	}
	d, err := h.dashboards.ForViewer(viewer)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{
		"role":      viewer.Role,
		"dashboard": d,
	}, "")
}

func (h *DashboardHandler) GetPublicSettings(c *gin.Context) {
	s, err := h.settings.Public()
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, s, "")
}
