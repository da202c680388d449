package user

import (
	"construction-backend/internal/api"
	"construction-backend/internal/errors"
	"construction-backend/internal/model"
	"construction-backend/internal/service"
	"construction-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProfileService 个人资料和界面偏好
type ProfileService interface {
	GetUserByID(id int) (*model.User, error)
	UpdateProfile(id int, update service.ProfileUpdate) (*model.User, error)
	GetUIPreferences(userID int) (*model.UIPreferences, error)
	SaveUIPreferences(userID int, prefs model.UIPreferences) error
}

type ProfileHandler struct {
	userService ProfileService
}

func NewProfileHandler(userService ProfileService) *ProfileHandler {
	return &ProfileHandler{userService}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	viewer, ok := api.Viewer(c)
	if !ok {
		return
	}
	user, err := h.userService.GetUserByID(viewer.UserID)
	if err != nil {
		util.Logger.Error("获取用户资料失败", zap.Error(err))
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{
		"user": user,
	}, "")
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	viewer, ok := api.Viewer(c)
	if !ok {
		return
	}

	var update service.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		util.Logger.Warn("更新用户资料失败，无效的请求数据", zap.Error(err))
		errors.HandleValidationError(c, err)
		return
	}

	user, err := h.userService.UpdateProfile(viewer.UserID, update)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{
		"user": user,
	}, "Profile updated")
}

// GetUIPreferences 返回侧边栏等界面状态
func (h *ProfileHandler) GetUIPreferences(c *gin.Context) {
	viewer, ok := api.Viewer(c)
	if !ok {
		return
	}
	prefs, err := h.userService.GetUIPreferences(viewer.UserID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, prefs, "")
}

func (h *ProfileHandler) SaveUIPreferences(c *gin.Context) {
	viewer, ok := api.Viewer(c)
	if !ok {
		return
	}

	var body struct {
		SidebarOpen *bool `json:"sidebar_open" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		errors.HandleValidationError(c, err)
		return
	}

	prefs := model.UIPreferences{SidebarOpen: *body.SidebarOpen}
	if err := h.userService.SaveUIPreferences(viewer.UserID, prefs); err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, prefs, "Preferences saved")
}
