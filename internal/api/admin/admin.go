package admin

import (
	"construction-backend/internal/api"
	"construction-backend/internal/errors"
	"construction-backend/internal/middleware"
	"construction-backend/internal/model"
	"construction-backend/internal/service"
	"construction-backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminService 管理员对用户和项目的操作
type AdminService interface {
	GetUsers(filter model.UserFilter, page, pageSize int) ([]*model.User, int, error)
	ApproveUser(id int) (*model.User, error)
	UpdateUserRole(adminID, id int, role string) (*model.User, error)
	DeleteProject(projectID int) error
}

// SettingsService 系统设置的读取和修改
type SettingsService interface {
	Get() (model.SystemSettings, error)
	Update(settings model.SystemSettings) (model.SystemSettings, error)
}

// AdminHandler 按功能模块组织处理方法
type AdminHandler struct {
	adminService AdminService
	settings     SettingsService
}

// NewAdminHandler 创建一个新的 AdminHandler 实例
func NewAdminHandler(adminService AdminService, settings SettingsService) *AdminHandler {
	return &AdminHandler{adminService: adminService, settings: settings}
}

// 用户管理
func (h *AdminHandler) GetUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = service.NormalizePage(page, pageSize)

	filter := model.UserFilter{
		Role:   c.Query("role"),
		Status: c.Query("status"),
		Search: c.Query("search"),
	}

	users, total, err := h.adminService.GetUsers(filter, page, pageSize)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	if users == nil {
		users = []*model.User{}
	}

	errors.HandleSuccess(c, api.Paginated("users", users, page, pageSize, total), "")
}

// ApproveUser 激活待审核的账户
func (h *AdminHandler) ApproveUser(c *gin.Context) {
	userID, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	user, err := h.adminService.ApproveUser(userID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, user, "User approved")
}

func (h *AdminHandler) UpdateUserRole(c *gin.Context) {
	viewer, ok := api.Viewer(c)
	if !ok {
		return
	}
	userID, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	var input struct {
		Role string `json:"role" binding:"required,oneof=admin engineer owner"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		errors.HandleValidationError(c, err)
		return
	}

	user, err := h.adminService.UpdateUserRole(viewer.UserID, userID, input.Role)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, user, "User role updated")
}

// 项目管理
func (h *AdminHandler) DeleteProject(c *gin.Context) {
	projectID, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.adminService.DeleteProject(projectID); err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, nil, "Project deleted")
}

// 系统设置
func (h *AdminHandler) GetSettings(c *gin.Context) {
	s, err := h.settings.Get()
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, s, "")
}

func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var input struct {
		SiteName          string `json:"site_name" binding:"required,max=100"`
		MaxUploadMB       int    `json:"max_upload_mb" binding:"required,gt=0,lte=1024"`
		AllowRegistration bool   `json:"allow_registration"`
		MaintenanceMode   bool   `json:"maintenance_mode"`
		DefaultCurrency   string `json:"default_currency" binding:"required,len=3"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		errors.HandleValidationError(c, err)
		return
	}

	viewer, _ := middleware.CurrentViewer(c)
	util.Logger.Info("管理员修改系统设置", zap.Int("admin_id", viewer.UserID))

	s, err := h.settings.Update(model.SystemSettings{
		SiteName:          input.SiteName,
		MaxUploadMB:       input.MaxUploadMB,
		AllowRegistration: input.AllowRegistration,
		MaintenanceMode:   input.MaintenanceMode,
		DefaultCurrency:   input.DefaultCurrency,
	})
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, s, "Settings updated")
}
