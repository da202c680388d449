package project

import (
	"construction-backend/internal/api"
	"construction-backend/internal/errors"
	"construction-backend/internal/model"
	"construction-backend/internal/service"
	"construction-backend/internal/util"
	"context"
	"mime/multipart"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProjectService 项目处理器依赖的业务操作
type ProjectService interface {
	GetProjects(viewer model.Viewer, filter service.ProjectFilter) ([]model.Project, int, error)
	GetProject(viewer model.Viewer, id int) (*model.Project, error)
	CreateProject(viewer model.Viewer, in service.CreateProjectInput) (*model.Project, error)
	UpdateProject(viewer model.Viewer, id int, in service.UpdateProjectInput) (*model.Project, error)
	UpdateProjectStatus(viewer model.Viewer, id int, status string) (*model.Project, error)
	AssignEngineer(viewer model.Viewer, id, engineerID int) (*model.Project, error)
	AddStage(viewer model.Viewer, projectID int, name string) (*model.ProjectStage, error)
	UpdateStageStatus(viewer model.Viewer, projectID, stageID int, status string) (*model.ProjectStage, error)
	UploadDocument(ctx context.Context, viewer model.Viewer, projectID int, file *multipart.FileHeader) (*model.ProjectDocument, error)
	ListDocuments(viewer model.Viewer, projectID int) ([]model.ProjectDocument, error)
}

// ProjectHandler 处理与项目相关的HTTP请求
type ProjectHandler struct {
	projectService ProjectService
}

// NewProjectHandler 创建一个新的 ProjectHandler 实例
func NewProjectHandler(projectService ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService}
}

// ListProjects 按角色返回项目列表
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	viewer, ok := api.Viewer(c)
	if !ok {
		return
	}

	var filter service.ProjectFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		errors.HandleValidationError(c, err)
		return
	}
	filter.Page, filter.PageSize = service.NormalizePage(filter.Page, filter.PageSize)

	projects, total, err := h.projectService.GetProjects(viewer, filter)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	if projects == nil {
		projects = []model.Project{}
	}

	errors.HandleSuccess(c, api.Paginated("projects", projects, filter.Page, filter.PageSize, total), "")
}

// CreateProject 处理创建新项目的请求
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	viewer, ok := api.Viewer(c)
	if !ok {
		return
	}

	var in service.CreateProjectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		util.Logger.Warn("创建项目失败，无效的请求数据", zap.Error(err))
		errors.HandleValidationError(c, err)
		return
	}

	project, err := h.projectService.CreateProject(viewer, in)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleCreated(c, project, "Project created")
}

func (h *ProjectHandler) GetProject(c *gin.Context) {
	viewer, ok := api.Viewer(c)
	if !ok {
		return
	}
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	project, err := h.projectService.GetProject(viewer, id)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, project, "")
}

func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	viewer, ok := api.Viewer(c)
	if !ok {
		return
	}
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	var in service.UpdateProjectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		errors.HandleValidationError(c, err)
		return
	}

	project, err := h.projectService.UpdateProject(viewer, id, in)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, project, "Project updated")
}

// UpdateStatus 修改项目状态，非法的状态流转返回 409
func (h *ProjectHandler) UpdateStatus(c *gin.Context) {
	viewer, ok := api.Viewer(c)
	if !ok {
		return
	}
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		errors.HandleValidationError(c, err)
		return
	}

	project, err := h.projectService.UpdateProjectStatus(viewer, id, body.Status)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, project, "Project status updated")
}

func (h *ProjectHandler) AssignEngineer(c *gin.Context) {
	viewer, ok := api.Viewer(c)
	if !ok {
		return
	}
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	var body struct {
		EngineerID int `json:"engineer_id" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		errors.HandleValidationError(c, err)
		return
	}

	project, err := h.projectService.AssignEngineer(viewer, id, body.EngineerID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, project, "Engineer assigned")
}

func (h *ProjectHandler) AddStage(c *gin.Context) {
	viewer, ok := api.Viewer(c)
	if !ok {
		return
	}
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	var body struct {
		Name string `json:"name" binding:"required,max=100"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		errors.HandleValidationError(c, err)
		return
	}

	stage, err := h.projectService.AddStage(viewer, id, body.Name)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleCreated(c, stage, "Stage added")
}

func (h *ProjectHandler) UpdateStage(c *gin.Context) {
	viewer, ok := api.Viewer(c)
	if !ok {
		return
	}
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	stageID, ok := api.ParamID(c, "stageId")
	if !ok {
		return
	}

	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		errors.HandleValidationError(c, err)
		return
	}

	stage, err := h.projectService.UpdateStageStatus(viewer, id, stageID, body.Status)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, stage, "Stage updated")
}

// UploadDocument 表单字段 file
func (h *ProjectHandler) UploadDocument(c *gin.Context) {
	viewer, ok := api.Viewer(c)
	if !ok {
		return
	}
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		util.Logger.Warn("获取上传文件失败", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrBadRequest, "file is required", err))
		return
	}

	doc, err := h.projectService.UploadDocument(c.Request.Context(), viewer, id, file)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleCreated(c, doc, "Document uploaded")
}

func (h *ProjectHandler) ListDocuments(c *gin.Context) {
	viewer, ok := api.Viewer(c)
	if !ok {
		return
	}
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	docs, err := h.projectService.ListDocuments(viewer, id)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	if docs == nil {
		docs = []model.ProjectDocument{}
	}
	errors.HandleSuccess(c, docs, "")
}
