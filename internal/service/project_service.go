package service

import (
	"construction-backend/internal/errors"
	"construction-backend/internal/model"
	"construction-backend/internal/repository/interfaces"
	"construction-backend/internal/storage"
	"construction-backend/internal/util"
	"context"
	"database/sql"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ProjectService 处理与项目相关的业务逻辑
type ProjectService struct {
	repo     interfaces.ProjectRepository
	userRepo interfaces.UserRepository
	settings *SettingsService
	storage  storage.Storage
}

// NewProjectService 创建一个新的 ProjectService 实例
func NewProjectService(repo interfaces.ProjectRepository, userRepo interfaces.UserRepository, settings *SettingsService, store storage.Storage) *ProjectService {
	return &ProjectService{
		repo:     repo,
		userRepo: userRepo,
		settings: settings,
		storage:  store,
	}
}

// ProjectFilter 项目列表查询参数
type ProjectFilter struct {
	Status   string `form:"status"`
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// CreateProjectInput 新建项目表单，OwnerID 仅管理员可指定
type CreateProjectInput struct {
	Name        string     `json:"name" binding:"required,max=200"`
	Description string     `json:"description" binding:"max=5000"`
	Location    string     `json:"location" binding:"max=255"`
	Budget      float64    `json:"budget" binding:"gte=0"`
	StartDate   *time.Time `json:"start_date"`
	DueDate     *time.Time `json:"due_date" binding:"omitempty,future_date"`
	OwnerID     int        `json:"owner_id"`
	Stages      []string   `json:"stages" binding:"dive,required,max=100"`
}

// UpdateProjectInput 修改项目基本信息
type UpdateProjectInput struct {
	Name        string     `json:"name" binding:"required,max=200"`
	Description string     `json:"description" binding:"max=5000"`
	Location    string     `json:"location" binding:"max=255"`
	Budget      float64    `json:"budget" binding:"gte=0"`
	StartDate   *time.Time `json:"start_date"`
	DueDate     *time.Time `json:"due_date"`
}

// NormalizePage 页码从 1 开始，每页条数超出范围时使用默认值
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}
	return page, pageSize
}

// scopeFor 管理员查看全部，业主查看自己的，工程师查看被指派的
func scopeFor(viewer model.Viewer) model.ProjectScope {
	switch viewer.Role {
	case model.RoleAdmin:
		return model.ProjectScope{}
	case model.RoleEngineer:
		return model.ProjectScope{EngineerID: viewer.UserID}
	default:
		return model.ProjectScope{OwnerID: viewer.UserID}
	}
}

func canView(viewer model.Viewer, p *model.Project) bool {
	if viewer.IsAdmin() || p.OwnerID == viewer.UserID {
		return true
	}
	return viewer.Role == model.RoleEngineer && p.EngineerID != nil && *p.EngineerID == viewer.UserID
}

func canManage(viewer model.Viewer, p *model.Project) bool {
	return viewer.IsAdmin() || (viewer.Role == model.RoleOwner && p.OwnerID == viewer.UserID)
}

func checkDates(start, due *time.Time) error {
	if start != nil && due != nil && due.Before(*start) {
		return errors.New(errors.ErrValidation, "due date must not be before start date")
	}
	return nil
}

// GetProjects 按角色返回可见的项目
func (s *ProjectService) GetProjects(viewer model.Viewer, filter ProjectFilter) ([]model.Project, int, error) {
	scope := scopeFor(viewer)
	scope.Status = filter.Status
	scope.Search = strings.TrimSpace(filter.Search)
	if scope.Status != "" && !model.ValidProjectStatus(scope.Status) {
		return nil, 0, errors.New(errors.ErrValidation, "unknown project status")
	}

	page, pageSize := NormalizePage(filter.Page, filter.PageSize)
	projects, total, err := s.repo.List(scope, page, pageSize)
	if err != nil {
		util.Logger.Error("获取项目列表失败", zap.Error(err), zap.Int("user_id", viewer.UserID))
		return nil, 0, errors.Wrap(errors.ErrDatabase, "failed to list projects", err)
	}
	return projects, total, nil
}

// loadVisible 读取项目并检查可见性
func (s *ProjectService) loadVisible(viewer model.Viewer, id int) (*model.Project, error) {
	project, err := s.repo.FindByID(id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to get project", err)
	}
	if project == nil {
		return nil, errors.New(errors.ErrProjectNotFound, "project not found")
	}
	if !canView(viewer, project) {
		util.Logger.Warn("无权访问项目", zap.Int("project_id", id), zap.Int("user_id", viewer.UserID))
		return nil, errors.New(errors.ErrProjectAccessDenied, "you do not have access to this project")
	}
	return project, nil
}

func (s *ProjectService) loadManaged(viewer model.Viewer, id int) (*model.Project, error) {
	project, err := s.loadVisible(viewer, id)
	if err != nil {
		return nil, err
	}
	if !canManage(viewer, project) {
		return nil, errors.New(errors.ErrForbidden, "only the owner or an admin can change this project")
	}
	return project, nil
}

// GetProject 返回项目详情，包括阶段和文档
func (s *ProjectService) GetProject(viewer model.Viewer, id int) (*model.Project, error) {
	project, err := s.loadVisible(viewer, id)
	if err != nil {
		return nil, err
	}

	stages, err := s.repo.ListStages(id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to get stages", err)
	}
	docs, err := s.repo.ListDocuments(id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to get documents", err)
	}
	project.Stages = stages
	project.Documents = docs
	project.ComputeProgress()
	return project, nil
}

// CreateProject 业主为自己创建项目，管理员需要指定业主
func (s *ProjectService) CreateProject(viewer model.Viewer, in CreateProjectInput) (*model.Project, error) {
	util.Logger.Info("开始创建新项目", zap.String("name", in.Name), zap.Int("user_id", viewer.UserID))

	ownerID := viewer.UserID
	switch viewer.Role {
	case model.RoleOwner:
	case model.RoleAdmin:
		if in.OwnerID == 0 {
			return nil, errors.New(errors.ErrValidation, "owner_id is required")
		}
		owner, err := s.userRepo.FindByID(in.OwnerID)
		if err != nil {
			return nil, errors.Wrap(errors.ErrDatabase, "failed to find owner", err)
		}
		if owner == nil || owner.Role != model.RoleOwner {
			return nil, errors.New(errors.ErrValidation, "owner_id must reference a project owner")
		}
		ownerID = owner.ID
	default:
		return nil, errors.New(errors.ErrForbidden, "only owners and admins can create projects")
	}
	if err := checkDates(in.StartDate, in.DueDate); err != nil {
		return nil, err
	}

	project := &model.Project{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Location:    in.Location,
		OwnerID:     ownerID,
		Status:      model.ProjectPlanning,
		Budget:      in.Budget,
		StartDate:   in.StartDate,
		DueDate:     in.DueDate,
	}
	for i, name := range in.Stages {
		project.Stages = append(project.Stages, model.ProjectStage{Name: strings.TrimSpace(name), Position: i + 1})
	}

	if err := s.repo.Create(project); err != nil {
		util.Logger.Error("创建项目失败", zap.Error(err))
		return nil, errors.Wrap(errors.ErrDatabase, "failed to create project", err)
	}

	util.Logger.Info("项目创建成功", zap.Int("project_id", project.ID))
	return project, nil
}

// UpdateProject 更新项目基本信息
func (s *ProjectService) UpdateProject(viewer model.Viewer, id int, in UpdateProjectInput) (*model.Project, error) {
	project, err := s.loadManaged(viewer, id)
	if err != nil {
		return nil, err
	}
	if err := checkDates(in.StartDate, in.DueDate); err != nil {
		return nil, err
	}

	project.Name = strings.TrimSpace(in.Name)
	project.Description = in.Description
	project.Location = in.Location
	project.Budget = in.Budget
	project.StartDate = in.StartDate
	project.DueDate = in.DueDate

	if err := s.repo.Update(project); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to update project", err)
	}
	util.Logger.Info("项目更新成功", zap.Int("project_id", id))
	return project, nil
}

// UpdateProjectStatus 按状态机修改项目状态，项目参与者均可操作
func (s *ProjectService) UpdateProjectStatus(viewer model.Viewer, id int, status string) (*model.Project, error) {
	project, err := s.loadVisible(viewer, id)
	if err != nil {
		return nil, err
	}
	if !model.ValidProjectStatus(status) {
		return nil, errors.New(errors.ErrValidation, "unknown project status")
	}
	if !model.CanTransition(project.Status, status) {
		util.Logger.Warn("非法的项目状态变更",
			zap.Int("project_id", id),
			zap.String("from", project.Status),
			zap.String("to", status))
		return nil, errors.New(errors.ErrInvalidTransition,
			fmt.Sprintf("cannot change status from %s to %s", project.Status, status))
	}

	err = s.repo.UpdateStatus(id, project.Status, status)
	if err == sql.ErrNoRows {
		// 读取之后状态已被其他请求修改
		util.Logger.Warn("项目状态已被并发修改", zap.Int("project_id", id), zap.String("from", project.Status))
		return nil, errors.New(errors.ErrInvalidTransition, "project status changed concurrently, please reload")
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to update project status", err)
	}
	util.Logger.Info("项目状态已更新",
		zap.Int("project_id", id),
		zap.String("from", project.Status),
		zap.String("to", status))
	project.Status = status
	return project, nil
}

// AssignEngineer 指派的用户必须是已激活的工程师
func (s *ProjectService) AssignEngineer(viewer model.Viewer, id, engineerID int) (*model.Project, error) {
	project, err := s.loadManaged(viewer, id)
	if err != nil {
		return nil, err
	}

	engineer, err := s.userRepo.FindByID(engineerID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to find engineer", err)
	}
	if engineer == nil || engineer.Role != model.RoleEngineer || !engineer.IsActive() {
		return nil, errors.New(errors.ErrValidation, "engineer_id must reference an active engineer")
	}

	if err := s.repo.AssignEngineer(id, engineerID); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to assign engineer", err)
	}
	util.Logger.Info("工程师已指派", zap.Int("project_id", id), zap.Int("engineer_id", engineerID))
	project.EngineerID = &engineer.ID
	return project, nil
}

// AddStage 在项目末尾追加阶段
func (s *ProjectService) AddStage(viewer model.Viewer, projectID int, name string) (*model.ProjectStage, error) {
	if _, err := s.loadManaged(viewer, projectID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New(errors.ErrValidation, "stage name is required")
	}

	stage := &model.ProjectStage{ProjectID: projectID, Name: name, Status: model.StagePending}
	if err := s.repo.CreateStage(stage); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to create stage", err)
	}
	return stage, nil
}

// UpdateStageStatus 指派的工程师、业主或管理员可以更新阶段
func (s *ProjectService) UpdateStageStatus(viewer model.Viewer, projectID, stageID int, status string) (*model.ProjectStage, error) {
	if _, err := s.loadVisible(viewer, projectID); err != nil {
		return nil, err
	}
	if !model.ValidStageStatus(status) {
		return nil, errors.New(errors.ErrValidation, "unknown stage status")
	}

	stage, err := s.repo.FindStage(stageID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to get stage", err)
	}
	if stage == nil || stage.ProjectID != projectID {
		return nil, errors.New(errors.ErrResourceNotFound, "stage not found")
	}

	if err := s.repo.UpdateStageStatus(stageID, status); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to update stage", err)
	}
	util.Logger.Info("阶段状态已更新",
		zap.Int("project_id", projectID),
		zap.Int("stage_id", stageID),
		zap.String("status", status))
	stage.Status = status
	return stage, nil
}

// UploadDocument 上传项目文档，大小受系统设置限制
func (s *ProjectService) UploadDocument(ctx context.Context, viewer model.Viewer, projectID int, file *multipart.FileHeader) (*model.ProjectDocument, error) {
	if _, err := s.loadVisible(viewer, projectID); err != nil {
		return nil, err
	}

	settings, err := s.settings.Get()
	if err != nil {
		return nil, err
	}
	limit := int64(settings.MaxUploadMB) * 1024 * 1024
	if file.Size > limit {
		return nil, errors.New(errors.ErrUploadTooLarge,
			fmt.Sprintf("file exceeds the %d MB upload limit", settings.MaxUploadMB))
	}

	path := fmt.Sprintf("projects/%d/%s", projectID, util.GenerateUniqueFilename(file.Filename))
	url, err := s.storage.UploadFile(ctx, file, path)
	if err != nil {
		util.Logger.Error("上传项目文档失败", zap.Error(err), zap.Int("project_id", projectID))
		return nil, errors.Wrap(errors.ErrStorage, "failed to store document", err)
	}

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	doc := &model.ProjectDocument{
		ProjectID:   projectID,
		UploadedBy:  viewer.UserID,
		FileName:    file.Filename,
		URL:         url,
		SizeBytes:   file.Size,
		ContentType: contentType,
	}
	if err := s.repo.CreateDocument(doc); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to save document", err)
	}

	util.Logger.Info("项目文档上传成功", zap.Int("project_id", projectID), zap.String("url", url))
	return doc, nil
}

func (s *ProjectService) ListDocuments(viewer model.Viewer, projectID int) ([]model.ProjectDocument, error) {
	if _, err := s.loadVisible(viewer, projectID); err != nil {
		return nil, err
	}
	docs, err := s.repo.ListDocuments(projectID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to list documents", err)
	}
	return docs, nil
}
