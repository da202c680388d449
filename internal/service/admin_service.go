package service

import (
	"construction-backend/internal/errors"
	"construction-backend/internal/model"
	"construction-backend/internal/repository/interfaces"
	"construction-backend/internal/util"
	"database/sql"
	stderrors "errors"

	"go.uber.org/zap"
)

// AdminService 管理员对用户和项目的操作
type AdminService struct {
	userRepo    interfaces.UserRepository
	projectRepo interfaces.ProjectRepository
	notifier    Notifier
}

// NewAdminService 创建一个新的 AdminService 实例
func NewAdminService(userRepo interfaces.UserRepository, projectRepo interfaces.ProjectRepository, notifier Notifier) *AdminService {
	return &AdminService{
		userRepo:    userRepo,
		projectRepo: projectRepo,
		notifier:    notifier,
	}
}

// 用户管理
func (s *AdminService) GetUsers(filter model.UserFilter, page, pageSize int) ([]*model.User, int, error) {
	page, pageSize = NormalizePage(page, pageSize)
	if filter.Role != "" && !model.ValidRole(filter.Role) {
		return nil, 0, errors.New(errors.ErrValidation, "unknown role")
	}
	users, total, err := s.userRepo.FindAll(filter, page, pageSize)
	if err != nil {
		return nil, 0, errors.Wrap(errors.ErrDatabase, "failed to list users", err)
	}
	return users, total, nil
}

// ApproveUser 激活待审核的账户并通知用户
func (s *AdminService) ApproveUser(id int) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to find user", err)
	}
	if user == nil {
		return nil, errors.New(errors.ErrUserNotFound, "user not found")
	}
	if user.IsActive() {
		return nil, errors.New(errors.ErrResourceConflict, "user is already active")
	}

	if err := s.userRepo.UpdateStatus(id, model.StatusActive); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to approve user", err)
	}
	user.Status = model.StatusActive
	util.Logger.Info("用户已审核通过", zap.Int("user_id", id))

	name := user.FullName
	if name == "" {
		name = user.Username
	}
	if err := s.notifier.SendAccountApprovedEmail(user.Email, name); err != nil {
		util.Logger.Error("发送审核通过邮件失败", zap.Error(err), zap.Int("user_id", id))
	}
	return user, nil
}

// UpdateUserRole 修改用户角色，管理员不能修改自己的角色
func (s *AdminService) UpdateUserRole(adminID, id int, role string) (*model.User, error) {
	if !model.ValidRole(role) {
		return nil, errors.New(errors.ErrValidation, "unknown role")
	}
	if adminID == id {
		return nil, errors.New(errors.ErrForbidden, "admins cannot change their own role")
	}

	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to find user", err)
	}
	if user == nil {
		return nil, errors.New(errors.ErrUserNotFound, "user not found")
	}

	if err := s.userRepo.UpdateRole(id, role); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to update role", err)
	}
	util.Logger.Info("用户角色已修改",
		zap.Int("user_id", id),
		zap.String("from", user.Role),
		zap.String("to", role),
		zap.Int("admin_id", adminID))
	user.Role = role
	return user, nil
}

// 项目管理
func (s *AdminService) DeleteProject(projectID int) error {
	if err := s.projectRepo.Delete(projectID); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return errors.New(errors.ErrProjectNotFound, "project not found")
		}
		return errors.Wrap(errors.ErrDatabase, "failed to delete project", err)
	}
	util.Logger.Info("项目已删除", zap.Int("project_id", projectID))
	return nil
}
