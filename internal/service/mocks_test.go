package service

import (
	"construction-backend/internal/errors"
	"construction-backend/internal/model"
	"context"
	"mime/multipart"
	"sync"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository 是 UserRepository 接口的模拟实现
type MockUserRepository struct {
	mock.Mock
}

func userOrNil(args mock.Arguments) (*model.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) Create(user *model.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(id int) (*model.User, error) {
	return userOrNil(m.Called(id))
}

func (m *MockUserRepository) FindByEmail(email string) (*model.User, error) {
	return userOrNil(m.Called(email))
}

func (m *MockUserRepository) FindByUsername(username string) (*model.User, error) {
	return userOrNil(m.Called(username))
}

func (m *MockUserRepository) Update(user *model.User) error {
	return m.Called(user).Error(0)
}

func (m *MockUserRepository) UpdatePassword(id int, oldHash, newHash string) error {
	return m.Called(id, oldHash, newHash).Error(0)
}

func (m *MockUserRepository) UpdateStatus(id int, status string) error {
	return m.Called(id, status).Error(0)
}

func (m *MockUserRepository) UpdateRole(id int, role string) error {
	return m.Called(id, role).Error(0)
}

func (m *MockUserRepository) Delete(id int) error {
	return m.Called(id).Error(0)
}

func (m *MockUserRepository) FindAll(filter model.UserFilter, page, pageSize int) ([]*model.User, int, error) {
	args := m.Called(filter, page, pageSize)
	return args.Get(0).([]*model.User), args.Int(1), args.Error(2)
}

func (m *MockUserRepository) CountByRole() (map[string]int, error) {
	args := m.Called()
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *MockUserRepository) CountByStatus(status string) (int, error) {
	args := m.Called(status)
	return args.Int(0), args.Error(1)
}

func (m *MockUserRepository) GetPreferences(userID int) (*model.UIPreferences, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UIPreferences), args.Error(1)
}

func (m *MockUserRepository) SavePreferences(userID int, prefs model.UIPreferences) error {
	return m.Called(userID, prefs).Error(0)
}

// MockProjectRepository 是 ProjectRepository 接口的模拟实现
type MockProjectRepository struct {
	mock.Mock
}

func (m *MockProjectRepository) Create(project *model.Project) error {
	return m.Called(project).Error(0)
}

func (m *MockProjectRepository) FindByID(id int) (*model.Project, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// 返回副本，避免测试之间共享修改
	p := *args.Get(0).(*model.Project)
	return &p, args.Error(1)
}

func (m *MockProjectRepository) Update(project *model.Project) error {
	return m.Called(project).Error(0)
}

func (m *MockProjectRepository) UpdateStatus(id int, from, to string) error {
	return m.Called(id, from, to).Error(0)
}

func (m *MockProjectRepository) AssignEngineer(projectID, engineerID int) error {
	return m.Called(projectID, engineerID).Error(0)
}

func (m *MockProjectRepository) Delete(id int) error {
	return m.Called(id).Error(0)
}

func (m *MockProjectRepository) List(scope model.ProjectScope, page, pageSize int) ([]model.Project, int, error) {
	args := m.Called(scope, page, pageSize)
	return args.Get(0).([]model.Project), args.Int(1), args.Error(2)
}

func (m *MockProjectRepository) CountByStatus(scope model.ProjectScope) (map[string]int, error) {
	args := m.Called(scope)
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *MockProjectRepository) SumBudget(scope model.ProjectScope) (float64, error) {
	args := m.Called(scope)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockProjectRepository) CreateStage(stage *model.ProjectStage) error {
	return m.Called(stage).Error(0)
}

func (m *MockProjectRepository) FindStage(id int) (*model.ProjectStage, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProjectStage), args.Error(1)
}

func (m *MockProjectRepository) ListStages(projectID int) ([]model.ProjectStage, error) {
	args := m.Called(projectID)
	return args.Get(0).([]model.ProjectStage), args.Error(1)
}

func (m *MockProjectRepository) UpdateStageStatus(id int, status string) error {
	return m.Called(id, status).Error(0)
}

func (m *MockProjectRepository) CountOpenStages(engineerID int) (int, error) {
	args := m.Called(engineerID)
	return args.Int(0), args.Error(1)
}

func (m *MockProjectRepository) CreateDocument(doc *model.ProjectDocument) error {
	return m.Called(doc).Error(0)
}

func (m *MockProjectRepository) ListDocuments(projectID int) ([]model.ProjectDocument, error) {
	args := m.Called(projectID)
	return args.Get(0).([]model.ProjectDocument), args.Error(1)
}

// MockEstimateRepository 是 EstimateRepository 接口的模拟实现
type MockEstimateRepository struct {
	mock.Mock
}

func (m *MockEstimateRepository) Create(e *model.Estimate) error {
	return m.Called(e).Error(0)
}

func (m *MockEstimateRepository) FindByID(id int) (*model.Estimate, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Estimate), args.Error(1)
}

func (m *MockEstimateRepository) ListByProject(projectID int) ([]model.Estimate, error) {
	args := m.Called(projectID)
	return args.Get(0).([]model.Estimate), args.Error(1)
}

func (m *MockEstimateRepository) Delete(id int) error {
	return m.Called(id).Error(0)
}

func (m *MockEstimateRepository) Count() (int, error) {
	args := m.Called()
	return args.Int(0), args.Error(1)
}

func (m *MockEstimateRepository) SumLatestTotals(ownerID int) (float64, error) {
	args := m.Called(ownerID)
	return args.Get(0).(float64), args.Error(1)
}

// MockSettingsRepository 是 SettingsRepository 接口的模拟实现
type MockSettingsRepository struct {
	mock.Mock
}

func (m *MockSettingsRepository) Get() (*model.SystemSettings, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SystemSettings), args.Error(1)
}

func (m *MockSettingsRepository) Save(s *model.SystemSettings) error {
	return m.Called(s).Error(0)
}

// stubNotifier 记录发送的通知
type stubNotifier struct {
	mu       sync.Mutex
	resets   []string
	approved []string
	token    string
	err      error
}

func (n *stubNotifier) SendPasswordResetEmail(to, name, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resets = append(n.resets, to)
	n.token = token
	return n.err
}

func (n *stubNotifier) SendAccountApprovedEmail(to, name string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.approved = append(n.approved, to)
	return n.err
}

// stubStorage 记录上传路径
type stubStorage struct {
	paths []string
	err   error
}

func (s *stubStorage) UploadFile(ctx context.Context, file *multipart.FileHeader, path string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.paths = append(s.paths, path)
	return "/uploads/" + path, nil
}

type stubCounter map[errors.ErrorCode]int

func (c stubCounter) GetErrorCounts() map[errors.ErrorCode]int { return c }

// settingsWith 返回使用给定设置的 SettingsService
func settingsWith(s *model.SystemSettings) *SettingsService {
	repo := new(MockSettingsRepository)
	repo.On("Get").Return(s, nil)
	return NewSettingsService(repo, 0)
}
