package project

import (
	"bytes"
	"construction-backend/internal/api"
	"construction-backend/internal/errors"
	"construction-backend/internal/model"
	"construction-backend/internal/service"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProjectService struct {
	mock.Mock
}

func (m *MockProjectService) GetProjects(viewer model.Viewer, filter service.ProjectFilter) ([]model.Project, int, error) {
	args := m.Called(viewer, filter)
	projects, _ := args.Get(0).([]model.Project)
	return projects, args.Int(1), args.Error(2)
}

func (m *MockProjectService) GetProject(viewer model.Viewer, id int) (*model.Project, error) {
	args := m.Called(viewer, id)
	p, _ := args.Get(0).(*model.Project)
	return p, args.Error(1)
}

func (m *MockProjectService) CreateProject(viewer model.Viewer, in service.CreateProjectInput) (*model.Project, error) {
	args := m.Called(viewer, in)
	p, _ := args.Get(0).(*model.Project)
	return p, args.Error(1)
}

func (m *MockProjectService) UpdateProject(viewer model.Viewer, id int, in service.UpdateProjectInput) (*model.Project, error) {
	args := m.Called(viewer, id, in)
	p, _ := args.Get(0).(*model.Project)
	return p, args.Error(1)
}

func (m *MockProjectService) UpdateProjectStatus(viewer model.Viewer, id int, status string) (*model.Project, error) {
	args := m.Called(viewer, id, status)
	p, _ := args.Get(0).(*model.Project)
	return p, args.Error(1)
}

func (m *MockProjectService) AssignEngineer(viewer model.Viewer, id, engineerID int) (*model.Project, error) {
	args := m.Called(viewer, id, engineerID)
	p, _ := args.Get(0).(*model.Project)
	return p, args.Error(1)
}

func (m *MockProjectService) AddStage(viewer model.Viewer, projectID int, name string) (*model.ProjectStage, error) {
	args := m.Called(viewer, projectID, name)
	s, _ := args.Get(0).(*model.ProjectStage)
	return s, args.Error(1)
}

func (m *MockProjectService) UpdateStageStatus(viewer model.Viewer, projectID, stageID int, status string) (*model.ProjectStage, error) {
	args := m.Called(viewer, projectID, stageID, status)
	s, _ := args.Get(0).(*model.ProjectStage)
	return s, args.Error(1)
}

func (m *MockProjectService) UploadDocument(ctx context.Context, viewer model.Viewer, projectID int, file *multipart.FileHeader) (*model.ProjectDocument, error) {
	args := m.Called(viewer, projectID, file.Filename)
	d, _ := args.Get(0).(*model.ProjectDocument)
	return d, args.Error(1)
}

func (m *MockProjectService) ListDocuments(viewer model.Viewer, projectID int) ([]model.ProjectDocument, error) {
	args := m.Called(viewer, projectID)
	docs, _ := args.Get(0).([]model.ProjectDocument)
	return docs, args.Error(1)
}

var _ ProjectService = (*MockProjectService)(nil)

var owner = model.Viewer{UserID: 1, Role: model.RoleOwner}

func init() {
	gin.SetMode(gin.TestMode)
	api.RegisterBindingValidators()
}

func newRouter(svc ProjectService) *gin.Engine {
	h := NewProjectHandler(svc)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", owner.UserID)
		c.Set("role", owner.Role)
		c.Next()
	})
	r.GET("/projects", h.ListProjects)
	r.POST("/projects", h.CreateProject)
	r.GET("/projects/:id", h.GetProject)
	r.PATCH("/projects/:id/status", h.UpdateStatus)
	r.PUT("/projects/:id/engineer", h.AssignEngineer)
	r.PATCH("/projects/:id/stages/:stageId", h.UpdateStage)
	r.POST("/projects/:id/documents", h.UploadDocument)
	return r
}

func send(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestListProjectsPagination(t *testing.T) {
	svc := new(MockProjectService)
	svc.On("GetProjects", owner, service.ProjectFilter{Status: "planning", Page: 2, PageSize: 10}).
		Return([]model.Project{{ID: 11}}, 11, nil)

	w := send(newRouter(svc), http.MethodGet, "/projects?status=planning&page=2&page_size=10", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Projects   []model.Project `json:"projects"`
			Pagination struct {
				TotalPages int `json:"total_pages"`
			} `json:"pagination"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.Projects, 1)
	assert.Equal(t, 2, resp.Data.Pagination.TotalPages)
}

func TestCreateProjectValidation(t *testing.T) {
	svc := new(MockProjectService)
	r := newRouter(svc)

	w := send(r, http.MethodPost, "/projects", `{"budget": -1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp errors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Fields, "name")
	assert.Contains(t, resp.Fields, "budget")

	w = send(r, http.MethodPost, "/projects", `{"name": "Depot", "due_date": "2001-01-01T00:00:00Z"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Fields, "due_date")

	svc.AssertNotCalled(t, "CreateProject", mock.Anything, mock.Anything)

	svc.On("CreateProject", owner, service.CreateProjectInput{Name: "Depot", Stages: []string{"Slab"}}).
		Return(&model.Project{ID: 3, Name: "Depot"}, nil)
	w = send(r, http.MethodPost, "/projects", `{"name": "Depot", "stages": ["Slab"]}`)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestProjectErrorsMapToStatus(t *testing.T) {
	svc := new(MockProjectService)
	svc.On("GetProject", owner, 404).Return(nil, errors.New(errors.ErrProjectNotFound, "project not found"))
	svc.On("GetProject", owner, 7).Return(nil, errors.New(errors.ErrProjectAccessDenied, "no access"))
	svc.On("UpdateProjectStatus", owner, 5, model.ProjectCompleted).
		Return(nil, errors.New(errors.ErrInvalidTransition, "cannot change status from planning to completed"))
	r := newRouter(svc)

	assert.Equal(t, http.StatusNotFound, send(r, http.MethodGet, "/projects/404", "").Code)
	assert.Equal(t, http.StatusForbidden, send(r, http.MethodGet, "/projects/7", "").Code)
	assert.Equal(t, http.StatusBadRequest, send(r, http.MethodGet, "/projects/abc", "").Code)
	assert.Equal(t, http.StatusConflict, send(r, http.MethodPatch, "/projects/5/status", `{"status": "completed"}`).Code)
	assert.Equal(t, http.StatusBadRequest, send(r, http.MethodPatch, "/projects/5/status", `{}`).Code)
}

func TestAssignEngineerAndStage(t *testing.T) {
	svc := new(MockProjectService)
	engineerID := 2
	svc.On("AssignEngineer", owner, 5, 2).Return(&model.Project{ID: 5, EngineerID: &engineerID}, nil)
	svc.On("UpdateStageStatus", owner, 5, 9, model.StageDone).Return(&model.ProjectStage{ID: 9, Status: model.StageDone}, nil)
	r := newRouter(svc)

	assert.Equal(t, http.StatusOK, send(r, http.MethodPut, "/projects/5/engineer", `{"engineer_id": 2}`).Code)
	assert.Equal(t, http.StatusBadRequest, send(r, http.MethodPut, "/projects/5/engineer", `{"engineer_id": 0}`).Code)
	assert.Equal(t, http.StatusOK, send(r, http.MethodPatch, "/projects/5/stages/9", `{"status": "done"}`).Code)
	svc.AssertExpectations(t)
}

func multipartBody(t *testing.T, field, name string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestUploadDocument(t *testing.T) {
	svc := new(MockProjectService)
	svc.On("UploadDocument", owner, 5, "plan.pdf").Return(&model.ProjectDocument{ID: 1, URL: "/uploads/projects/5/plan.pdf"}, nil)
	svc.On("UploadDocument", owner, 5, "huge.pdf").Return(nil, errors.New(errors.ErrUploadTooLarge, "file exceeds the 10 MB upload limit"))
	r := newRouter(svc)

	upload := func(field, name string) int {
		body, contentType := multipartBody(t, field, name, []byte("%PDF-1.4"))
		req := httptest.NewRequest(http.MethodPost, "/projects/5/documents", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusCreated, upload("file", "plan.pdf"))
	assert.Equal(t, http.StatusRequestEntityTooLarge, upload("file", "huge.pdf"))
	assert.Equal(t, http.StatusBadRequest, upload("attachment", "plan.pdf"))
}
