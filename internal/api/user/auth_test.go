package user

import (
	"bytes"
	"construction-backend/internal/errors"
	"construction-backend/internal/api"
	"construction-backend/internal/model"
	"construction-backend/internal/service"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockUserService 是 AuthService 和 ProfileService 的模拟实现
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(user *model.User, password string) error {
	return m.Called(user, password).Error(0)
}

func (m *MockUserService) Login(email, password string) (string, *model.User, error) {
	args := m.Called(email, password)
	user, _ := args.Get(1).(*model.User)
	return args.String(0), user, args.Error(2)
}

func (m *MockUserService) Logout(token string) error {
	return m.Called(token).Error(0)
}

func (m *MockUserService) RequestPasswordReset(email string) error {
	return m.Called(email).Error(0)
}

func (m *MockUserService) ResetPasswordWithToken(token, password string) service.ActionResult {
	return m.Called(token, password).Get(0).(service.ActionResult)
}

func (m *MockUserService) GetUserByID(id int) (*model.User, error) {
	args := m.Called(id)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func (m *MockUserService) UpdateProfile(id int, update service.ProfileUpdate) (*model.User, error) {
	args := m.Called(id, update)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func (m *MockUserService) GetUIPreferences(userID int) (*model.UIPreferences, error) {
	args := m.Called(userID)
	prefs, _ := args.Get(0).(*model.UIPreferences)
	return prefs, args.Error(1)
}

func (m *MockUserService) SaveUIPreferences(userID int, prefs model.UIPreferences) error {
	return m.Called(userID, prefs).Error(0)
}

// 确保 MockUserService 实现了处理器需要的接口
var (
	_ AuthService    = (*MockUserService)(nil)
	_ ProfileService = (*MockUserService)(nil)
)

func init() {
	gin.SetMode(gin.TestMode)
	api.RegisterBindingValidators()
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// TestRegister 测试注册处理器
func TestRegister(t *testing.T) {
	mockService := new(MockUserService)
	handler := NewAuthHandler(mockService)

	router := gin.New()
	router.POST("/register", handler.Register)

	mockService.On("Register", mock.AnythingOfType("*model.User"), "secret1").
		Run(func(args mock.Arguments) { args.Get(0).(*model.User).ID = 5 }).
		Return(nil).Once()

	body := `{"username": "builder", "email": "b@example.com", "password": "secret1", "role": "engineer"}`
	w := postJSON(router, "/register", body)
	assert.Equal(t, http.StatusCreated, w.Code)

	// 用户已存在
	mockService.On("Register", mock.AnythingOfType("*model.User"), "secret1").
		Return(errors.New(errors.ErrUserExists, "email already registered")).Once()
	w = postJSON(router, "/register", body)
	assert.Equal(t, http.StatusConflict, w.Code)

	// 管理员角色不能自行注册
	w = postJSON(router, "/register", `{"username": "boss", "email": "b@example.com", "password": "secret1", "role": "admin"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp errors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Fields, "role")

	mockService.AssertNumberOfCalls(t, "Register", 2)
}

// TestLogin 测试登录处理器
func TestLogin(t *testing.T) {
	mockService := new(MockUserService)
	handler := NewAuthHandler(mockService)

	router := gin.New()
	router.POST("/login", handler.Login)

	mockUser := &model.User{ID: 1, Email: "test@example.com"}
	mockService.On("Login", "test@example.com", "password123").Return("signed-token", mockUser, nil)
	mockService.On("Login", "test@example.com", "wrongpassword").
		Return("", nil, errors.New(errors.ErrInvalidCredentials, "invalid email or password"))
	mockService.On("Login", "pending@example.com", "password123").
		Return("", nil, errors.New(errors.ErrAccountPending, "account is awaiting approval"))

	w := postJSON(router, "/login", `{"email": "test@example.com", "password": "password123"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	var response struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "signed-token", response.Data.Token)

	w = postJSON(router, "/login", `{"email": "test@example.com", "password": "wrongpassword"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(router, "/login", `{"email": "pending@example.com", "password": "password123"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestResetPassword(t *testing.T) {
	mockService := new(MockUserService)
	handler := NewAuthHandler(mockService)

	router := gin.New()
	router.POST("/reset-password", handler.ResetPassword)

	mockService.On("ResetPasswordWithToken", "good", "secret1").
		Return(service.ActionResult{Success: true, Message: "Password has been reset"}).Once()
	mockService.On("ResetPasswordWithToken", "stale", "secret1").
		Return(service.ActionResult{Success: false, Message: "Invalid or expired reset token"}).Once()

	w := postJSON(router, "/reset-password", `{"password": "secret1", "confirmPassword": "secret1", "token": "good"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success": true, "message": "Password has been reset"}`, w.Body.String())

	w = postJSON(router, "/reset-password", `{"password": "secret1", "confirmPassword": "secret1", "token": "stale"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success": false, "message": "Invalid or expired reset token"}`, w.Body.String())

	w = postJSON(router, "/reset-password", `{"password": "abc", "confirmPassword": "abd"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var result service.ActionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.False(t, result.Success)
	assert.Equal(t, "Invalid input", result.Message)
	assert.Equal(t, []string{"Password must be at least 6 characters"}, result.FieldErrors["password"])
	assert.Equal(t, []string{"Passwords do not match"}, result.FieldErrors["confirmPassword"])
	assert.Equal(t, []string{"Token is required"}, result.FieldErrors["token"])

	w = postJSON(router, "/reset-password", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mockService.AssertNumberOfCalls(t, "ResetPasswordWithToken", 2)
}

func TestRequestPasswordReset(t *testing.T) {
	mockService := new(MockUserService)
	handler := NewAuthHandler(mockService)

	router := gin.New()
	router.POST("/request-password-reset", handler.RequestPasswordReset)

	mockService.On("RequestPasswordReset", "someone@example.com").Return(nil)

	w := postJSON(router, "/request-password-reset", `{"email": "someone@example.com"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = postJSON(router, "/request-password-reset", `{"email": "not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNumberOfCalls(t, "RequestPasswordReset", 1)
}

// asViewer 模拟认证中间件写入的上下文
func asViewer(id int, role, token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", id)
		c.Set("role", role)
		c.Set("token", token)
		c.Next()
	}
}

func TestLogout(t *testing.T) {
	mockService := new(MockUserService)
	handler := NewAuthHandler(mockService)

	router := gin.New()
	router.POST("/logout", asViewer(1, model.RoleOwner, "tok"), handler.Logout)
	mockService.On("Logout", "tok").Return(nil).Once()

	w := postJSON(router, "/logout", ``)
	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestUIPreferences(t *testing.T) {
	mockService := new(MockUserService)
	handler := NewProfileHandler(mockService)

	router := gin.New()
	router.GET("/preferences/ui", asViewer(3, model.RoleEngineer, "tok"), handler.GetUIPreferences)
	router.PUT("/preferences/ui", asViewer(3, model.RoleEngineer, "tok"), handler.SaveUIPreferences)

	mockService.On("GetUIPreferences", 3).Return(&model.UIPreferences{SidebarOpen: true}, nil)
	mockService.On("SaveUIPreferences", 3, model.UIPreferences{SidebarOpen: false}).Return(nil).Once()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/preferences/ui", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"sidebar_open":true`)

	req := httptest.NewRequest(http.MethodPut, "/preferences/ui", bytes.NewBufferString(`{"sidebar_open": false}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// 缺少字段
	req = httptest.NewRequest(http.MethodPut, "/preferences/ui", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mockService.AssertExpectations(t)
}

func TestProfileRequiresViewer(t *testing.T) {
	handler := NewProfileHandler(new(MockUserService))
	router := gin.New()
	router.GET("/profile", handler.GetProfile)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/profile", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateProfile(t *testing.T) {
	mockService := new(MockUserService)
	handler := NewProfileHandler(mockService)

	router := gin.New()
	router.PUT("/profile", asViewer(3, model.RoleOwner, "tok"), handler.UpdateProfile)
	mockService.On("UpdateProfile", 3, service.ProfileUpdate{FullName: "Ana Diaz", Phone: "555"}).
		Return(&model.User{ID: 3, FullName: "Ana Diaz"}, nil)

	req := httptest.NewRequest(http.MethodPut, "/profile", bytes.NewBufferString(`{"full_name": "Ana Diaz", "phone": "555"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}
