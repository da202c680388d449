package user

import (
	"construction-backend/internal/errors"
	"construction-backend/internal/middleware"
	"construction-backend/internal/model"
	"construction-backend/internal/service"
	"construction-backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthService 认证处理器依赖的用户服务
type AuthService interface {
	service.PasswordResetter
	Register(user *model.User, password string) error
	Login(email, password string) (string, *model.User, error)
	Logout(token string) error
	RequestPasswordReset(email string) error
}

// AuthHandler 处理与认证相关的HTTP请求
type AuthHandler struct {
	userService AuthService
	resetAction *service.ResetPasswordAction
}

// NewAuthHandler 创建一个新的 AuthHandler 实例
func NewAuthHandler(userService AuthService) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		resetAction: service.NewResetPasswordAction(userService),
	}
}

// Register 处理用户注册请求
func (h *AuthHandler) Register(c *gin.Context) {
	var registerData struct {
		Username string `json:"username" binding:"required,min=3,max=50"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
		FullName string `json:"full_name" binding:"max=100"`
		Phone    string `json:"phone" binding:"max=30"`
		Role     string `json:"role" binding:"required,oneof=engineer owner"`
	}

	if err := c.ShouldBindJSON(&registerData); err != nil {
		util.Logger.Warn("注册失败，无效的请求数据", zap.Error(err))
		errors.HandleValidationError(c, err)
		return
	}

	user := &model.User{
		Username: registerData.Username,
		Email:    registerData.Email,
		FullName: registerData.FullName,
		Phone:    registerData.Phone,
		Role:     registerData.Role,
	}

	if err := h.userService.Register(user, registerData.Password); err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleCreated(c, gin.H{"user": user}, "Registration successful, your account is awaiting approval")
}

// Login 处理用户登录请求
func (h *AuthHandler) Login(c *gin.Context) {
	var loginData struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&loginData); err != nil {
		errors.HandleValidationError(c, err)
		return
	}

	token, user, err := h.userService.Login(loginData.Email, loginData.Password)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{
		"token": token,
		"user":  user,
	}, "Login successful")
}

// Logout 使当前令牌失效
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.userService.Logout(middleware.CurrentToken(c)); err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, nil, "Logged out")
}

// RequestPasswordReset 无论邮箱是否存在都返回相同的消息
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var requestData struct {
		Email string `json:"email" binding:"required,email"`
	}

	if err := c.ShouldBindJSON(&requestData); err != nil {
		errors.HandleValidationError(c, err)
		return
	}

	if err := h.userService.RequestPasswordReset(requestData.Email); err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, nil, "If the email is registered, a reset link has been sent")
}

// ResetPassword 返回表单动作的结果结构，成功 200，失败 400
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var in service.ResetPasswordInput
	if err := c.ShouldBindJSON(&in); err != nil {
		util.Logger.Warn("重置密码请求解析失败", zap.Error(err))
		c.JSON(http.StatusBadRequest, service.ActionResult{Success: false, Message: "Invalid input"})
		return
	}

	result := h.resetAction.Execute(in)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadRequest
	}
	c.JSON(status, result)
}
