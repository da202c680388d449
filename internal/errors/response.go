package errors

import (
	stderrors "errors"
	"net/http"

	"construction-backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ErrorResponse 定义错误响应结构
type ErrorResponse struct {
	Code    ErrorCode           `json:"code"`
	Message string              `json:"message"`
	Error   string              `json:"error,omitempty"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

// SuccessResponse 定义成功响应结构
type SuccessResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// 错误码与HTTP状态码映射
var errorStatusMap = map[ErrorCode]int{
	// 系统错误 (1000-1999)
	ErrInternal:    http.StatusInternalServerError,
	ErrDatabase:    http.StatusInternalServerError,
	ErrCache:       http.StatusInternalServerError,
	ErrTimeout:     http.StatusRequestTimeout,
	ErrStorage:     http.StatusInternalServerError,
	ErrMaintenance: http.StatusServiceUnavailable,

	// 认证错误 (2000-2999)
	ErrUnauthorized:       http.StatusUnauthorized,
	ErrForbidden:          http.StatusForbidden,
	ErrInvalidToken:       http.StatusUnauthorized,
	ErrTokenExpired:       http.StatusUnauthorized,
	ErrInvalidCredentials: http.StatusUnauthorized,
	ErrAccountPending:     http.StatusForbidden,
	ErrInvalidResetToken:  http.StatusBadRequest,

	// 请求错误 (3000-3999)
	ErrBadRequest:       http.StatusBadRequest,
	ErrValidation:       http.StatusBadRequest,
	ErrResourceNotFound: http.StatusNotFound,
	ErrResourceExists:   http.StatusConflict,
	ErrResourceConflict: http.StatusConflict,
	ErrUploadTooLarge:   http.StatusRequestEntityTooLarge,

	// 业务错误 (4000-4999)
	ErrUserNotFound:        http.StatusNotFound,
	ErrUserExists:          http.StatusConflict,
	ErrWeakPassword:        http.StatusBadRequest,
	ErrProjectNotFound:     http.StatusNotFound,
	ErrProjectAccessDenied: http.StatusForbidden,
	ErrInvalidTransition:   http.StatusConflict,
	ErrEstimateNotFound:    http.StatusNotFound,
	ErrCalculation:         http.StatusUnprocessableEntity,
	ErrRegistrationClosed:  http.StatusForbidden,
}

// StatusOf 返回错误码对应的HTTP状态码
func StatusOf(code ErrorCode) int {
	if status, ok := errorStatusMap[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// HandleError 统一处理错误响应
func HandleError(c *gin.Context, err error) {
	_ = c.Error(err)

	if appErr, ok := As(err); ok {
		resp := ErrorResponse{
			Code:    appErr.Code,
			Message: appErr.Message,
		}

		var verrs validator.ValidationErrors
		if appErr.Err != nil && stderrors.As(appErr.Err, &verrs) {
			resp.Fields = util.FieldErrors(verrs)
		} else if appErr.Err != nil {
			resp.Error = appErr.Err.Error()
		}

		c.JSON(StatusOf(appErr.Code), resp)
		return
	}

	// 处理非 AppError 类型的错误
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Code:    ErrInternal,
		Message: "Internal Server Error",
	})
}

// HandleValidationError 处理请求绑定失败
func HandleValidationError(c *gin.Context, err error) {
	HandleError(c, Wrap(ErrValidation, "invalid request data", err))
}

// HandleSuccess 统一处理成功响应
func HandleSuccess(c *gin.Context, data interface{}, message string) {
	resp := SuccessResponse{
		Code:    http.StatusOK,
		Message: message,
		Data:    data,
	}
	c.JSON(http.StatusOK, resp)
}

// HandleCreated 处理创建成功的响应
func HandleCreated(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusCreated, SuccessResponse{
		Code:    http.StatusCreated,
		Message: message,
		Data:    data,
	})
}
