package service

import (
	stderrors "errors"

	"construction-backend/internal/util"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ActionResult 表单动作的统一返回结构
type ActionResult struct {
	Success     bool                `json:"success"`
	Message     string              `json:"message"`
	FieldErrors map[string][]string `json:"fieldErrors,omitempty"`
}

// PasswordResetter 使用重置令牌修改密码
type PasswordResetter interface {
	ResetPasswordWithToken(token, password string) ActionResult
}

// ResetPasswordInput 重置密码表单
type ResetPasswordInput struct {
	Password        string `json:"password" validate:"min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
	Token           string `json:"token" validate:"required"`
}

const msgInvalidInput = "Invalid input"

// ResetPasswordAction 校验重置密码表单，校验通过后交给 PasswordResetter
type ResetPasswordAction struct {
	resetter PasswordResetter
	validate *validator.Validate
}

func NewResetPasswordAction(resetter PasswordResetter) *ResetPasswordAction {
	return &ResetPasswordAction{
		resetter: resetter,
		validate: util.NewValidator(),
	}
}

// Execute 校验失败时不会调用 resetter
func (a *ResetPasswordAction) Execute(in ResetPasswordInput) ActionResult {
	if fields := a.check(in); len(fields) > 0 {
		util.Logger.Warn("重置密码表单校验失败", zap.Int("fields", len(fields)))
		return ActionResult{Success: false, Message: msgInvalidInput, FieldErrors: fields}
	}
	return a.resetter.ResetPasswordWithToken(in.Token, in.Password)
}

func (a *ResetPasswordAction) check(in ResetPasswordInput) map[string][]string {
	err := a.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return map[string][]string{"_": {err.Error()}}
	}
	return util.FieldErrors(verrs)
}
