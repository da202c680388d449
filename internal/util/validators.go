package util

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ValidateFutureDate 验证日期是否在未来
func ValidateFutureDate(fl validator.FieldLevel) bool {
	switch v := fl.Field().Interface().(type) {
	case time.Time:
		return v.After(time.Now())
	case *time.Time:
		return v == nil || v.After(time.Now())
	}
	return false
}

// jsonTagName 让校验错误使用 json 字段名
func jsonTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

// RegisterValidators 注册自定义规则和字段名，gin 的绑定引擎也使用它
func RegisterValidators(v *validator.Validate) {
	v.RegisterTagNameFunc(jsonTagName)
	_ = v.RegisterValidation("future_date", ValidateFutureDate)
}

// NewValidator 创建带有项目规则的校验器
func NewValidator() *validator.Validate {
	v := validator.New()
	RegisterValidators(v)
	return v
}

// FieldErrors 把校验错误转换为 字段 -> 消息列表
func FieldErrors(errs validator.ValidationErrors) map[string][]string {
	fields := make(map[string][]string, len(errs))
	for _, fe := range errs {
		key := fieldPath(fe)
		fields[key] = append(fields[key], FieldMessage(fe))
	}
	return fields
}

// fieldPath 去掉顶层结构体名，保留嵌套路径，例如 elements[0].width
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// FieldMessage 单条校验错误的可读消息
func FieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", humanize(fe.Field()))
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", humanize(fe.Field()), fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", humanize(fe.Field()), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", humanize(fe.Field()), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", humanize(fe.Field()), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", humanize(fe.Field()), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", humanize(fe.Field()), fe.Param())
	case "eqfield":
		return "Passwords do not match"
	case "email":
		return "Invalid email address"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", humanize(fe.Field()), fe.Param())
	case "future_date":
		return fmt.Sprintf("%s must be in the future", humanize(fe.Field()))
	}
	return fmt.Sprintf("%s is invalid", humanize(fe.Field()))
}

// humanize 把 confirmPassword / due_date 变成 Confirm password / Due date
func humanize(field string) string {
	var b strings.Builder
	for i, r := range field {
		switch {
		case r == '_':
			b.WriteRune(' ')
		case r >= 'A' && r <= 'Z' && i > 0:
			b.WriteRune(' ')
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
