// Package api 包含各个处理器共用的请求解析和响应辅助函数
package api

import (
	"construction-backend/internal/errors"
	"construction-backend/internal/middleware"
	"construction-backend/internal/model"
	"construction-backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterBindingValidators 让 gin 绑定使用 json 字段名和自定义规则
func RegisterBindingValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		util.RegisterValidators(v)
	}
}

// Viewer 返回当前登录用户，未登录时写入错误响应
func Viewer(c *gin.Context) (model.Viewer, bool) {
	viewer, ok := middleware.CurrentViewer(c)
	if !ok {
		errors.HandleError(c, errors.New(errors.ErrUnauthorized, "authentication required"))
		return model.Viewer{}, false
	}
	return viewer, true
}

// ParamID 解析路径中的正整数ID，失败时写入错误响应
func ParamID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		errors.HandleError(c, errors.New(errors.ErrBadRequest, "invalid "+name))
		return 0, false
	}
	return id, true
}

// Paginated 分页列表的统一结构
func Paginated(key string, items interface{}, page, pageSize, total int) gin.H {
	return gin.H{
		key: items,
		"pagination": gin.H{
			"current_page": page,
			"page_size":    pageSize,
			"total":        total,
			"total_pages":  (total + pageSize - 1) / pageSize,
		},
	}
}
