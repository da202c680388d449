// Package estimate 把结构尺寸、钢筋表和单价换算为材料用量和造价。
// 所有函数都是纯计算，不访问数据库。
package estimate

import (
	"fmt"
	"math"
)

// InputError 输入数据不合法，Field 为 json 路径
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func inputErr(field, format string, args ...interface{}) error {
	return &InputError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Money 金额保留两位小数
func Money(v float64) float64 {
	return round(v, 2)
}

// Qty 数量保留三位小数
func Qty(v float64) float64 {
	return round(v, 3)
}

func checkPercent(field string, v float64) error {
	if v < 0 || v > 100 {
		return inputErr(field, "must be between 0 and 100")
	}
	return nil
}
