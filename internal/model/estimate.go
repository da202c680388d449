package model

import (
	"encoding/json"
	"time"
)

// 估算类型，对应前端的各个计算表单
const (
	EstimateConcrete   = "concrete"
	EstimateSteel      = "steel"
	EstimatePrice      = "price"
	EstimateCost       = "cost"
	EstimateSimpleCost = "simple_cost"
)

// Estimate 保存到项目下的一次计算
type Estimate struct {
	ID        int             `json:"id"`
	Reference string          `json:"reference"`
	ProjectID int             `json:"project_id"`
	Kind      string          `json:"kind"`
	Input     json.RawMessage `json:"input"`
	Result    json.RawMessage `json:"result"`
	Total     float64         `json:"total"`
	Currency  string          `json:"currency"`
	CreatedBy int             `json:"created_by"`
	CreatedAt time.Time       `json:"created_at"`
}

// ValidEstimateKind 判断估算类型是否合法
func ValidEstimateKind(kind string) bool {
	switch kind {
	case EstimateConcrete, EstimateSteel, EstimatePrice, EstimateCost, EstimateSimpleCost:
		return true
	}
	return false
}
