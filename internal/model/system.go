package model

import "time"

// SystemSettings 系统设置，单行记录
type SystemSettings struct {
	SiteName          string    `json:"site_name"`
	MaxUploadMB       int       `json:"max_upload_mb"`
	AllowRegistration bool      `json:"allow_registration"`
	MaintenanceMode   bool      `json:"maintenance_mode"`
	DefaultCurrency   string    `json:"default_currency"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// DefaultSystemSettings 数据库中没有记录时使用的默认设置
func DefaultSystemSettings() SystemSettings {
	return SystemSettings{
		SiteName:          "Construction Manager",
		MaxUploadMB:       10,
		AllowRegistration: true,
		MaintenanceMode:   false,
		DefaultCurrency:   "USD",
	}
}

// PublicSettings 未登录用户可见的设置
type PublicSettings struct {
	SiteName          string `json:"site_name"`
	AllowRegistration bool   `json:"allow_registration"`
	MaintenanceMode   bool   `json:"maintenance_mode"`
	DefaultCurrency   string `json:"default_currency"`
}

// AdminDashboard 管理员看板
type AdminDashboard struct {
	UsersByRole      map[string]int `json:"users_by_role"`
	PendingUsers     int            `json:"pending_users"`
	ProjectsByStatus map[string]int `json:"projects_by_status"`
	TotalEstimates   int            `json:"total_estimates"`
	ErrorCounts      map[int]int    `json:"error_counts,omitempty"`
}

// OwnerDashboard 业主看板
type OwnerDashboard struct {
	ProjectsByStatus   map[string]int `json:"projects_by_status"`
	TotalBudget        float64        `json:"total_budget"`
	TotalEstimatedCost float64        `json:"total_estimated_cost"`
	RecentProjects     []Project      `json:"recent_projects"`
}

// EngineerDashboard 工程师看板
type EngineerDashboard struct {
	ProjectsByStatus map[string]int `json:"projects_by_status"`
	OpenStages       int            `json:"open_stages"`
	RecentProjects   []Project      `json:"recent_projects"`
}
