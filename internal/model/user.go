package model

import "time"

// 用户角色
const (
	RoleAdmin    = "admin"
	RoleEngineer = "engineer"
	RoleOwner    = "owner"
)

// 用户状态
const (
	StatusPending = "pending"
	StatusActive  = "active"
)

// User 结构体表示用户模型
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // 密码哈希不应在JSON中暴露
	FullName     string    `json:"full_name"`
	Phone        string    `json:"phone"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsActive 判断账户是否已激活
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// UserFilter 管理员用户列表的过滤条件
type UserFilter struct {
	Role   string
	Status string
	Search string
}

// UIPreferences 前端界面状态，按用户持久化
type UIPreferences struct {
	SidebarOpen bool `json:"sidebar_open"`
}

// Viewer 发起请求的用户身份
type Viewer struct {
	UserID int
	Role   string
}

// IsAdmin 判断是否为管理员
func (v Viewer) IsAdmin() bool {
	return v.Role == RoleAdmin
}

// ValidRole 判断角色是否合法
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleEngineer, RoleOwner:
		return true
	}
	return false
}
