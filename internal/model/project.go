package model

import (
	"time"
)

// 项目状态
const (
	ProjectPlanning   = "planning"
	ProjectInProgress = "in_progress"
	ProjectOnHold     = "on_hold"
	ProjectCompleted  = "completed"
	ProjectCancelled  = "cancelled"
)

// 阶段状态
const (
	StagePending    = "pending"
	StageInProgress = "in_progress"
	StageDone       = "done"
)

// projectTransitions 允许的项目状态流转
var projectTransitions = map[string][]string{
	ProjectPlanning:   {ProjectInProgress, ProjectCancelled},
	ProjectInProgress: {ProjectOnHold, ProjectCompleted, ProjectCancelled},
	ProjectOnHold:     {ProjectInProgress, ProjectCancelled},
	ProjectCompleted:  {},
	ProjectCancelled:  {},
}

// CanTransition 判断项目是否可以从 from 状态变为 to 状态
func CanTransition(from, to string) bool {
	for _, next := range projectTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidProjectStatus 判断项目状态是否合法
func ValidProjectStatus(status string) bool {
	_, ok := projectTransitions[status]
	return ok
}

// ValidStageStatus 判断阶段状态是否合法
func ValidStageStatus(status string) bool {
	switch status {
	case StagePending, StageInProgress, StageDone:
		return true
	}
	return false
}

type Project struct {
	ID          int               `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Location    string            `json:"location"`
	OwnerID     int               `json:"owner_id"`
	EngineerID  *int              `json:"engineer_id,omitempty"`
	Status      string            `json:"status"`
	Budget      float64           `json:"budget"`
	StartDate   *time.Time        `json:"start_date,omitempty"`
	DueDate     *time.Time        `json:"due_date,omitempty"`
	Progress    float64           `json:"progress"` // 已完成阶段百分比
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Owner       *User             `json:"owner,omitempty"`
	Stages      []ProjectStage    `json:"stages,omitempty"`
	Documents   []ProjectDocument `json:"documents,omitempty"`
}

// ComputeProgress 根据阶段计算进度
func (p *Project) ComputeProgress() {
	if len(p.Stages) == 0 {
		p.Progress = 0
		return
	}
	done := 0
	for _, s := range p.Stages {
		if s.Status == StageDone {
			done++
		}
	}
	p.Progress = float64(done) / float64(len(p.Stages)) * 100
}

type ProjectStage struct {
	ID        int       `json:"id"`
	ProjectID int       `json:"project_id"`
	Name      string    `json:"name"`
	Position  int       `json:"position"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ProjectDocument struct {
	ID          int       `json:"id"`
	ProjectID   int       `json:"project_id"`
	UploadedBy  int       `json:"uploaded_by"`
	FileName    string    `json:"file_name"`
	URL         string    `json:"url"`
	SizeBytes   int64     `json:"size_bytes"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProjectScope 按角色限定项目列表
type ProjectScope struct {
	OwnerID    int    // 0 表示不限
	EngineerID int    // 0 表示不限
	Status     string // 空表示不限
	Search     string
}
