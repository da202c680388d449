package mysql

import (
	"construction-backend/internal/common"
	"construction-backend/internal/model"
	"construction-backend/internal/util"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ProjectRepository 实现了项目相关的数据库操作
type ProjectRepository struct {
	db *sql.DB
}

// NewProjectRepository 创建一个新的 ProjectRepository 实例
func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db}
}

const projectSelect = `
		SELECT p.id, p.name, p.description, p.location, p.owner_id, p.engineer_id, p.status,
			   p.budget, p.start_date, p.due_date, p.created_at, p.updated_at,
			   u.username, u.email, u.full_name,
			   (SELECT COUNT(*) FROM project_stages s WHERE s.project_id = p.id) AS stage_total,
			   (SELECT COUNT(*) FROM project_stages s WHERE s.project_id = p.id AND s.status = 'done') AS stage_done
		FROM projects p
		LEFT JOIN users u ON p.owner_id = u.id`

func scanProject(row rowScanner) (*model.Project, error) {
	var (
		p                     model.Project
		engineerID            sql.NullInt64
		startDate, dueDate    sql.NullTime
		username, email, name sql.NullString
		stageTotal, stageDone int
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Location, &p.OwnerID, &engineerID, &p.Status,
		&p.Budget, &startDate, &dueDate, &p.CreatedAt, &p.UpdatedAt,
		&username, &email, &name,
		&stageTotal, &stageDone,
	)
	if err != nil {
		return nil, err
	}
	if engineerID.Valid {
		id := int(engineerID.Int64)
		p.EngineerID = &id
	}
	if startDate.Valid {
		p.StartDate = &startDate.Time
	}
	if dueDate.Valid {
		p.DueDate = &dueDate.Time
	}
	if username.Valid {
		p.Owner = &model.User{ID: p.OwnerID, Username: username.String, Email: email.String, FullName: name.String}
	}
	if stageTotal > 0 {
		p.Progress = float64(stageDone) / float64(stageTotal) * 100
	}
	return &p, nil
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableTime(v *time.Time) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// scopeConditions 把角色范围转换为 WHERE 条件
func scopeConditions(scope model.ProjectScope) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	if scope.OwnerID > 0 {
		conditions = append(conditions, "p.owner_id = ?")
		args = append(args, scope.OwnerID)
	}
	if scope.EngineerID > 0 {
		conditions = append(conditions, "p.engineer_id = ?")
		args = append(args, scope.EngineerID)
	}
	if scope.Status != "" {
		conditions = append(conditions, "p.status = ?")
		args = append(args, scope.Status)
	}
	if scope.Search != "" {
		conditions = append(conditions, "(p.name LIKE ? OR p.location LIKE ?)")
		like := "%" + scope.Search + "%"
		args = append(args, like, like)
	}
	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// Create 在事务中创建项目及其初始阶段，临时性错误会重试
func (r *ProjectRepository) Create(project *model.Project) error {
	util.Logger.Info("开始创建新项目",
		zap.String("name", project.Name),
		zap.Int("owner_id", project.OwnerID))

	now := time.Now()
	project.CreatedAt = now
	project.UpdatedAt = now

	return common.WithRetry(func() error {
		tx, err := r.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		result, err := tx.Exec(`
			INSERT INTO projects (
				name, description, location, owner_id, engineer_id, status,
				budget, start_date, due_date, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, project.Name, project.Description, project.Location, project.OwnerID, nullableInt(project.EngineerID),
			project.Status, project.Budget, nullableTime(project.StartDate), nullableTime(project.DueDate),
			project.CreatedAt, project.UpdatedAt)
		if err != nil {
			util.Logger.Error("插入项目失败", zap.Error(err))
			return err
		}
		projectID, err := result.LastInsertId()
		if err != nil {
			return err
		}
		project.ID = int(projectID)

		for i := range project.Stages {
			stage := &project.Stages[i]
			stage.ProjectID = project.ID
			if err := insertStage(tx, stage); err != nil {
				util.Logger.Error("插入项目阶段失败", zap.Error(err))
				return err
			}
		}

		if err := tx.Commit(); err != nil {
			return err
		}
		util.Logger.Info("项目创建成功", zap.Int("project_id", project.ID), zap.Int("stages", len(project.Stages)))
		return nil
	}, 3)
}

// FindByID 通过ID获取项目
func (r *ProjectRepository) FindByID(id int) (*model.Project, error) {
	project, err := scanProject(r.db.QueryRow(projectSelect+` WHERE p.id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			util.Logger.Info("项目不存在", zap.Int("project_id", id))
			return nil, nil
		}
		util.Logger.Error("获取项目失败", zap.Error(err), zap.Int("project_id", id))
		return nil, err
	}
	return project, nil
}

// Update 更新项目基本信息
func (r *ProjectRepository) Update(project *model.Project) error {
	project.UpdatedAt = time.Now()
	_, err := r.db.Exec(`
		UPDATE projects
		SET name = ?, description = ?, location = ?, budget = ?, start_date = ?, due_date = ?, updated_at = ?
		WHERE id = ?
	`, project.Name, project.Description, project.Location, project.Budget,
		nullableTime(project.StartDate), nullableTime(project.DueDate), project.UpdatedAt, project.ID)
	if err != nil {
		util.Logger.Error("更新项目失败", zap.Error(err), zap.Int("project_id", project.ID))
	}
	return err
}

// UpdateStatus 仅当项目当前状态为 from 时改为 to，否则返回 sql.ErrNoRows
func (r *ProjectRepository) UpdateStatus(id int, from, to string) error {
	result, err := r.db.Exec(`UPDATE projects SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to, time.Now(), id, from)
	if err != nil {
		util.Logger.Error("更新项目状态失败", zap.Error(err), zap.Int("project_id", id))
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AssignEngineer 指派工程师
func (r *ProjectRepository) AssignEngineer(projectID, engineerID int) error {
	return r.updateProjectColumn(projectID, "engineer_id", engineerID)
}

func (r *ProjectRepository) updateProjectColumn(id int, column string, value interface{}) error {
	result, err := r.db.Exec(fmt.Sprintf("UPDATE projects SET %s = ?, updated_at = ? WHERE id = ?", column),
		value, time.Now(), id)
	if err != nil {
		util.Logger.Error("更新项目字段失败", zap.Error(err), zap.Int("project_id", id), zap.String("column", column))
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete 删除项目及其阶段、文档和估算
func (r *ProjectRepository) Delete(id int) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"project_stages", "project_documents", "estimates"} {
		if _, err = tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE project_id = ?", table), id); err != nil {
			return err
		}
	}

	result, err := tx.Exec("DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

// List 按范围分页查询项目，返回项目和总数
func (r *ProjectRepository) List(scope model.ProjectScope, page, pageSize int) ([]model.Project, int, error) {
	where, args := scopeConditions(scope)

	var total int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM projects p`+where, args...).Scan(&total); err != nil {
		util.Logger.Error("统计项目数量失败", zap.Error(err))
		return nil, 0, err
	}

	query := projectSelect + where + ` ORDER BY p.created_at DESC, p.id DESC LIMIT ? OFFSET ?`
	rows, err := r.db.Query(query, append(args, pageSize, (page-1)*pageSize)...)
	if err != nil {
		util.Logger.Error("查询项目列表失败", zap.Error(err))
		return nil, 0, err
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, err
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

// CountByStatus 按状态统计项目数量
func (r *ProjectRepository) CountByStatus(scope model.ProjectScope) (map[string]int, error) {
	where, args := scopeConditions(scope)
	rows, err := r.db.Query(`SELECT p.status, COUNT(*) FROM projects p`+where+` GROUP BY p.status`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// SumBudget 统计范围内项目的预算总和
func (r *ProjectRepository) SumBudget(scope model.ProjectScope) (float64, error) {
	where, args := scopeConditions(scope)
	var sum float64
	err := r.db.QueryRow(`SELECT COALESCE(SUM(p.budget), 0) FROM projects p`+where, args...).Scan(&sum)
	return sum, err
}

func insertStage(tx *sql.Tx, stage *model.ProjectStage) error {
	now := time.Now()
	stage.CreatedAt = now
	stage.UpdatedAt = now
	if stage.Status == "" {
		stage.Status = model.StagePending
	}
	if stage.Position == 0 {
		if err := tx.QueryRow(`SELECT COALESCE(MAX(position), 0) + 1 FROM project_stages WHERE project_id = ?`,
			stage.ProjectID).Scan(&stage.Position); err != nil {
			return err
		}
	}
	result, err := tx.Exec(`
		INSERT INTO project_stages (project_id, name, position, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, stage.ProjectID, stage.Name, stage.Position, stage.Status, stage.CreatedAt, stage.UpdatedAt)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	stage.ID = int(id)
	return nil
}

// CreateStage 为项目追加一个阶段
func (r *ProjectRepository) CreateStage(stage *model.ProjectStage) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertStage(tx, stage); err != nil {
		util.Logger.Error("创建项目阶段失败", zap.Error(err), zap.Int("project_id", stage.ProjectID))
		return err
	}
	return tx.Commit()
}

const stageColumns = `id, project_id, name, position, status, created_at, updated_at`

func scanStage(row rowScanner) (*model.ProjectStage, error) {
	var s model.ProjectStage
	if err := row.Scan(&s.ID, &s.ProjectID, &s.Name, &s.Position, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// FindStage 通过ID获取阶段
func (r *ProjectRepository) FindStage(id int) (*model.ProjectStage, error) {
	stage, err := scanStage(r.db.QueryRow(`SELECT `+stageColumns+` FROM project_stages WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return stage, err
}

// ListStages 按顺序返回项目的阶段
func (r *ProjectRepository) ListStages(projectID int) ([]model.ProjectStage, error) {
	rows, err := r.db.Query(`SELECT `+stageColumns+` FROM project_stages WHERE project_id = ? ORDER BY position, id`, projectID)
	if err != nil {
		util.Logger.Error("查询项目阶段失败", zap.Error(err), zap.Int("project_id", projectID))
		return nil, err
	}
	defer rows.Close()

	stages := []model.ProjectStage{}
	for rows.Next() {
		s, err := scanStage(rows)
		if err != nil {
			return nil, err
		}
		stages = append(stages, *s)
	}
	return stages, rows.Err()
}

// UpdateStageStatus 更新阶段状态
func (r *ProjectRepository) UpdateStageStatus(id int, status string) error {
	result, err := r.db.Exec(`UPDATE project_stages SET status = ?, updated_at = ? WHERE id = ?`, status, time.Now(), id)
	if err != nil {
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountOpenStages 统计工程师负责的项目中未完成的阶段
func (r *ProjectRepository) CountOpenStages(engineerID int) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM project_stages s
		JOIN projects p ON p.id = s.project_id
		WHERE p.engineer_id = ? AND s.status <> 'done' AND p.status NOT IN ('completed', 'cancelled')
	`, engineerID).Scan(&count)
	return count, err
}

// CreateDocument 保存已上传文档的记录
func (r *ProjectRepository) CreateDocument(doc *model.ProjectDocument) error {
	doc.CreatedAt = time.Now()
	result, err := r.db.Exec(`
		INSERT INTO project_documents (project_id, uploaded_by, file_name, url, size_bytes, content_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, doc.ProjectID, doc.UploadedBy, doc.FileName, doc.URL, doc.SizeBytes, doc.ContentType, doc.CreatedAt)
	if err != nil {
		util.Logger.Error("保存项目文档失败", zap.Error(err), zap.Int("project_id", doc.ProjectID))
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	doc.ID = int(id)
	return nil
}

// ListDocuments 返回项目文档，最新的在前
func (r *ProjectRepository) ListDocuments(projectID int) ([]model.ProjectDocument, error) {
	rows, err := r.db.Query(`
		SELECT id, project_id, uploaded_by, file_name, url, size_bytes, content_type, created_at
		FROM project_documents WHERE project_id = ? ORDER BY created_at DESC, id DESC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []model.ProjectDocument{}
	for rows.Next() {
		var d model.ProjectDocument
		if err := rows.Scan(&d.ID, &d.ProjectID, &d.UploadedBy, &d.FileName, &d.URL,
			&d.SizeBytes, &d.ContentType, &d.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
