package mysql

import (
	"construction-backend/internal/model"
	"construction-backend/internal/util"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

type EstimateRepository struct {
	db *sql.DB
}

// NewEstimateRepository 创建估算仓库
func NewEstimateRepository(db *sql.DB) *EstimateRepository {
	return &EstimateRepository{db}
}

const estimateColumns = `id, reference, project_id, kind, input, result, total, currency, created_by, created_at`

func scanEstimate(row rowScanner) (*model.Estimate, error) {
	var e model.Estimate
	var input, result []byte
	err := row.Scan(&e.ID, &e.Reference, &e.ProjectID, &e.Kind, &input, &result,
		&e.Total, &e.Currency, &e.CreatedBy, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.Input = input
	e.Result = result
	return &e, nil
}

// Create 保存一次估算
func (r *EstimateRepository) Create(estimate *model.Estimate) error {
	if estimate.CreatedAt.IsZero() {
		estimate.CreatedAt = time.Now()
	}
	res, err := r.db.Exec(`
		INSERT INTO estimates (reference, project_id, kind, input, result, total, currency, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, estimate.Reference, estimate.ProjectID, estimate.Kind, []byte(estimate.Input), []byte(estimate.Result),
		estimate.Total, estimate.Currency, estimate.CreatedBy, estimate.CreatedAt)
	if err != nil {
		util.Logger.Error("保存估算失败", zap.Error(err), zap.Int("project_id", estimate.ProjectID))
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	estimate.ID = int(id)
	util.Logger.Info("估算已保存",
		zap.Int("estimate_id", estimate.ID),
		zap.String("reference", estimate.Reference),
		zap.String("kind", estimate.Kind))
	return nil
}

// FindByID 通过ID获取估算
func (r *EstimateRepository) FindByID(id int) (*model.Estimate, error) {
	e, err := scanEstimate(r.db.QueryRow(`SELECT `+estimateColumns+` FROM estimates WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

// ListByProject 返回项目下的估算，最新的在前
func (r *EstimateRepository) ListByProject(projectID int) ([]model.Estimate, error) {
	rows, err := r.db.Query(`SELECT `+estimateColumns+` FROM estimates WHERE project_id = ? ORDER BY created_at DESC, id DESC`, projectID)
	if err != nil {
		util.Logger.Error("查询估算列表失败", zap.Error(err), zap.Int("project_id", projectID))
		return nil, err
	}
	defer rows.Close()

	estimates := []model.Estimate{}
	for rows.Next() {
		e, err := scanEstimate(rows)
		if err != nil {
			return nil, err
		}
		estimates = append(estimates, *e)
	}
	return estimates, rows.Err()
}

// Delete 删除估算
func (r *EstimateRepository) Delete(id int) error {
	res, err := r.db.Exec(`DELETE FROM estimates WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Count 返回估算总数
func (r *EstimateRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM estimates`).Scan(&count)
	return count, err
}

func (r *EstimateRepository) SumLatestTotals(ownerID int) (float64, error) {
	var sum float64
	err := r.db.QueryRow(`
		SELECT COALESCE(SUM(e.total), 0)
		FROM estimates e
		JOIN projects p ON p.id = e.project_id
		WHERE p.owner_id = ?
		  AND e.id = (SELECT MAX(e2.id) FROM estimates e2 WHERE e2.project_id = e.project_id)
	`, ownerID).Scan(&sum)
	return sum, err
}
