package mysql

import (
	"construction-backend/internal/model"
	"construction-backend/internal/util"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// userRepository 实现了 UserRepository 接口
type userRepository struct {
	db *sql.DB
}

// NewUserRepository 创建一个新的 userRepository 实例
func NewUserRepository(db *sql.DB) *userRepository {
	return &userRepository{db}
}

const userColumns = `id, username, email, password_hash, full_name, phone, role, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.FullName, &user.Phone,
		&user.Role, &user.Status, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create 创建一个新用户
func (r *userRepository) Create(user *model.User) error {
	util.Logger.Info("尝试创建新用户", zap.String("email", user.Email), zap.String("role", user.Role))
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	query := `INSERT INTO users (username, email, password_hash, full_name, phone, role, status, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := r.db.Exec(query, user.Username, user.Email, user.PasswordHash, user.FullName, user.Phone,
		user.Role, user.Status, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		util.Logger.Error("创建用户失败", zap.Error(err))
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		util.Logger.Error("获取新用户ID失败", zap.Error(err))
		return err
	}
	user.ID = int(id)
	util.Logger.Info("用户创建成功", zap.Int("user_id", user.ID))
	return nil
}

func (r *userRepository) findOne(where string, arg interface{}) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	user, err := scanUser(r.db.QueryRow(query, arg))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		util.Logger.Error("查找用户失败", zap.Error(err), zap.String("where", where))
		return nil, err
	}
	return user, nil
}

// FindByID 通过ID查找用户
func (r *userRepository) FindByID(id int) (*model.User, error) {
	return r.findOne("id = ?", id)
}

// FindByEmail 通过邮箱查找用户
func (r *userRepository) FindByEmail(email string) (*model.User, error) {
	return r.findOne("email = ?", email)
}

// FindByUsername 通过用户名查找用户
func (r *userRepository) FindByUsername(username string) (*model.User, error) {
	return r.findOne("username = ?", username)
}

// Update 更新用户资料
func (r *userRepository) Update(user *model.User) error {
	user.UpdatedAt = time.Now()
	_, err := r.db.Exec(`
		UPDATE users
		SET username = ?, email = ?, full_name = ?, phone = ?, updated_at = ?
		WHERE id = ?`,
		user.Username, user.Email, user.FullName, user.Phone, user.UpdatedAt, user.ID)
	if err != nil {
		util.Logger.Error("更新用户失败", zap.Error(err), zap.Int("user_id", user.ID))
	}
	return err
}

// UpdatePassword 仅当当前哈希仍为 oldHash 时更新，否则返回 sql.ErrNoRows
func (r *userRepository) UpdatePassword(id int, oldHash, newHash string) error {
	result, err := r.db.Exec(`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ? AND password_hash = ?`,
		newHash, time.Now(), id, oldHash)
	if err != nil {
		util.Logger.Error("更新用户密码失败", zap.Error(err), zap.Int("user_id", id))
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

// UpdateStatus 更新账户状态
func (r *userRepository) UpdateStatus(id int, status string) error {
	return r.updateColumn(id, "status", status)
}

// UpdateRole 更新用户角色
func (r *userRepository) UpdateRole(id int, role string) error {
	return r.updateColumn(id, "role", role)
}

func (r *userRepository) updateColumn(id int, column string, value interface{}) error {
	query := fmt.Sprintf("UPDATE users SET %s = ?, updated_at = ? WHERE id = ?", column)
	result, err := r.db.Exec(query, value, time.Now(), id)
	if err != nil {
		util.Logger.Error("更新用户字段失败", zap.Error(err), zap.Int("user_id", id), zap.String("column", column))
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

// Delete 删除用户
func (r *userRepository) Delete(id int) error {
	util.Logger.Info("尝试删除用户", zap.Int("user_id", id))
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM user_preferences WHERE user_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM users WHERE id = ?`, id); err != nil {
		util.Logger.Error("删除用户失败", zap.Error(err))
		return err
	}
	return tx.Commit()
}

// FindAll 返回分页的用户列表以及满足条件的总数
func (r *userRepository) FindAll(filter model.UserFilter, page, pageSize int) ([]*model.User, int, error) {
	var conditions []string
	var args []interface{}
	if filter.Role != "" {
		conditions = append(conditions, "role = ?")
		args = append(args, filter.Role)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, "(username LIKE ? OR email LIKE ? OR full_name LIKE ?)")
		like := "%" + filter.Search + "%"
		args = append(args, like, like, like)
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM users"+where, args...).Scan(&total); err != nil {
		util.Logger.Error("统计用户数量失败", zap.Error(err))
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	query := `SELECT ` + userColumns + ` FROM users` + where + ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := r.db.Query(query, append(args, pageSize, offset)...)
	if err != nil {
		util.Logger.Error("查询用户列表失败", zap.Error(err))
		return nil, 0, err
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// CountByRole 按角色统计用户数量
func (r *userRepository) CountByRole() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT role, COUNT(*) FROM users GROUP BY role`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var role string
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		counts[role] = n
	}
	return counts, rows.Err()
}

// CountByStatus 统计某个状态的用户数量
func (r *userRepository) CountByStatus(status string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM users WHERE status = ?`, status).Scan(&count)
	return count, err
}

// GetPreferences 获取界面偏好，没有记录时返回默认值
func (r *userRepository) GetPreferences(userID int) (*model.UIPreferences, error) {
	prefs := &model.UIPreferences{SidebarOpen: true}
	err := r.db.QueryRow(`SELECT sidebar_open FROM user_preferences WHERE user_id = ?`, userID).
		Scan(&prefs.SidebarOpen)
	if err != nil && err != sql.ErrNoRows {
		util.Logger.Error("获取界面偏好失败", zap.Error(err), zap.Int("user_id", userID))
		return nil, err
	}
	return prefs, nil
}

// SavePreferences 保存界面偏好
func (r *userRepository) SavePreferences(userID int, prefs model.UIPreferences) error {
	now := time.Now()
	err := saveRow(
		func() (sql.Result, error) {
			return r.db.Exec(`UPDATE user_preferences SET sidebar_open = ?, updated_at = ? WHERE user_id = ?`,
				prefs.SidebarOpen, now, userID)
		},
		func() error {
			_, err := r.db.Exec(`INSERT INTO user_preferences (user_id, sidebar_open, updated_at) VALUES (?, ?, ?)`,
				userID, prefs.SidebarOpen, now)
			return err
		},
	)
	if err != nil {
		util.Logger.Error("保存界面偏好失败", zap.Error(err), zap.Int("user_id", userID))
	}
	return err
}
