package interfaces

import "construction-backend/internal/model"

// UserRepository 接口定义了用户仓库应该实现的方法
// 查找类方法在记录不存在时返回 nil, nil
type UserRepository interface {
	Create(user *model.User) error
	FindByID(id int) (*model.User, error)
	FindByEmail(email string) (*model.User, error)
	FindByUsername(username string) (*model.User, error)
	Update(user *model.User) error
	UpdatePassword(id int, oldHash, newHash string) error
	UpdateStatus(id int, status string) error
	UpdateRole(id int, role string) error
	Delete(id int) error
	FindAll(filter model.UserFilter, page, pageSize int) ([]*model.User, int, error)
	CountByRole() (map[string]int, error)
	CountByStatus(status string) (int, error)
	GetPreferences(userID int) (*model.UIPreferences, error)
	SavePreferences(userID int, prefs model.UIPreferences) error
}
