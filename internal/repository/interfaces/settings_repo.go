package interfaces

import "construction-backend/internal/model"

// SettingsRepository 系统设置只有一行记录
type SettingsRepository interface {
	Get() (*model.SystemSettings, error)
	Save(settings *model.SystemSettings) error
}
