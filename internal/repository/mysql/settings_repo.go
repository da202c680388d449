package mysql

import (
	"construction-backend/internal/model"
	"construction-backend/internal/util"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// settingsRowID 系统设置表只使用这一行
const settingsRowID = 1

type SettingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository 创建系统设置仓库
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db}
}

// Get 读取系统设置，未初始化时返回 nil, nil
func (r *SettingsRepository) Get() (*model.SystemSettings, error) {
	var s model.SystemSettings
	err := r.db.QueryRow(`
		SELECT site_name, max_upload_mb, allow_registration, maintenance_mode, default_currency, updated_at
		FROM system_settings WHERE id = ?
	`, settingsRowID).Scan(&s.SiteName, &s.MaxUploadMB, &s.AllowRegistration, &s.MaintenanceMode,
		&s.DefaultCurrency, &s.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		util.Logger.Error("读取系统设置失败", zap.Error(err))
		return nil, err
	}
	return &s, nil
}

// Save 写入系统设置，不存在时插入
func (r *SettingsRepository) Save(settings *model.SystemSettings) error {
	settings.UpdatedAt = time.Now()
	err := saveRow(
		func() (sql.Result, error) {
			return r.db.Exec(`
				UPDATE system_settings
				SET site_name = ?, max_upload_mb = ?, allow_registration = ?, maintenance_mode = ?,
				    default_currency = ?, updated_at = ?
				WHERE id = ?
			`, settings.SiteName, settings.MaxUploadMB, settings.AllowRegistration, settings.MaintenanceMode,
				settings.DefaultCurrency, settings.UpdatedAt, settingsRowID)
		},
		func() error {
			_, err := r.db.Exec(`
				INSERT INTO system_settings
				    (id, site_name, max_upload_mb, allow_registration, maintenance_mode, default_currency, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, settingsRowID, settings.SiteName, settings.MaxUploadMB, settings.AllowRegistration,
				settings.MaintenanceMode, settings.DefaultCurrency, settings.UpdatedAt)
			return err
		},
	)
	if err != nil {
		util.Logger.Error("保存系统设置失败", zap.Error(err))
		return err
	}

	util.Logger.Info("系统设置已更新",
		zap.Bool("maintenance_mode", settings.MaintenanceMode),
		zap.Bool("allow_registration", settings.AllowRegistration))
	return nil
}
