package service

import (
	"construction-backend/internal/errors"
	"construction-backend/internal/model"
	"construction-backend/internal/repository/interfaces"
	"construction-backend/internal/util"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const settingsCacheKey = "system_settings"

// SettingsService 读写系统设置，读操作走缓存
type SettingsService struct {
	repo  interfaces.SettingsRepository
	cache *cache.Cache
	// ttl 不大于 0 时不缓存，每次都读数据库
	ttl time.Duration
}

func NewSettingsService(repo interfaces.SettingsRepository, ttl time.Duration) *SettingsService {
	s := &SettingsService{repo: repo, ttl: ttl}
	if ttl > 0 {
		s.cache = cache.New(ttl, 2*ttl)
	}
	return s
}

// Get 返回当前设置，数据库中没有记录时返回默认值
func (s *SettingsService) Get() (model.SystemSettings, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(settingsCacheKey); ok {
			return cached.(model.SystemSettings), nil
		}
	}

	stored, err := s.repo.Get()
	if err != nil {
		util.Logger.Error("读取系统设置失败", zap.Error(err))
		return model.SystemSettings{}, errors.Wrap(errors.ErrDatabase, "failed to load settings", err)
	}

	settings := model.DefaultSystemSettings()
	if stored != nil {
		settings = *stored
	}
	if s.cache != nil {
		s.cache.SetDefault(settingsCacheKey, settings)
	}
	return settings, nil
}

// Public 未登录用户可见的设置
func (s *SettingsService) Public() (model.PublicSettings, error) {
	settings, err := s.Get()
	if err != nil {
		return model.PublicSettings{}, err
	}
	return model.PublicSettings{
		SiteName:          settings.SiteName,
		AllowRegistration: settings.AllowRegistration,
		MaintenanceMode:   settings.MaintenanceMode,
		DefaultCurrency:   settings.DefaultCurrency,
	}, nil
}

// Update 保存设置并使缓存失效
func (s *SettingsService) Update(settings model.SystemSettings) (model.SystemSettings, error) {
	settings.SiteName = strings.TrimSpace(settings.SiteName)
	settings.DefaultCurrency = strings.ToUpper(strings.TrimSpace(settings.DefaultCurrency))
	if settings.SiteName == "" {
		return model.SystemSettings{}, errors.New(errors.ErrValidation, "site name is required")
	}
	if settings.MaxUploadMB <= 0 {
		return model.SystemSettings{}, errors.New(errors.ErrValidation, "max upload size must be positive")
	}
	if len(settings.DefaultCurrency) != 3 {
		return model.SystemSettings{}, errors.New(errors.ErrValidation, "currency must be a 3-letter code")
	}

	if err := s.repo.Save(&settings); err != nil {
		return model.SystemSettings{}, errors.Wrap(errors.ErrDatabase, "failed to save settings", err)
	}
	if s.cache != nil {
		s.cache.Delete(settingsCacheKey)
	}

	util.Logger.Info("系统设置已更新",
		zap.String("site_name", settings.SiteName),
		zap.Bool("maintenance_mode", settings.MaintenanceMode))
	return settings, nil
}
