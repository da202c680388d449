package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_HOST", "")
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("SETTINGS_CACHE_TTL", "")

	cfg := Load()
	assert.Equal(t, "local", cfg.StorageBackend)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 5*time.Minute, cfg.SettingsCacheTTL)
	assert.NotEmpty(t, cfg.ContentSecurityPolicy)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "S3")
	t.Setenv("SMTP_PORT", "587")
	t.Setenv("SETTINGS_CACHE_TTL", "30s")
	t.Setenv("COOKIE_DIRECTIVES", "consent=1; Path=/; Secure; SameSite=Strict")

	cfg := Load()
	assert.Equal(t, "s3", cfg.StorageBackend)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, 30*time.Second, cfg.SettingsCacheTTL)
	assert.Equal(t, "consent=1; Path=/; Secure; SameSite=Strict", cfg.CookieDirectives)
}

func TestValidate(t *testing.T) {
	cfg := Config{
		DBHost: "db", DBUser: "u", DBPassword: "p", DBName: "site",
		JWTSecret: "secret", StorageBackend: "local", SettingsCacheTTL: time.Minute,
	}
	assert.NoError(t, cfg.Validate())

	// go-cache 把 0 当作永不过期
	noTTL := cfg
	noTTL.SettingsCacheTTL = 0
	assert.Error(t, noTTL.Validate())

	noSecret := cfg
	noSecret.JWTSecret = ""
	assert.Error(t, noSecret.Validate())

	s3 := cfg
	s3.StorageBackend = "s3"
	assert.Error(t, s3.Validate())
	s3.S3Bucket = "plans"
	assert.NoError(t, s3.Validate())

	unknown := cfg
	unknown.StorageBackend = "ftp"
	assert.Error(t, unknown.Validate())
}

func TestDSN(t *testing.T) {
	cfg := Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "3306", DBName: "n"}
	assert.Equal(t, "u:p@tcp(h:3306)/n?charset=utf8mb4&parseTime=True&loc=Local", cfg.DSN())
}
