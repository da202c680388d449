package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// Config 结构体用于存储应用程序的配置信息
type Config struct {
	DBHost             string
	DBPort             string
	DBUser             string
	DBPassword         string
	DBName             string
	JWTSecret          string
	LogLevel           string
	ListenAddr         string
	SMTPHost           string
	SMTPPort           int
	SMTPUsername       string
	SMTPPassword       string
	FrontendURL        string
	BackendURL         string
	StorageBackend     string // local, s3, gcs
	S3Region           string
	S3Bucket           string
	GCSProjectID       string
	GCSBucketName      string
	GCSCredentialsFile string
	LocalStoragePath   string
	// ContentSecurityPolicy 和 CookieDirectives 会被写入每一个响应
	ContentSecurityPolicy string
	CookieDirectives      string
	SettingsCacheTTL      time.Duration
	Debug                 bool // 是否开启调试模式
}

// AppConfig 是全局配置变量
var AppConfig Config

const defaultCSP = "default-src 'self'; img-src 'self' data: blob:; style-src 'self' 'unsafe-inline'; frame-ancestors 'none'"

// Init 函数用于初始化配置
func Init() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("警告：无法加载 .env 文件: %v", err)
	}

	AppConfig = Load()

	if err := AppConfig.Validate(); err != nil {
		log.Fatalf("错误：%v", err)
	}

	if AppConfig.Debug {
		gin.SetMode(gin.DebugMode)
		log.Println("应用程序运行在调试模式")
	} else {
		gin.SetMode(gin.ReleaseMode)
		log.Println("应用程序运行在生产模式")
	}

	log.Printf("配置加载完成。数据库：%s:%s，存储：%s", AppConfig.DBHost, AppConfig.DBPort, AppConfig.StorageBackend)
}

// Load 从环境变量中读取配置，不做校验
func Load() Config {
	return Config{
		DBHost:                getEnv("DB_HOST", ""),
		DBPort:                getEnv("DB_PORT", "3306"),
		DBUser:                getEnv("DB_USER", ""),
		DBPassword:            getEnv("DB_PASSWORD", ""),
		DBName:                getEnv("DB_NAME", ""),
		JWTSecret:             getEnv("JWT_SECRET", ""),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		ListenAddr:            getEnv("LISTEN_ADDR", ":8080"),
		SMTPHost:              getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:              getEnvAsInt("SMTP_PORT", 465),
		SMTPUsername:          getEnv("SMTP_USERNAME", ""),
		SMTPPassword:          getEnv("SMTP_PASSWORD", ""),
		FrontendURL:           getEnv("FRONTEND_URL", "http://localhost:3000"),
		BackendURL:            getEnv("BACKEND_URL", "http://localhost:8080"),
		StorageBackend:        strings.ToLower(getEnv("STORAGE_BACKEND", "local")),
		S3Region:              getEnv("S3_REGION", "us-west-2"),
		S3Bucket:              getEnv("S3_BUCKET", ""),
		GCSProjectID:          getEnv("GCS_PROJECT_ID", ""),
		GCSBucketName:         getEnv("GCS_BUCKET_NAME", ""),
		GCSCredentialsFile:    getEnv("GCS_CREDENTIALS_FILE", ""),
		LocalStoragePath:      getEnv("LOCAL_STORAGE_PATH", "./uploads"),
		ContentSecurityPolicy: getEnv("CONTENT_SECURITY_POLICY", defaultCSP),
		CookieDirectives:      getEnv("COOKIE_DIRECTIVES", ""),
		SettingsCacheTTL:      getEnvAsDuration("SETTINGS_CACHE_TTL", 5*time.Minute),
		Debug:                 getEnvAsBool("DEBUG", false),
	}
}

// DSN 返回 MySQL 连接字符串
func (c Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// Validate 检查必填配置
func (c Config) Validate() error {
	if c.DBHost == "" || c.DBUser == "" || c.DBPassword == "" || c.DBName == "" {
		return fmt.Errorf("数据库配置不完整")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT密钥未设置")
	}
	if c.SettingsCacheTTL <= 0 {
		return fmt.Errorf("SETTINGS_CACHE_TTL 必须大于 0")
	}
	switch c.StorageBackend {
	case "local":
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("S3存储需要设置 S3_BUCKET")
		}
	case "gcs":
		if c.GCSBucketName == "" {
			return fmt.Errorf("GCS存储需要设置 GCS_BUCKET_NAME")
		}
	default:
		return fmt.Errorf("未知的存储后端: %s", c.StorageBackend)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultVal int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	valStr := getEnv(key, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	valStr := getEnv(key, "")
	if val, err := time.ParseDuration(valStr); err == nil {
		return val
	}
	return defaultVal
}
