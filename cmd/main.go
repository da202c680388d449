package main

import (
	"context"
	"construction-backend/config"
	"construction-backend/internal/api"
	"construction-backend/internal/api/admin"
	"construction-backend/internal/api/dashboard"
	"construction-backend/internal/api/estimate"
	"construction-backend/internal/api/project"
	"construction-backend/internal/api/user"
	"construction-backend/internal/common"
	"construction-backend/internal/middleware"
	"construction-backend/internal/model"
	"construction-backend/internal/repository/mysql"
	"construction-backend/internal/service"
	"construction-backend/internal/storage"
	"construction-backend/internal/util"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// handlers 路由需要的全部处理器和中间件依赖
type handlers struct {
	auth        *user.AuthHandler
	profile     *user.ProfileHandler
	project     *project.ProjectHandler
	estimate    *estimate.EstimateHandler
	dashboard   *dashboard.DashboardHandler
	admin       *admin.AdminHandler
	userService *service.UserService
	settings    *service.SettingsService
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			util.Logger.Error("程序发生严重错误", zap.Any("error", r))
		}
	}()

	// 初始化配置
	config.Init()

	// 初始化日志
	util.InitLogger(config.AppConfig.LogLevel)
	defer util.Logger.Sync()

	util.Logger.Info("应用程序启动")

	// 连接数据库
	db, err := sql.Open("mysql", config.AppConfig.DSN())
	if err != nil {
		util.Logger.Fatal("连接数据库失败", zap.Error(err))
	}
	defer db.Close()

	// 数据库可能晚于应用启动，连接测试失败时重试
	if err := common.WithRetry(db.Ping, 5); err != nil {
		util.Logger.Fatal("数据库连接测试失败", zap.Error(err))
	}
	util.Logger.Info("数据库连接成功")

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	util.Logger.Info("数据库连接池配置完成")

	// 注册自定义验证器
	api.RegisterBindingValidators()

	store, err := storage.New(context.Background(), config.AppConfig)
	if err != nil {
		util.Logger.Fatal("初始化存储失败", zap.Error(err), zap.String("backend", config.AppConfig.StorageBackend))
	}
	util.Logger.Info("存储初始化完成", zap.String("backend", config.AppConfig.StorageBackend))

	// 初始化存储库、服务和处理器
	userRepo := mysql.NewUserRepository(db)
	projectRepo := mysql.NewProjectRepository(db)
	estimateRepo := mysql.NewEstimateRepository(db)
	settingsRepo := mysql.NewSettingsRepository(db)

	settingsService := service.NewSettingsService(settingsRepo, config.AppConfig.SettingsCacheTTL)
	emailService := service.NewEmailService(service.NewSMTPMailer(config.AppConfig), config.AppConfig.FrontendURL, true)
	userService := service.NewUserService(userRepo, settingsService, emailService, service.NewTokenBlacklist())
	projectService := service.NewProjectService(projectRepo, userRepo, settingsService, store)
	estimateService := service.NewEstimateService(estimateRepo, projectService, settingsService)
	adminService := service.NewAdminService(userRepo, projectRepo, emailService)

	// 初始化错误监控
	errorMonitor := middleware.NewErrorMonitor()
	dashboardService := service.NewDashboardService(userRepo, projectRepo, estimateRepo, errorMonitor)

	h := handlers{
		auth:        user.NewAuthHandler(userService),
		profile:     user.NewProfileHandler(userService),
		project:     project.NewProjectHandler(projectService),
		estimate:    estimate.NewEstimateHandler(estimateService),
		dashboard:   dashboard.NewDashboardHandler(dashboardService, settingsService),
		admin:       admin.NewAdminHandler(adminService, settingsService),
		userService: userService,
		settings:    settingsService,
	}

	// 设置 Gin 路由
	r := gin.New()
	r.Use(gin.Logger())

	// 错误监控放在最外层，panic 恢复后产生的错误也会被统计
	r.Use(middleware.ErrorMonitorMiddleware(errorMonitor))
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.SecurityHeaders(config.AppConfig.ContentSecurityPolicy, config.AppConfig.CookieDirectives))

	// 配置 CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{config.AppConfig.FrontendURL}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Length",
		"Content-Type",
		"Authorization",
	}
	corsConfig.ExposeHeaders = []string{
		"Content-Length",
		"Content-Type",
	}
	r.Use(cors.New(corsConfig))

	// 本地存储时由本服务提供上传的文件
	if backend := strings.ToLower(config.AppConfig.StorageBackend); backend == "" || backend == "local" {
		r.Static("/uploads", config.AppConfig.LocalStoragePath)
	}

	registerRoutes(r, h)

	srv := &http.Server{
		Addr:              config.AppConfig.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 在一个新的 goroutine 中启动服务器
	go func() {
		util.Logger.Info("服务器正在启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			util.Logger.Fatal("启动服务器失败", zap.Error(err))
		}
	}()

	if config.AppConfig.Debug {
		for _, route := range r.Routes() {
			util.Logger.Debug("路由",
				zap.String("method", route.Method),
				zap.String("path", route.Path),
				zap.String("handler", route.Handler))
		}
	}

	// 等待中断信号以优雅地关闭服务器（设置 5 秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	util.Logger.Info("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		util.Logger.Fatal("服务器强制关闭", zap.Error(err))
	}

	util.Logger.Info("服务器已优雅关闭")
}

func registerRoutes(r *gin.Engine, h handlers) {
	maintenance := middleware.MaintenanceGuard(h.settings)

	apiGroup := r.Group("/api")
	{
		// 公开路由
		apiGroup.GET("/settings", h.dashboard.GetPublicSettings)
		apiGroup.POST("/register", maintenance, h.auth.Register)
		apiGroup.POST("/login", h.auth.Login)
		apiGroup.POST("/request-password-reset", h.auth.RequestPasswordReset)
		apiGroup.POST("/reset-password", h.auth.ResetPassword)

		// 需要认证的路由
		authorized := apiGroup.Group("/")
		authorized.Use(middleware.AuthMiddleware(h.userService), maintenance)
		{
			authorized.POST("/logout", h.auth.Logout)
			authorized.GET("/profile", h.profile.GetProfile)
			authorized.PUT("/profile", h.profile.UpdateProfile)
			authorized.GET("/preferences/ui", h.profile.GetUIPreferences)
			authorized.PUT("/preferences/ui", h.profile.SaveUIPreferences)

			authorized.GET("/dashboard", h.dashboard.GetDashboard)

			// 项目
			authorized.GET("/projects", h.project.ListProjects)
			authorized.POST("/projects", middleware.RequireRoles(model.RoleOwner, model.RoleAdmin), h.project.CreateProject)
			authorized.GET("/projects/:id", h.project.GetProject)
			authorized.PUT("/projects/:id", h.project.UpdateProject)
			authorized.PATCH("/projects/:id/status", h.project.UpdateStatus)
			authorized.PUT("/projects/:id/engineer", h.project.AssignEngineer)
			authorized.POST("/projects/:id/stages", h.project.AddStage)
			authorized.PATCH("/projects/:id/stages/:stageId", h.project.UpdateStage)
			authorized.POST("/projects/:id/documents", h.project.UploadDocument)
			authorized.GET("/projects/:id/documents", h.project.ListDocuments)

			// 计算和估算
			authorized.POST("/calculations/concrete", h.estimate.Concrete)
			authorized.POST("/calculations/steel", h.estimate.Steel)
			authorized.POST("/calculations/price", h.estimate.Price)
			authorized.POST("/calculations/cost", h.estimate.Cost)
			authorized.POST("/calculations/simple-cost", h.estimate.SimpleCost)
			authorized.POST("/projects/:id/estimates", h.estimate.SaveEstimate)
			authorized.GET("/projects/:id/estimates", h.estimate.ListEstimates)
			authorized.GET("/estimates/:id", h.estimate.GetEstimate)
			authorized.DELETE("/estimates/:id", h.estimate.DeleteEstimate)
		}

		// 管理员路由
		adminGroup := apiGroup.Group("/admin")
		adminGroup.Use(middleware.AuthMiddleware(h.userService), middleware.RequireRoles(model.RoleAdmin))
		{
			adminGroup.GET("/users", h.admin.GetUsers)
			adminGroup.POST("/users/:id/approve", h.admin.ApproveUser)
			adminGroup.PUT("/users/:id/role", h.admin.UpdateUserRole)
			adminGroup.DELETE("/projects/:id", h.admin.DeleteProject)
			adminGroup.GET("/settings", h.admin.GetSettings)
			adminGroup.PUT("/settings", h.admin.UpdateSettings)
		}
	}
}
