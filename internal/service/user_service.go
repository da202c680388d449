package service

import (
	"construction-backend/internal/errors"
	"construction-backend/internal/model"
	"construction-backend/internal/repository/interfaces"
	"construction-backend/internal/util"
	"database/sql"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const msgInvalidResetToken = "Invalid or expired reset token"

// UserService 处理与用户相关的业务逻辑
type UserService struct {
	userRepo  interfaces.UserRepository
	settings  *SettingsService
	notifier  Notifier
	blacklist *TokenBlacklist
}

// NewUserService 创建一个新的 UserService 实例
func NewUserService(userRepo interfaces.UserRepository, settings *SettingsService, notifier Notifier, blacklist *TokenBlacklist) *UserService {
	return &UserService{
		userRepo:  userRepo,
		settings:  settings,
		notifier:  notifier,
		blacklist: blacklist,
	}
}

// ProfileUpdate 用户可以修改的资料
type ProfileUpdate struct {
	FullName string `json:"full_name" binding:"max=100"`
	Phone    string `json:"phone" binding:"max=30"`
}

// Register 注册新用户，新账户需要管理员审核
func (s *UserService) Register(user *model.User, password string) error {
	util.Logger.Info("开始注册用户", zap.String("email", user.Email), zap.String("role", user.Role))

	settings, err := s.settings.Get()
	if err != nil {
		return err
	}
	if !settings.AllowRegistration {
		return errors.New(errors.ErrRegistrationClosed, "registration is currently closed")
	}
	if user.Role != model.RoleEngineer && user.Role != model.RoleOwner {
		return errors.New(errors.ErrValidation, "role must be engineer or owner")
	}

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.Username = strings.TrimSpace(user.Username)

	existing, err := s.userRepo.FindByEmail(user.Email)
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, "failed to check email", err)
	}
	if existing != nil {
		return errors.New(errors.ErrUserExists, "email already registered")
	}
	existing, err = s.userRepo.FindByUsername(user.Username)
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, "failed to check username", err)
	}
	if existing != nil {
		return errors.New(errors.ErrUserExists, "username already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(errors.ErrInternal, "failed to hash password", err)
	}
	user.PasswordHash = string(hashedPassword)
	user.Status = model.StatusPending

	if err := s.userRepo.Create(user); err != nil {
		return errors.Wrap(errors.ErrDatabase, "failed to create user", err)
	}

	util.Logger.Info("用户注册成功，等待审核", zap.Int("user_id", user.ID))
	return nil
}

// Login 校验凭据并签发访问令牌
func (s *UserService) Login(email, password string) (string, *model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	util.Logger.Info("尝试用户登录", zap.String("email", email))

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return "", nil, errors.Wrap(errors.ErrDatabase, "failed to find user", err)
	}
	if user == nil {
		util.Logger.Warn("用户登录失败，未找到用户", zap.String("email", email))
		return "", nil, errors.New(errors.ErrInvalidCredentials, "invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		util.Logger.Warn("用户登录失败，密码不正确", zap.Int("user_id", user.ID))
		return "", nil, errors.New(errors.ErrInvalidCredentials, "invalid email or password")
	}
	if !user.IsActive() {
		return "", nil, errors.New(errors.ErrAccountPending, "account is awaiting approval")
	}

	token, err := util.GenerateToken(user.ID)
	if err != nil {
		return "", nil, errors.Wrap(errors.ErrInternal, "failed to generate token", err)
	}

	util.Logger.Info("用户登录成功", zap.Int("user_id", user.ID))
	return token, user, nil
}

// Logout 令牌在过期前一直留在黑名单中
func (s *UserService) Logout(token string) error {
	expiry, err := util.TokenExpiry(token)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidToken, "invalid token", err)
	}
	s.blacklist.Add(token, expiry)
	util.Logger.Info("用户注销，令牌已加入黑名单", zap.Time("expires_at", expiry))
	return nil
}

func (s *UserService) IsTokenBlacklisted(token string) bool {
	return s.blacklist.Contains(token)
}

// RequestPasswordReset 对未知邮箱同样返回成功，避免暴露账户是否存在
func (s *UserService) RequestPasswordReset(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, "failed to find user", err)
	}
	if user == nil {
		util.Logger.Info("密码重置请求的邮箱不存在", zap.String("email", email))
		return nil
	}

	token, err := util.GeneratePasswordResetToken(user.Email, user.PasswordHash)
	if err != nil {
		return errors.Wrap(errors.ErrInternal, "failed to generate reset token", err)
	}
	name := user.FullName
	if name == "" {
		name = user.Username
	}
	if err := s.notifier.SendPasswordResetEmail(user.Email, name, token); err != nil {
		util.Logger.Error("发送密码重置邮件失败", zap.Error(err), zap.Int("user_id", user.ID))
		return errors.Wrap(errors.ErrInternal, "failed to send reset email", err)
	}

	util.Logger.Info("密码重置邮件已发送", zap.Int("user_id", user.ID))
	return nil
}

// ResetPasswordWithToken 令牌绑定当前密码哈希，密码修改后令牌自动失效
func (s *UserService) ResetPasswordWithToken(token, password string) ActionResult {
	invalid := ActionResult{Success: false, Message: msgInvalidResetToken}

	email, fingerprint, err := util.ParsePasswordResetToken(token)
	if err != nil {
		util.Logger.Warn("验证密码重置令牌失败", zap.Error(err))
		return invalid
	}

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		util.Logger.Error("查找用户失败", zap.Error(err), zap.String("email", email))
		return ActionResult{Success: false, Message: "Could not reset password, please try again"}
	}
	if user == nil || util.PasswordFingerprint(user.PasswordHash) != fingerprint {
		util.Logger.Warn("密码重置令牌已失效", zap.String("email", email))
		return invalid
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		util.Logger.Error("生成密码哈希失败", zap.Error(err))
		return ActionResult{Success: false, Message: "Could not reset password, please try again"}
	}
	// 以旧哈希为条件写入，并发使用同一个令牌时只有一个请求能成功
	err = s.userRepo.UpdatePassword(user.ID, user.PasswordHash, string(hashedPassword))
	if err == sql.ErrNoRows {
		util.Logger.Warn("密码重置令牌已被使用", zap.Int("user_id", user.ID))
		return invalid
	}
	if err != nil {
		util.Logger.Error("更新用户密码失败", zap.Error(err), zap.Int("user_id", user.ID))
		return ActionResult{Success: false, Message: "Could not reset password, please try again"}
	}

	util.Logger.Info("密码重置成功", zap.Int("user_id", user.ID))
	return ActionResult{Success: true, Message: "Password has been reset"}
}

// GetUserByID 通过ID获取用户信息
func (s *UserService) GetUserByID(id int) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to find user", err)
	}
	if user == nil {
		return nil, errors.New(errors.ErrUserNotFound, "user not found")
	}
	return user, nil
}

// UpdateProfile 更新姓名和电话
func (s *UserService) UpdateProfile(id int, update ProfileUpdate) (*model.User, error) {
	user, err := s.GetUserByID(id)
	if err != nil {
		return nil, err
	}
	user.FullName = strings.TrimSpace(update.FullName)
	user.Phone = strings.TrimSpace(update.Phone)
	if err := s.userRepo.Update(user); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to update profile", err)
	}
	util.Logger.Info("用户资料已更新", zap.Int("user_id", id))
	return user, nil
}

func (s *UserService) GetUIPreferences(userID int) (*model.UIPreferences, error) {
	prefs, err := s.userRepo.GetPreferences(userID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to load preferences", err)
	}
	return prefs, nil
}

func (s *UserService) SaveUIPreferences(userID int, prefs model.UIPreferences) error {
	if err := s.userRepo.SavePreferences(userID, prefs); err != nil {
		return errors.Wrap(errors.ErrDatabase, "failed to save preferences", err)
	}
	return nil
}
