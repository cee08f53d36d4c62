package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"newsroom/internal/models"
	"newsroom/internal/repository"
	"newsroom/internal/utils"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"
)

const (
	minPasswordLength = 6
	maxUsernameLength = 150
)

// AuthService 注册、登录与注销账号
type AuthService struct {
	users     repository.UserRepository
	jwtSecret []byte
	jwtTTL    time.Duration
}

func NewAuthService(users repository.UserRepository, jwtSecret string, jwtTTL time.Duration) *AuthService {
	return &AuthService{
		users:     users,
		jwtSecret: []byte(jwtSecret),
		jwtTTL:    jwtTTL,
	}
}

// Register 角色在注册时确定，之后不能修改
func (s *AuthService) Register(ctx context.Context, username, email, password, role string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	parsedRole, err := models.ParseRole(role)
	if err != nil {
		return nil, validationError("%v", err)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, validationError("invalid email address")
	}
	if username == "" {
		// 与原站点一致，缺省用户名取邮箱前缀
		username = strings.SplitN(email, "@", 2)[0]
	}
	if utf8.RuneCountInString(username) > maxUsernameLength {
		return nil, validationError("username must be at most %d characters", maxUsernameLength)
	}
	if len(password) < minPasswordLength {
		return nil, validationError("password must be at least %d characters", minPasswordLength)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: hash,
		Role:     parsedRole,
	}
	if err := s.users.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, validationError("username or email already registered")
		}
		slog.Error("error creating user", "email", email, "error", err)
		return nil, err
	}

	slog.Info("user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Authenticate 邮箱或密码错误统一返回 ErrUnauthorized
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, ErrUnauthorized
	}
	return user, nil
}

// Login 校验凭据并签发访问令牌
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, "", err
	}
	token, err := utils.GenerateToken(user, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return nil, "", fmt.Errorf("error signing token: %w", err)
	}
	slog.Info("user logged in", "user_id", user.ID)
	return user, token, nil
}

// UserFromToken Bearer 令牌对应的用户，令牌无效或用户已删除时返回 ErrUnauthorized
func (s *AuthService) UserFromToken(ctx context.Context, token string) (*models.User, error) {
	claims, err := utils.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return s.UserByID(ctx, claims.UserID)
}

func (s *AuthService) UserByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return user, nil
}

// DeleteAccount 删除账号，同时清理订阅关系和文章
func (s *AuthService) DeleteAccount(ctx context.Context, actor *models.User) error {
	if actor == nil {
		return ErrUnauthorized
	}
	if err := s.users.Delete(actor.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		slog.Error("error deleting account", "user_id", actor.ID, "error", err)
		return err
	}
	slog.Info("account deleted", "user_id", actor.ID)
	return nil
}
