package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tradyfit/backend/internal/auth/jwt"
	"tradyfit/backend/internal/domain"
	"tradyfit/backend/internal/storage"
)

var (
	// ErrInvalidCredentials 凭证无效
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound 用户不存在
	ErrUserNotFound = errors.New("user not found")
)

// Service 认证服务
type Service struct {
	users  storage.UserRepository
	tokens *jwt.Manager
}

// NewService 创建认证服务
func NewService(users storage.UserRepository, tokens *jwt.Manager) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
	}
}

// RegisterInput 注册输入
type RegisterInput struct {
	Email    string `json:"email" form:"email" binding:"required"`
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// LoginInput 登录输入，Identifier 可以是邮箱或用户名
type LoginInput struct {
	Identifier string `json:"identifier" form:"identifier" binding:"required"`
	Password   string `json:"password" form:"password" binding:"required"`
}

// LoginResult 登录结果
type LoginResult struct {
	User        *domain.User `json:"user"`
	AccessToken string       `json:"accessToken"`
	TokenType   string       `json:"tokenType"`
	ExpiresIn   int64        `json:"expiresIn"` // 秒
}

// Register 用户注册
func (s *Service) Register(input RegisterInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if !domain.ValidateEmail(email) {
		return nil, domain.ErrInvalidEmail
	}
	username := strings.TrimSpace(input.Username)
	if err := domain.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := domain.ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	passwordHash, err := HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	// 重复的邮箱或用户名由存储层返回 ErrEmailExists / ErrUsernameExists
	if err := s.users.CreateUser(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login 用户登录并签发访问令牌
func (s *Service) Login(input LoginInput) (*LoginResult, error) {
	identifier := strings.TrimSpace(input.Identifier)

	// 优先按邮箱查找
	user, err := s.users.GetUserByEmail(identifier)
	if err != nil {
		user, err = s.users.GetUserByUsername(identifier)
		if err != nil {
			return nil, ErrInvalidCredentials
		}
	}

	if !CheckPassword(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		User:        user,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokens.AccessExpiry().Seconds()),
	}, nil
}

// GetUserByID 根据 ID 获取用户
func (s *Service) GetUserByID(userID uint) (*domain.User, error) {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// HashPassword 哈希密码
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword 验证密码
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
