package domain

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

// 验证相关的错误定义
var (
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrEmailTooLong       = errors.New("email address too long")
	ErrPasswordTooShort   = errors.New("password too short (min 8 chars)")
	ErrPasswordTooLong    = errors.New("password too long (max 72 bytes)")
	ErrUsernameTooShort   = errors.New("username too short (min 3 chars)")
	ErrUsernameTooLong    = errors.New("username too long (max 32 chars)")
	ErrInvalidUsername    = errors.New("invalid username format")
	ErrSubjectLength      = errors.New("subject must be between 2 and 120 characters")
	ErrDescriptionTooLong = errors.New("description too long (max 500 chars)")
)

// 验证常量
const (
	MaxEmailLength = 254

	MinPasswordLength = 8
	MaxPasswordLength = 72 // bcrypt 上限

	MinUsernameLength = 3
	MaxUsernameLength = 32
)

// 用户名必须以字母开头
var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9._-]*[a-zA-Z0-9]$|^[a-zA-Z]$`)

// ValidateEmail 校验邮箱地址格式
func ValidateEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" || len(email) > MaxEmailLength {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	// ParseAddress 接受 "Name <a@b>" 形式，这里只允许裸地址
	if addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	return at > 0 && strings.Contains(email[at+1:], ".")
}

// ValidateUsername 校验用户名
func ValidateUsername(username string) error {
	switch {
	case len(username) < MinUsernameLength:
		return ErrUsernameTooShort
	case len(username) > MaxUsernameLength:
		return ErrUsernameTooLong
	case !usernameRegex.MatchString(username):
		return ErrInvalidUsername
	}
	return nil
}

// ValidatePassword 校验密码长度
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}

// ValidateMessage 校验消息主题与正文长度（按字符计数）。
func ValidateMessage(subject, description string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(subject))
	if n < MinSubjectLength || n > MaxSubjectLength {
		return ErrSubjectLength
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}
