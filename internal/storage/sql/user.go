package sql

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"tradyfit/backend/internal/domain"
	"tradyfit/backend/internal/storage"
)

// ========== User Repository ==========

// CreateUser 创建新用户
func (s *Store) CreateUser(user *domain.User) error {
	if _, err := s.GetUserByEmail(user.Email); err == nil {
		return storage.ErrEmailExists
	}
	if _, err := s.GetUserByUsername(user.Username); err == nil {
		return storage.ErrUsernameExists
	}

	err := s.gormDB.Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return storage.ErrEmailExists
	}
	return err
}

// GetUserByID 根据ID获取用户
func (s *Store) GetUserByID(id uint) (*domain.User, error) {
	var user domain.User
	if err := s.gormDB.First(&user, id).Error; err != nil {
		return nil, notFound(err, storage.ErrUserNotFound)
	}
	return &user, nil
}

// GetUserByEmail 根据邮箱获取用户
func (s *Store) GetUserByEmail(email string) (*domain.User, error) {
	var user domain.User
	err := s.gormDB.Where("LOWER(email) = ?", strings.ToLower(email)).First(&user).Error
	if err != nil {
		return nil, notFound(err, storage.ErrUserNotFound)
	}
	return &user, nil
}

// GetUserByUsername 根据用户名获取用户
func (s *Store) GetUserByUsername(username string) (*domain.User, error) {
	var user domain.User
	err := s.gormDB.Where("LOWER(username) = ?", strings.ToLower(username)).First(&user).Error
	if err != nil {
		return nil, notFound(err, storage.ErrUserNotFound)
	}
	return &user, nil
}

// SetHasNotifications 设置用户的新消息标记
func (s *Store) SetHasNotifications(userID uint, value bool) error {
	result := s.gormDB.Model(&domain.User{}).Where("id = ?", userID).Update("has_notifications", value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// MySQL 在值未变化时返回 0 行，需要再确认用户是否存在
		if _, err := s.GetUserByID(userID); err != nil {
			return err
		}
	}
	return nil
}

// DeleteUser 删除用户，并在同一事务中解除消息对该用户的引用
func (s *Store) DeleteUser(id uint) error {
	return s.gormDB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Message{}).Where("sender_id = ?", id).Update("sender_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.Message{}).Where("receiver_id = ?", id).Update("receiver_id", nil).Error; err != nil {
			return err
		}
		result := tx.Delete(&domain.User{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return storage.ErrUserNotFound
		}
		return nil
	})
}
