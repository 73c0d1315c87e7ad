package sql

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"tradyfit/backend/internal/domain"
	"tradyfit/backend/internal/storage"
)

// ========== Message Repository ==========

// SaveMessage 保存消息
func (s *Store) SaveMessage(message *domain.Message) error {
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now().UTC()
	}
	return s.gormDB.Save(message).Error
}

// GetMessage 根据ID获取消息
func (s *Store) GetMessage(id uint) (*domain.Message, error) {
	var message domain.Message
	if err := s.gormDB.First(&message, id).Error; err != nil {
		return nil, notFound(err, storage.ErrMessageNotFound)
	}
	return &message, nil
}

// MarkMessageRead 标记消息为已读
func (s *Store) MarkMessageRead(id uint) error {
	result := s.gormDB.Model(&domain.Message{}).Where("id = ?", id).Update("unread", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := s.GetMessage(id); err != nil {
			return err
		}
	}
	return nil
}

// ListMessages 列出用户某个分类的消息，按时间倒序
func (s *Store) ListMessages(userID uint, category domain.Category) ([]domain.Message, error) {
	query, err := categoryScope(s.gormDB.Model(&domain.Message{}), userID, category)
	if err != nil {
		return nil, err
	}

	var messages []domain.Message
	if err := query.Order("timestamp DESC").Order("id DESC").Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

// CountMessages 统计用户各分类消息数量
func (s *Store) CountMessages(userID uint) (domain.MessageCounts, error) {
	query := fmt.Sprintf(`
		SELECT
			COALESCE(SUM(CASE WHEN receiver_id = %[1]s AND unread THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN sender_id = %[1]s THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN receiver_id = %[1]s THEN 1 ELSE 0 END), 0)
		FROM messages
		WHERE sender_id = %[1]s OR receiver_id = %[1]s
	`, s.placeholder(1))

	args := []interface{}{userID}
	if s.driverName == "mysql" {
		// MySQL 的 ? 占位符不能复用，按出现次数传参
		args = []interface{}{userID, userID, userID, userID, userID}
	}

	var counts domain.MessageCounts
	err := s.db.QueryRow(query, args...).Scan(&counts.Unread, &counts.Sent, &counts.Received)
	if err != nil {
		return domain.MessageCounts{}, fmt.Errorf("count messages: %w", err)
	}
	return counts, nil
}

func categoryScope(query *gorm.DB, userID uint, category domain.Category) (*gorm.DB, error) {
	switch category {
	case domain.CategoryUnread:
		return query.Where("receiver_id = ? AND unread = ?", userID, true), nil
	case domain.CategoryReceived:
		return query.Where("receiver_id = ?", userID), nil
	case domain.CategorySent:
		return query.Where("sender_id = ?", userID), nil
	default:
		return nil, domain.ErrUnknownCategory
	}
}

// ========== Item Repository ==========

// SaveItem 保存商品
func (s *Store) SaveItem(item *domain.Item) error {
	if item.Timestamp.IsZero() {
		item.Timestamp = time.Now().UTC()
	}
	return s.gormDB.Save(item).Error
}

// GetItem 根据ID获取商品
func (s *Store) GetItem(id uint) (*domain.Item, error) {
	var item domain.Item
	if err := s.gormDB.First(&item, id).Error; err != nil {
		return nil, notFound(err, storage.ErrItemNotFound)
	}
	return &item, nil
}

// DeleteItem 删除商品并解除消息引用
func (s *Store) DeleteItem(id uint) error {
	return s.gormDB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Message{}).Where("item_id = ?", id).Update("item_id", nil).Error; err != nil {
			return err
		}
		result := tx.Delete(&domain.Item{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return storage.ErrItemNotFound
		}
		return nil
	})
}
