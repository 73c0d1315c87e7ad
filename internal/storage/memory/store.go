package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"tradyfit/backend/internal/domain"
	"tradyfit/backend/internal/storage"
)

// Store 使用内存保存用户、商品与消息数据，主要用于开发验证和测试。
type Store struct {
	mu         sync.RWMutex
	users      map[uint]*domain.User
	byEmail    map[string]uint // email -> userID
	byUsername map[string]uint // username -> userID
	items      map[uint]*domain.Item
	messages   map[uint]*domain.Message

	nextUserID    uint
	nextItemID    uint
	nextMessageID uint
}

// NewStore 创建一个内存存储实例。
func NewStore() *Store {
	return &Store{
		users:      make(map[uint]*domain.User),
		byEmail:    make(map[string]uint),
		byUsername: make(map[string]uint),
		items:      make(map[uint]*domain.Item),
		messages:   make(map[uint]*domain.Message),
	}
}

// ========== Message Repository ==========

// SaveMessage 保存消息，ID 为 0 时分配新 ID。
func (s *Store) SaveMessage(message *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if message.ID == 0 {
		s.nextMessageID++
		message.ID = s.nextMessageID
	} else if message.ID > s.nextMessageID {
		s.nextMessageID = message.ID
	}
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now().UTC()
	}

	cp := *message
	s.messages[message.ID] = &cp
	return nil
}

// GetMessage 根据 ID 获取消息副本。
func (s *Store) GetMessage(id uint) (*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, ok := s.messages[id]
	if !ok {
		return nil, storage.ErrMessageNotFound
	}
	cp := *msg
	return &cp, nil
}

// MarkMessageRead 将消息标记为已读。
func (s *Store) MarkMessageRead(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[id]
	if !ok {
		return storage.ErrMessageNotFound
	}
	msg.Unread = false
	return nil
}

// ListMessages 返回用户某个分类下的消息。
func (s *Store) ListMessages(userID uint, category domain.Category) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Message, 0)
	for _, msg := range s.messages {
		if inCategory(msg, userID, category) {
			result = append(result, *msg)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].Timestamp.After(result[j].Timestamp)
		}
		return result[i].ID > result[j].ID
	})

	return result, nil
}

// CountMessages 统计用户三个分类的消息数量。
func (s *Store) CountMessages(userID uint) (domain.MessageCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var counts domain.MessageCounts
	for _, msg := range s.messages {
		if inCategory(msg, userID, domain.CategoryUnread) {
			counts.Unread++
		}
		if inCategory(msg, userID, domain.CategoryReceived) {
			counts.Received++
		}
		if inCategory(msg, userID, domain.CategorySent) {
			counts.Sent++
		}
	}
	return counts, nil
}

func inCategory(msg *domain.Message, userID uint, category domain.Category) bool {
	switch category {
	case domain.CategorySent:
		return msg.SenderID != nil && *msg.SenderID == userID
	case domain.CategoryReceived:
		return msg.IsReceiver(userID)
	case domain.CategoryUnread:
		return msg.IsReceiver(userID) && msg.Unread
	default:
		return false
	}
}

// ========== User Repository ==========

// CreateUser 创建新用户
func (s *Store) CreateUser(user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, exists := s.byEmail[email]; exists {
		return storage.ErrEmailExists
	}
	username := strings.ToLower(user.Username)
	if _, exists := s.byUsername[username]; exists {
		return storage.ErrUsernameExists
	}

	s.nextUserID++
	user.ID = s.nextUserID
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	cp := *user
	s.users[user.ID] = &cp
	s.byEmail[email] = user.ID
	s.byUsername[username] = user.ID
	return nil
}

// GetUserByID 根据 ID 获取用户
func (s *Store) GetUserByID(id uint) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

// GetUserByEmail 根据邮箱获取用户（不区分大小写）
func (s *Store) GetUserByEmail(email string) (*domain.User, error) {
	s.mu.RLock()
	id, ok := s.byEmail[strings.ToLower(email)]
	s.mu.RUnlock()
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return s.GetUserByID(id)
}

// GetUserByUsername 根据用户名获取用户（不区分大小写）
func (s *Store) GetUserByUsername(username string) (*domain.User, error) {
	s.mu.RLock()
	id, ok := s.byUsername[strings.ToLower(username)]
	s.mu.RUnlock()
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return s.GetUserByID(id)
}

// SetHasNotifications 设置用户的新消息标记
func (s *Store) SetHasNotifications(userID uint, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return storage.ErrUserNotFound
	}
	user.HasNotifications = value
	return nil
}

// DeleteUser 删除用户并解除消息引用
func (s *Store) DeleteUser(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return storage.ErrUserNotFound
	}

	for _, msg := range s.messages {
		if msg.SenderID != nil && *msg.SenderID == id {
			msg.SenderID = nil
		}
		if msg.ReceiverID != nil && *msg.ReceiverID == id {
			msg.ReceiverID = nil
		}
	}

	delete(s.byEmail, strings.ToLower(user.Email))
	delete(s.byUsername, strings.ToLower(user.Username))
	delete(s.users, id)
	return nil
}

// ========== Item Repository ==========

// SaveItem 保存商品，ID 为 0 时分配新 ID。
func (s *Store) SaveItem(item *domain.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == 0 {
		s.nextItemID++
		item.ID = s.nextItemID
	}
	if item.Timestamp.IsZero() {
		item.Timestamp = time.Now().UTC()
	}

	cp := *item
	s.items[item.ID] = &cp
	return nil
}

// GetItem 根据 ID 获取商品
func (s *Store) GetItem(id uint) (*domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, storage.ErrItemNotFound
	}
	cp := *item
	return &cp, nil
}

// DeleteItem 删除商品并解除消息引用
func (s *Store) DeleteItem(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return storage.ErrItemNotFound
	}
	for _, msg := range s.messages {
		if msg.ItemID != nil && *msg.ItemID == id {
			msg.ItemID = nil
		}
	}
	delete(s.items, id)
	return nil
}

// Close 内存存储无需释放资源
func (s *Store) Close() error {
	return nil
}

// Health 内存存储始终可用
func (s *Store) Health() error {
	return nil
}
