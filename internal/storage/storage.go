package storage

import (
	"errors"

	"tradyfit/backend/internal/domain"
)

var (
	// ErrMessageNotFound 消息不存在
	ErrMessageNotFound = errors.New("message not found")
	// ErrUserNotFound 用户不存在
	ErrUserNotFound = errors.New("user not found")
	// ErrItemNotFound 商品不存在
	ErrItemNotFound = errors.New("item not found")
	// ErrEmailExists 邮箱已被注册
	ErrEmailExists = errors.New("email already exists")
	// ErrUsernameExists 用户名已被占用
	ErrUsernameExists = errors.New("username already exists")
)

// MessageRepository 定义消息数据存取操作。
type MessageRepository interface {
	SaveMessage(message *domain.Message) error
	GetMessage(id uint) (*domain.Message, error)
	MarkMessageRead(id uint) error
	// ListMessages 按时间倒序返回用户某个分类下的消息（时间相同按 ID 倒序）
	ListMessages(userID uint, category domain.Category) ([]domain.Message, error)
	CountMessages(userID uint) (domain.MessageCounts, error)
}

// UserRepository 定义用户数据存取操作。
type UserRepository interface {
	CreateUser(user *domain.User) error
	GetUserByID(id uint) (*domain.User, error)
	GetUserByEmail(email string) (*domain.User, error)
	GetUserByUsername(username string) (*domain.User, error)
	SetHasNotifications(userID uint, value bool) error
	// DeleteUser 删除用户，并把其作为发送者/接收者的消息引用置空
	DeleteUser(id uint) error
}

// ItemRepository 定义商品数据存取操作。
type ItemRepository interface {
	SaveItem(item *domain.Item) error
	GetItem(id uint) (*domain.Item, error)
	// DeleteItem 删除商品，并把相关消息的商品引用置空
	DeleteItem(id uint) error
}

// Store 定义完整的存储接口。
type Store interface {
	MessageRepository
	UserRepository
	ItemRepository

	Close() error
	Health() error
}
