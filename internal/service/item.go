package service

import (
	"errors"
	"strings"
	"time"

	"tradyfit/backend/internal/domain"
	"tradyfit/backend/internal/storage"
)

// ErrInvalidItem 商品名称不合法
var ErrInvalidItem = errors.New("item name must be 1 to 80 characters")

const maxItemNameLength = 80

// ItemService 提供最小的商品管理，消息需要一个目标商品。
type ItemService struct {
	repo storage.ItemRepository
}

// NewItemService 创建商品服务
func NewItemService(repo storage.ItemRepository) *ItemService {
	return &ItemService{repo: repo}
}

// CreateItemInput 创建商品的输入
type CreateItemInput struct {
	Name        string `json:"name" form:"name"`
	Description string `json:"description" form:"description"`
}

// Create 为用户发布商品
func (s *ItemService) Create(userID uint, input CreateItemInput) (*domain.Item, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || len([]rune(name)) > maxItemNameLength {
		return nil, ErrInvalidItem
	}

	item := &domain.Item{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		UserID:      userID,
		Timestamp:   time.Now().UTC(),
	}
	if err := s.repo.SaveItem(item); err != nil {
		return nil, err
	}
	return item, nil
}

// Get 获取商品
func (s *ItemService) Get(id uint) (*domain.Item, error) {
	return s.repo.GetItem(id)
}

// Delete 删除商品，仅商品主人可操作
func (s *ItemService) Delete(userID, id uint) error {
	item, err := s.repo.GetItem(id)
	if err != nil {
		return err
	}
	if item.UserID != userID {
		return ErrForbidden
	}
	return s.repo.DeleteItem(id)
}
