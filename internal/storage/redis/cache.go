package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"tradyfit/backend/internal/domain"
)

// ErrCacheMiss 表示缓存中没有对应数据
var ErrCacheMiss = errors.New("cache miss")

var cachedCategories = []domain.Category{
	domain.CategoryUnread,
	domain.CategoryReceived,
	domain.CategorySent,
}

// Cache 缓存用户的消息列表与消息计数
type Cache struct {
	client *Client
	ttl    time.Duration
}

// NewCache 创建 Redis 缓存实例
func NewCache(client *Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func countsKey(userID uint) string {
	return fmt.Sprintf("msgcounts:%d", userID)
}

func listKey(userID uint, category domain.Category) string {
	return fmt.Sprintf("msglist:%d:%s", userID, category)
}

// ========== 消息计数缓存 ==========

// CacheCounts 缓存用户的消息计数
func (c *Cache) CacheCounts(ctx context.Context, userID uint, counts domain.MessageCounts) error {
	data, err := json.Marshal(counts)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, countsKey(userID), data, c.ttl)
}

// GetCachedCounts 获取缓存的消息计数
func (c *Cache) GetCachedCounts(ctx context.Context, userID uint) (domain.MessageCounts, error) {
	var counts domain.MessageCounts
	if err := c.get(ctx, countsKey(userID), &counts); err != nil {
		return domain.MessageCounts{}, err
	}
	return counts, nil
}

// ========== 消息列表缓存 ==========

// CacheMessageList 缓存用户某个分类的消息列表
func (c *Cache) CacheMessageList(ctx context.Context, userID uint, category domain.Category, messages []domain.Message) error {
	data, err := json.Marshal(messages)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, listKey(userID, category), data, c.ttl)
}

// GetCachedMessageList 获取缓存的消息列表
func (c *Cache) GetCachedMessageList(ctx context.Context, userID uint, category domain.Category) ([]domain.Message, error) {
	var messages []domain.Message
	if err := c.get(ctx, listKey(userID, category), &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// InvalidateUser 删除用户的全部消息缓存
func (c *Cache) InvalidateUser(ctx context.Context, userID uint) error {
	keys := []string{countsKey(userID)}
	for _, category := range cachedCategories {
		keys = append(keys, listKey(userID, category))
	}
	return c.client.Del(ctx, keys...)
}

func (c *Cache) get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return ErrCacheMiss
		}
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}
