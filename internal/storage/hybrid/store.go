package hybrid

import (
	"context"
	"time"

	"go.uber.org/zap"

	"tradyfit/backend/internal/domain"
	"tradyfit/backend/internal/storage"
)

const cacheTimeout = 2 * time.Second

// MessageCache 消息列表与计数缓存，由 redis.Cache 实现
type MessageCache interface {
	CacheCounts(ctx context.Context, userID uint, counts domain.MessageCounts) error
	GetCachedCounts(ctx context.Context, userID uint) (domain.MessageCounts, error)
	CacheMessageList(ctx context.Context, userID uint, category domain.Category, messages []domain.Message) error
	GetCachedMessageList(ctx context.Context, userID uint, category domain.Category) ([]domain.Message, error)
	InvalidateUser(ctx context.Context, userID uint) error
}

// Store 混合存储实现，数据库为准，Redis 缓存消息列表和计数
type Store struct {
	storage.Store
	cache MessageCache
	log   *zap.Logger
}

// NewStore 创建混合存储实例
func NewStore(backend storage.Store, cache MessageCache, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		Store: backend,
		cache: cache,
		log:   log,
	}
}

func (s *Store) cacheContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), cacheTimeout)
}

// invalidate 缓存失效失败只记录日志，数据以数据库为准
func (s *Store) invalidate(userIDs ...*uint) {
	ctx, cancel := s.cacheContext()
	defer cancel()

	for _, id := range userIDs {
		if id == nil {
			continue
		}
		if err := s.cache.InvalidateUser(ctx, *id); err != nil {
			s.log.Warn("failed to invalidate message cache", zap.Uint("user_id", *id), zap.Error(err))
		}
	}
}

// ========== Message Repository ==========

// SaveMessage 写入数据库后清除双方缓存
func (s *Store) SaveMessage(message *domain.Message) error {
	if err := s.Store.SaveMessage(message); err != nil {
		return err
	}
	s.invalidate(message.SenderID, message.ReceiverID)
	return nil
}

// MarkMessageRead 标记已读后清除接收者缓存
func (s *Store) MarkMessageRead(id uint) error {
	message, err := s.Store.GetMessage(id)
	if err != nil {
		return err
	}
	if err := s.Store.MarkMessageRead(id); err != nil {
		return err
	}
	s.invalidate(message.ReceiverID)
	return nil
}

// ListMessages 先读缓存，未命中时从数据库读取并回填
func (s *Store) ListMessages(userID uint, category domain.Category) ([]domain.Message, error) {
	ctx, cancel := s.cacheContext()
	defer cancel()

	if messages, err := s.cache.GetCachedMessageList(ctx, userID, category); err == nil {
		return messages, nil
	}

	messages, err := s.Store.ListMessages(userID, category)
	if err != nil {
		return nil, err
	}

	if err := s.cache.CacheMessageList(ctx, userID, category, messages); err != nil {
		s.log.Warn("failed to cache message list", zap.Uint("user_id", userID), zap.Error(err))
	}
	return messages, nil
}

// CountMessages 先读缓存，未命中时从数据库统计并回填
func (s *Store) CountMessages(userID uint) (domain.MessageCounts, error) {
	ctx, cancel := s.cacheContext()
	defer cancel()

	if counts, err := s.cache.GetCachedCounts(ctx, userID); err == nil {
		return counts, nil
	}

	counts, err := s.Store.CountMessages(userID)
	if err != nil {
		return domain.MessageCounts{}, err
	}

	if err := s.cache.CacheCounts(ctx, userID, counts); err != nil {
		s.log.Warn("failed to cache message counts", zap.Uint("user_id", userID), zap.Error(err))
	}
	return counts, nil
}

// ========== User Repository ==========

// DeleteUser 删除用户，并清除所有与其通信过的用户的缓存
func (s *Store) DeleteUser(id uint) error {
	affected := []*uint{&id}
	for _, category := range []domain.Category{domain.CategorySent, domain.CategoryReceived} {
		messages, err := s.Store.ListMessages(id, category)
		if err != nil {
			return err
		}
		for i := range messages {
			affected = append(affected, messages[i].SenderID, messages[i].ReceiverID)
		}
	}

	if err := s.Store.DeleteUser(id); err != nil {
		return err
	}
	s.invalidate(affected...)
	return nil
}
