package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"tradyfit/backend/internal/domain"
	"tradyfit/backend/internal/storage"
)

var (
	// ErrSelfMessage 不能给自己的商品发消息
	ErrSelfMessage = errors.New("cannot send a message to yourself")
	// ErrForbidden 当前用户不是消息参与者
	ErrForbidden = errors.New("not a participant of this message")
	// ErrNotReceiver 只有消息接收者可以回复
	ErrNotReceiver = errors.New("only the receiver can reply to a message")
	// ErrItemDeleted 消息关联的商品已被删除
	ErrItemDeleted = errors.New("the item of this message no longer exists")
	// ErrSenderDeleted 原发送者已被删除
	ErrSenderDeleted = errors.New("the sender of this message no longer exists")
)

// 推送给客户端的事件名
const (
	EventNewMessage = "new_message"
	EventCounts     = "counts"
)

// Notifier 向在线用户推送事件，由 websocket.Hub 实现
type Notifier interface {
	NotifyUser(userID uint, event string, payload interface{})
}

type nopNotifier struct{}

func (nopNotifier) NotifyUser(uint, string, interface{}) {}

// MessageService 封装站内消息逻辑。
type MessageService struct {
	store    storage.Store
	notifier Notifier
	log      *zap.Logger
}

// NewMessageService 创建消息业务服务。
func NewMessageService(store storage.Store, log *zap.Logger) *MessageService {
	if log == nil {
		log = zap.NewNop()
	}
	return &MessageService{
		store:    store,
		notifier: nopNotifier{},
		log:      log,
	}
}

// SetNotifier 设置实时推送
func (s *MessageService) SetNotifier(notifier Notifier) {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	s.notifier = notifier
}

// ComposeInput 定义新消息或回复的内容。
type ComposeInput struct {
	Subject     string `json:"subject" form:"subject"`
	Description string `json:"description" form:"description"`
}

func (in ComposeInput) normalize() (ComposeInput, error) {
	in.Subject = strings.TrimSpace(in.Subject)
	in.Description = strings.TrimSpace(in.Description)
	if err := domain.ValidateMessage(in.Subject, in.Description); err != nil {
		return in, err
	}
	return in, nil
}

// Send 向商品主人发送一条消息。
func (s *MessageService) Send(senderID, itemID uint, input ComposeInput) (*domain.Message, error) {
	item, err := s.store.GetItem(itemID)
	if err != nil {
		return nil, err
	}
	if item.UserID == senderID {
		return nil, ErrSelfMessage
	}

	return s.deliver(senderID, item.UserID, item.ID, input)
}

// Reply 回复一条收到的消息，回复发给原发送者并关联同一商品。
func (s *MessageService) Reply(userID, messageID uint, input ComposeInput) (*domain.Message, error) {
	original, err := s.store.GetMessage(messageID)
	if err != nil {
		return nil, err
	}
	if !original.IsReceiver(userID) {
		return nil, ErrNotReceiver
	}
	if original.ItemID == nil {
		return nil, ErrItemDeleted
	}
	if original.SenderID == nil {
		return nil, ErrSenderDeleted
	}
	if *original.SenderID == userID {
		return nil, ErrSelfMessage
	}

	return s.deliver(userID, *original.SenderID, *original.ItemID, input)
}

func (s *MessageService) deliver(senderID, receiverID, itemID uint, input ComposeInput) (*domain.Message, error) {
	input, err := input.normalize()
	if err != nil {
		return nil, err
	}

	message := &domain.Message{
		Subject:     input.Subject,
		Description: input.Description,
		Unread:      true,
		SenderID:    &senderID,
		ReceiverID:  &receiverID,
		ItemID:      &itemID,
		Timestamp:   time.Now().UTC(),
	}
	if err := s.store.SaveMessage(message); err != nil {
		return nil, fmt.Errorf("save message: %w", err)
	}

	if err := s.store.SetHasNotifications(receiverID, true); err != nil {
		s.log.Warn("failed to flag notifications", zap.Uint("user_id", receiverID), zap.Error(err))
	}

	s.notifier.NotifyUser(receiverID, EventNewMessage, message.Summary())
	s.pushCounts(receiverID)
	s.pushCounts(senderID)

	s.log.Info("message sent",
		zap.Uint("message_id", message.ID),
		zap.Uint("sender_id", senderID),
		zap.Uint("receiver_id", receiverID),
		zap.Uint("item_id", itemID),
	)
	return message, nil
}

// Get 获取消息详情，接收者查看时标记为已读。
func (s *MessageService) Get(userID, messageID uint) (*domain.Message, error) {
	message, err := s.store.GetMessage(messageID)
	if err != nil {
		return nil, err
	}
	if !message.IsParticipant(userID) {
		return nil, ErrForbidden
	}

	if message.IsReceiver(userID) && message.Unread {
		if err := s.store.MarkMessageRead(message.ID); err != nil {
			return nil, fmt.Errorf("mark message read: %w", err)
		}
		message.Unread = false
		s.pushCounts(userID)
	}

	return message, nil
}

// Notifications 返回某个分类的消息摘要和三个分类的计数，并清除新消息标记。
//
// 响应中的 type 原样回显请求的分类名（如 inbox），供页面标题使用。
func (s *MessageService) Notifications(userID uint, requested string) (*domain.MessageListResponse, error) {
	category, err := domain.ParseCategory(requested)
	if err != nil {
		return nil, err
	}

	messages, err := s.store.ListMessages(userID, category)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	counts, err := s.store.CountMessages(userID)
	if err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}

	if err := s.store.SetHasNotifications(userID, false); err != nil {
		return nil, err
	}

	summaries := make([]domain.MessageSummary, 0, len(messages))
	for i := range messages {
		summaries = append(summaries, messages[i].Summary())
	}

	return &domain.MessageListResponse{
		Type:          strings.ToLower(strings.TrimSpace(requested)),
		Messages:      summaries,
		MessageCounts: counts,
	}, nil
}

func (s *MessageService) pushCounts(userID uint) {
	counts, err := s.store.CountMessages(userID)
	if err != nil {
		s.log.Warn("failed to count messages", zap.Uint("user_id", userID), zap.Error(err))
		return
	}
	s.notifier.NotifyUser(userID, EventCounts, counts)
}
