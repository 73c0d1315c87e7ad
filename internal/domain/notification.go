package domain

import (
	"errors"
	"strings"
	"time"
)

// ErrUnknownCategory 表示请求了不存在的消息分类。
var ErrUnknownCategory = errors.New("unknown message category")

// Category 消息分类（通知面板中的一个桶）
type Category string

const (
	CategoryUnread   Category = "unread"
	CategoryReceived Category = "received"
	CategorySent     Category = "sent"
)

// ParseCategory 解析分类名称，"inbox" 视为 received 的别名。
func ParseCategory(value string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "unread":
		return CategoryUnread, nil
	case "received", "inbox":
		return CategoryReceived, nil
	case "sent":
		return CategorySent, nil
	default:
		return "", ErrUnknownCategory
	}
}

// MessageSummary 是列表中的一行。
type MessageSummary struct {
	ID        uint      `json:"id"`
	Subject   string    `json:"subject"`
	Timestamp time.Time `json:"timestamp"`
}

// MessageCounts 当前用户三个分类的消息数量。
type MessageCounts struct {
	Unread   int `json:"num-unread"`
	Sent     int `json:"num-sent"`
	Received int `json:"num-received"`
}

// MessageListResponse 是 /notifications 的响应体。
//
// 字段名沿用页面脚本使用的旧格式（msgs、num-unread 等）。
type MessageListResponse struct {
	Type     string           `json:"type"`
	Messages []MessageSummary `json:"msgs"`
	MessageCounts
}
