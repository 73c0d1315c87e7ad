package domain

import "time"

// 消息字段长度限制
const (
	MinSubjectLength     = 2
	MaxSubjectLength     = 120
	MaxDescriptionLength = 500
)

// Message 表示用户之间围绕某个商品发送的站内消息。
type Message struct {
	ID          uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Subject     string    `json:"subject" gorm:"type:varchar(120);not null"`
	Description string    `json:"description" gorm:"type:text"`
	Unread      bool      `json:"unread" gorm:"default:true;index"`
	SenderID    *uint     `json:"senderId,omitempty" gorm:"index"`   // 发送者被删除后为 nil
	ReceiverID  *uint     `json:"receiverId,omitempty" gorm:"index"` // 接收者被删除后为 nil
	ItemID      *uint     `json:"itemId,omitempty" gorm:"index"`     // 商品被删除后为 nil
	Timestamp   time.Time `json:"timestamp" gorm:"index"`
}

// TableName 指定 GORM 表名
func (Message) TableName() string {
	return "messages"
}

// Summary 返回消息在列表中展示所需的摘要。
func (m *Message) Summary() MessageSummary {
	return MessageSummary{
		ID:        m.ID,
		Subject:   m.Subject,
		Timestamp: m.Timestamp,
	}
}

// IsParticipant 判断用户是否为消息的发送者或接收者。
func (m *Message) IsParticipant(userID uint) bool {
	return (m.SenderID != nil && *m.SenderID == userID) ||
		(m.ReceiverID != nil && *m.ReceiverID == userID)
}

// IsReceiver 判断用户是否为消息接收者。
func (m *Message) IsReceiver(userID uint) bool {
	return m.ReceiverID != nil && *m.ReceiverID == userID
}
