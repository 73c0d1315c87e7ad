package domain

import "time"

// Item 表示用户发布的商品，消息总是围绕某个商品展开。
type Item struct {
	ID          uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string    `json:"name" gorm:"type:varchar(80);not null"`
	Description string    `json:"description" gorm:"type:text"`
	UserID      uint      `json:"userId" gorm:"index;not null"`
	Timestamp   time.Time `json:"timestamp" gorm:"index"`
}

// TableName 指定 GORM 表名
func (Item) TableName() string {
	return "items"
}
