package domain

import "time"

// User 表示注册用户的业务实体
type User struct {
	ID               uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Email            string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	Username         string    `json:"username" gorm:"uniqueIndex;type:varchar(64);not null"`
	PasswordHash     string    `json:"-" gorm:"type:varchar(255)"` // 不返回给前端
	HasNotifications bool      `json:"hasNotifications" gorm:"default:false"`
	CreatedAt        time.Time `json:"createdAt"`
}

// TableName 指定 GORM 表名
func (User) TableName() string {
	return "users"
}
