package model

import "time"

// User 用户，用户名与邮箱全局唯一.
type User struct {
	ID        uint   `gorm:"primaryKey"`
	Username  string `gorm:"size:50;uniqueIndex;not null"`
	Email     string `gorm:"size:120;uniqueIndex;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
