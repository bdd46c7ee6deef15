package model

import "time"

// DataRoom 数据室，层级的根；同一用户下名称唯一.
type DataRoom struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:255;not null;uniqueIndex:idx_data_room_owner_name"`
	OwnerID   uint   `gorm:"not null;index;uniqueIndex:idx_data_room_owner_name"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
