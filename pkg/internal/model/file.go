package model

import "time"

// File 文件元数据，内容保存在 blob 存储中.
type File struct {
	ID               uint   `gorm:"primaryKey"`
	Name             string `gorm:"size:255;not null"`
	OwnerID          uint   `gorm:"not null;index"`
	ParentDataRoomID uint   `gorm:"not null;index:idx_file_parent"`
	ParentFolderID   *uint  `gorm:"index:idx_file_parent"`
	// ContentKey 上传时确定，移动与重命名不会改变
	ContentKey  string `gorm:"size:512;not null;uniqueIndex"`
	Size        int64
	ContentType string `gorm:"size:255"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
