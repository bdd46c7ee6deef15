package model

import "time"

// Folder 文件夹，允许同级重名.
type Folder struct {
	ID               uint   `gorm:"primaryKey"`
	Name             string `gorm:"size:255;not null"`
	OwnerID          uint   `gorm:"not null;index"`
	ParentDataRoomID uint   `gorm:"not null;index:idx_folder_parent"`
	// ParentFolderID 为空表示位于数据室根目录，非空时引用同一数据室内的文件夹
	ParentFolderID *uint `gorm:"index:idx_folder_parent"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsTopLevel 是否位于数据室根目录.
func (f *Folder) IsTopLevel() bool {
	return f.ParentFolderID == nil
}
