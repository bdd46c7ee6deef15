package types

import (
	"strconv"
	"strings"
	"time"
)

// FileView 文件元数据.
type FileView struct {
	ID               uint      `json:"id"`
	Name             string    `json:"name"`
	ParentDataRoomID uint      `json:"parent_data_room_id"`
	ParentFolderID   *uint     `json:"parent_folder_id,omitempty"`
	OwnerID          uint      `json:"owner_id"`
	Size             int64     `json:"size"`
	ContentType      string    `json:"content_type,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// UploadFileForm multipart 上传表单中除文件内容外的字段.
// 浏览器端可能把空的 parent_folder_id 发成 "undefined" 或 "null".
type UploadFileForm struct {
	Name             string `form:"name"`
	ParentDataRoomID uint   `form:"parent_data_room_id" rule:"required,gt=0"`
	ParentFolderID   string `form:"parent_folder_id"`
}

// FolderID 解析 ParentFolderID，空值与占位字符串视为根目录.
func (f *UploadFileForm) FolderID() (*uint, error) {
	raw := strings.TrimSpace(f.ParentFolderID)
	switch raw {
	case "", "undefined", "null":
		return nil, nil
	}

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, err
	}

	v := uint(id)

	return &v, nil
}

// MoveFileRequest 重命名并（可选）移动文件.
type MoveFileRequest = PlacementRequest
