package types

// FolderView 文件夹详情.
type FolderView struct {
	ID               uint      `json:"id"`
	Name             string    `json:"name"`
	ParentDataRoomID uint      `json:"parent_data_room_id"`
	ParentFolderID   *uint     `json:"parent_folder_id,omitempty"`
	OwnerID          uint      `json:"owner_id"`
	ChildrenFolders  []ItemRef `json:"children_folders"`
	ChildrenFiles    []ItemRef `json:"children_files"`
}

// CreateFolderRequest 创建文件夹请求.
type CreateFolderRequest = PlacementRequest

// MoveFolderRequest 重命名并（可选）移动文件夹.
type MoveFolderRequest = PlacementRequest
