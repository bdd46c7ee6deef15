package client

import "time"

// ItemRef 子项的精简引用.
type ItemRef struct {
	ID   uint   `json:"id"   yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// DataRoom 数据室及其根目录下的直接子项.
type DataRoom struct {
	ID      uint      `json:"id"      yaml:"id"`
	Name    string    `json:"name"    yaml:"name"`
	Folders []ItemRef `json:"folders" yaml:"folders"`
	Files   []ItemRef `json:"files"   yaml:"files"`
}

// Folder 文件夹及其直接子项，ParentFolderID 为 nil 表示位于数据室根目录.
type Folder struct {
	ID               uint      `json:"id"                         yaml:"id"`
	Name             string    `json:"name"                       yaml:"name"`
	ParentDataRoomID uint      `json:"parent_data_room_id"        yaml:"parent_data_room_id"`
	ParentFolderID   *uint     `json:"parent_folder_id,omitempty" yaml:"parent_folder_id,omitempty"`
	OwnerID          uint      `json:"owner_id"                   yaml:"owner_id"`
	ChildrenFolders  []ItemRef `json:"children_folders"           yaml:"children_folders"`
	ChildrenFiles    []ItemRef `json:"children_files"             yaml:"children_files"`
}

// File 文件元数据.
type File struct {
	ID               uint      `json:"id"                         yaml:"id"`
	Name             string    `json:"name"                       yaml:"name"`
	ParentDataRoomID uint      `json:"parent_data_room_id"        yaml:"parent_data_room_id"`
	ParentFolderID   *uint     `json:"parent_folder_id,omitempty" yaml:"parent_folder_id,omitempty"`
	OwnerID          uint      `json:"owner_id"                   yaml:"owner_id"`
	Size             int64     `json:"size"                       yaml:"size"`
	ContentType      string    `json:"content_type,omitempty"     yaml:"content_type,omitempty"`
	CreatedAt        time.Time `json:"created_at"                 yaml:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"                 yaml:"updated_at"`
}

// User 当前用户.
type User struct {
	ID       uint   `json:"id"       yaml:"id"`
	Username string `json:"username" yaml:"username"`
	Email    string `json:"email"    yaml:"email"`
}

type dataRoomList struct {
	UserDataRooms []DataRoom `json:"user_data_rooms"`
}

type nameRequest struct {
	Name string `json:"name"`
}

type placementRequest struct {
	Name             string `json:"name"`
	ParentDataRoomID uint   `json:"parent_data_room_id"`
	ParentFolderID   *uint  `json:"parent_folder_id,omitempty"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}
