package types

// DataRoomView 数据室详情，只包含根目录下的直接子项.
type DataRoomView struct {
	ID      uint      `json:"id"`
	Name    string    `json:"name"`
	Folders []ItemRef `json:"folders"`
	Files   []ItemRef `json:"files"`
}

// DataRoomListResponse 当前用户的全部数据室，空时为 [].
type DataRoomListResponse struct {
	UserDataRooms []DataRoomView `json:"user_data_rooms"`
}

// CreateDataRoomRequest 创建数据室请求.
type CreateDataRoomRequest struct {
	Name string `json:"name" rule:"required,entryname"`
}

// RenameDataRoomRequest 重命名数据室请求.
type RenameDataRoomRequest struct {
	Name string `json:"name" rule:"required,entryname"`
}
