// Package types 定义 HTTP 层的请求与响应结构，字段名即线上 JSON 契约.
package types

// ItemRef 子项的精简引用.
type ItemRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// MessageResponse 删除等操作的成功响应.
type MessageResponse struct {
	Msg string `json:"msg"`
}

// ErrorResponse 统一错误响应，Fields 仅在参数校验失败时出现.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// PlacementRequest 文件夹与文件的目标位置与名称，用于创建与移动.
// ParentFolderID 为空表示放在数据室根目录.
type PlacementRequest struct {
	Name             string `json:"name"                       rule:"required,entryname"`
	ParentDataRoomID uint   `json:"parent_data_room_id"        rule:"required,gt=0"`
	ParentFolderID   *uint  `json:"parent_folder_id,omitempty" rule:"omitempty,gt=0"`
}
