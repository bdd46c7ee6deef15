package queue

import "time"

// EventHeader 事件头.
type EventHeader struct {
	// ID 事件唯一标识（ULID），消费者可据此幂等.
	ID string `json:"id"`
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪 ID，来自请求的 span.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名.
	Producer string `json:"producer,omitempty"`
	// ActorID 触发事件的用户.
	ActorID uint `json:"actor_id,omitempty"`
	// OccurredAt 事件发生时间（UTC，RFC3339）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本.
	Version string `json:"version,omitempty"`
}

// Message 泛型消息信封.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// Placement 文件夹或文件在层级中的位置.
type Placement struct {
	DataRoomID uint  `json:"parent_data_room_id"`
	FolderID   *uint `json:"parent_folder_id,omitempty"`
}

// UserPayload dr.user.* 负载.
type UserPayload struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// DataRoomPayload dr.dataroom.* 负载.
type DataRoomPayload struct {
	DataRoomID uint   `json:"data_room_id"`
	Name       string `json:"name"`
	OwnerID    uint   `json:"owner_id"`
	// 删除事件中级联删除的数量
	DeletedFolders int `json:"deleted_folders,omitempty"`
	DeletedFiles   int `json:"deleted_files,omitempty"`
}

// FolderPayload dr.folder.* 负载，From 仅在移动事件中出现.
type FolderPayload struct {
	FolderID uint       `json:"folder_id"`
	Name     string     `json:"name"`
	OwnerID  uint       `json:"owner_id"`
	At       Placement  `json:"at"`
	From     *Placement `json:"from,omitempty"`
	// 删除事件中级联删除的数量（包含自身）
	DeletedFolders int `json:"deleted_folders,omitempty"`
	DeletedFiles   int `json:"deleted_files,omitempty"`
}

// FilePayload dr.file.* 负载.
type FilePayload struct {
	FileID      uint       `json:"file_id"`
	Name        string     `json:"name"`
	OwnerID     uint       `json:"owner_id"`
	At          Placement  `json:"at"`
	From        *Placement `json:"from,omitempty"`
	ContentKey  string     `json:"content_key,omitempty"`
	Size        int64      `json:"size,omitempty"`
	ContentType string     `json:"content_type,omitempty"`
}
