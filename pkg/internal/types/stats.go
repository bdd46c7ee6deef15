package types

// StatsSummary 当前用户的存量统计.
type StatsSummary struct {
	DataRooms int64 `json:"data_rooms"`
	Folders   int64 `json:"folders"`
	Files     int64 `json:"files"`
	TotalSize int64 `json:"total_size"`
}

// StatsDataRoomItem 按数据室聚合的文件统计.
type StatsDataRoomItem struct {
	DataRoomID uint   `json:"data_room_id"`
	Name       string `json:"name"`
	Folders    int64  `json:"folders"`
	Files      int64  `json:"files"`
	Size       int64  `json:"size"`
}

// StatsResponse GET /stats 响应.
type StatsResponse struct {
	Summary   StatsSummary        `json:"summary"`
	DataRooms []StatsDataRoomItem `json:"data_rooms"`
}
