package queue

// 主题命名规范：dr.<域>.<动作>，发布后保持稳定.

const (
	// 用户.
	TopicUserCreated = "dr.user.created"
	TopicUserUpdated = "dr.user.updated"
	TopicUserDeleted = "dr.user.deleted"

	// 数据室.
	TopicDataRoomCreated = "dr.dataroom.created"
	TopicDataRoomRenamed = "dr.dataroom.renamed"
	TopicDataRoomDeleted = "dr.dataroom.deleted"

	// 文件夹.
	TopicFolderCreated = "dr.folder.created"
	TopicFolderMoved   = "dr.folder.moved" // 重命名与移动共用
	TopicFolderDeleted = "dr.folder.deleted"

	// 文件.
	TopicFileUploaded = "dr.file.uploaded"
	TopicFileMoved    = "dr.file.moved"
	TopicFileDeleted  = "dr.file.deleted"
)

// 主题分组，用于批量订阅或按域开关.
var (
	UserTopics     = []string{TopicUserCreated, TopicUserUpdated, TopicUserDeleted}
	DataRoomTopics = []string{TopicDataRoomCreated, TopicDataRoomRenamed, TopicDataRoomDeleted}
	FolderTopics   = []string{TopicFolderCreated, TopicFolderMoved, TopicFolderDeleted}
	FileTopics     = []string{TopicFileUploaded, TopicFileMoved, TopicFileDeleted}
)

// AllTopics 返回全部主题.
func AllTopics() []string {
	out := make([]string, 0, len(UserTopics)+len(DataRoomTopics)+len(FolderTopics)+len(FileTopics))
	out = append(out, UserTopics...)
	out = append(out, DataRoomTopics...)
	out = append(out, FolderTopics...)

	return append(out, FileTopics...)
}
