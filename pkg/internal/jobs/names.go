package jobs

// 任务名称常量，便于统一管理与引用.
const (
	JobOrphanSweep  = "blob.orphan_sweep"
	JobStatsRefresh = "stats.refresh"
)

// contentPrefix 所有文件内容键的公共前缀.
const contentPrefix = "user-"
