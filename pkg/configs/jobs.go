package configs

import (
	"time"

	"github.com/spf13/viper"
)

// JobsConfig 后台定时任务配置.
type JobsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// OrphanSweepCron 清理没有元数据引用的内容对象，cron 表达式
	OrphanSweepCron string `mapstructure:"orphan_sweep_cron" rule:"required"`
	// OrphanGrace 新上传的对象在该时长内不会被清理，避免与进行中的上传竞争
	OrphanGrace time.Duration `mapstructure:"orphan_grace"`
	// StatsInterval 刷新统计类 gauge 的间隔
	StatsInterval time.Duration `mapstructure:"stats_interval"`
}

func (c *JobsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.orphan_sweep_cron", "17 3 * * *")
	v.SetDefault("jobs.orphan_grace", "1h")
	v.SetDefault("jobs.stats_interval", "1m")
}
