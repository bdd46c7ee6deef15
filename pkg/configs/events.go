package configs

import "github.com/spf13/viper"

// EventsConfig 控制领域事件发布的开关（全局与分领域）。
type EventsConfig struct {
	Enabled  bool `mapstructure:"enabled"` // 总开关
	User     bool `mapstructure:"user"`
	DataRoom bool `mapstructure:"data_room"`
	Folder   bool `mapstructure:"folder"`
	File     bool `mapstructure:"file"`
	// Consume 为 true 时服务端启动内置消费者，记录日志并累计指标
	Consume bool `mapstructure:"consume"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("events.enabled", true)

	v.SetDefault("events.user", false) // 登录频繁，默认关闭
	v.SetDefault("events.data_room", true)
	v.SetDefault("events.folder", true)
	v.SetDefault("events.file", true)

	v.SetDefault("events.consume", true)
}
