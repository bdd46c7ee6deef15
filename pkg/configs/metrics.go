package configs

import (
	"time"

	"github.com/spf13/viper"
)

// MetricsConfig Prometheus 指标配置.
type MetricsConfig struct {
	Enabled        bool              `mapstructure:"enabled"`
	Path           string            `mapstructure:"path"            rule:"startswith=/"`
	Namespace      string            `mapstructure:"namespace"       rule:"required"` // 指标名前缀
	DBStats        bool              `mapstructure:"db_stats"`                         // 通过 gorm prometheus 插件暴露连接池指标
	DBRefresh      time.Duration     `mapstructure:"db_refresh"`
	RuntimeMetrics bool              `mapstructure:"runtime_metrics"`
	Labels         map[string]string `mapstructure:"labels"` // 附加到所有指标上的常量标签
}

// setDefaults 设置Metrics配置的默认值.
func (c *MetricsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", AppName)
	v.SetDefault("metrics.db_stats", true)
	v.SetDefault("metrics.db_refresh", "15s")
	v.SetDefault("metrics.runtime_metrics", true)
	v.SetDefault("metrics.labels", map[string]string{
		"service": AppName,
	})
}
