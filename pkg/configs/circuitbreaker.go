package configs

import (
	"time"

	"github.com/spf13/viper"
)

// CircuitBreakerConfig 服务端熔断器配置，统计 5xx 响应.
type CircuitBreakerConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	FailureRate float64       `mapstructure:"failure_rate" rule:"gt=0,max=1"`
	MinRequests uint32        `mapstructure:"min_requests" rule:"min=1"`
	Interval    time.Duration `mapstructure:"interval"`     // 统计窗口
	Timeout     time.Duration `mapstructure:"timeout"`      // 打开状态持续时间，之后进入半开
	HalfOpenMax uint32        `mapstructure:"half_open_max" rule:"min=1"`
}

func (c *CircuitBreakerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("circuit_breaker.enabled", false)
	v.SetDefault("circuit_breaker.failure_rate", 0.5)
	v.SetDefault("circuit_breaker.min_requests", 20)
	v.SetDefault("circuit_breaker.interval", "60s")
	v.SetDefault("circuit_breaker.timeout", "30s")
	v.SetDefault("circuit_breaker.half_open_max", 5)
}
