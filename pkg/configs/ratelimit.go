package configs

import "github.com/spf13/viper"

const (
	DefaultRateLimitRPS   = 50.0
	DefaultRateLimitBurst = 100
)

// RateLimitKey 限流维度.
type RateLimitKey string

const (
	RateLimitGlobal RateLimitKey = "global" // 全局共享一个令牌桶
	RateLimitIP     RateLimitKey = "ip"     // 按客户端IP
	RateLimitUser   RateLimitKey = "user"   // 按令牌中的用户，未认证请求退化为按IP
)

// RateLimitConfig 速率限制配置.
type RateLimitConfig struct {
	Enabled bool         `mapstructure:"enabled"`
	RPS     float64      `mapstructure:"rps"   rule:"gt=0"`
	Burst   int          `mapstructure:"burst" rule:"min=1"`
	Key     RateLimitKey `mapstructure:"key"   rule:"oneof=global ip user"`
	// MaxKeys 限制内存中保留的令牌桶数量，超出后清空重建
	MaxKeys int `mapstructure:"max_keys" rule:"min=1"`
}

func (c *RateLimitConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.rps", DefaultRateLimitRPS)
	v.SetDefault("rate_limit.burst", DefaultRateLimitBurst)
	v.SetDefault("rate_limit.key", RateLimitIP)
	v.SetDefault("rate_limit.max_keys", 10000)
}
