package configs

import (
	"time"

	"github.com/spf13/viper"
)

// CacheConfig 读视图缓存配置，缓存值保存在 KV 中.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
	Prefix  string        `mapstructure:"prefix" rule:"required"`
}

func (c *CacheConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "30s")
	v.SetDefault("cache.prefix", "dr:view")
}
