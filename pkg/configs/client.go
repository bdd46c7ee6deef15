package configs

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultAPIBaseURL = "http://localhost:8000"
	DefaultStateFile  = "state.yaml"
)

// ClientConfig CLI 客户端配置.
type ClientConfig struct {
	APIBaseURL string        `mapstructure:"api_base_url" rule:"required,url"`
	StateFile  string        `mapstructure:"state_file"` // 保存令牌与当前选择位置，空值表示用户配置目录下的默认路径
	Timeout    time.Duration `mapstructure:"timeout"`
	Output     string        `mapstructure:"output"       rule:"oneof=table json yaml"`
}

// GetStateFile 返回状态文件路径.
func (c *ClientConfig) GetStateFile() string {
	if c.StateFile != "" {
		return c.StateFile
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}

	return filepath.Join(dir, AppName, DefaultStateFile)
}

func (c *ClientConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("client.api_base_url", DefaultAPIBaseURL)
	v.SetDefault("client.state_file", "")
	v.SetDefault("client.timeout", "30s")
	v.SetDefault("client.output", "table")
}
