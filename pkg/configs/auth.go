package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultAuthSecret   = "TEST_SECRET_KEY" // 默认签名密钥，生产环境务必覆盖
	DefaultAuthTokenTTL = 12 * time.Hour    // 访问令牌有效期
	DefaultAuthIssuer   = AppName           // 令牌签发方
	DefaultEmailDomain  = "example.com"     // 登录自动建档时使用的邮箱域
)

// AuthConfig 控制访问令牌（HS256 JWT）的签发与校验。
type AuthConfig struct {
	Secret      string        `mapstructure:"secret"       rule:"required"`
	TokenTTL    time.Duration `mapstructure:"token_ttl"`
	Issuer      string        `mapstructure:"issuer"`
	EmailDomain string        `mapstructure:"email_domain" rule:"required"` // 登录时自动创建用户的邮箱域
}

func (c *AuthConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("auth.secret", DefaultAuthSecret)
	v.SetDefault("auth.token_ttl", DefaultAuthTokenTTL)
	v.SetDefault("auth.issuer", DefaultAuthIssuer)
	v.SetDefault("auth.email_domain", DefaultEmailDomain)
}
