// Package middleware 提供 gin 中间件：认证、请求 ID、日志、CORS、追踪、监控、限流、熔断与依赖注入.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	ctxPkg "github.com/yeisme/dataroom/pkg/context"
)

// userIDKey gin.Context 中保存当前用户 ID 的键.
const userIDKey = "user_id"

// TokenParser 校验访问令牌并返回用户 ID.
type TokenParser interface {
	Parse(token string) (uint, error)
}

// AuthMiddleware 校验 Authorization: Bearer <token>，通过后把用户 ID 注入 gin.Context 与 request.Context.
// 缺失或无效的令牌返回 401 {"error":"unauthorized"}.
func AuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		uid, err := tokens.Parse(token)
		if err != nil {
			zerolog.Ctx(c.Request.Context()).Debug().Err(err).Msg("rejected access token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})

			return
		}

		c.Set(userIDKey, uid)

		ctx := ctxPkg.WithUserID(c.Request.Context(), uid)
		l := zerolog.Ctx(ctx).With().Uint("user_id", uid).Logger()
		c.Request = c.Request.WithContext(l.WithContext(ctx))

		c.Next()
	}
}

// GetUserID 返回已认证的用户 ID，未认证时为 0.
func GetUserID(c *gin.Context) uint {
	if v, ok := c.Get(userIDKey); ok {
		if uid, ok := v.(uint); ok {
			return uid
		}
	}

	uid, _ := ctxPkg.UserID(c.Request.Context())

	return uid
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}

	return strings.TrimSpace(token)
}
