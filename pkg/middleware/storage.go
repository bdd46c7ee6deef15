package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/dataroom/pkg/context"
	"github.com/yeisme/dataroom/pkg/internal/storage"
	"github.com/yeisme/dataroom/pkg/scheduler"
)

// ContextMiddleware 把存储管理器与调度器注入 request.Context，service 与 handler 通过 pkg/context 读取.
// 调度器可以为 nil.
func ContextMiddleware(manager *storage.Manager, sched *scheduler.Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.WithStorageManager(c.Request.Context(), manager)
		ctx = context.WithScheduler(ctx, sched)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
