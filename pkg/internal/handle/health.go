package handle

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/dataroom/pkg/context"
)

const timeout = 2 * time.Second

// healthCheck 统一输出 {"component","status","error"}，check 为 nil 表示组件未初始化.
func healthCheck(c *gin.Context, component string, check func(ctx context.Context) error) {
	if check == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"component": component, "status": "unhealthy", "error": component + " client not initialized"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	if err := check(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"component": component, "status": "unhealthy", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": component, "status": "ok"})
}

// HealthDB 数据库健康检查.
//
//	@Summary	数据库健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Failure	503	{object}	map[string]string
//	@Router		/api/v1/health/db [get]
func HealthDB(c *gin.Context) {
	dbc := ctxPkg.GetDBClient(c.Request.Context())
	if dbc == nil || dbc.DB == nil {
		healthCheck(c, "db", nil)
		return
	}

	healthCheck(c, "db", func(ctx context.Context) error {
		sqlDB, err := dbc.DB.DB()
		if err != nil {
			return err
		}

		return sqlDB.PingContext(ctx)
	})
}

// HealthBlob 内容存储健康检查.
//
//	@Summary	内容存储健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Failure	503	{object}	map[string]string
//	@Router		/api/v1/health/blob [get]
func HealthBlob(c *gin.Context) {
	store := ctxPkg.GetBlobStore(c.Request.Context())
	if store == nil {
		healthCheck(c, "blob", nil)
		return
	}

	healthCheck(c, "blob", store.Health)
}

// HealthKV 键值存储健康检查.
//
//	@Summary	键值存储健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Failure	503	{object}	map[string]string
//	@Router		/api/v1/health/kv [get]
func HealthKV(c *gin.Context) {
	kv := ctxPkg.GetKVClient(c.Request.Context())
	if kv == nil {
		healthCheck(c, "kv", nil)
		return
	}

	healthCheck(c, "kv", kv.Ping)
}

// HealthMQ 消息队列健康检查.
//
//	@Summary	消息队列健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Failure	503	{object}	map[string]string
//	@Router		/api/v1/health/mq [get]
func HealthMQ(c *gin.Context) {
	mq := ctxPkg.GetMQClient(c.Request.Context())
	if mq == nil {
		healthCheck(c, "mq", nil)
		return
	}

	healthCheck(c, "mq", mq.Health)
}
