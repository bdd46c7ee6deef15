package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/dataroom/pkg/internal/handle"
)

// RegisterOpsRoutes 注册 /api/v1 下的运维路由. 健康检查公开，调度器与统计需要认证.
func RegisterOpsRoutes(g *gin.RouterGroup, authed ...gin.HandlerFunc) {
	health := g.Group("/health")
	{
		health.GET("/db", handle.HealthDB)
		health.GET("/blob", handle.HealthBlob)
		health.GET("/kv", handle.HealthKV)
		health.GET("/mq", handle.HealthMQ)
	}

	protected := g.Group("", authed...)
	protected.GET("/stats", handle.GetStats)

	sched := protected.Group("/scheduler")
	{
		sched.GET("/jobs", handle.SchedulerJobs)
		sched.DELETE("/jobs/:id", handle.SchedulerRemoveJob)
		sched.POST("/run/:name", handle.SchedulerRunJob)
	}
}
