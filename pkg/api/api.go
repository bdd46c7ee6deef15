// Package api 组装 HTTP 引擎：中间件链、数据室 API、运维 API 与文档路由.
package api

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/dataroom/pkg/configs"
	"github.com/yeisme/dataroom/pkg/internal/router"
	"github.com/yeisme/dataroom/pkg/internal/service"
	"github.com/yeisme/dataroom/pkg/internal/storage"
	"github.com/yeisme/dataroom/pkg/metrics"
	"github.com/yeisme/dataroom/pkg/middleware"
	"github.com/yeisme/dataroom/pkg/scheduler"
)

// NewEngine 按配置创建 gin 引擎，sched 可以为 nil.
func NewEngine(cfg *configs.AppConfig, mgr *storage.Manager, sched *scheduler.Scheduler) *gin.Engine {
	e := gin.New()

	e.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware(),
		middleware.GinLoggerMiddleware(),
		middleware.CORSMiddleware(cfg.Server),
	)

	if cfg.Server.Gzip {
		// 下载内容原样返回，不做二次压缩
		e.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/file/", cfg.Metrics.Path})))
	}

	e.Use(
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.CircuitBreakerMiddleware(cfg.CircuitBreaker),
	)

	// 按用户限流需要先认证，放到受保护路由组里
	perUser := cfg.RateLimit.Key == configs.RateLimitUser
	if !perUser {
		e.Use(middleware.RateLimitMiddleware(cfg.RateLimit))
	}

	e.Use(middleware.ContextMiddleware(mgr, sched))

	authed := []gin.HandlerFunc{middleware.AuthMiddleware(service.NewTokenIssuer(cfg.Auth))}
	if perUser {
		authed = append(authed, middleware.RateLimitMiddleware(cfg.RateLimit))
	}

	router.Register(e, authed...)
	router.RegisterSwaggerRoute(e, cfg.Server)

	_ = metrics.StartMetricsServer(cfg.Metrics, e)

	return e
}
