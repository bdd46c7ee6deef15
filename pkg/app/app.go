// Package app 提供应用程序的初始化、运行与优雅退出.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/yeisme/dataroom/pkg/api"
	"github.com/yeisme/dataroom/pkg/configs"
	"github.com/yeisme/dataroom/pkg/internal/events"
	"github.com/yeisme/dataroom/pkg/internal/jobs"
	"github.com/yeisme/dataroom/pkg/internal/storage"
	"github.com/yeisme/dataroom/pkg/log"
	"github.com/yeisme/dataroom/pkg/metrics"
	"github.com/yeisme/dataroom/pkg/scheduler"
	"github.com/yeisme/dataroom/pkg/tracing"
)

// App 服务端进程：HTTP 引擎、存储、调度器与事件消费者.
type App struct {
	Engine   *gin.Engine
	config   *configs.AppConfig
	manager  *storage.Manager
	sched    *scheduler.Scheduler
	consumer *events.Consumer
}

// NewApp 加载配置并初始化全部依赖，任何一步失败都会释放已创建的资源.
func NewApp(ctx context.Context, configPath string) (*App, error) {
	// 初始化配置
	if err := configs.InitConfig(configPath); err != nil {
		return nil, err
	}

	config := configs.GetConfig()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	// 初始化追踪
	if err := tracing.InitTracer(config.Tracing); err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	// 初始化监控
	if err := metrics.InitMetrics(config.Metrics); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	manager, err := storage.Init(ctx)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	a := &App{config: config, manager: manager}

	if err := a.initBackground(); err != nil {
		_ = manager.Close()
		return nil, err
	}

	a.Engine = api.NewEngine(config, manager, a.sched)

	return a, nil
}

// initBackground 创建定时任务与事件消费者，二者都可以通过配置关闭.
func (a *App) initBackground() error {
	if a.config.Jobs.Enabled {
		sched, err := scheduler.NewScheduler()
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}

		if err := jobs.Register(sched, a.manager, a.config.Jobs); err != nil {
			_ = sched.Stop()
			return err
		}

		a.sched = sched
	}

	if a.config.Events.Enabled && a.config.Events.Consume {
		consumer, err := events.NewConsumer(a.manager.GetMQClient())
		if err != nil {
			return fmt.Errorf("init event consumer: %w", err)
		}

		a.consumer = consumer
	}

	return nil
}

// Run 启动服务并阻塞，收到 SIGINT/SIGTERM 或 ctx 取消后优雅退出.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	l := log.Logger()
	addr := net.JoinHostPort(a.config.Server.Host, strconv.Itoa(a.config.Server.Port))

	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Engine,
		ReadHeaderTimeout: a.config.Server.GetTimeoutDuration(),
		IdleTimeout:       2 * a.config.Server.GetTimeoutDuration(),
	}

	if a.sched != nil {
		a.sched.Start()
	}

	g, gctx := errgroup.WithContext(ctx)

	if a.consumer != nil {
		g.Go(func() error { return a.consumer.Run(gctx) })
	}

	g.Go(func() error {
		l.Info().Str("addr", addr).Msg("HTTP server listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen %s: %w", addr, err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		return a.shutdown(srv)
	})

	return g.Wait()
}

// shutdown 依次停止 HTTP、调度器、消费者、追踪与存储.
func (a *App) shutdown(srv *http.Server) error {
	l := log.Logger()
	l.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), a.config.Server.GetShutdownTimeout())
	defer cancel()

	var errs []error

	if err := srv.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	if a.sched != nil {
		errs = append(errs, a.sched.Stop())
	}

	if a.consumer != nil {
		errs = append(errs, a.consumer.Close())
	}

	errs = append(errs, tracing.ShutdownTracer(ctx), a.manager.Close())

	err := errors.Join(errs...)
	if err != nil {
		l.Error().Err(err).Msg("shutdown finished with errors")
	}

	return err
}
