// Package jobs 负责注册与实现业务定时任务（基于 scheduler）。
package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/yeisme/dataroom/pkg/configs"
	ctxPkg "github.com/yeisme/dataroom/pkg/context"
	"github.com/yeisme/dataroom/pkg/internal/storage"
	"github.com/yeisme/dataroom/pkg/scheduler"
)

// Register 配置业务定时任务：
//   - 按 OrphanSweepCron 清理没有文件行引用的内容对象
//   - 按 StatsInterval 刷新存量 gauge
func Register(sched *scheduler.Scheduler, mgr *storage.Manager, cfg configs.JobsConfig) error {
	if sched == nil {
		return errors.New("scheduler is nil")
	}

	if mgr == nil {
		return errors.New("storage manager is nil")
	}

	// 将 storage manager 注入到 context，任务通过它拿到各个客户端
	baseCtx := ctxPkg.WithStorageManager(context.Background(), mgr)

	if err := sched.AddCron(baseCtx, JobOrphanSweep, cfg.OrphanSweepCron, func(ctx context.Context) error {
		_, err := SweepOrphans(ctx, mgr, cfg.OrphanGrace)
		return err
	}); err != nil {
		return fmt.Errorf("register %s: %w", JobOrphanSweep, err)
	}

	if cfg.StatsInterval > 0 {
		if err := sched.AddInterval(baseCtx, JobStatsRefresh, cfg.StatsInterval, func(ctx context.Context) error {
			return RefreshStats(ctx, mgr)
		}); err != nil {
			return fmt.Errorf("register %s: %w", JobStatsRefresh, err)
		}
	}

	return nil
}
