// Package storagetest 为测试组装一套本地存储：临时目录中的 SQLite 与文件内容、内存 KV 与进程内 pub/sub.
package storagetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/yeisme/dataroom/pkg/configs"
	ctxPkg "github.com/yeisme/dataroom/pkg/context"
	"github.com/yeisme/dataroom/pkg/internal/storage"
)

// Config 返回指向 t.TempDir 的测试配置，指标关闭以免重复注册.
func Config(t testing.TB) configs.AppConfig {
	t.Helper()

	dir := t.TempDir()

	cfg := configs.Default()
	cfg.DB.Type = configs.SQLite
	cfg.DB.Database = filepath.Join(dir, "dataroom")
	cfg.DB.MaxOpenConns = 1
	cfg.DB.AutoMigrate = true
	cfg.Blob.Type = configs.BlobTypeLocal
	cfg.Blob.Local.Root = filepath.Join(dir, "uploads")
	cfg.KV.Type = configs.KVTypeMemory
	cfg.MQ.Type = configs.MQTypeGoChannel
	cfg.MQ.GoChannel.BufferLen = 64
	cfg.Metrics.Enabled = false
	cfg.Tracing.Enabled = false
	cfg.Jobs.Enabled = false

	return cfg
}

// New 按 cfg 创建存储并设为全局配置，测试结束时关闭.
// 返回的 context 已注入存储管理器.
func New(t testing.TB, cfg configs.AppConfig) (context.Context, *storage.Manager) {
	t.Helper()

	configs.SetConfig(cfg)

	ctx := context.Background()

	mgr, err := storage.New(ctx, &cfg)
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}

	t.Cleanup(func() { _ = mgr.Close() })

	return ctxPkg.WithStorageManager(ctx, mgr), mgr
}
