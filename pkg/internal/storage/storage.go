// Package storage 聚合数据室服务依赖的全部存储资源：关系数据库、文件内容、键值缓存与消息队列.
//
// Example:
//
// 初始化（使用全局配置，重复调用返回同一实例）
//
//	mgr, err := storage.Init(ctx)
//	if err != nil {
//	    // 处理错误
//	}
//
// 获取存储客户端
//
//	db := mgr.GetDBClient()
//	blobs := mgr.GetBlobStore()
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/yeisme/dataroom/pkg/configs"
	"github.com/yeisme/dataroom/pkg/internal/model"
	"github.com/yeisme/dataroom/pkg/internal/storage/blob"
	dbc "github.com/yeisme/dataroom/pkg/internal/storage/db"
	kvc "github.com/yeisme/dataroom/pkg/internal/storage/kv"
	mqc "github.com/yeisme/dataroom/pkg/internal/storage/mq"
	nlog "github.com/yeisme/dataroom/pkg/log"
)

// Manager 聚合所有存储资源.
type Manager struct {
	DB   *dbc.Client
	Blob blob.Store
	KV   *kvc.Client
	MQ   *mqc.Client
}

var (
	mgr     *Manager
	mgrErr  error
	mgrOnce sync.Once
)

// Init 使用全局配置初始化默认存储. 重复调用只返回已初始化实例.
func Init(ctx context.Context) (*Manager, error) {
	mgrOnce.Do(func() {
		mgr, mgrErr = New(ctx, configs.GetConfig())
	})

	return mgr, mgrErr
}

// New 按给定配置创建一组新的存储资源. 任一资源失败时关闭已创建的部分.
func New(ctx context.Context, cfg *configs.AppConfig) (*Manager, error) {
	m := &Manager{}

	dbi, err := dbc.New(ctx, &cfg.DB, dbc.Options{Metrics: cfg.Metrics})
	if err != nil {
		return nil, err
	}

	m.DB = dbi

	if cfg.DB.AutoMigrate {
		if err := model.AutoMigrate(dbi.GetDB()); err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	}

	if m.Blob, err = blob.New(ctx, &cfg.Blob); err != nil {
		_ = m.Close()
		return nil, err
	}

	if m.KV, err = kvc.NewClient(ctx, &cfg.KV); err != nil {
		_ = m.Close()
		return nil, err
	}

	if m.MQ, err = mqc.New(ctx, &cfg.MQ, cfg.Metrics); err != nil {
		_ = m.Close()
		return nil, err
	}

	nlog.Logger().Info().
		Str("db", string(dbi.Dialect())).
		Str("blob", string(cfg.Blob.Type)).
		Str("kv", string(m.KV.Type())).
		Str("mq", string(m.MQ.Type())).
		Msg("storage manager initialized")

	return m, nil
}

// GetDBClient 获取 DB 客户端.
func (m *Manager) GetDBClient() *dbc.Client {
	return m.DB
}

// GetBlobStore 获取文件内容存储.
func (m *Manager) GetBlobStore() blob.Store {
	return m.Blob
}

// GetKVClient 获取 KV 客户端.
func (m *Manager) GetKVClient() *kvc.Client {
	return m.KV
}

// GetMQClient 获取 MQ 客户端.
func (m *Manager) GetMQClient() *mqc.Client {
	return m.MQ
}

// Close 依次关闭所有资源，返回合并的错误.
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}

	var errs []error

	if m.MQ != nil {
		errs = append(errs, m.MQ.Close())
	}

	if m.KV != nil {
		errs = append(errs, m.KV.Close())
	}

	if m.Blob != nil {
		errs = append(errs, m.Blob.Close())
	}

	if m.DB != nil {
		errs = append(errs, m.DB.Close())
	}

	return errors.Join(errs...)
}
