// Package service 实现数据室层级的业务规则（归属校验、层级不变量、级联删除），不处理 HTTP 细节.
//
// 每个写操作在事务提交后：
//   - 使该用户的读视图缓存代号失效；
//   - 按 events 配置发布领域事件，发布失败只记录日志.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/yeisme/dataroom/pkg/cache"
	"github.com/yeisme/dataroom/pkg/configs"
	ctxPkg "github.com/yeisme/dataroom/pkg/context"
	"github.com/yeisme/dataroom/pkg/internal/storage/blob"
	kvc "github.com/yeisme/dataroom/pkg/internal/storage/kv"
	"github.com/yeisme/dataroom/pkg/queue"
	nlog "github.com/yeisme/dataroom/pkg/log"
)

var (
	// ErrNotFound 实体不存在.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized 实体属于其他用户，或令牌无效.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidParent 目标文件夹不在目标数据室中.
	ErrInvalidParent = errors.New("parent folder does not belong to the target data room")
	// ErrCycle 将文件夹移入自身或其子孙.
	ErrCycle = errors.New("cannot move a folder into itself or one of its descendants")
	// ErrConflict 名称或唯一字段已被占用.
	ErrConflict = errors.New("already exists")
	// ErrInvalidName 名称为空或含路径分隔符.
	ErrInvalidName = errors.New("invalid name")
)

const (
	// blobDeleteConcurrency 级联删除时并发删除内容的上限.
	blobDeleteConcurrency = 8
)

// base 各服务共享的依赖.
type base struct {
	db     *gorm.DB
	blobs  blob.Store
	pub    queue.Publisher
	views  *cache.Cache
	cfg    *configs.AppConfig
	events configs.EventsConfig
}

// newBase 从 context 中的存储管理器组装依赖，缺失时直接退出.
func newBase(c context.Context) base {
	dbc := ctxPkg.GetDBClient(c)
	blobs := ctxPkg.GetBlobStore(c)
	mqc := ctxPkg.GetMQClient(c)
	kvClient := ctxPkg.GetKVClient(c)

	if dbc == nil || dbc.DB == nil || blobs == nil || mqc == nil || kvClient == nil {
		nlog.Logger().Fatal().Msg("storage clients not initialized")
	}

	cfg := configs.GetConfig()

	var views *cache.Cache
	if cfg.Cache.Enabled {
		views = viewCache(kvClient, cfg.Cache.Prefix)
	}

	return base{
		db:     dbc.GetDB(),
		blobs:  blobs,
		pub:    mqc,
		views:  views,
		cfg:    cfg,
		events: cfg.Events,
	}
}

// viewCaches 每个 KV 客户端对应一个 Cache 实例.
var viewCaches sync.Map // map[*kvc.Client]*cache.Cache

func viewCache(client *kvc.Client, prefix string) *cache.Cache {
	if c, ok := viewCaches.Load(client); ok {
		return c.(*cache.Cache)
	}

	c, _ := viewCaches.LoadOrStore(client, cache.NewCache(client, prefix))

	return c.(*cache.Cache)
}

// scope 返回 owner 的读视图命名空间；缓存关闭时为 nil，Remember 直接回源.
func (b *base) scope(owner uint) *cache.Scope {
	return b.views.Scope("owner:"+strconv.FormatUint(uint64(owner), 10), b.cfg.Cache.TTL)
}

// invalidate 使 owner 的全部读视图失效.
func (b *base) invalidate(ctx context.Context, owner uint) {
	if err := b.scope(owner).Bump(ctx); err != nil {
		nlog.FromContext(ctx).Warn().Err(err).Uint("owner", owner).Msg("failed to invalidate view cache")
	}
}

// topicEnabled 判断主题所在的领域是否开启了事件.
func (b *base) topicEnabled(topic string) bool {
	if !b.events.Enabled {
		return false
	}

	switch {
	case contains(queue.UserTopics, topic):
		return b.events.User
	case contains(queue.DataRoomTopics, topic):
		return b.events.DataRoom
	case contains(queue.FolderTopics, topic):
		return b.events.Folder
	case contains(queue.FileTopics, topic):
		return b.events.File
	}

	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}

	return false
}

// emit 发布事件，失败只记录日志，不影响已提交的写操作.
func emit[T any](ctx context.Context, b *base, topic string, actor uint, payload T) {
	if !b.topicEnabled(topic) {
		return
	}

	opts := []func(*queue.EventHeader){queue.WithActor(actor)}
	if tid := ctxPkg.TraceID(ctx); tid != "" {
		opts = append(opts, queue.WithTraceID(tid))
	}

	if err := queue.Publish(ctx, b.pub, topic, payload, opts...); err != nil {
		nlog.FromContext(ctx).Warn().Err(err).Str("topic", topic).Msg("failed to publish event")
	}
}

// removeBlobs 删除事务中已解除引用的内容，失败的键留给孤儿清理任务.
func (b *base) removeBlobs(ctx context.Context, keys []string) {
	if len(keys) == 0 {
		return
	}

	// 请求结束后继续删除，不受客户端断开影响
	ctx = context.WithoutCancel(ctx)

	if err := deleteBlobs(ctx, b.blobs, keys, blobDeleteConcurrency); err != nil {
		nlog.FromContext(ctx).Warn().Err(err).Int("keys", len(keys)).Msg("failed to delete some blobs")
	}
}

// mapNotFound 把 gorm 的未找到错误转换为 ErrNotFound.
func mapNotFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}

	return fmt.Errorf("load %s: %w", what, err)
}

// isUniqueViolation 识别各数据库驱动的唯一约束冲突.
func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// now 便于测试替换.
var now = time.Now
