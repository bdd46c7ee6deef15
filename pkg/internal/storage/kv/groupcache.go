package kv

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/groupcache"

	"github.com/yeisme/dataroom/pkg/configs"
)

// groupSeq 区分同名 group，groupcache 不允许重复注册.
var groupSeq atomic.Int64

// GroupcacheKV 基于 Groupcache 的 KV 实现.
//
// groupcache 中的值不可变，因此读取时使用 "key@版本" 作为缓存键，Set/Delete 递增版本，
// 旧版本的缓存条目自然淘汰，不会读到过期数据.
type GroupcacheKV struct {
	group *groupcache.Group
	mu    sync.RWMutex
	data  map[string][]byte // 权威数据
	vers  map[string]uint64
}

// NewGroupcacheKV 创建 Groupcache KV 实例.
func NewGroupcacheKV(_ context.Context, cfg *configs.KVConfig) (KVStore, error) {
	gc := cfg.Groupcache

	kv := &GroupcacheKV{
		data: make(map[string][]byte),
		vers: make(map[string]uint64),
	}

	name := gc.Name
	if groupcache.GetGroup(name) != nil {
		name = fmt.Sprintf("%s-%d", name, groupSeq.Add(1))
	}

	kv.group = groupcache.NewGroup(name, gc.CacheBytes, groupcache.GetterFunc(kv.load))

	if len(gc.Peers) > 0 {
		if gc.Self == "" {
			return nil, fmt.Errorf("groupcache: self is required when peers are configured")
		}

		pool := groupcache.NewHTTPPoolOpts(gc.Self, &groupcache.HTTPPoolOptions{})
		pool.Set(gc.Peers...)
	}

	return kv, nil
}

// load 是 groupcache 的回源函数，versionedKey 形如 "key@3".
func (g *GroupcacheKV) load(_ context.Context, versionedKey string, dest groupcache.Sink) error {
	idx := strings.LastIndexByte(versionedKey, '@')
	if idx < 0 {
		return ErrKeyNotFound
	}

	key := versionedKey[:idx]

	g.mu.RLock()
	value, ok := g.data[key]
	g.mu.RUnlock()

	if !ok {
		return ErrKeyNotFound
	}

	return dest.SetBytes(value)
}

func (g *GroupcacheKV) versioned(key string) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.data[key]; !ok {
		return "", false
	}

	return key + "@" + strconv.FormatUint(g.vers[key], 10), true
}

// Get 获取键的值.
func (g *GroupcacheKV) Get(ctx context.Context, key string) ([]byte, error) {
	vk, ok := g.versioned(key)
	if !ok {
		return nil, ErrKeyNotFound
	}

	var raw []byte
	if err := g.group.Get(ctx, vk, groupcache.AllocatingByteSliceSink(&raw)); err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}

	val, expired, err := decodeWithTTL(raw, time.Now())
	if err != nil {
		return nil, err
	}

	if expired {
		_ = g.Delete(ctx, key)

		return nil, ErrKeyNotFound
	}

	return val, nil
}

// Set 设置键的值.
func (g *GroupcacheKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, err := encodeWithTTL(value, ttl, time.Now())
	if err != nil {
		return err
	}

	stored := make([]byte, len(encoded))
	copy(stored, encoded)

	g.mu.Lock()
	g.data[key] = stored
	g.vers[key]++
	g.mu.Unlock()

	return nil
}

// Delete 删除键.
func (g *GroupcacheKV) Delete(_ context.Context, key string) error {
	g.mu.Lock()
	delete(g.data, key)
	g.vers[key]++
	g.mu.Unlock()

	return nil
}

// Exists 检查键是否存在.
func (g *GroupcacheKV) Exists(ctx context.Context, key string) (bool, error) {
	_, err := g.Get(ctx, key)
	if err == ErrKeyNotFound {
		return false, nil
	}

	return err == nil, err
}

// Keys 获取匹配的键.
func (g *GroupcacheKV) Keys(_ context.Context, pattern string) ([]string, error) {
	now := time.Now()

	g.mu.RLock()
	defer g.mu.RUnlock()

	keys := make([]string, 0, len(g.data))

	for key, raw := range g.data {
		if !matchKey(pattern, key) {
			continue
		}

		if _, expired, _ := decodeWithTTL(raw, now); expired {
			continue
		}

		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys, nil
}

// Close Groupcache 没有显式的关闭方法.
func (g *GroupcacheKV) Close() error {
	return nil
}

func init() {
	RegisterKVFactory(configs.KVTypeGroupcache, NewGroupcacheKV)
}
