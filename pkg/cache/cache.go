// Package cache 提供基于键值存储的泛型缓存实现.
//
// 值使用 sonic 编码为 JSON，TTL 交给底层 KV 处理.
//
// 基本用法:
//
//	c := cache.NewCache(kvStore, "dr:view")
//	err := cache.Set(ctx, c, "room:1", view, time.Minute)
//	view, err := cache.Get[types.DataRoomView](ctx, c, "room:1")
//
// 读视图通过 Scope 按所有者隔离：
//
//	s := c.Scope("owner:7", 30*time.Second)
//	view, err := cache.Remember(ctx, s, func() (types.DataRoomView, error) { ... }, "room", "1")
//	_ = s.Bump(ctx) // 任何写操作之后调用，旧视图全部失效
//
// nil *Cache 是合法的，此时 GetOrSet 与 Remember 直接调用 getter.
package cache

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cespare/xxhash/v2"
	"github.com/oklog/ulid"
	"golang.org/x/sync/singleflight"

	"github.com/yeisme/dataroom/pkg/internal/storage/kv"
)

// ErrMiss 缓存未命中.
var ErrMiss = kv.ErrKeyNotFound

// Cache 基于KV存储的缓存实现.
type Cache struct {
	kvStore kv.KVStore
	prefix  string
	group   singleflight.Group
}

// NewCache 创建一个新的缓存实例，所有键都带有 prefix 前缀.
func NewCache(kvStore kv.KVStore, prefix string) *Cache {
	return &Cache{kvStore: kvStore, prefix: prefix}
}

func (c *Cache) key(k string) string {
	if c.prefix == "" {
		return k
	}

	return c.prefix + ":" + k
}

// Get 泛型获取缓存值，未命中时返回 ErrMiss.
func Get[T any](ctx context.Context, c *Cache, key string) (T, error) {
	var zero T

	if c == nil {
		return zero, ErrMiss
	}

	data, err := c.kvStore.Get(ctx, c.key(key))
	if err != nil {
		return zero, err
	}

	var value T
	if err := sonic.Unmarshal(data, &value); err != nil {
		return zero, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	return value, nil
}

// Set 泛型设置缓存值.
func Set[T any](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) error {
	if c == nil {
		return nil
	}

	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return c.kvStore.Set(ctx, c.key(key), data, ttl)
}

// Delete 删除缓存键.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if c == nil {
		return nil
	}

	return c.kvStore.Delete(ctx, c.key(key))
}

// Exists 检查缓存键是否存在.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	if c == nil {
		return false, nil
	}

	return c.kvStore.Exists(ctx, c.key(key))
}

// GetOrSet 获取缓存值，未命中时调用 getter 并回写.
// 同一进程内对同一个键的并发未命中只会调用一次 getter；写缓存失败不影响返回值.
func GetOrSet[T any](ctx context.Context, c *Cache, key string, getter func() (T, error), ttl time.Duration) (T, error) {
	if c == nil {
		return getter()
	}

	if value, err := Get[T](ctx, c, key); err == nil {
		return value, nil
	}

	v, err, _ := c.group.Do(c.key(key), func() (any, error) {
		value, err := getter()
		if err != nil {
			return value, err
		}

		_ = Set(ctx, c, key, value, ttl)

		return value, nil
	})
	if err != nil {
		var zero T

		return zero, err
	}

	value, ok := v.(T)
	if !ok {
		var zero T

		return zero, errors.New("cache: unexpected value type from singleflight")
	}

	return value, nil
}

// Clear 删除当前前缀下的全部键.
func (c *Cache) Clear(ctx context.Context) error {
	if c == nil {
		return nil
	}

	keys, err := c.kvStore.Keys(ctx, c.key("*"))
	if err != nil {
		return err
	}

	for _, key := range keys {
		if delErr := c.kvStore.Delete(ctx, key); delErr != nil {
			return delErr
		}
	}

	return nil
}

// Scope 一组共享失效时机的缓存键，例如某个用户可见的全部读视图.
type Scope struct {
	c    *Cache
	name string
	ttl  time.Duration
}

// Scope 创建命名空间，name 通常形如 "owner:7".
func (c *Cache) Scope(name string, ttl time.Duration) *Scope {
	if c == nil {
		return nil
	}

	return &Scope{c: c, name: name, ttl: ttl}
}

func (s *Scope) genKey() string {
	return s.name + ":gen"
}

// generation 返回当前代号；从未 Bump 过时为 "0".
func (s *Scope) generation(ctx context.Context) string {
	raw, err := s.c.kvStore.Get(ctx, s.c.key(s.genKey()))
	if err != nil || len(raw) == 0 {
		return "0"
	}

	return string(raw)
}

// Bump 使该命名空间下已缓存的视图全部失效.
// 代号是新的 ULID 而不是自增计数，并发 Bump 不会相互覆盖成同一个值.
func (s *Scope) Bump(ctx context.Context) error {
	if s == nil {
		return nil
	}

	gen := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()

	return s.c.kvStore.Set(ctx, s.c.key(s.genKey()), []byte(gen), 0)
}

// Key 由当前代号与 parts 的 xxhash 组成缓存键.
func (s *Scope) Key(ctx context.Context, parts ...string) string {
	sum := xxhash.Sum64String(strings.Join(parts, "\x00"))

	return s.name + ":" + s.generation(ctx) + ":" + strconv.FormatUint(sum, 16)
}

// Remember 在命名空间内按 parts 缓存 getter 的结果.
func Remember[T any](ctx context.Context, s *Scope, getter func() (T, error), parts ...string) (T, error) {
	if s == nil {
		return getter()
	}

	return GetOrSet(ctx, s.c, s.Key(ctx, parts...), getter, s.ttl)
}
