package kv_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yeisme/dataroom/pkg/configs"
	"github.com/yeisme/dataroom/pkg/internal/storage/kv"
)

func newStore(t testing.TB, kind configs.KVType) kv.KVStore {
	t.Helper()

	cfg := configs.Default().KV
	cfg.Type = kind

	store, err := kv.NewKVStore(context.Background(), &cfg)
	if err != nil {
		t.Fatalf("create %s kv: %v", kind, err)
	}

	t.Cleanup(func() { _ = store.Close() })

	return store
}

// TestStoreContract 内存与 groupcache 实现共享同一组行为约定.
func TestStoreContract(t *testing.T) {
	for _, kind := range []configs.KVType{configs.KVTypeMemory, configs.KVTypeGroupcache} {
		t.Run(string(kind), func(t *testing.T) {
			ctx := context.Background()
			store := newStore(t, kind)

			if _, err := store.Get(ctx, "missing"); !errors.Is(err, kv.ErrKeyNotFound) {
				t.Fatalf("Get missing: want ErrKeyNotFound, got %v", err)
			}

			if err := store.Set(ctx, "dr:view:1:a", []byte("v1"), 0); err != nil {
				t.Fatalf("Set: %v", err)
			}

			// 覆盖写之后必须读到新值
			if err := store.Set(ctx, "dr:view:1:a", []byte("v2"), 0); err != nil {
				t.Fatalf("Set: %v", err)
			}

			got, err := store.Get(ctx, "dr:view:1:a")
			if err != nil || string(got) != "v2" {
				t.Fatalf("Get after overwrite = %q, %v; want v2", got, err)
			}

			_ = store.Set(ctx, "dr:view:2:b", []byte("x"), 0)

			keys, err := store.Keys(ctx, "dr:view:1:*")
			if err != nil {
				t.Fatalf("Keys: %v", err)
			}

			if len(keys) != 1 || keys[0] != "dr:view:1:a" {
				t.Fatalf("Keys = %v", keys)
			}

			if err := store.Delete(ctx, "dr:view:1:a"); err != nil {
				t.Fatalf("Delete: %v", err)
			}

			if ok, _ := store.Exists(ctx, "dr:view:1:a"); ok {
				t.Fatal("key still exists after Delete")
			}

			// 删除不存在的键不是错误
			if err := store.Delete(ctx, "never-set"); err != nil {
				t.Fatalf("Delete missing: %v", err)
			}
		})
	}
}

func TestStoreTTL(t *testing.T) {
	for _, kind := range []configs.KVType{configs.KVTypeMemory, configs.KVTypeGroupcache} {
		t.Run(string(kind), func(t *testing.T) {
			ctx := context.Background()
			store := newStore(t, kind)

			if err := store.Set(ctx, "short", []byte("x"), 30*time.Millisecond); err != nil {
				t.Fatalf("Set: %v", err)
			}

			if ok, _ := store.Exists(ctx, "short"); !ok {
				t.Fatal("key should exist before expiry")
			}

			time.Sleep(60 * time.Millisecond)

			if _, err := store.Get(ctx, "short"); !errors.Is(err, kv.ErrKeyNotFound) {
				t.Fatalf("Get after expiry: want ErrKeyNotFound, got %v", err)
			}
		})
	}
}

func TestClientPing(t *testing.T) {
	cfg := configs.Default().KV

	c, err := kv.NewClient(context.Background(), &cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()

	if c.Type() != configs.KVTypeMemory {
		t.Errorf("default type = %s, want memory", c.Type())
	}

	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestUnsupportedType(t *testing.T) {
	cfg := configs.KVConfig{Type: "etcd"}
	if _, err := kv.NewKVStore(context.Background(), &cfg); err == nil {
		t.Fatal("expected error for unsupported type")
	}
}

func BenchmarkMemoryKV(b *testing.B) {
	benchKVParallel(b, "memory", newStore(b, configs.KVTypeMemory))
}

func BenchmarkGroupcacheKV(b *testing.B) {
	benchKVParallel(b, "groupcache", newStore(b, configs.KVTypeGroupcache))
}

// BenchmarkRedisKV 需要设置 ENABLE_REDIS_BENCH=1，地址取 REDIS_ADDR（默认 127.0.0.1:6379）.
func BenchmarkRedisKV(b *testing.B) {
	if os.Getenv("ENABLE_REDIS_BENCH") == "" {
		b.Skip("set ENABLE_REDIS_BENCH=1 to enable")
	}

	cfg := configs.Default().KV
	cfg.Type = configs.KVTypeRedis

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}

	store, err := kv.NewKVStore(context.Background(), &cfg)
	if err != nil {
		b.Skipf("redis not available: %v", err)
	}
	defer store.Close()

	benchKVParallel(b, "redis", store)
}

// BenchmarkNATSKV 需要设置 ENABLE_NATS_BENCH=1，地址取 NATS_URL.
func BenchmarkNATSKV(b *testing.B) {
	if os.Getenv("ENABLE_NATS_BENCH") == "" {
		b.Skip("set ENABLE_NATS_BENCH=1 to enable")
	}

	cfg := configs.Default().KV
	cfg.Type = configs.KVTypeNATS

	if url := os.Getenv("NATS_URL"); url != "" {
		cfg.NATS.URL = url
	}

	store, err := kv.NewKVStore(context.Background(), &cfg)
	if err != nil {
		b.Skipf("nats not available: %v", err)
	}
	defer store.Close()

	benchKVParallel(b, "nats", store)
}

// benchKVParallel 执行并行的 Set/Get/Delete 基准测试.
func benchKVParallel(b *testing.B, name string, store kv.KVStore) {
	ctx := context.Background()
	payload := make([]byte, 1024)

	var ctr uint64

	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			// 使用连字符，保证键在 NATS KV 中合法
			key := fmt.Sprintf("bench-%s-%d", name, atomic.AddUint64(&ctr, 1))
			if err := store.Set(ctx, key, payload, time.Minute); err != nil {
				b.Fatalf("set failed: %v", err)
			}

			if _, err := store.Get(ctx, key); err != nil {
				b.Fatalf("get failed: %v", err)
			}

			if err := store.Delete(ctx, key); err != nil {
				b.Fatalf("delete failed: %v", err)
			}
		}
	})
}
