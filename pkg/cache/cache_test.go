package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yeisme/dataroom/pkg/cache"
	"github.com/yeisme/dataroom/pkg/configs"
	"github.com/yeisme/dataroom/pkg/internal/storage/kv"
)

type roomView struct {
	ID    uint     `json:"id"`
	Name  string   `json:"name"`
	Files []string `json:"files"`
}

func newCache(t testing.TB) *cache.Cache {
	t.Helper()

	cfg := configs.Default().KV

	store, err := kv.NewKVStore(context.Background(), &cfg)
	if err != nil {
		t.Fatalf("new kv: %v", err)
	}

	return cache.NewCache(store, "test")
}

func TestGetSet(t *testing.T) {
	ctx := context.Background()
	c := newCache(t)

	if _, err := cache.Get[roomView](ctx, c, "room:1"); !errors.Is(err, cache.ErrMiss) {
		t.Fatalf("want ErrMiss, got %v", err)
	}

	want := roomView{ID: 1, Name: "Deals", Files: []string{"a.pdf"}}
	if err := cache.Set(ctx, c, "room:1", want, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := cache.Get[roomView](ctx, c, "room:1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if got.Name != want.Name || len(got.Files) != 1 {
		t.Fatalf("Get = %+v", got)
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	if ok, _ := c.Exists(ctx, "room:1"); ok {
		t.Fatal("key survived Clear")
	}
}

func TestGetOrSetCollapsesConcurrentMisses(t *testing.T) {
	ctx := context.Background()
	c := newCache(t)

	var calls atomic.Int32

	release := make(chan struct{})
	getter := func() (roomView, error) {
		calls.Add(1)
		<-release

		return roomView{ID: 9}, nil
	}

	var wg sync.WaitGroup

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			v, err := cache.GetOrSet(ctx, c, "hot", getter, time.Minute)
			if err != nil || v.ID != 9 {
				t.Errorf("GetOrSet = %+v, %v", v, err)
			}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Fatalf("getter called %d times, want 1", n)
	}
}

func TestGetOrSetPropagatesError(t *testing.T) {
	c := newCache(t)
	boom := errors.New("boom")

	_, err := cache.GetOrSet(context.Background(), c, "k", func() (int, error) { return 0, boom }, time.Minute)
	if !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}

	if ok, _ := c.Exists(context.Background(), "k"); ok {
		t.Fatal("failed getter result must not be cached")
	}
}

// TestScopeBumpInvalidates Bump 之后读取必须回源.
func TestScopeBumpInvalidates(t *testing.T) {
	ctx := context.Background()
	s := newCache(t).Scope("owner:7", time.Minute)

	name := "Deals"
	var loads int

	load := func() (roomView, error) {
		loads++

		return roomView{ID: 1, Name: name}, nil
	}

	first, _ := cache.Remember(ctx, s, load, "room", "1")
	second, _ := cache.Remember(ctx, s, load, "room", "1")

	if loads != 1 || first.Name != second.Name {
		t.Fatalf("expected a cache hit, loads=%d", loads)
	}

	name = "Closing"
	if err := s.Bump(ctx); err != nil {
		t.Fatalf("Bump: %v", err)
	}

	third, _ := cache.Remember(ctx, s, load, "room", "1")
	if loads != 2 || third.Name != "Closing" {
		t.Fatalf("after Bump got %+v (loads=%d)", third, loads)
	}
}

func TestScopesAreIsolated(t *testing.T) {
	ctx := context.Background()
	c := newCache(t)
	alice := c.Scope("owner:1", time.Minute)
	bob := c.Scope("owner:2", time.Minute)

	if alice.Key(ctx, "rooms") == bob.Key(ctx, "rooms") {
		t.Fatal("scopes share a key")
	}

	before := bob.Key(ctx, "rooms")
	_ = alice.Bump(ctx)

	if bob.Key(ctx, "rooms") != before {
		t.Fatal("bumping one scope changed another")
	}
}

func TestNilCacheCallsGetter(t *testing.T) {
	var c *cache.Cache

	v, err := cache.Remember(context.Background(), c.Scope("x", time.Second), func() (int, error) { return 42, nil }, "a")
	if err != nil || v != 42 {
		t.Fatalf("Remember on nil cache = %d, %v", v, err)
	}
}

func BenchmarkRemember(b *testing.B) {
	ctx := context.Background()
	s := newCache(b).Scope("owner:1", time.Minute)
	view := roomView{ID: 1, Name: "Deals", Files: []string{"a", "b", "c"}}

	b.ReportAllocs()

	for b.Loop() {
		if _, err := cache.Remember(ctx, s, func() (roomView, error) { return view, nil }, "room", "1"); err != nil {
			b.Fatal(err)
		}
	}
}
