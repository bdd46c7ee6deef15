package blob_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/yeisme/dataroom/pkg/configs"
	"github.com/yeisme/dataroom/pkg/internal/storage/blob"
)

func stores(t *testing.T) map[string]blob.Store {
	t.Helper()

	cfg := configs.Default().Blob
	cfg.Local.Root = t.TempDir()

	disk, err := blob.New(context.Background(), &cfg)
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}

	return map[string]blob.Store{
		"memory": blob.NewMemoryStore(),
		"disk":   disk,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key := "user-1/data-room-2/folder-root/01ABC-report.pdf"

			if err := s.Put(ctx, key, strings.NewReader("%PDF-1.7"), 8, "application/pdf"); err != nil {
				t.Fatalf("Put: %v", err)
			}

			rc, obj, err := s.Open(ctx, key)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}

			data, _ := io.ReadAll(rc)
			_ = rc.Close()

			if string(data) != "%PDF-1.7" || obj.Size != 8 {
				t.Fatalf("Open = %q (size %d)", data, obj.Size)
			}

			if obj.ContentType != "application/pdf" {
				t.Errorf("content type = %q", obj.ContentType)
			}

			_ = s.Put(ctx, "user-2/data-room-9/folder-3/x-notes.txt", strings.NewReader("n"), 1, "")

			objs, err := s.List(ctx, "user-1/")
			if err != nil {
				t.Fatalf("List: %v", err)
			}

			if len(objs) != 1 || objs[0].Key != key {
				t.Fatalf("List(user-1/) = %+v", objs)
			}

			all, _ := s.List(ctx, "")
			if len(all) != 2 {
				t.Fatalf("List(\"\") returned %d objects", len(all))
			}

			if err := s.Delete(ctx, key); err != nil {
				t.Fatalf("Delete: %v", err)
			}

			if _, _, err := s.Open(ctx, key); !errors.Is(err, blob.ErrNotExist) {
				t.Fatalf("Open after delete: want ErrNotExist, got %v", err)
			}

			if err := s.Delete(ctx, key); err != nil {
				t.Fatalf("second Delete: %v", err)
			}

			if err := s.Health(ctx); err != nil {
				t.Fatalf("Health: %v", err)
			}
		})
	}
}

func TestCleanKey(t *testing.T) {
	bad := []string{"", "/abs", "a/../b", "..", ".", `a\b`}
	for _, k := range bad {
		if _, err := blob.CleanKey(k); !errors.Is(err, blob.ErrInvalidKey) {
			t.Errorf("CleanKey(%q) err = %v, want ErrInvalidKey", k, err)
		}
	}

	got, err := blob.CleanKey("a//b/./c")
	if err != nil || got != "a/b/c" {
		t.Errorf("CleanKey = %q, %v", got, err)
	}
}

func TestPutRejectsTraversal(t *testing.T) {
	s := blob.NewMemoryStore()

	err := s.Put(context.Background(), "../escape", strings.NewReader("x"), 1, "")
	if !errors.Is(err, blob.ErrInvalidKey) {
		t.Fatalf("want ErrInvalidKey, got %v", err)
	}
}
