package jobs_test

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yeisme/dataroom/pkg/internal/jobs"
	"github.com/yeisme/dataroom/pkg/internal/service"
	"github.com/yeisme/dataroom/pkg/internal/storage/storagetest"
	"github.com/yeisme/dataroom/pkg/internal/types"
	"github.com/yeisme/dataroom/pkg/metrics"
)

func TestSweepOrphansKeepsReferencedContent(t *testing.T) {
	ctx, mgr := storagetest.New(t, storagetest.Config(t))

	room, err := service.NewDataRoomService(ctx).Create(ctx, 1, &types.CreateDataRoomRequest{Name: "Deals"})
	if err != nil {
		t.Fatal(err)
	}

	kept, err := service.NewFileService(ctx).Upload(ctx, 1, &service.UploadInput{
		FileName:         "kept.txt",
		ParentDataRoomID: room.ID,
		ContentType:      "text/plain",
		Size:             4,
		Content:          strings.NewReader("kept"),
	})
	if err != nil {
		t.Fatal(err)
	}

	blobs := mgr.GetBlobStore()

	const orphan = "user-1/data-room-1/folder-root/orphan.txt"
	if err := blobs.Put(ctx, orphan, strings.NewReader("lost"), 4, "text/plain"); err != nil {
		t.Fatal(err)
	}

	// 在 grace 内不会删除
	n, err := jobs.SweepOrphans(ctx, mgr, time.Hour)
	if err != nil || n != 0 {
		t.Fatalf("sweep within grace = %d, %v", n, err)
	}

	n, err = jobs.SweepOrphans(ctx, mgr, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	if n != 1 {
		t.Fatalf("deleted = %d, want 1", n)
	}

	objs, err := blobs.List(ctx, "user-")
	if err != nil {
		t.Fatal(err)
	}

	if len(objs) != 1 || !strings.HasSuffix(objs[0].Key, "-kept.txt") {
		t.Fatalf("remaining objects = %+v, file = %d", objs, kept.ID)
	}
}

func TestRefreshStats(t *testing.T) {
	ctx, mgr := storagetest.New(t, storagetest.Config(t))

	rooms := service.NewDataRoomService(ctx)
	for _, name := range []string{"A", "B"} {
		if _, err := rooms.Create(ctx, 1, &types.CreateDataRoomRequest{Name: name}); err != nil {
			t.Fatal(err)
		}
	}

	if err := jobs.RefreshStats(ctx, mgr); err != nil {
		t.Fatal(err)
	}

	if got := testutil.ToFloat64(metrics.Inventory.WithLabelValues("data_rooms")); got != 2 {
		t.Fatalf("data_rooms gauge = %v, want 2", got)
	}

	if got := testutil.ToFloat64(metrics.Inventory.WithLabelValues("files")); got != 0 {
		t.Fatalf("files gauge = %v, want 0", got)
	}
}
