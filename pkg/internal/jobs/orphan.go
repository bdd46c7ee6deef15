package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yeisme/dataroom/pkg/internal/service"
	"github.com/yeisme/dataroom/pkg/internal/storage"
	"github.com/yeisme/dataroom/pkg/log"
	"github.com/yeisme/dataroom/pkg/metrics"
)

// SweepOrphans 删除没有任何文件行引用、且早于 grace 的内容对象，返回删除数量.
// 上传先写内容再提交行，grace 保护仍在进行中的上传.
func SweepOrphans(ctx context.Context, mgr *storage.Manager, grace time.Duration) (int, error) {
	l := log.FromContext(ctx)

	db := mgr.GetDBClient()
	blobs := mgr.GetBlobStore()

	if db == nil || blobs == nil {
		return 0, errors.New("storage not initialized")
	}

	objects, err := blobs.List(ctx, contentPrefix)
	if err != nil {
		return 0, fmt.Errorf("list content: %w", err)
	}

	cutoff := time.Now().Add(-grace)
	candidates := make([]string, 0, len(objects))

	for _, o := range objects {
		if o.ModTime.Before(cutoff) {
			candidates = append(candidates, o.Key)
		}
	}

	if len(candidates) == 0 {
		return 0, nil
	}

	referenced, err := service.ReferencedKeys(ctx, db.DB, candidates)
	if err != nil {
		return 0, err
	}

	deleted := 0

	for _, key := range candidates {
		if _, ok := referenced[key]; ok {
			continue
		}

		if err := blobs.Delete(ctx, key); err != nil {
			l.Warn().Err(err).Str("key", key).Msg("delete orphan content failed")
			continue
		}

		deleted++
	}

	metrics.OrphanBlobsDeleted.Add(float64(deleted))
	l.Info().Int("scanned", len(objects)).Int("deleted", deleted).Msg("orphan sweep done")

	return deleted, nil
}
