package jobs

import (
	"context"
	"errors"

	"github.com/yeisme/dataroom/pkg/internal/service"
	"github.com/yeisme/dataroom/pkg/internal/storage"
	"github.com/yeisme/dataroom/pkg/metrics"
)

// RefreshStats 把全局存量写入 Inventory gauge.
func RefreshStats(ctx context.Context, mgr *storage.Manager) error {
	db := mgr.GetDBClient()
	if db == nil {
		return errors.New("db not initialized")
	}

	t, err := service.CountTotals(ctx, db.DB)
	if err != nil {
		return err
	}

	metrics.Inventory.WithLabelValues("users").Set(float64(t.Users))
	metrics.Inventory.WithLabelValues("data_rooms").Set(float64(t.DataRooms))
	metrics.Inventory.WithLabelValues("folders").Set(float64(t.Folders))
	metrics.Inventory.WithLabelValues("files").Set(float64(t.Files))
	metrics.Inventory.WithLabelValues("bytes").Set(float64(t.Bytes))

	return nil
}
