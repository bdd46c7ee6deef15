package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yeisme/dataroom/pkg/internal/model"
	"github.com/yeisme/dataroom/pkg/internal/types"
)

// StatsService 提供基于数据库的存量统计.
type StatsService struct{ base }

// NewStatsService 从 context 获取依赖实例.
func NewStatsService(c context.Context) *StatsService { return &StatsService{newBase(c)} }

// 通用聚合结果行.
type aggRow struct {
	Key uint  `gorm:"column:k"`
	Cnt int64 `gorm:"column:cnt"`
	Sum int64 `gorm:"column:sum"`
}

// Summary 统计 owner 的数据室、文件夹、文件数量与内容总大小，以及按数据室的分布.
func (s *StatsService) Summary(ctx context.Context, owner uint) (*types.StatsResponse, error) {
	db := s.db.WithContext(ctx)

	var rooms []model.DataRoom
	if err := db.Where("owner_id = ?", owner).Order("id").Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("list data rooms: %w", err)
	}

	folderRows, err := aggregate(db, &model.Folder{}, "COUNT(*) AS cnt, 0 AS sum", owner)
	if err != nil {
		return nil, err
	}

	fileRows, err := aggregate(db, &model.File{}, "COUNT(*) AS cnt, COALESCE(SUM(size),0) AS sum", owner)
	if err != nil {
		return nil, err
	}

	resp := &types.StatsResponse{DataRooms: make([]types.StatsDataRoomItem, 0, len(rooms))}
	resp.Summary.DataRooms = int64(len(rooms))

	for _, dr := range rooms {
		item := types.StatsDataRoomItem{DataRoomID: dr.ID, Name: dr.Name}
		item.Folders = folderRows[dr.ID].Cnt
		item.Files = fileRows[dr.ID].Cnt
		item.Size = fileRows[dr.ID].Sum

		resp.Summary.Folders += item.Folders
		resp.Summary.Files += item.Files
		resp.Summary.TotalSize += item.Size
		resp.DataRooms = append(resp.DataRooms, item)
	}

	return resp, nil
}

// aggregate 按 parent_data_room_id 分组聚合 owner 的行.
func aggregate(db *gorm.DB, m any, selectExpr string, owner uint) (map[uint]aggRow, error) {
	var rows []aggRow
	if err := db.Model(m).
		Select("parent_data_room_id AS k, "+selectExpr).
		Where("owner_id = ?", owner).
		Group("parent_data_room_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}

	out := make(map[uint]aggRow, len(rows))
	for _, r := range rows {
		out[r.Key] = r
	}

	return out, nil
}

// Totals 全局存量，供定时任务刷新指标.
type Totals struct {
	Users     int64
	DataRooms int64
	Folders   int64
	Files     int64
	Bytes     int64
}

// CountTotals 统计全部用户的存量.
func CountTotals(ctx context.Context, db *gorm.DB) (Totals, error) {
	var t Totals

	db = db.WithContext(ctx)

	for _, c := range []struct {
		m   any
		dst *int64
	}{
		{&model.User{}, &t.Users},
		{&model.DataRoom{}, &t.DataRooms},
		{&model.Folder{}, &t.Folders},
		{&model.File{}, &t.Files},
	} {
		if err := db.Model(c.m).Count(c.dst).Error; err != nil {
			return Totals{}, fmt.Errorf("count: %w", err)
		}
	}

	if err := db.Model(&model.File{}).Select("COALESCE(SUM(size),0)").Scan(&t.Bytes).Error; err != nil {
		return Totals{}, fmt.Errorf("sum size: %w", err)
	}

	return t, nil
}

// ReferencedKeys 返回 keys 中仍被文件行引用的内容键.
func ReferencedKeys(ctx context.Context, db *gorm.DB, keys []string) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(keys))

	// 分批避免超过 SQL 参数上限
	const batch = 500

	for start := 0; start < len(keys); start += batch {
		end := min(start+batch, len(keys))

		var found []string
		if err := db.WithContext(ctx).Model(&model.File{}).
			Where("content_key IN ?", keys[start:end]).
			Pluck("content_key", &found).Error; err != nil {
			return nil, fmt.Errorf("lookup content keys: %w", err)
		}

		for _, k := range found {
			out[k] = struct{}{}
		}
	}

	return out, nil
}
