package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeisme/dataroom/pkg/internal/model"
	"github.com/yeisme/dataroom/pkg/internal/storage/blob"
)

// 行锁强度. 写入子项时对父行加共享锁，级联删除时加排他锁，
// 二者互斥保证提交后不会出现挂在已删除父级下的文件或文件夹.
const (
	lockShare  = "SHARE"
	lockUpdate = "UPDATE"
)

// lockRows 为后续读取附加 SELECT ... FOR <strength>. SQLite 没有行锁，写事务本身已串行化.
func lockRows(tx *gorm.DB, strength string) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}

	return tx.Clauses(clause.Locking{Strength: strength})
}

// placement 目标位置，FolderID 为 nil 表示数据室根目录.
type placement struct {
	DataRoomID uint
	FolderID   *uint
}

// loadDataRoom 读取数据室并校验归属.
func loadDataRoom(tx *gorm.DB, owner, id uint) (*model.DataRoom, error) {
	var dr model.DataRoom
	if err := tx.First(&dr, id).Error; err != nil {
		return nil, mapNotFound(err, "data room")
	}

	if dr.OwnerID != owner {
		return nil, ErrUnauthorized
	}

	return &dr, nil
}

// loadFolder 读取文件夹并校验归属.
func loadFolder(tx *gorm.DB, owner, id uint) (*model.Folder, error) {
	var f model.Folder
	if err := tx.First(&f, id).Error; err != nil {
		return nil, mapNotFound(err, "folder")
	}

	if f.OwnerID != owner {
		return nil, ErrUnauthorized
	}

	return &f, nil
}

// resolvePlacement 校验目标数据室与目标文件夹：二者都必须属于 owner，且文件夹位于该数据室内.
func resolvePlacement(tx *gorm.DB, owner uint, p placement) error {
	if _, err := loadDataRoom(lockRows(tx, lockShare), owner, p.DataRoomID); err != nil {
		return err
	}

	if p.FolderID == nil {
		return nil
	}

	parent, err := loadFolder(lockRows(tx, lockShare), owner, *p.FolderID)
	if err != nil {
		return err
	}

	if parent.ParentDataRoomID != p.DataRoomID {
		return ErrInvalidParent
	}

	return nil
}

// ensureNotDescendant 从 target 向上遍历祖先，遇到 folderID 即说明移动会成环.
func ensureNotDescendant(tx *gorm.DB, folderID, target uint) error {
	current := target
	// 祖先链长度不会超过文件夹总数，visited 防止脏数据导致死循环
	visited := map[uint]struct{}{}

	for {
		if current == folderID {
			return ErrCycle
		}

		if _, seen := visited[current]; seen {
			return fmt.Errorf("folder %d: %w", current, ErrCycle)
		}

		visited[current] = struct{}{}

		var f model.Folder
		if err := tx.Select("id", "parent_folder_id").First(&f, current).Error; err != nil {
			return mapNotFound(err, "folder")
		}

		if f.ParentFolderID == nil {
			return nil
		}

		current = *f.ParentFolderID
	}
}

// collectSubtree 按层广度优先收集以 root 为根的全部文件夹 ID（包含 root）.
func collectSubtree(tx *gorm.DB, root uint) ([]uint, error) {
	all := []uint{root}
	frontier := []uint{root}

	for len(frontier) > 0 {
		var next []uint
		if err := lockRows(tx, lockUpdate).Model(&model.Folder{}).
			Where("parent_folder_id IN ?", frontier).
			Pluck("id", &next).Error; err != nil {
			return nil, fmt.Errorf("collect subtree: %w", err)
		}

		all = append(all, next...)
		frontier = next
	}

	return all, nil
}

// deleteFilesWhere 删除匹配的文件行并返回它们的内容键.
func deleteFilesWhere(tx *gorm.DB, query any, args ...any) ([]string, error) {
	var keys []string
	if err := tx.Model(&model.File{}).Where(query, args...).Pluck("content_key", &keys).Error; err != nil {
		return nil, fmt.Errorf("list file contents: %w", err)
	}

	if len(keys) == 0 {
		return nil, nil
	}

	if err := tx.Where(query, args...).Delete(&model.File{}).Error; err != nil {
		return nil, fmt.Errorf("delete files: %w", err)
	}

	return keys, nil
}

// cascadeResult 级联删除统计.
type cascadeResult struct {
	Folders int
	Files   int
	Keys    []string
}

// deleteFolderTree 在事务中删除 root 及其全部子孙.
func deleteFolderTree(tx *gorm.DB, root uint) (cascadeResult, error) {
	ids, err := collectSubtree(tx, root)
	if err != nil {
		return cascadeResult{}, err
	}

	keys, err := deleteFilesWhere(tx, "parent_folder_id IN ?", ids)
	if err != nil {
		return cascadeResult{}, err
	}

	if err := tx.Where("id IN ?", ids).Delete(&model.Folder{}).Error; err != nil {
		return cascadeResult{}, fmt.Errorf("delete folders: %w", err)
	}

	return cascadeResult{Folders: len(ids), Files: len(keys), Keys: keys}, nil
}

// deleteDataRoomContents 在事务中删除数据室内的全部文件夹与文件.
func deleteDataRoomContents(tx *gorm.DB, dataRoomID uint) (cascadeResult, error) {
	keys, err := deleteFilesWhere(tx, "parent_data_room_id = ?", dataRoomID)
	if err != nil {
		return cascadeResult{}, err
	}

	res := tx.Where("parent_data_room_id = ?", dataRoomID).Delete(&model.Folder{})
	if res.Error != nil {
		return cascadeResult{}, fmt.Errorf("delete folders: %w", res.Error)
	}

	return cascadeResult{Folders: int(res.RowsAffected), Files: len(keys), Keys: keys}, nil
}

// deleteBlobs 并发删除内容，已不存在的键不算错误. 单个失败不会中断其余删除.
func deleteBlobs(ctx context.Context, store blob.Store, keys []string, limit int) error {
	var g errgroup.Group

	g.SetLimit(limit)

	for _, key := range keys {
		g.Go(func() error {
			if err := store.Delete(ctx, key); err != nil {
				return fmt.Errorf("delete blob %s: %w", key, err)
			}

			return nil
		})
	}

	return g.Wait()
}
