package service

import (
	"context"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/yeisme/dataroom/pkg/cache"
	"github.com/yeisme/dataroom/pkg/internal/model"
	"github.com/yeisme/dataroom/pkg/internal/types"
	"github.com/yeisme/dataroom/pkg/queue"
	"github.com/yeisme/dataroom/pkg/rule"
)

// FolderService 文件夹的创建、移动与级联删除.
type FolderService struct{ base }

// NewFolderService 从 context 获取依赖实例.
func NewFolderService(c context.Context) *FolderService {
	return &FolderService{newBase(c)}
}

// Get 返回文件夹及其直接子项.
func (s *FolderService) Get(ctx context.Context, owner, id uint) (*types.FolderView, error) {
	v, err := cache.Remember(ctx, s.scope(owner), func() (types.FolderView, error) {
		db := s.db.WithContext(ctx)

		f, err := loadFolder(db, owner, id)
		if err != nil {
			return types.FolderView{}, err
		}

		return folderView(db, f)
	}, "folder", strconv.FormatUint(uint64(id), 10))
	if err != nil {
		return nil, err
	}

	return &v, nil
}

// Create 在数据室根目录或某个文件夹下创建文件夹.
func (s *FolderService) Create(ctx context.Context, owner uint, req *types.CreateFolderRequest) (*types.FolderView, error) {
	if !rule.ValidName(req.Name) {
		return nil, ErrInvalidName
	}

	f := model.Folder{
		Name:             req.Name,
		OwnerID:          owner,
		ParentDataRoomID: req.ParentDataRoomID,
		ParentFolderID:   req.ParentFolderID,
	}

	var view types.FolderView

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := resolvePlacement(tx, owner, placement{req.ParentDataRoomID, req.ParentFolderID}); err != nil {
			return err
		}

		if err := createOrConflict(tx, &f); err != nil {
			return err
		}

		var err error
		view, err = folderView(tx, &f)

		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, owner)
	emit(ctx, &s.base, queue.TopicFolderCreated, owner, queue.FolderPayload{
		FolderID: f.ID, Name: f.Name, OwnerID: owner,
		At: queue.Placement{DataRoomID: f.ParentDataRoomID, FolderID: f.ParentFolderID},
	})

	return &view, nil
}

// Move 重命名并移动文件夹. 目标可以是另一个属于 owner 的数据室，
// 此时整棵子树的 parent_data_room_id 一并改写.
func (s *FolderService) Move(ctx context.Context, owner, id uint, req *types.MoveFolderRequest) (*types.FolderView, error) {
	if !rule.ValidName(req.Name) {
		return nil, ErrInvalidName
	}

	target := placement{req.ParentDataRoomID, req.ParentFolderID}

	var (
		view types.FolderView
		from queue.Placement
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		f, err := loadFolder(tx, owner, id)
		if err != nil {
			return err
		}

		from = queue.Placement{DataRoomID: f.ParentDataRoomID, FolderID: f.ParentFolderID}

		if err := resolvePlacement(tx, owner, target); err != nil {
			return err
		}

		if target.FolderID != nil {
			if err := ensureNotDescendant(tx, f.ID, *target.FolderID); err != nil {
				return err
			}
		}

		if target.DataRoomID != f.ParentDataRoomID {
			if err := reassignDataRoom(tx, f.ID, target.DataRoomID); err != nil {
				return err
			}
		}

		// Select 保证 parent_folder_id 为 nil 时也会写入 NULL
		if err := tx.Model(f).Select("name", "parent_data_room_id", "parent_folder_id").Updates(model.Folder{
			Name:             req.Name,
			ParentDataRoomID: target.DataRoomID,
			ParentFolderID:   target.FolderID,
		}).Error; err != nil {
			return fmt.Errorf("move folder: %w", err)
		}

		f.Name, f.ParentDataRoomID, f.ParentFolderID = req.Name, target.DataRoomID, target.FolderID

		view, err = folderView(tx, f)

		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, owner)
	emit(ctx, &s.base, queue.TopicFolderMoved, owner, queue.FolderPayload{
		FolderID: id, Name: view.Name, OwnerID: owner,
		At:   queue.Placement{DataRoomID: view.ParentDataRoomID, FolderID: view.ParentFolderID},
		From: &from,
	})

	return &view, nil
}

// Delete 删除文件夹及其全部子孙.
func (s *FolderService) Delete(ctx context.Context, owner, id uint) error {
	var (
		f   *model.Folder
		res cascadeResult
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if f, err = loadFolder(lockRows(tx, lockUpdate), owner, id); err != nil {
			return err
		}

		res, err = deleteFolderTree(tx, id)

		return err
	})
	if err != nil {
		return err
	}

	s.removeBlobs(ctx, res.Keys)
	s.invalidate(ctx, owner)
	emit(ctx, &s.base, queue.TopicFolderDeleted, owner, queue.FolderPayload{
		FolderID: id, Name: f.Name, OwnerID: owner,
		At:             queue.Placement{DataRoomID: f.ParentDataRoomID, FolderID: f.ParentFolderID},
		DeletedFolders: res.Folders, DeletedFiles: res.Files,
	})

	return nil
}

// reassignDataRoom 把 root 子树中的文件夹与文件改挂到另一个数据室.
func reassignDataRoom(tx *gorm.DB, root, dataRoomID uint) error {
	ids, err := collectSubtree(tx, root)
	if err != nil {
		return err
	}

	if err := tx.Model(&model.Folder{}).Where("id IN ?", ids).
		Update("parent_data_room_id", dataRoomID).Error; err != nil {
		return fmt.Errorf("reassign folders: %w", err)
	}

	if err := tx.Model(&model.File{}).Where("parent_folder_id IN ?", ids).
		Update("parent_data_room_id", dataRoomID).Error; err != nil {
		return fmt.Errorf("reassign files: %w", err)
	}

	return nil
}

func folderView(tx *gorm.DB, f *model.Folder) (types.FolderView, error) {
	id := f.ID

	folders, files, err := childRefs(tx, f.ParentDataRoomID, &id)
	if err != nil {
		return types.FolderView{}, fmt.Errorf("load folder children: %w", err)
	}

	return types.FolderView{
		ID:               f.ID,
		Name:             f.Name,
		ParentDataRoomID: f.ParentDataRoomID,
		ParentFolderID:   f.ParentFolderID,
		OwnerID:          f.OwnerID,
		ChildrenFolders:  folders,
		ChildrenFiles:    files,
	}, nil
}
