package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/yeisme/dataroom/pkg/cache"
	"github.com/yeisme/dataroom/pkg/internal/model"
	"github.com/yeisme/dataroom/pkg/internal/types"
	"github.com/yeisme/dataroom/pkg/queue"
	"github.com/yeisme/dataroom/pkg/rule"
)

// DataRoomService 数据室的增删改查.
type DataRoomService struct{ base }

// NewDataRoomService 从 context 获取依赖实例.
func NewDataRoomService(c context.Context) *DataRoomService {
	return &DataRoomService{newBase(c)}
}

// List 返回 owner 的全部数据室，按 ID 升序，没有时返回空切片.
func (s *DataRoomService) List(ctx context.Context, owner uint) ([]types.DataRoomView, error) {
	return cache.Remember(ctx, s.scope(owner), func() ([]types.DataRoomView, error) {
		db := s.db.WithContext(ctx)

		var rooms []model.DataRoom
		if err := db.Where("owner_id = ?", owner).Order("id").Find(&rooms).Error; err != nil {
			return nil, fmt.Errorf("list data rooms: %w", err)
		}

		out := make([]types.DataRoomView, 0, len(rooms))

		for i := range rooms {
			v, err := dataRoomView(db, &rooms[i])
			if err != nil {
				return nil, err
			}

			out = append(out, v)
		}

		return out, nil
	}, "rooms")
}

// Get 返回数据室及其根目录下的直接子项.
func (s *DataRoomService) Get(ctx context.Context, owner, id uint) (*types.DataRoomView, error) {
	v, err := cache.Remember(ctx, s.scope(owner), func() (types.DataRoomView, error) {
		db := s.db.WithContext(ctx)

		dr, err := loadDataRoom(db, owner, id)
		if err != nil {
			return types.DataRoomView{}, err
		}

		return dataRoomView(db, dr)
	}, "room", strconv.FormatUint(uint64(id), 10))
	if err != nil {
		return nil, err
	}

	return &v, nil
}

// Create 创建数据室，同一用户下名称不可重复.
func (s *DataRoomService) Create(ctx context.Context, owner uint, req *types.CreateDataRoomRequest) (*types.DataRoomView, error) {
	if !rule.ValidName(req.Name) {
		return nil, ErrInvalidName
	}

	dr := model.DataRoom{Name: req.Name, OwnerID: owner}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureRoomNameFree(tx, owner, req.Name, 0); err != nil {
			return err
		}

		return createOrConflict(tx, &dr)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, owner)
	emit(ctx, &s.base, queue.TopicDataRoomCreated, owner, queue.DataRoomPayload{
		DataRoomID: dr.ID, Name: dr.Name, OwnerID: owner,
	})

	return &types.DataRoomView{ID: dr.ID, Name: dr.Name, Folders: []types.ItemRef{}, Files: []types.ItemRef{}}, nil
}

// Rename 重命名数据室.
func (s *DataRoomService) Rename(ctx context.Context, owner, id uint, req *types.RenameDataRoomRequest) (*types.DataRoomView, error) {
	if !rule.ValidName(req.Name) {
		return nil, ErrInvalidName
	}

	var view types.DataRoomView

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dr, err := loadDataRoom(tx, owner, id)
		if err != nil {
			return err
		}

		if dr.Name != req.Name {
			if err := ensureRoomNameFree(tx, owner, req.Name, id); err != nil {
				return err
			}

			if err := tx.Model(dr).Update("name", req.Name).Error; err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("data room %q: %w", req.Name, ErrConflict)
				}

				return fmt.Errorf("rename data room: %w", err)
			}
		}

		view, err = dataRoomView(tx, dr)

		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, owner)
	emit(ctx, &s.base, queue.TopicDataRoomRenamed, owner, queue.DataRoomPayload{
		DataRoomID: id, Name: view.Name, OwnerID: owner,
	})

	return &view, nil
}

// Delete 删除数据室及其全部内容.
func (s *DataRoomService) Delete(ctx context.Context, owner, id uint) error {
	var (
		dr  *model.DataRoom
		res cascadeResult
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if dr, err = loadDataRoom(lockRows(tx, lockUpdate), owner, id); err != nil {
			return err
		}

		if res, err = deleteDataRoomContents(tx, id); err != nil {
			return err
		}

		return tx.Delete(dr).Error
	})
	if err != nil {
		return err
	}

	s.removeBlobs(ctx, res.Keys)
	s.invalidate(ctx, owner)
	emit(ctx, &s.base, queue.TopicDataRoomDeleted, owner, queue.DataRoomPayload{
		DataRoomID: id, Name: dr.Name, OwnerID: owner,
		DeletedFolders: res.Folders, DeletedFiles: res.Files,
	})

	return nil
}

func dataRoomView(tx *gorm.DB, dr *model.DataRoom) (types.DataRoomView, error) {
	folders, files, err := childRefs(tx, dr.ID, nil)
	if err != nil {
		return types.DataRoomView{}, fmt.Errorf("load data room children: %w", err)
	}

	return types.DataRoomView{ID: dr.ID, Name: dr.Name, Folders: folders, Files: files}, nil
}

// ensureRoomNameFree 检查 owner 下是否已有同名数据室，except 为正在重命名的数据室.
func ensureRoomNameFree(tx *gorm.DB, owner uint, name string, except uint) error {
	var n int64
	if err := tx.Model(&model.DataRoom{}).
		Where("owner_id = ? AND name = ? AND id <> ?", owner, name, except).
		Count(&n).Error; err != nil {
		return fmt.Errorf("check data room name: %w", err)
	}

	if n > 0 {
		return fmt.Errorf("data room %q: %w", name, ErrConflict)
	}

	return nil
}

func createOrConflict(tx *gorm.DB, v any) error {
	if err := tx.Create(v).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrConflict
		}

		return fmt.Errorf("create: %w", err)
	}

	return nil
}
