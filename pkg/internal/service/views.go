package service

import (
	"gorm.io/gorm"

	"github.com/yeisme/dataroom/pkg/internal/model"
	"github.com/yeisme/dataroom/pkg/internal/types"
)

// childRefs 查询某位置下的直接子项，folderID 为 nil 时取数据室根目录.
func childRefs(tx *gorm.DB, dataRoomID uint, folderID *uint) (folders, files []types.ItemRef, err error) {
	folders, err = refsOf(tx, &model.Folder{}, dataRoomID, folderID)
	if err != nil {
		return nil, nil, err
	}

	files, err = refsOf(tx, &model.File{}, dataRoomID, folderID)
	if err != nil {
		return nil, nil, err
	}

	return folders, files, nil
}

func refsOf(tx *gorm.DB, m any, dataRoomID uint, folderID *uint) ([]types.ItemRef, error) {
	q := tx.Model(m).Select("id", "name").Order("id")
	if folderID == nil {
		q = q.Where("parent_data_room_id = ? AND parent_folder_id IS NULL", dataRoomID)
	} else {
		q = q.Where("parent_folder_id = ?", *folderID)
	}

	refs := make([]types.ItemRef, 0)
	if err := q.Scan(&refs).Error; err != nil {
		return nil, err
	}

	return refs, nil
}

func fileView(f *model.File) types.FileView {
	return types.FileView{
		ID:               f.ID,
		Name:             f.Name,
		ParentDataRoomID: f.ParentDataRoomID,
		ParentFolderID:   f.ParentFolderID,
		OwnerID:          f.OwnerID,
		Size:             f.Size,
		ContentType:      f.ContentType,
		CreatedAt:        f.CreatedAt,
		UpdatedAt:        f.UpdatedAt,
	}
}

func userView(u *model.User) types.UserView {
	return types.UserView{ID: u.ID, Username: u.Username, Email: u.Email}
}
