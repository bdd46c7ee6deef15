package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"gorm.io/gorm"

	"github.com/yeisme/dataroom/pkg/internal/model"
	"github.com/yeisme/dataroom/pkg/internal/types"
	"github.com/yeisme/dataroom/pkg/queue"
	"github.com/yeisme/dataroom/pkg/rule"
	nlog "github.com/yeisme/dataroom/pkg/log"
)

// FileService 文件内容的上传下载与元数据维护.
type FileService struct{ base }

// NewFileService 从 context 获取依赖实例.
func NewFileService(c context.Context) *FileService {
	return &FileService{newBase(c)}
}

// UploadInput 一次上传的内容与目标位置.
type UploadInput struct {
	Name             string
	ParentDataRoomID uint
	ParentFolderID   *uint
	// FileName 客户端提供的原始文件名，Name 为空时作为名称
	FileName    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// Download 打开的文件内容，调用方负责关闭 Content.
type Download struct {
	File    types.FileView
	Content io.ReadCloser
}

// Stat 返回文件元数据.
func (s *FileService) Stat(ctx context.Context, owner, id uint) (*types.FileView, error) {
	f, err := loadFile(s.db.WithContext(ctx), owner, id)
	if err != nil {
		return nil, err
	}

	v := fileView(f)

	return &v, nil
}

// Open 打开文件内容.
func (s *FileService) Open(ctx context.Context, owner, id uint) (*Download, error) {
	f, err := loadFile(s.db.WithContext(ctx), owner, id)
	if err != nil {
		return nil, err
	}

	rc, obj, err := s.blobs.Open(ctx, f.ContentKey)
	if err != nil {
		return nil, fmt.Errorf("open content of file %d: %w", id, mapBlobErr(err))
	}

	v := fileView(f)
	if v.ContentType == "" {
		v.ContentType = obj.ContentType
	}

	return &Download{File: v, Content: rc}, nil
}

// Upload 先写入内容再登记元数据，登记失败时回收已写入的内容.
func (s *FileService) Upload(ctx context.Context, owner uint, in *UploadInput) (*types.FileView, error) {
	name := in.Name
	if name == "" {
		name = path.Base(strings.ReplaceAll(in.FileName, "\\", "/"))
	}

	if !rule.ValidName(name) {
		return nil, ErrInvalidName
	}

	target := placement{in.ParentDataRoomID, in.ParentFolderID}
	if err := resolvePlacement(s.db.WithContext(ctx), owner, target); err != nil {
		return nil, err
	}

	key := contentKey(owner, target, name)
	if err := s.blobs.Put(ctx, key, in.Content, in.Size, in.ContentType); err != nil {
		return nil, fmt.Errorf("store content: %w", err)
	}

	f := model.File{
		Name:             name,
		OwnerID:          owner,
		ParentDataRoomID: target.DataRoomID,
		ParentFolderID:   target.FolderID,
		ContentKey:       key,
		Size:             in.Size,
		ContentType:      in.ContentType,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 写入内容期间父级可能已被删除
		if err := resolvePlacement(tx, owner, target); err != nil {
			return err
		}

		return createOrConflict(tx, &f)
	})
	if err != nil {
		if delErr := s.blobs.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			nlog.FromContext(ctx).Warn().Err(delErr).Str("key", key).Msg("failed to remove content after failed upload")
		}

		return nil, err
	}

	s.invalidate(ctx, owner)
	emit(ctx, &s.base, queue.TopicFileUploaded, owner, queue.FilePayload{
		FileID: f.ID, Name: f.Name, OwnerID: owner,
		At:         queue.Placement{DataRoomID: f.ParentDataRoomID, FolderID: f.ParentFolderID},
		ContentKey: key, Size: f.Size, ContentType: f.ContentType,
	})

	v := fileView(&f)

	return &v, nil
}

// Move 重命名并移动文件，内容键保持不变.
func (s *FileService) Move(ctx context.Context, owner, id uint, req *types.MoveFileRequest) (*types.FileView, error) {
	if !rule.ValidName(req.Name) {
		return nil, ErrInvalidName
	}

	target := placement{req.ParentDataRoomID, req.ParentFolderID}

	var (
		f    *model.File
		from queue.Placement
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if f, err = loadFile(tx, owner, id); err != nil {
			return err
		}

		from = queue.Placement{DataRoomID: f.ParentDataRoomID, FolderID: f.ParentFolderID}

		if err := resolvePlacement(tx, owner, target); err != nil {
			return err
		}

		if err := tx.Model(f).Select("name", "parent_data_room_id", "parent_folder_id").Updates(model.File{
			Name:             req.Name,
			ParentDataRoomID: target.DataRoomID,
			ParentFolderID:   target.FolderID,
		}).Error; err != nil {
			return fmt.Errorf("move file: %w", err)
		}

		f.Name, f.ParentDataRoomID, f.ParentFolderID = req.Name, target.DataRoomID, target.FolderID

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, owner)
	emit(ctx, &s.base, queue.TopicFileMoved, owner, queue.FilePayload{
		FileID: id, Name: f.Name, OwnerID: owner,
		At:         queue.Placement{DataRoomID: f.ParentDataRoomID, FolderID: f.ParentFolderID},
		From:       &from,
		ContentKey: f.ContentKey,
	})

	v := fileView(f)

	return &v, nil
}

// Delete 删除文件元数据与内容.
func (s *FileService) Delete(ctx context.Context, owner, id uint) error {
	var f *model.File

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if f, err = loadFile(tx, owner, id); err != nil {
			return err
		}

		return tx.Delete(f).Error
	})
	if err != nil {
		return err
	}

	s.removeBlobs(ctx, []string{f.ContentKey})
	s.invalidate(ctx, owner)
	emit(ctx, &s.base, queue.TopicFileDeleted, owner, queue.FilePayload{
		FileID: id, Name: f.Name, OwnerID: owner,
		At:         queue.Placement{DataRoomID: f.ParentDataRoomID, FolderID: f.ParentFolderID},
		ContentKey: f.ContentKey, Size: f.Size,
	})

	return nil
}

func loadFile(tx *gorm.DB, owner, id uint) (*model.File, error) {
	var f model.File
	if err := tx.First(&f, id).Error; err != nil {
		return nil, mapNotFound(err, "file")
	}

	if f.OwnerID != owner {
		return nil, ErrUnauthorized
	}

	return &f, nil
}
