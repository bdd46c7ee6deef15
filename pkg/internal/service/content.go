package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yeisme/dataroom/pkg/internal/storage/blob"
	"github.com/yeisme/dataroom/pkg/queue"
)

// contentKey 生成内容键：user-{uid}/data-room-{drid}/folder-{fid|root}/{ulid}-{filename}.
// 键只在上传时确定，之后的移动不会改变它.
func contentKey(owner uint, p placement, filename string) string {
	folder := "root"
	if p.FolderID != nil {
		folder = fmt.Sprintf("%d", *p.FolderID)
	}

	return fmt.Sprintf("user-%d/data-room-%d/folder-%s/%s-%s",
		owner, p.DataRoomID, folder, queue.NewID(now()), sanitizeFilename(filename))
}

// sanitizeFilename 去掉会影响键结构的字符.
func sanitizeFilename(name string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", "\x00", "")

	name = strings.TrimSpace(r.Replace(name))
	if name == "" || name == "." || name == ".." {
		return "content"
	}

	return name
}

// mapBlobErr 内容缺失视为文件不存在.
func mapBlobErr(err error) error {
	if errors.Is(err, blob.ErrNotExist) {
		return errors.Join(err, ErrNotFound)
	}

	return err
}
