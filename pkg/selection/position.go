package selection

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/yeisme/dataroom/pkg/client"
)

// Position 可持久化的游标位置，只保存 id.
type Position struct {
	DataRoomID uint `yaml:"data_room_id,omitempty" json:"data_room_id,omitempty"`
	FolderID   uint `yaml:"folder_id,omitempty"    json:"folder_id,omitempty"`
	FileID     uint `yaml:"file_id,omitempty"      json:"file_id,omitempty"`
}

// IsZero 未选择任何对象.
func (p Position) IsZero() bool { return p.DataRoomID == 0 }

// Position 返回当前位置.
func (c *Cursor) Position() Position {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p := Position{DataRoomID: idOf(c.room), FolderID: folderIDOf(c.folder)}
	if c.file != nil {
		p.FileID = c.file.ID
	}

	return p
}

// Restore 按 pos 重新获取对象并恢复游标. 任一对象取不到时停在最后一个可用的层级并返回 ErrNotFound.
func (c *Cursor) Restore(ctx context.Context, pos Position) error {
	gen := c.Generation()

	if pos.IsZero() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if gen != c.gen {
			return ErrStale
		}

		c.set(nil, nil, nil)

		return nil
	}

	var (
		room   = c.rooms.Get(ctx, pos.DataRoomID)
		folder *client.Folder
		file   *client.ItemRef
		err    error
	)

	switch {
	case room == nil:
		err = fmt.Errorf("data room %d: %w", pos.DataRoomID, ErrNotFound)
	case pos.FolderID != 0:
		folder = c.folders.Get(ctx, pos.FolderID)
		if folder == nil || folder.ParentDataRoomID != room.ID {
			folder = nil
			err = fmt.Errorf("folder %d: %w", pos.FolderID, ErrNotFound)
		}
	}

	if err == nil && pos.FileID != 0 {
		if file = findRef(fileChildren(room, folder), pos.FileID); file == nil {
			err = fmt.Errorf("file %d: %w", pos.FileID, ErrNotFound)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return ErrStale
	}

	c.set(room, folder, file)

	return err
}

func findRef(refs []client.ItemRef, id uint) *client.ItemRef {
	for i := range refs {
		if refs[i].ID == id {
			r := refs[i]
			return &r
		}
	}

	return nil
}

// SavePosition 把 pos 以 YAML 写入 path，必要时创建目录.
func SavePosition(path string, pos Position) error {
	b, err := yaml.Marshal(pos)
	if err != nil {
		return fmt.Errorf("encode position: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	return os.WriteFile(path, b, 0o600)
}

// LoadPosition 读取 SavePosition 写入的位置，文件不存在时返回零值.
func LoadPosition(path string) (Position, error) {
	var pos Position

	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return pos, nil
	}

	if err != nil {
		return pos, fmt.Errorf("read position: %w", err)
	}

	if err := yaml.Unmarshal(b, &pos); err != nil {
		return pos, fmt.Errorf("decode position %s: %w", path, err)
	}

	return pos, nil
}
