// Package selection 维护客户端的导航状态：当前数据室、文件夹与文件.
//
// 每次状态变化都会递增 generation. GoBack、Refresh 与 Restore 在发请求前记下 generation，
// 响应回来时若 generation 已变化则丢弃结果并返回 ErrStale，避免较慢的旧响应覆盖新状态.
package selection

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/yeisme/dataroom/pkg/client"
	"github.com/yeisme/dataroom/pkg/log"
)

var (
	// ErrStale 请求返回前游标已经移动，结果被丢弃.
	ErrStale = errors.New("selection changed while the request was in flight")
	// ErrNoDataRoom 尚未选择数据室.
	ErrNoDataRoom = errors.New("no data room selected")
	// ErrOutsideDataRoom 文件夹或文件不属于当前数据室.
	ErrOutsideDataRoom = errors.New("item is not in the current data room")
	// ErrNotFound 按 id 取不到对象.
	ErrNotFound = errors.New("selection target not found")
)

// DataRoomSource 按 id 获取数据室，*client.DataRooms 满足该接口.
type DataRoomSource interface {
	Get(ctx context.Context, id uint) *client.DataRoom
}

// FolderSource 按 id 获取文件夹，*client.Folders 满足该接口.
type FolderSource interface {
	Get(ctx context.Context, id uint) *client.Folder
}

// Snapshot 某一时刻的选择状态，字段为副本.
type Snapshot struct {
	DataRoom   *client.DataRoom
	Folder     *client.Folder
	File       *client.ItemRef
	Generation uint64
}

// Cursor 导航游标，可并发使用.
type Cursor struct {
	rooms   DataRoomSource
	folders FolderSource

	mu     sync.RWMutex
	gen    uint64
	room   *client.DataRoom
	folder *client.Folder
	file   *client.ItemRef
}

// New 创建空游标.
func New(rooms DataRoomSource, folders FolderSource) *Cursor {
	return &Cursor{rooms: rooms, folders: folders}
}

// ForClient 使用 c 的访问器创建游标.
func ForClient(c *client.Client) *Cursor {
	return New(c.DataRooms(), c.Folders())
}

// Snapshot 返回当前状态.
func (c *Cursor) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		DataRoom:   clonePtr(c.room),
		Folder:     clonePtr(c.folder),
		File:       clonePtr(c.file),
		Generation: c.gen,
	}
}

// DataRoom 当前数据室，未选择时为 nil.
func (c *Cursor) DataRoom() *client.DataRoom {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return clonePtr(c.room)
}

// Folder 当前文件夹，位于数据室根目录时为 nil.
func (c *Cursor) Folder() *client.Folder {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return clonePtr(c.folder)
}

// File 当前文件.
func (c *Cursor) File() *client.ItemRef {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return clonePtr(c.file)
}

// Generation 当前 generation.
func (c *Cursor) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.gen
}

// set 在持锁状态下替换全部选择并递增 generation.
func (c *Cursor) set(room *client.DataRoom, folder *client.Folder, file *client.ItemRef) {
	c.room, c.folder, c.file = room, folder, file
	c.gen++
}

// SelectDataRoom 切换数据室并清空文件夹与文件.
func (c *Cursor) SelectDataRoom(room *client.DataRoom) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.set(clonePtr(room), nil, nil)
}

// OpenFolder 进入文件夹，数据室保持不变. 文件夹必须属于当前数据室.
func (c *Cursor) OpenFolder(folder *client.Folder) error {
	if folder == nil {
		return ErrNotFound
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.room == nil {
		return ErrNoDataRoom
	}

	if folder.ParentDataRoomID != c.room.ID {
		return ErrOutsideDataRoom
	}

	c.set(c.room, clonePtr(folder), nil)

	return nil
}

// SelectFile 按 id 选中当前文件夹（未打开文件夹时为数据室根目录）列出的文件，
// 保存的是列表中的引用. 不在列表中的文件返回 ErrNotFound.
func (c *Cursor) SelectFile(file client.ItemRef) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.room == nil {
		return ErrNoDataRoom
	}

	ref := findRef(fileChildren(c.room, c.folder), file.ID)
	if ref == nil {
		return fmt.Errorf("file %d: %w", file.ID, ErrNotFound)
	}

	c.set(c.room, c.folder, ref)

	return nil
}

// Clear 清空全部选择.
func (c *Cursor) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.set(nil, nil, nil)
}

// GoBack 返回上一级：嵌套文件夹回到父文件夹，顶层文件夹回到数据室根目录，
// 数据室根目录则清空全部选择. 父文件夹取不到时回到数据室根目录.
func (c *Cursor) GoBack(ctx context.Context) error {
	c.mu.Lock()

	switch {
	case c.folder == nil:
		c.set(nil, nil, nil)
		c.mu.Unlock()

		return nil
	case c.folder.ParentFolderID == nil:
		c.set(c.room, nil, nil)
		c.mu.Unlock()

		return nil
	}

	parentID, gen := *c.folder.ParentFolderID, c.gen
	c.mu.Unlock()

	parent := c.folders.Get(ctx, parentID)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		log.FromContext(ctx).Debug().Uint("folder_id", parentID).Msg("discard stale go back")
		return ErrStale
	}

	// 父文件夹已被删除或移到其他数据室时回到数据室根目录
	if parent != nil && (c.room == nil || parent.ParentDataRoomID != c.room.ID) {
		parent = nil
	}

	c.set(c.room, parent, nil)

	return nil
}

// Refresh 按 id 重新获取当前数据室与文件夹并原地替换. 取不到的对象会被清空.
func (c *Cursor) Refresh(ctx context.Context) error {
	c.mu.RLock()
	roomID, folderID, gen := idOf(c.room), folderIDOf(c.folder), c.gen
	c.mu.RUnlock()

	if roomID == 0 {
		return nil
	}

	var (
		room   *client.DataRoom
		folder *client.Folder
		g      errgroup.Group
	)

	g.Go(func() error {
		room = c.rooms.Get(ctx, roomID)
		return nil
	})

	if folderID != 0 {
		g.Go(func() error {
			folder = c.folders.Get(ctx, folderID)
			return nil
		})
	}

	_ = g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		log.FromContext(ctx).Debug().Uint("data_room_id", roomID).Msg("discard stale refresh")
		return ErrStale
	}

	if room == nil {
		c.set(nil, nil, nil)
		return nil
	}

	// 文件夹被移出当前数据室后不再属于选择
	if folder != nil && folder.ParentDataRoomID != room.ID {
		folder = nil
	}

	var file *client.ItemRef
	if c.file != nil {
		file = findRef(fileChildren(room, folder), c.file.ID)
	}

	c.set(room, folder, file)

	return nil
}

// fileChildren 返回 folder 的直接文件，folder 为 nil 时返回数据室根目录的文件.
func fileChildren(room *client.DataRoom, folder *client.Folder) []client.ItemRef {
	if folder != nil {
		return folder.ChildrenFiles
	}

	return room.Files
}

func idOf(r *client.DataRoom) uint {
	if r == nil {
		return 0
	}

	return r.ID
}

func folderIDOf(f *client.Folder) uint {
	if f == nil {
		return 0
	}

	return f.ID
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}

	v := *p

	return &v
}
